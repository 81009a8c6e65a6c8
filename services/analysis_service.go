package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Samarth622/Foodlens-Backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisGenerator produces a personalized analysis for one product.
type AnalysisGenerator interface {
	AnalyzeProduct(ctx context.Context, product *ProductDetail, profile *HealthProfile) (*ProductAnalysis, error)
}

// ProductLookup resolves a barcode to a normalized product record.
type ProductLookup interface {
	GetProductDetail(barcode string) (*ProductDetail, error)
}

// BarcodeDecoder extracts a product code from uploaded image bytes.
type BarcodeDecoder interface {
	DecodeBarcode(buf []byte) (string, error)
}

// AnalysisResult is the orchestrator's reply to the routing layer.
type AnalysisResult struct {
	Analysis *ProductAnalysis `json:"analysis"`
	Product  *models.Product  `json:"product,omitempty"`
	Cached   bool             `json:"-"`
}

// AnalysisService runs the end-to-end pipeline:
// decode → cache lookup → product fetch → generate → cache store.
// It is the only reader and writer of the analysis cache.
type AnalysisService struct {
	db       *gorm.DB
	barcodes BarcodeDecoder
	products ProductLookup
	gemini   AnalysisGenerator
}

func NewAnalysisService(db *gorm.DB, barcodes BarcodeDecoder, products ProductLookup, gemini AnalysisGenerator) *AnalysisService {
	return &AnalysisService{db: db, barcodes: barcodes, products: products, gemini: gemini}
}

// AnalyzeImage handles the upload path: decode the barcode, then analyze.
func (s *AnalysisService) AnalyzeImage(ctx context.Context, userID uint, imageBytes []byte) (*AnalysisResult, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("%w: no image uploaded", ErrInvalidInput)
	}

	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	barcode, err := s.barcodes.DecodeBarcode(imageBytes)
	if err != nil {
		return nil, err
	}
	if barcode == "" {
		return nil, ErrDecodeFailed
	}

	return s.analyzeBarcode(ctx, user, barcode)
}

// AnalyzeProduct handles the known-product path, skipping the decoder.
func (s *AnalysisService) AnalyzeProduct(ctx context.Context, userID uint, productID uint) (*AnalysisResult, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}

	result, err := s.analyzeBarcode(ctx, user, product.Barcode)
	if err != nil {
		return nil, err
	}
	result.Product = &product
	return result, nil
}

func (s *AnalysisService) analyzeBarcode(ctx context.Context, user *models.User, barcode string) (*AnalysisResult, error) {
	var cache models.AiCache
	err := s.db.
		Where("user_id = ? AND barcode = ? AND profile_version = ?", user.ID, barcode, user.ProfileVersion).
		First(&cache).Error
	if err == nil {
		var analysis ProductAnalysis
		if jsonErr := json.Unmarshal(cache.AiResponse, &analysis); jsonErr == nil {
			logger.Infow("analysis served from cache", "userID", user.ID, "barcode", barcode)
			return &AnalysisResult{Analysis: &analysis, Cached: true}, nil
		}
		// Unreadable cache payload: fall through and regenerate.
		logger.Warnw("discarding unreadable cache entry", "userID", user.ID, "barcode", barcode)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}

	detail, err := s.products.GetProductDetail(barcode)
	if err != nil {
		return nil, err
	}

	analysis, err := s.gemini.AnalyzeProduct(ctx, detail, HealthProfileOf(user))
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal analysis: %v", ErrGenerationFailed, err)
	}

	entry := models.AiCache{
		UserID:         user.ID,
		Barcode:        barcode,
		ProfileVersion: user.ProfileVersion,
		AiResponse:     datatypes.JSON(payload),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost an insert race to a concurrent request for the same
			// (user, barcode, version). Both analyses are equivalent, so
			// serving ours and dropping the write is fine.
			logger.Infow("analysis cache entry already present", "userID", user.ID, "barcode", barcode)
		} else {
			return nil, fmt.Errorf("cache store: %w", err)
		}
	}

	return &AnalysisResult{Analysis: analysis}, nil
}

func (s *AnalysisService) loadUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}
