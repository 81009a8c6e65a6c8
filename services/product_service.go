package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/Samarth622/Foodlens-Backend/models"

	"gorm.io/gorm"
)

// ProductDetail is the normalized Open Food Facts snapshot handed to the
// analysis generator. Fetched fresh per request and treated as immutable.
type ProductDetail struct {
	Name            string             `json:"name"`
	Quantity        string             `json:"quantity"`
	IngredientsText string             `json:"ingredients_text"`
	Nutrients       map[string]float64 `json:"nutrients"`
	ImageURL        string             `json:"image_url"`
	Allergens       string             `json:"allergens"`
}

type ProductService struct {
	db      *gorm.DB
	baseURL string
	client  *http.Client
}

func NewProductService(db *gorm.DB) *ProductService {
	base := os.Getenv("OPENFOODFACTS_URL")
	if base == "" {
		base = "https://world.openfoodfacts.org"
	}
	return &ProductService{
		db:      db,
		baseURL: base,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type offProductResponse struct {
	Product *struct {
		ProductName      string                 `json:"product_name"`
		NutritionDataPer string                 `json:"nutrition_data_per"`
		IngredientsText  string                 `json:"ingredients_text"`
		Nutriments       map[string]interface{} `json:"nutriments"`
		ImageURL         string                 `json:"image_url"`
		Allergens        string                 `json:"allergens"`
	} `json:"product"`
}

// GetProductDetail resolves a barcode against Open Food Facts. Every failure
// mode — upstream 4xx, no response, incomplete data — collapses to
// ErrProductNotFound for the caller; the distinction only matters in the logs.
// No caching here, the fetch is always live.
func (s *ProductService) GetProductDetail(barcode string) (*ProductDetail, error) {
	if barcode == "" {
		return nil, fmt.Errorf("%w: empty barcode", ErrProductNotFound)
	}

	u := fmt.Sprintf("%s/api/v2/product/%s", s.baseURL, url.PathEscape(barcode))
	resp, err := s.client.Get(u)
	if err != nil {
		logger.Errorw("no response from Open Food Facts", "barcode", barcode, "error", err)
		return nil, fmt.Errorf("%w: catalog unreachable", ErrProductNotFound)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Errorw("failed to read Open Food Facts response", "barcode", barcode, "error", err)
		return nil, fmt.Errorf("%w: catalog read failed", ErrProductNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warnw("Open Food Facts API error", "status", resp.StatusCode, "barcode", barcode)
		return nil, fmt.Errorf("%w: catalog status %d", ErrProductNotFound, resp.StatusCode)
	}

	var pr offProductResponse
	if err := json.Unmarshal(body, &pr); err != nil || pr.Product == nil {
		logger.Warnw("product missing from Open Food Facts", "barcode", barcode)
		return nil, ErrProductNotFound
	}

	p := pr.Product
	detail := &ProductDetail{
		Name:            p.ProductName,
		Quantity:        p.NutritionDataPer,
		IngredientsText: p.IngredientsText,
		Nutrients:       numericNutrients(p.Nutriments),
		ImageURL:        p.ImageURL,
		Allergens:       p.Allergens,
	}

	// Name and nutrient data are the minimum the analysis needs; anything
	// less is treated the same as a miss.
	if detail.Name == "" || len(detail.Nutrients) == 0 {
		logger.Warnw("product detail incomplete", "barcode", barcode, "name", detail.Name)
		return nil, fmt.Errorf("%w: incomplete product data", ErrProductNotFound)
	}

	return detail, nil
}

// numericNutrients keeps only the numeric entries of the nutriments blob.
// Open Food Facts mixes numbers with unit strings in the same map.
func numericNutrients(raw map[string]interface{}) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}

// ListByCategory returns catalog rows for a category plus the total count.
func (s *ProductService) ListByCategory(category string) ([]models.Product, int64, error) {
	if category == "" {
		return nil, 0, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	var products []models.Product
	if err := s.db.Where("category = ?", category).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("fetch products by category: %w", err)
	}

	var total int64
	if err := s.db.Model(&models.Product{}).Where("category = ?", category).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products by category: %w", err)
	}

	return products, total, nil
}

// GetProduct loads a single catalog row by id.
func (s *ProductService) GetProduct(id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &product, nil
}
