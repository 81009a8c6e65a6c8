package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Samarth622/Foodlens-Backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testBarcode = "5901234123457"

func newAnalysisFixture(t *testing.T) (*AnalysisService, *gorm.DB, *models.User, *fakeLookup, *fakeGenerator) {
	t.Helper()
	db := newTestDB(t)
	user := createTestUser(t, db, nil)
	lookup := &fakeLookup{detail: testProductDetail()}
	gen := &fakeGenerator{analysis: testAnalysis()}
	svc := NewAnalysisService(db, &fakeDecoder{code: testBarcode}, lookup, gen)
	return svc, db, user, lookup, gen
}

func TestAnalyzeImageGeneratesThenServesFromCache(t *testing.T) {
	svc, db, user, lookup, gen := newAnalysisFixture(t)
	ctx := context.Background()
	image := []byte("fake image bytes")

	first, err := svc.AnalyzeImage(ctx, user.ID, image)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "Choco Crunch Bar", first.Analysis.BasicInfo.ProductName)
	assert.Equal(t, 1, gen.calls)

	var count int64
	require.NoError(t, db.Model(&models.AiCache{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	second, err := svc.AnalyzeImage(ctx, user.ID, image)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Analysis.BasicInfo.ProductName, second.Analysis.BasicInfo.ProductName)
	// Cache hit must not touch the product API or the model.
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, lookup.calls)
}

func TestAnalyzeImageProfileVersionMiss(t *testing.T) {
	svc, db, user, _, gen := newAnalysisFixture(t)
	ctx := context.Background()

	_, err := svc.AnalyzeImage(ctx, user.ID, []byte("img"))
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls)

	// A profile edit bumps the version; the old entry must not be served.
	user.ProfileVersion++
	require.NoError(t, db.Save(user).Error)

	result, err := svc.AnalyzeImage(ctx, user.ID, []byte("img"))
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, gen.calls)

	// Both versions now have their own entry.
	var count int64
	require.NoError(t, db.Model(&models.AiCache{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAnalyzeImageEmptyUpload(t *testing.T) {
	svc, _, user, _, _ := newAnalysisFixture(t)

	_, err := svc.AnalyzeImage(context.Background(), user.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzeImageDecodeMiss(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, nil)
	svc := NewAnalysisService(db, &fakeDecoder{code: ""}, &fakeLookup{}, &fakeGenerator{})

	_, err := svc.AnalyzeImage(context.Background(), user.ID, []byte("img"))
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestAnalyzeImageProductNotFound(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, nil)
	lookup := &fakeLookup{err: ErrProductNotFound}
	svc := NewAnalysisService(db, &fakeDecoder{code: testBarcode}, lookup, &fakeGenerator{})

	_, err := svc.AnalyzeImage(context.Background(), user.ID, []byte("img"))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAnalyzeImageGenerationFailureCachesNothing(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, nil)
	gen := &fakeGenerator{err: ErrGenerationFailed}
	svc := NewAnalysisService(db, &fakeDecoder{code: testBarcode}, &fakeLookup{detail: testProductDetail()}, gen)

	_, err := svc.AnalyzeImage(context.Background(), user.ID, []byte("img"))
	assert.ErrorIs(t, err, ErrGenerationFailed)

	var count int64
	require.NoError(t, db.Model(&models.AiCache{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAnalyzeImageUnknownUser(t *testing.T) {
	svc, _, _, _, _ := newAnalysisFixture(t)

	_, err := svc.AnalyzeImage(context.Background(), 9999, []byte("img"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyzeImageRegeneratesUnreadableCacheEntry(t *testing.T) {
	svc, db, user, _, gen := newAnalysisFixture(t)

	require.NoError(t, db.Create(&models.AiCache{
		UserID:         user.ID,
		Barcode:        testBarcode,
		ProfileVersion: user.ProfileVersion,
		AiResponse:     datatypes.JSON(`"not an analysis object`),
	}).Error)

	result, err := svc.AnalyzeImage(context.Background(), user.ID, []byte("img"))
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 1, gen.calls)
}

func TestAnalyzeProductKnownCatalogEntry(t *testing.T) {
	svc, db, user, _, _ := newAnalysisFixture(t)

	product := models.Product{Barcode: testBarcode, Name: "Choco Crunch Bar", Category: "snacks"}
	require.NoError(t, db.Create(&product).Error)

	result, err := svc.AnalyzeProduct(context.Background(), user.ID, product.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Product)
	assert.Equal(t, product.ID, result.Product.ID)
	assert.Equal(t, "Choco Crunch Bar", result.Analysis.BasicInfo.ProductName)
}

func TestAnalyzeProductMissingCatalogEntry(t *testing.T) {
	svc, _, user, _, _ := newAnalysisFixture(t)

	_, err := svc.AnalyzeProduct(context.Background(), user.ID, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAiCacheKeyUniqueness(t *testing.T) {
	db := newTestDB(t)

	entry := func() *models.AiCache {
		return &models.AiCache{
			UserID:         1,
			Barcode:        testBarcode,
			ProfileVersion: 3,
			AiResponse:     datatypes.JSON(`{}`),
		}
	}

	require.NoError(t, db.Create(entry()).Error)

	err := db.Create(entry()).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// A different profile version is a distinct key.
	bumped := entry()
	bumped.ProfileVersion = 4
	assert.NoError(t, db.Create(bumped).Error)
}

func TestCachedPayloadRoundTrip(t *testing.T) {
	svc, db, user, _, _ := newAnalysisFixture(t)

	_, err := svc.AnalyzeImage(context.Background(), user.ID, []byte("img"))
	require.NoError(t, err)

	var entry models.AiCache
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, user.ID, entry.UserID)
	assert.Equal(t, testBarcode, entry.Barcode)

	var stored ProductAnalysis
	require.NoError(t, json.Unmarshal(entry.AiResponse, &stored))
	assert.Equal(t, "Choco Crunch Bar", stored.BasicInfo.ProductName)
	assert.Equal(t, []string{"High in refined sugar"}, stored.PersonalizedHealthAnalysis.HealthImpactSummary)
}
