package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Samarth622/Foodlens-Backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Named in-memory database so every test gets its own isolated store
	// while gorm's connection pool still sees the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TempUser{},
		&models.Product{},
		&models.AiCache{},
		&models.RecipeBatch{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()

	user := &models.User{
		Name:            "Test User",
		Email:           fmt.Sprintf("%s@example.com", strings.ToLower(strings.ReplaceAll(t.Name(), "/", "."))),
		Password:        "hashed",
		Gender:          "other",
		IsEmailVerified: true,
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Fakes for the pipeline seams.

type fakeDecoder struct {
	code string
	err  error
}

func (f *fakeDecoder) DecodeBarcode([]byte) (string, error) {
	return f.code, f.err
}

type fakeLookup struct {
	detail *ProductDetail
	err    error
	calls  int
}

func (f *fakeLookup) GetProductDetail(string) (*ProductDetail, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

type fakeGenerator struct {
	analysis *ProductAnalysis
	err      error
	calls    int
}

func (f *fakeGenerator) AnalyzeProduct(_ context.Context, _ *ProductDetail, _ *HealthProfile) (*ProductAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type fakeRecipeGenerator struct {
	recipes []Recipe
	err     error
	errFor  map[uint]error // per-profile-version failures for sweep tests
	calls   int
}

func (f *fakeRecipeGenerator) GenerateRecipes(_ context.Context, profile *HealthProfile) ([]Recipe, error) {
	f.calls++
	if f.errFor != nil {
		if err, ok := f.errFor[profile.ProfileVersion]; ok {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.recipes, nil
}

func testProductDetail() *ProductDetail {
	return &ProductDetail{
		Name:            "Choco Crunch Bar",
		Quantity:        "serving",
		IngredientsText: "wheat flour, sugar, cocoa butter",
		Nutrients: map[string]float64{
			"energy-kcal_serving": 180,
			"sugars_serving":      12,
			"proteins_serving":    4,
			"fat_serving":         8,
			"sodium_serving":      0.1,
		},
		ImageURL:  "https://images.example/choco.jpg",
		Allergens: "en:gluten",
	}
}

func testAnalysis() *ProductAnalysis {
	return &ProductAnalysis{
		BasicInfo: BasicInfo{
			ProductName:     "Choco Crunch Bar",
			IngredientsList: []string{"wheat flour", "sugar", "cocoa butter"},
			ServingSize:     "30g",
		},
		PersonalizedHealthAnalysis: HealthAnalysis{
			HealthImpactSummary: []string{"High in refined sugar"},
		},
		Recommendations: Recommendations{
			HealthyAlternatives:      []string{"Dark chocolate with >70% cocoa"},
			GeneralNutritionalAdvice: []string{"Prefer whole foods"},
		},
	}
}
