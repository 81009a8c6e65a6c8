package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Samarth622/Foodlens-Backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecipeGenerator produces a personalized recipe batch for one profile.
type RecipeGenerator interface {
	GenerateRecipes(ctx context.Context, profile *HealthProfile) ([]Recipe, error)
}

// Recipe batches live this many days; expiry is pinned to midnight so the
// whole batch ages out on a day boundary.
const recipeTTLDays = 5

// RecipeService decides when a user's batch is stale and regenerates it.
// A batch is current iff now < expiresAt AND its profile version matches the
// user's. The clock is a field so tests can pin it.
type RecipeService struct {
	db     *gorm.DB
	gemini RecipeGenerator
	now    func() time.Time
}

func NewRecipeService(db *gorm.DB, gemini RecipeGenerator) *RecipeService {
	return &RecipeService{db: db, gemini: gemini, now: time.Now}
}

// GetLatestRecipes returns the user's current batch, regenerating first when
// none exists, the batch has expired, or the profile has moved on.
func (s *RecipeService) GetLatestRecipes(ctx context.Context, user *models.User) (*models.RecipeBatch, error) {
	var batch models.RecipeBatch
	err := s.db.
		Where("user_id = ?", user.ID).
		Order("created_at desc").
		First(&batch).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No batch yet, generate one.
	case err != nil:
		return nil, fmt.Errorf("load recipe batch: %w", err)
	default:
		now := s.now()
		if now.Before(batch.ExpiresAt) && batch.ProfileVersion == user.ProfileVersion {
			return &batch, nil
		}
	}

	return s.Refresh(ctx, user)
}

// Refresh deletes every existing batch for the user and synchronously
// generates and persists a fresh one.
func (s *RecipeService) Refresh(ctx context.Context, user *models.User) (*models.RecipeBatch, error) {
	recipes, err := s.gemini.GenerateRecipes(ctx, HealthProfileOf(user))
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(recipes)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal recipes: %v", ErrGenerationFailed, err)
	}

	if err := s.db.Where("user_id = ?", user.ID).Delete(&models.RecipeBatch{}).Error; err != nil {
		return nil, fmt.Errorf("delete stale batches: %w", err)
	}

	batch := models.RecipeBatch{
		UserID:         user.ID,
		ProfileVersion: user.ProfileVersion,
		Recipes:        datatypes.JSON(payload),
		ExpiresAt:      expiryFrom(s.now()),
	}
	if err := s.db.Create(&batch).Error; err != nil {
		return nil, fmt.Errorf("store recipe batch: %w", err)
	}

	logger.Infow("recipe batch generated", "userID", user.ID, "count", len(recipes), "expiresAt", batch.ExpiresAt)
	return &batch, nil
}

// RefreshExpired is the daily sweep body: regenerate every batch past its
// expiry. Deliberately time-only — profile drift is caught lazily by the
// on-demand path, and re-checking versions nightly would just burn AI calls.
// One user failing never stops the rest.
func (s *RecipeService) RefreshExpired(ctx context.Context) error {
	now := s.now()

	var expired []models.RecipeBatch
	if err := s.db.Where("expires_at <= ?", now).Find(&expired).Error; err != nil {
		return fmt.Errorf("find expired batches: %w", err)
	}
	if len(expired) == 0 {
		logger.Infow("no expired recipe batches")
		return nil
	}

	seen := make(map[uint]bool, len(expired))
	ids := make([]uint, 0, len(expired))
	for _, b := range expired {
		if !seen[b.UserID] {
			seen[b.UserID] = true
			ids = append(ids, b.UserID)
		}
	}

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return fmt.Errorf("load users for sweep: %w", err)
	}

	for i := range users {
		if _, err := s.Refresh(ctx, &users[i]); err != nil {
			logger.Errorw("recipe refresh failed", "userID", users[i].ID, "error", err)
			continue
		}
		logger.Infow("recipes refreshed", "userID", users[i].ID)
	}
	return nil
}

// expiryFrom pins the batch lifetime to midnight five days out.
func expiryFrom(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+recipeTTLDays, 0, 0, 0, 0, t.Location())
}
