package services

import (
	"context"

	"github.com/Samarth622/Foodlens-Backend/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Cache entries older than this are reclaimed by the sweep. Storage hygiene
// only — reachability is governed solely by the profile version key.
const cacheTTLDays = 30

// CronService owns the daily maintenance schedule. The sweep body is a plain
// method so tests call it directly with a pinned clock instead of waiting on
// the scheduler.
type CronService struct {
	db      *gorm.DB
	recipes *RecipeService
	cron    *cron.Cron
}

func NewCronService(db *gorm.DB, recipes *RecipeService) *CronService {
	return &CronService{db: db, recipes: recipes, cron: cron.New()}
}

// Start registers the daily midnight sweep and launches the scheduler.
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * *", s.RunDailySweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *CronService) Stop() {
	s.cron.Stop()
}

// RunDailySweep refreshes expired recipe batches and reclaims old analysis
// cache rows. Errors are logged, never propagated — the next run retries.
func (s *CronService) RunDailySweep() {
	logger.Infow("running daily recipe refresh")
	if err := s.recipes.RefreshExpired(context.Background()); err != nil {
		logger.Errorw("recipe sweep failed", "error", err)
	}
	s.ExpireOldCacheEntries()
}

// ExpireOldCacheEntries deletes analysis cache rows past the hygiene cutoff.
func (s *CronService) ExpireOldCacheEntries() {
	cutoff := s.recipes.now().AddDate(0, 0, -cacheTTLDays)
	res := s.db.Where("created_at < ?", cutoff).Delete(&models.AiCache{})
	if res.Error != nil {
		logger.Errorw("cache expiry failed", "error", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		logger.Infow("expired analysis cache entries", "count", res.RowsAffected)
	}
}
