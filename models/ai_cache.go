package models

import (
	"time"

	"gorm.io/datatypes"
)

// AiCache stores one generated analysis per (user, barcode, profile version).
// Entries are never updated: a profile edit changes the version and makes the
// old rows unreachable by key. The daily sweep reclaims rows older than the
// hygiene cutoff. Rows are hard-deleted, so no gorm.Model here.
type AiCache struct {
	ID             uint           `gorm:"primarykey"`
	UserID         uint           `gorm:"uniqueIndex:idx_ai_cache_key;not null"`
	Barcode        string         `gorm:"uniqueIndex:idx_ai_cache_key;not null"`
	ProfileVersion uint           `gorm:"uniqueIndex:idx_ai_cache_key;not null"`
	AiResponse     datatypes.JSON `gorm:"not null"`
	CreatedAt      time.Time
}
