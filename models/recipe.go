package models

import (
	"time"

	"gorm.io/datatypes"
)

// RecipeBatch is one generated set of recipes for a user. At most one batch
// per user is current; superseded batches are hard-deleted before a new one
// is inserted, never updated in place.
type RecipeBatch struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	UserID         uint           `gorm:"index;not null" json:"userId"`
	ProfileVersion uint           `gorm:"not null" json:"profileVersion"`
	Recipes        datatypes.JSON `gorm:"not null" json:"recipes"`
	ExpiresAt      time.Time      `gorm:"index;not null" json:"expiresAt"`
	CreatedAt      time.Time      `json:"createdAt"`
}
