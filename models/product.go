package models

import (
	"gorm.io/gorm"
)

// Product is a catalog row for previously-seen products, used by the
// category listing and the analyze-by-id path. The live nutrition data
// always comes from Open Food Facts at analysis time.
type Product struct {
	gorm.Model
	Barcode  string `gorm:"uniqueIndex;not null" json:"barcode"`
	Name     string `gorm:"not null" json:"name"`
	Brand    string `json:"brand"`
	Category string `gorm:"index" json:"category"`
	ImageURL string `json:"image_url"`
}
