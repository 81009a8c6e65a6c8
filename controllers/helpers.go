package controllers

import (
	"github.com/Samarth622/Foodlens-Backend/config"

	"gorm.io/gorm"
)

func dbHandle() *gorm.DB {
	return config.DB
}
