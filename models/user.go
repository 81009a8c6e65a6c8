package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name            string `gorm:"not null"`
	Email           string `gorm:"uniqueIndex;not null"`
	Password        string `gorm:"not null"`
	Gender          string
	IsEmailVerified bool

	// Basic info
	Weight        float64
	Height        float64
	Age           int
	ActivityLevel string

	// Health goals
	PrimaryGoal  string
	TargetWeight float64

	// Dietary preferences
	DietType        string
	FoodPreferences string // comma separated

	Allergies string // comma separated

	// Medical info
	MedicalConditions  string // comma separated
	CurrentMedications string
	MedicalHistory     string

	// Lifestyle
	SleepHours  float64
	StressLevel int
	WaterIntake float64

	ProfileCompletion int

	// ProfileVersion increments by exactly one on every accepted profile
	// edit. Cached analyses and recipe batches are keyed on it and become
	// unreachable the moment it moves.
	ProfileVersion uint `gorm:"not null;default:0"`
}
