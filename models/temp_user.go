package models

import "time"

// TempUser holds a pending registration until its OTP is verified.
// Hard-deleted on successful verification, so no soft-delete column.
type TempUser struct {
	ID        uint   `gorm:"primarykey"`
	Email     string `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"not null"`
	Password  string `gorm:"not null"`
	Gender    string
	OTP       string    `gorm:"not null"`
	ExpireAt  time.Time `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
