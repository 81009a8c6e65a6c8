package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Samarth622/Foodlens-Backend/config"
	"github.com/Samarth622/Foodlens-Backend/models"
	"github.com/Samarth622/Foodlens-Backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const otpValidity = 10 * time.Minute

// RegisterUser starts a registration: the account is parked as a TempUser
// until its OTP is verified. Re-registering the same email before
// verification just replaces the pending entry.
func RegisterUser(name, email, password, gender string) error {
	var existing models.User
	err := config.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return errors.New("an account with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	otp := utils.GenerateOTP()
	temp := models.TempUser{
		Email:    email,
		Name:     name,
		Password: hashed,
		Gender:   gender,
		OTP:      otp,
		ExpireAt: time.Now().Add(otpValidity),
	}

	err = config.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		UpdateAll: true,
	}).Create(&temp).Error
	if err != nil {
		return fmt.Errorf("store pending registration: %w", err)
	}

	if err := utils.SendOTPEmail(email, name, otp); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// VerifyOTP finishes a registration and returns the created user.
func VerifyOTP(email, otp string) (*models.User, error) {
	var temp models.TempUser
	if err := config.DB.Where("email = ?", email).First(&temp).Error; err != nil {
		return nil, errors.New("invalid email or session expired")
	}

	if time.Now().After(temp.ExpireAt) {
		return nil, errors.New("OTP expired, please request a new one")
	}
	if temp.OTP != otp {
		return nil, errors.New("invalid OTP")
	}

	var existing models.User
	if err := config.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		config.DB.Delete(&temp)
		return &existing, nil
	}

	user := models.User{
		Name:            temp.Name,
		Email:           temp.Email,
		Password:        temp.Password,
		Gender:          temp.Gender,
		IsEmailVerified: true,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	config.DB.Delete(&temp)
	return &user, nil
}

// ResendOTP issues a new code for a pending registration.
func ResendOTP(email string) error {
	var temp models.TempUser
	if err := config.DB.Where("email = ?", email).First(&temp).Error; err != nil {
		return errors.New("no pending registration found for this email, please register again")
	}

	temp.OTP = utils.GenerateOTP()
	temp.ExpireAt = time.Now().Add(otpValidity)
	if err := config.DB.Save(&temp).Error; err != nil {
		return err
	}

	return utils.SendOTPEmail(temp.Email, temp.Name, temp.OTP)
}

// AuthenticateUser validates credentials and returns a signed token.
func AuthenticateUser(email, password string) (string, *models.User, error) {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return "", nil, errors.New("an account with this email does not exist")
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, errors.New("invalid email or password")
	}

	token, err := utils.GenerateJWT(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}
