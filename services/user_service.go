package services

import (
	"errors"
	"fmt"

	"github.com/Samarth622/Foodlens-Backend/models"

	"gorm.io/gorm"
)

// Profile edit input. Each section is an explicit allow-list: only the fields
// enumerated here are ever merged into the user row, everything else in the
// request body is ignored. Pointers distinguish "absent" from zero values.

type BasicInfoInput struct {
	Weight        *float64 `json:"weight"`
	Height        *float64 `json:"height"`
	Age           *int     `json:"age"`
	ActivityLevel *string  `json:"activityLevel"`
}

type HealthGoalsInput struct {
	PrimaryGoal  *string  `json:"primaryGoal"`
	TargetWeight *float64 `json:"targetWeight"`
}

type DietaryPreferencesInput struct {
	DietType        *string   `json:"dietType"`
	FoodPreferences *[]string `json:"foodPreferences"`
}

type MedicalInfoInput struct {
	MedicalConditions  *[]string `json:"medicalConditions"`
	CurrentMedications *string   `json:"currentMedications"`
	MedicalHistory     *string   `json:"medicalHistory"`
}

type LifestyleInput struct {
	SleepHours  *float64 `json:"sleepHours"`
	StressLevel *int     `json:"stressLevel"`
	WaterIntake *float64 `json:"waterIntake"`
}

type ProfileInput struct {
	BasicInfo          *BasicInfoInput          `json:"basicInfo"`
	HealthGoals        *HealthGoalsInput        `json:"healthGoals"`
	DietaryPreferences *DietaryPreferencesInput `json:"dietaryPreferences"`
	Allergies          *[]string                `json:"allergies"`
	MedicalInfo        *MedicalInfoInput        `json:"medicalInfo"`
	Lifestyle          *LifestyleInput          `json:"lifestyle"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) FindUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

// GetProfile returns the user's health profile only — no identity or
// credential fields.
func (s *UserService) GetProfile(userID uint) (map[string]interface{}, error) {
	user, err := s.FindUser(userID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"basicInfo": map[string]interface{}{
			"weight":        user.Weight,
			"height":        user.Height,
			"age":           user.Age,
			"activityLevel": user.ActivityLevel,
		},
		"healthGoals": map[string]interface{}{
			"primaryGoal":  user.PrimaryGoal,
			"targetWeight": user.TargetWeight,
		},
		"dietaryPreferences": map[string]interface{}{
			"dietType":        user.DietType,
			"foodPreferences": splitList(user.FoodPreferences),
		},
		"allergies": splitList(user.Allergies),
		"medicalInfo": map[string]interface{}{
			"medicalConditions":  splitList(user.MedicalConditions),
			"currentMedications": user.CurrentMedications,
			"medicalHistory":     user.MedicalHistory,
		},
		"lifestyle": map[string]interface{}{
			"sleepHours":  user.SleepHours,
			"stressLevel": user.StressLevel,
			"waterIntake": user.WaterIntake,
		},
		"profileCompletion": user.ProfileCompletion,
		"profileVersion":    user.ProfileVersion,
	}, nil
}

// EditProfile merges the allow-listed sections into the user and bumps
// ProfileVersion by exactly one. The version bump is what invalidates cached
// analyses and recipe batches for the old profile.
func (s *UserService) EditProfile(userID uint, input ProfileInput) (int, error) {
	user, err := s.FindUser(userID)
	if err != nil {
		return 0, err
	}

	if b := input.BasicInfo; b != nil {
		if b.Weight != nil {
			user.Weight = *b.Weight
		}
		if b.Height != nil {
			user.Height = *b.Height
		}
		if b.Age != nil {
			user.Age = *b.Age
		}
		if b.ActivityLevel != nil {
			user.ActivityLevel = *b.ActivityLevel
		}
	}
	if g := input.HealthGoals; g != nil {
		if g.PrimaryGoal != nil {
			user.PrimaryGoal = *g.PrimaryGoal
		}
		if g.TargetWeight != nil {
			user.TargetWeight = *g.TargetWeight
		}
	}
	if d := input.DietaryPreferences; d != nil {
		if d.DietType != nil {
			user.DietType = *d.DietType
		}
		if d.FoodPreferences != nil {
			user.FoodPreferences = joinList(*d.FoodPreferences)
		}
	}
	if input.Allergies != nil {
		user.Allergies = joinList(*input.Allergies)
	}
	if m := input.MedicalInfo; m != nil {
		if m.MedicalConditions != nil {
			user.MedicalConditions = joinList(*m.MedicalConditions)
		}
		if m.CurrentMedications != nil {
			user.CurrentMedications = *m.CurrentMedications
		}
		if m.MedicalHistory != nil {
			user.MedicalHistory = *m.MedicalHistory
		}
	}
	if l := input.Lifestyle; l != nil {
		if l.SleepHours != nil {
			user.SleepHours = *l.SleepHours
		}
		if l.StressLevel != nil {
			user.StressLevel = *l.StressLevel
		}
		if l.WaterIntake != nil {
			user.WaterIntake = *l.WaterIntake
		}
	}

	user.ProfileCompletion = profileCompletion(user)
	user.ProfileVersion++

	if err := s.db.Save(user).Error; err != nil {
		return 0, fmt.Errorf("save profile: %w", err)
	}
	return user.ProfileCompletion, nil
}

// profileCompletion scores 20 points per populated section, capped at 100.
func profileCompletion(user *models.User) int {
	completion := 0
	if user.Weight > 0 || user.Height > 0 || user.Age > 0 || user.ActivityLevel != "" {
		completion += 20
	}
	if user.PrimaryGoal != "" || user.TargetWeight > 0 {
		completion += 20
	}
	if user.DietType != "" || user.FoodPreferences != "" {
		completion += 20
	}
	if user.Allergies != "" {
		completion += 20
	}
	if user.MedicalConditions != "" || user.CurrentMedications != "" || user.MedicalHistory != "" {
		completion += 20
	}
	if user.SleepHours > 0 || user.StressLevel > 0 || user.WaterIntake > 0 {
		completion += 20
	}
	if completion > 100 {
		completion = 100
	}
	return completion
}
