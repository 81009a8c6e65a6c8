package services

import (
	"strings"

	"github.com/Samarth622/Foodlens-Backend/models"
)

// HealthProfile is the health-relevant projection of a user handed to the
// AI generators and the rating policy. Identity and credential fields never
// appear here, so they cannot leak into a prompt.
type HealthProfile struct {
	Gender             string   `json:"gender,omitempty"`
	Weight             float64  `json:"weight,omitempty"`
	Height             float64  `json:"height,omitempty"`
	Age                int      `json:"age,omitempty"`
	ActivityLevel      string   `json:"activityLevel,omitempty"`
	PrimaryGoal        string   `json:"primaryGoal,omitempty"`
	TargetWeight       float64  `json:"targetWeight,omitempty"`
	DietType           string   `json:"dietType,omitempty"`
	FoodPreferences    []string `json:"foodPreferences,omitempty"`
	Allergies          []string `json:"allergies,omitempty"`
	MedicalConditions  []string `json:"medicalConditions,omitempty"`
	CurrentMedications string   `json:"currentMedications,omitempty"`
	MedicalHistory     string   `json:"medicalHistory,omitempty"`
	SleepHours         float64  `json:"sleepHours,omitempty"`
	StressLevel        int      `json:"stressLevel,omitempty"`
	WaterIntake        float64  `json:"waterIntake,omitempty"`

	ProfileVersion uint `json:"-"`
}

func HealthProfileOf(user *models.User) *HealthProfile {
	return &HealthProfile{
		Gender:             user.Gender,
		Weight:             user.Weight,
		Height:             user.Height,
		Age:                user.Age,
		ActivityLevel:      user.ActivityLevel,
		PrimaryGoal:        user.PrimaryGoal,
		TargetWeight:       user.TargetWeight,
		DietType:           user.DietType,
		FoodPreferences:    splitList(user.FoodPreferences),
		Allergies:          splitList(user.Allergies),
		MedicalConditions:  splitList(user.MedicalConditions),
		CurrentMedications: user.CurrentMedications,
		MedicalHistory:     user.MedicalHistory,
		SleepHours:         user.SleepHours,
		StressLevel:        user.StressLevel,
		WaterIntake:        user.WaterIntake,
		ProfileVersion:     user.ProfileVersion,
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinList(items []string) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return strings.Join(out, ",")
}
