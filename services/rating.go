package services

import (
	"fmt"
	"strings"
)

// Deterministic rating policy. The AI reply supplies prose (impact summary,
// recommendations); everything with a contract — the overall rating, the
// per-nutrient flags and the allergen alerts — is computed here from the
// product and profile, in strict priority order, first match wins.

const (
	RatingAvoid    = "Avoid"
	RatingModerate = "Moderate"
	RatingSafe     = "Safe"

	scoreAllergyAvoid   = 20
	scoreConditionAvoid = 30
	scoreModerate       = 60
	scoreSafe           = 90
)

// Per-serving thresholds that flip a nutrient to "bad".
const (
	sugarLimitG   = 15.0
	fatLimitG     = 15.0
	sodiumLimitMg = 300.0
	proteinHighG  = 20.0
)

const noAllergyMessage = "No allergy detected based on user profile"

// servingNutrients is the per-serving slice of the product relevant to the
// policy, normalized to kcal/g/mg.
type servingNutrients struct {
	Calories float64
	Sugar    float64
	Protein  float64
	Fat      float64
	SodiumMg float64
	Carbs    float64
	Fiber    float64
}

func extractServingNutrients(product *ProductDetail) servingNutrients {
	n := product.Nutrients
	return servingNutrients{
		Calories: pick(n, "energy-kcal_serving", "energy-kcal_100g", "energy-kcal"),
		Sugar:    pick(n, "sugars_serving", "sugars_100g", "sugars"),
		Protein:  pick(n, "proteins_serving", "proteins_100g", "proteins"),
		Fat:      pick(n, "fat_serving", "fat_100g", "fat"),
		SodiumMg: pick(n, "sodium_serving", "sodium_100g", "sodium") * 1000, // OFF reports grams
		Carbs:    pick(n, "carbohydrates_serving", "carbohydrates_100g", "carbohydrates"),
		Fiber:    pick(n, "fiber_serving", "fiber_100g", "fiber"),
	}
}

// pick returns the first present key, so per-serving values win over
// per-100g fallbacks.
func pick(nutrients map[string]float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := nutrients[k]; ok {
			return v
		}
	}
	return 0
}

func applyRatingPolicy(analysis *ProductAnalysis, product *ProductDetail, profile *HealthProfile) {
	nut := extractServingNutrients(product)
	alerts := allergenAlerts(product, profile)

	rating := decideRating(nut, profile, len(alerts) > 0)

	if len(alerts) == 0 {
		// The contract requires an explicit message, never a bare empty list.
		alerts = []string{noAllergyMessage}
	}

	analysis.PersonalizedHealthAnalysis.OverallRating = rating
	analysis.PersonalizedHealthAnalysis.AllergenAlerts = alerts
	analysis.PersonalizedHealthAnalysis.KeyNutrientsEvaluation = evaluateNutrients(nut, profile)

	if analysis.BasicInfo.ProductName == "" {
		analysis.BasicInfo.ProductName = product.Name
	}
	if analysis.BasicInfo.ServingSize == "" {
		analysis.BasicInfo.ServingSize = product.Quantity
	}
}

func decideRating(nut servingNutrients, profile *HealthProfile, hasAllergenMatch bool) OverallRating {
	rate := func(value int, typ string) OverallRating {
		return OverallRating{Value: value, OverAll: 100, Type: typ}
	}

	// 1. Declared allergy matching an ingredient always wins.
	if hasAllergenMatch {
		return rate(scoreAllergyAvoid, RatingAvoid)
	}

	// 2–4. Medical conditions against hard nutrient limits.
	if hasCondition(profile, "diabetes") && nut.Sugar > sugarLimitG {
		return rate(scoreConditionAvoid, RatingAvoid)
	}
	if (hasCondition(profile, "hypertension") || hasCondition(profile, "blood pressure")) && nut.SodiumMg > sodiumLimitMg {
		return rate(scoreConditionAvoid, RatingAvoid)
	}
	if hasCondition(profile, "kidney") || hasCondition(profile, "liver") {
		if nut.Protein > proteinHighG || nut.Fat > fatLimitG || nut.SodiumMg > sodiumLimitMg {
			return rate(scoreConditionAvoid, RatingAvoid)
		}
	}

	target := dailyCalorieTarget(profile)

	// 5. Weight loss vs calorie load: above 40% of the daily target in one
	// serving is avoided outright, above 15% is moderated.
	if isWeightLossGoal(profile) && nut.Calories > 0 {
		if nut.Calories > 0.40*target {
			return rate(scoreConditionAvoid, RatingAvoid)
		}
		if nut.Calories > 0.15*target {
			return rate(scoreModerate, RatingModerate)
		}
	}

	// 6. Weight gain vs near-empty servings.
	if isWeightGainGoal(profile) && nut.Calories > 0 && nut.Calories < 100 && nut.Protein < 5 {
		return rate(scoreModerate, RatingModerate)
	}

	// 7. Nothing tripped.
	return rate(scoreSafe, RatingSafe)
}

// allergenAlerts matches each declared allergy against the ingredient text
// and the catalog allergen tags, case-insensitively.
func allergenAlerts(product *ProductDetail, profile *HealthProfile) []string {
	haystack := strings.ToLower(product.IngredientsText + " " + product.Allergens)
	var alerts []string
	for _, allergy := range profile.Allergies {
		needle := strings.ToLower(strings.TrimSpace(allergy))
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, needle) {
			alerts = append(alerts, fmt.Sprintf("Contains %s, which is in your declared allergies", needle))
		}
	}
	return alerts
}

func evaluateNutrients(nut servingNutrients, profile *HealthProfile) map[string]NutrientEvaluation {
	target := dailyCalorieTarget(profile)

	caloriesBad := nut.Calories > 0.25*target
	if isWeightLossGoal(profile) {
		caloriesBad = nut.Calories > 0.15*target
	}

	proteinBad := false
	if isWeightGainGoal(profile) {
		proteinBad = nut.Protein < 5
	}

	eval := func(present bool, value float64, unit string, bad bool) NutrientEvaluation {
		e := NutrientEvaluation{Unit: unit, DailyTargetEvaluation: "isGood"}
		if bad {
			e.DailyTargetEvaluation = "isBad"
		}
		if present {
			v := value
			e.Value = &v
		}
		return e
	}

	return map[string]NutrientEvaluation{
		"calories":      eval(nut.Calories > 0, nut.Calories, "kcal", caloriesBad),
		"sugar":         eval(nut.Sugar > 0, nut.Sugar, "g", nut.Sugar > sugarLimitG),
		"protein":       eval(nut.Protein > 0, nut.Protein, "g", proteinBad),
		"fat":           eval(nut.Fat > 0, nut.Fat, "g", nut.Fat > fatLimitG),
		"sodium":        eval(nut.SodiumMg > 0, nut.SodiumMg, "mg", nut.SodiumMg > sodiumLimitMg),
		"carbohydrates": eval(nut.Carbs > 0, nut.Carbs, "g", nut.Carbs > 50),
		"fiber":         eval(nut.Fiber > 0, nut.Fiber, "g", false),
	}
}

// dailyCalorieTarget estimates the user's daily calorie budget from activity
// level and goal. 2000 kcal baseline when nothing better is known.
func dailyCalorieTarget(profile *HealthProfile) float64 {
	target := 2000.0
	switch strings.ToLower(profile.ActivityLevel) {
	case "sedentary":
		target *= 0.9
	case "moderately active":
		target *= 1.1
	case "very active":
		target *= 1.2
	}
	if isWeightLossGoal(profile) {
		target *= 0.85
	} else if isWeightGainGoal(profile) {
		target *= 1.15
	}
	return target
}

func isWeightLossGoal(profile *HealthProfile) bool {
	return strings.EqualFold(profile.PrimaryGoal, "Lose Weight")
}

func isWeightGainGoal(profile *HealthProfile) bool {
	return strings.EqualFold(profile.PrimaryGoal, "Gain Muscle")
}

func hasCondition(profile *HealthProfile, condition string) bool {
	for _, c := range profile.MedicalConditions {
		if strings.Contains(strings.ToLower(c), condition) {
			return true
		}
	}
	return false
}
