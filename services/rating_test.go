package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peanutBar() *ProductDetail {
	return &ProductDetail{
		Name:            "Peanut Crunch Bar",
		Quantity:        "40g",
		IngredientsText: "peanut flour, sugar, glucose syrup",
		Nutrients: map[string]float64{
			"energy-kcal_serving": 190,
			"sugars_serving":      14,
			"proteins_serving":    7,
			"fat_serving":         9,
			"sodium_serving":      0.05,
		},
	}
}

func TestApplyRatingPolicyAllergyAlwaysWins(t *testing.T) {
	// Even with pristine nutrients, a declared allergy matching an
	// ingredient must force Avoid with the allergy score.
	product := peanutBar()
	product.Nutrients = map[string]float64{
		"energy-kcal_serving": 50,
		"sugars_serving":      1,
		"proteins_serving":    3,
	}
	profile := &HealthProfile{Allergies: []string{"Peanut"}}

	analysis := &ProductAnalysis{}
	applyRatingPolicy(analysis, product, profile)

	rating := analysis.PersonalizedHealthAnalysis.OverallRating
	assert.Equal(t, RatingAvoid, rating.Type)
	assert.Equal(t, scoreAllergyAvoid, rating.Value)
	assert.Equal(t, 100, rating.OverAll)

	alerts := analysis.PersonalizedHealthAnalysis.AllergenAlerts
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "peanut")
}

func TestApplyRatingPolicyNoAllergyMessage(t *testing.T) {
	analysis := &ProductAnalysis{}
	applyRatingPolicy(analysis, peanutBar(), &HealthProfile{Allergies: []string{"shellfish"}})

	assert.Equal(t, []string{noAllergyMessage}, analysis.PersonalizedHealthAnalysis.AllergenAlerts)
	assert.Equal(t, RatingSafe, analysis.PersonalizedHealthAnalysis.OverallRating.Type)
	assert.Equal(t, scoreSafe, analysis.PersonalizedHealthAnalysis.OverallRating.Value)
}

func TestApplyRatingPolicyBackfillsBasicInfo(t *testing.T) {
	analysis := &ProductAnalysis{}
	applyRatingPolicy(analysis, peanutBar(), &HealthProfile{})

	assert.Equal(t, "Peanut Crunch Bar", analysis.BasicInfo.ProductName)
	assert.Equal(t, "40g", analysis.BasicInfo.ServingSize)
}

func TestDecideRatingDiabetesSugarLimit(t *testing.T) {
	profile := &HealthProfile{MedicalConditions: []string{"Type 2 Diabetes"}}

	over := decideRating(servingNutrients{Sugar: 16}, profile, false)
	assert.Equal(t, RatingAvoid, over.Type)
	assert.Equal(t, scoreConditionAvoid, over.Value)

	under := decideRating(servingNutrients{Sugar: 15}, profile, false)
	assert.Equal(t, RatingSafe, under.Type)
}

func TestDecideRatingHypertensionSodiumLimit(t *testing.T) {
	profile := &HealthProfile{MedicalConditions: []string{"hypertension"}}

	over := decideRating(servingNutrients{SodiumMg: 450}, profile, false)
	assert.Equal(t, RatingAvoid, over.Type)
	assert.Equal(t, scoreConditionAvoid, over.Value)

	under := decideRating(servingNutrients{SodiumMg: 250}, profile, false)
	assert.Equal(t, RatingSafe, under.Type)
}

func TestDecideRatingKidneyConditionLimits(t *testing.T) {
	profile := &HealthProfile{MedicalConditions: []string{"chronic kidney disease"}}

	assert.Equal(t, RatingAvoid, decideRating(servingNutrients{Protein: 25}, profile, false).Type)
	assert.Equal(t, RatingAvoid, decideRating(servingNutrients{Fat: 18}, profile, false).Type)
	assert.Equal(t, RatingAvoid, decideRating(servingNutrients{SodiumMg: 350}, profile, false).Type)
	assert.Equal(t, RatingSafe, decideRating(servingNutrients{Protein: 10, Fat: 5}, profile, false).Type)
}

func TestDecideRatingWeightLossCalorieBands(t *testing.T) {
	// Lose Weight with no activity level: target = 2000 * 0.85 = 1700 kcal.
	// 40% = 680, 15% = 255.
	profile := &HealthProfile{PrimaryGoal: "Lose Weight"}

	avoid := decideRating(servingNutrients{Calories: 700}, profile, false)
	assert.Equal(t, RatingAvoid, avoid.Type)
	assert.Equal(t, scoreConditionAvoid, avoid.Value)

	moderate := decideRating(servingNutrients{Calories: 300}, profile, false)
	assert.Equal(t, RatingModerate, moderate.Type)
	assert.Equal(t, scoreModerate, moderate.Value)

	safe := decideRating(servingNutrients{Calories: 200}, profile, false)
	assert.Equal(t, RatingSafe, safe.Type)
}

func TestDecideRatingWeightGainEmptyCalories(t *testing.T) {
	profile := &HealthProfile{PrimaryGoal: "Gain Muscle"}

	moderate := decideRating(servingNutrients{Calories: 60, Protein: 2}, profile, false)
	assert.Equal(t, RatingModerate, moderate.Type)

	// Enough protein rescues a light serving.
	safe := decideRating(servingNutrients{Calories: 60, Protein: 8}, profile, false)
	assert.Equal(t, RatingSafe, safe.Type)
}

func TestDecideRatingAllergyBeatsConditions(t *testing.T) {
	profile := &HealthProfile{
		Allergies:         []string{"peanut"},
		MedicalConditions: []string{"diabetes"},
	}
	rating := decideRating(servingNutrients{Sugar: 30}, profile, true)
	assert.Equal(t, scoreAllergyAvoid, rating.Value)
}

func TestAllergenAlertsMatchesTagsAndIngredients(t *testing.T) {
	product := &ProductDetail{
		IngredientsText: "wheat flour, milk solids",
		Allergens:       "en:gluten,en:milk",
	}
	profile := &HealthProfile{Allergies: []string{"Milk", "soy", " "}}

	alerts := allergenAlerts(product, profile)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "milk")
}

func TestExtractServingNutrientsFallbacks(t *testing.T) {
	// Per-serving wins over per-100g; sodium converts from grams to mg.
	product := &ProductDetail{Nutrients: map[string]float64{
		"energy-kcal_serving": 150,
		"energy-kcal_100g":    500,
		"sugars_100g":         22,
		"sodium_serving":      0.3,
	}}

	nut := extractServingNutrients(product)
	assert.Equal(t, 150.0, nut.Calories)
	assert.Equal(t, 22.0, nut.Sugar)
	assert.InDelta(t, 300.0, nut.SodiumMg, 0.001)
	assert.Zero(t, nut.Protein)
}

func TestEvaluateNutrientsFlags(t *testing.T) {
	profile := &HealthProfile{}
	eval := evaluateNutrients(servingNutrients{
		Calories: 180,
		Sugar:    16,
		Fat:      10,
		SodiumMg: 350,
	}, profile)

	assert.Equal(t, "isBad", eval["sugar"].DailyTargetEvaluation)
	assert.Equal(t, "isBad", eval["sodium"].DailyTargetEvaluation)
	assert.Equal(t, "isGood", eval["fat"].DailyTargetEvaluation)
	assert.Equal(t, "isGood", eval["calories"].DailyTargetEvaluation)

	require.NotNil(t, eval["sugar"].Value)
	assert.Equal(t, 16.0, *eval["sugar"].Value)

	// Absent nutrients report a nil value, never a fabricated zero.
	assert.Nil(t, eval["fiber"].Value)
}

func TestDailyCalorieTarget(t *testing.T) {
	assert.Equal(t, 2000.0, dailyCalorieTarget(&HealthProfile{}))
	assert.InDelta(t, 1800.0, dailyCalorieTarget(&HealthProfile{ActivityLevel: "Sedentary"}), 0.001)
	assert.InDelta(t, 1700.0, dailyCalorieTarget(&HealthProfile{PrimaryGoal: "Lose Weight"}), 0.001)
	assert.InDelta(t, 2760.0, dailyCalorieTarget(&HealthProfile{ActivityLevel: "Very Active", PrimaryGoal: "Gain Muscle"}), 0.001)
}
