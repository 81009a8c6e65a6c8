package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Typed schema for the personalized product analysis. Field names follow the
// public API contract consumed by the app.

type BasicInfo struct {
	ProductName     string   `json:"productName"`
	IngredientsList []string `json:"ingredientsList"`
	ServingSize     string   `json:"servingSize"`
}

type OverallRating struct {
	Value   int    `json:"value"`
	OverAll int    `json:"overAll"`
	Type    string `json:"type"` // Avoid | Moderate | Safe
}

type NutrientEvaluation struct {
	Value                 *float64 `json:"value"`
	Unit                  string   `json:"unit"`
	DailyTargetEvaluation string   `json:"dailyTargetEvaluation"` // isGood | isBad
}

type HealthAnalysis struct {
	OverallRating          OverallRating                 `json:"overallRating"`
	KeyNutrientsEvaluation map[string]NutrientEvaluation `json:"keyNutrientsEvaluation"`
	AllergenAlerts         []string                      `json:"allergenAlerts"`
	HealthImpactSummary    []string                      `json:"healthImpactSummary"`
}

type PortionAdvice struct {
	RecommendedServing string `json:"recommendedServing"`
	TimingSuggestion   string `json:"timingSuggestion"`
	Frequency          string `json:"frequency"`
}

type Recommendations struct {
	HealthyAlternatives      []string      `json:"healthyAlternatives"`
	PortionAdvice            PortionAdvice `json:"portionAdvice"`
	GeneralNutritionalAdvice []string      `json:"generalNutritionalAdvice"`
}

type ProductAnalysis struct {
	BasicInfo                  BasicInfo       `json:"basicInfo"`
	PersonalizedHealthAnalysis HealthAnalysis  `json:"personalizedHealthAnalysis"`
	Recommendations            Recommendations `json:"recommendations"`
}

// Recipe schema, as served to the app.

type RecipeBasicDetails struct {
	Name        string  `json:"nameOfReceipe"`
	Description string  `json:"descriptionOfReceipe"`
	TimeToMake  float64 `json:"timeToMake"`
	Servings    float64 `json:"noOfPersonServing"`
	Calories    float64 `json:"noOfCaleories"`
	Difficulty  string  `json:"difficultyToMake"`
}

type RecipeStep struct {
	StepName        string  `json:"stepName"`
	StepDescription string  `json:"stepDescription"`
	TimeUsedByStep  float64 `json:"timeUsedByStep"`
}

type MacroNutrient struct {
	NutrientName          string  `json:"nutrientName"`
	PresentPerServing     float64 `json:"presentPerServing"`
	UnitOfNutrientPresent string  `json:"unitOfNutrientPresent"`
}

type VitaminMineral struct {
	Name          string  `json:"name"`
	PresentNumber float64 `json:"presentNumber"`
}

type RecipeNutrition struct {
	Macronutrients      []MacroNutrient  `json:"macronutrients"`
	VitaminsAndMinerals []VitaminMineral `json:"vitaminsAndMinerals"`
	HealthyBenefits     []string         `json:"healthyBenifits"`
}

type StorageAndServingTips struct {
	StorageInstructions string `json:"storageInstructions"`
	ServingSuggestions  string `json:"servingSuggestions"`
}

type RecipeTips struct {
	Variations            []string              `json:"receipeVariation"`
	StorageAndServingTips StorageAndServingTips `json:"storageAndServingTips"`
}

type Recipe struct {
	BasicDetails RecipeBasicDetails `json:"basicDetails"`
	Ingredients  []string           `json:"ingredients"`
	Instructions []RecipeStep       `json:"instructions"`
	Nutrition    RecipeNutrition    `json:"nutrition"`
	TipsAndInfo  RecipeTips         `json:"tipsAndInfo"`
}

// RecipeBatchSize is the fixed number of recipes requested per generation.
const RecipeBatchSize = 6

type GeminiService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewGeminiService() *GeminiService {
	base := os.Getenv("GEMINI_API_URL")
	if base == "" {
		base = "https://generativelanguage.googleapis.com"
	}
	return &GeminiService{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: base,
		model:   "gemini-2.0-flash",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

const analysisPromptTemplate = `You are a nutrition and health assistant.
Analyze the product for the given user profile.
Respond with **only valid JSON**, no extra text.

Schema to follow:

{
    "basicInfo": {
        "productName": "string",
        "ingredientsList": ["string"],
        "servingSize": "string"
    },
    "personalizedHealthAnalysis": {
        "overallRating": {"value": number, "overAll": 100, "type": "Avoid | Moderate | Safe"},
        "keyNutrientsEvaluation": {
            "calories": {"value": number|null, "unit": "kcal", "dailyTargetEvaluation": "isGood|isBad"},
            "sugar": {"value": number|null, "unit": "g", "dailyTargetEvaluation": "isGood|isBad"},
            "protein": {"value": number|null, "unit": "g", "dailyTargetEvaluation": "isGood|isBad"},
            "fat": {"value": number|null, "unit": "g", "dailyTargetEvaluation": "isGood|isBad"},
            "sodium": {"value": number|null, "unit": "mg", "dailyTargetEvaluation": "isGood|isBad"},
            "carbohydrates": {"value": number|null, "unit": "g", "dailyTargetEvaluation": "isGood|isBad"},
            "fiber": {"value": number|null, "unit": "g", "dailyTargetEvaluation": "isGood|isBad"}
        },
        "allergenAlerts": ["string"],
        "healthImpactSummary": ["string"]
    },
    "recommendations": {
        "healthyAlternatives": ["string"],
        "portionAdvice": {"recommendedServing": "string", "timingSuggestion": "string", "frequency": "string"},
        "generalNutritionalAdvice": ["string"]
    }
}

User Profile: %s
Product: %s`

// AnalyzeProduct asks Gemini for a personalized analysis and then applies the
// deterministic rating policy on top of the parsed reply, so the rating,
// nutrient flags and allergen alerts never depend on model mood.
func (g *GeminiService) AnalyzeProduct(ctx context.Context, product *ProductDetail, profile *HealthProfile) (*ProductAnalysis, error) {
	if product == nil || profile == nil {
		return nil, fmt.Errorf("%w: missing product or profile", ErrGenerationFailed)
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal profile: %v", ErrGenerationFailed, err)
	}
	productJSON, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal product: %v", ErrGenerationFailed, err)
	}

	prompt := fmt.Sprintf(analysisPromptTemplate, profileJSON, productJSON)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(text)
	if err != nil {
		logger.Warnw("gemini analysis reply is not valid JSON", "preview", preview(text))
		return nil, fmt.Errorf("%w: unparseable model reply", ErrGenerationFailed)
	}

	var analysis ProductAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		logger.Warnw("gemini analysis reply does not match schema", "error", err)
		return nil, fmt.Errorf("%w: reply does not match schema", ErrGenerationFailed)
	}

	applyRatingPolicy(&analysis, product, profile)

	logger.Infow("gemini analysis generated", "product", product.Name)
	return &analysis, nil
}

const recipePromptTemplate = `You are "FoodLens AI", an expert Indian nutrition and recipe assistant.

Your task:
Generate exactly **%d Indian-style food recipes** personalized for this user:
%s

### STRICT OUTPUT RULES:
- Respond **only** with valid JSON following the schema below.
- Do NOT include markdown, comments, explanations, or any non-JSON text.
- Output must be a single valid JSON array of %d recipes.
- Ensure all numeric fields are realistic and non-negative.
- Do not include null, undefined, or placeholder values.
- If unsure, output an empty array [].

### STRICT SCHEMA:
[
  {
    "basicDetails": {
      "nameOfReceipe": "string",
      "descriptionOfReceipe": "string",
      "timeToMake": number,
      "noOfPersonServing": number,
      "noOfCaleories": number,
      "difficultyToMake": "Easy|Medium|Hard"
    },
    "ingredients": ["string"],
    "instructions": [
      {"stepName": "string", "stepDescription": "string", "timeUsedByStep": number}
    ],
    "nutrition": {
      "macronutrients": [
        {"nutrientName": "Protein", "presentPerServing": number, "unitOfNutrientPresent": "g"},
        {"nutrientName": "Carbohydrate", "presentPerServing": number, "unitOfNutrientPresent": "g"},
        {"nutrientName": "Fiber", "presentPerServing": number, "unitOfNutrientPresent": "g"},
        {"nutrientName": "Sugar", "presentPerServing": number, "unitOfNutrientPresent": "g"},
        {"nutrientName": "Sodium", "presentPerServing": number, "unitOfNutrientPresent": "mg"},
        {"nutrientName": "Fat", "presentPerServing": number, "unitOfNutrientPresent": "g"}
      ],
      "vitaminsAndMinerals": [
        {"name": "Vitamin A", "presentNumber": number},
        {"name": "Vitamin C", "presentNumber": number},
        {"name": "Iron", "presentNumber": number},
        {"name": "Calcium", "presentNumber": number}
      ],
      "healthyBenifits": ["string"]
    },
    "tipsAndInfo": {
      "receipeVariation": ["string"],
      "storageAndServingTips": {
        "storageInstructions": "string",
        "servingSuggestions": "string"
      }
    }
  }
]

Now output only the valid JSON array for the %d recipes, nothing else.`

// GenerateRecipes produces the fixed-size personalized recipe batch.
// An empty array is a valid (if unhelpful) reply; only malformed or absent
// output is a failure.
func (g *GeminiService) GenerateRecipes(ctx context.Context, profile *HealthProfile) ([]Recipe, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: missing profile", ErrGenerationFailed)
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: marshal profile: %v", ErrGenerationFailed, err)
	}

	prompt := fmt.Sprintf(recipePromptTemplate, RecipeBatchSize, profileJSON, RecipeBatchSize, RecipeBatchSize)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(text)
	if err != nil {
		logger.Warnw("gemini recipe reply is not valid JSON", "preview", preview(text))
		return nil, fmt.Errorf("%w: unparseable model reply", ErrGenerationFailed)
	}

	var recipes []Recipe
	if err := json.Unmarshal([]byte(raw), &recipes); err != nil {
		logger.Warnw("gemini recipe reply does not match schema", "error", err)
		return nil, fmt.Errorf("%w: reply does not match schema", ErrGenerationFailed)
	}

	return recipes, nil
}

// generate performs one generateContent call and returns the raw reply text.
func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrGenerationFailed, err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Errorw("gemini request failed", "error", err)
		return "", fmt.Errorf("%w: request failed", ErrGenerationFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrGenerationFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Errorw("gemini API error", "status", resp.StatusCode, "body", preview(string(respBody)))
		return "", fmt.Errorf("%w: gemini status %d", ErrGenerationFailed, resp.StatusCode)
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrGenerationFailed, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		logger.Warnw("gemini returned no candidates")
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	text := out.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return text, nil
}

var (
	codeFenceRe = regexp.MustCompile("(?i)```(?:json)?")
	leadProseRe = regexp.MustCompile(`(?i)^\s*here[^:{\[]*:`)
)

// extractJSON recovers a JSON document from a model reply that may be wrapped
// in code fences or leading prose. Tries a direct parse first, then falls
// back to the outermost bracket/brace span. Anything else is unrecoverable.
func extractJSON(text string) (string, error) {
	clean := codeFenceRe.ReplaceAllString(text, "")
	clean = leadProseRe.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)

	if json.Valid([]byte(clean)) {
		return clean, nil
	}

	start := strings.Index(clean, "[")
	end := strings.LastIndex(clean, "]")
	if start == -1 {
		start = strings.Index(clean, "{")
	}
	if end == -1 {
		end = strings.LastIndex(clean, "}")
	}
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON document found")
	}

	candidate := clean[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", fmt.Errorf("extracted span is not valid JSON")
	}
	return candidate, nil
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
