package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harentsoaR/medico-api/internal/apperr"
)

const DefaultNutritionixURL = "https://trackapi.nutritionix.com/v2"

// NutritionClient relays requests to the Nutritionix v2 API.
type NutritionClient struct {
	baseURL string
	appID   string
	apiKey  string
	http    *http.Client
}

func NewNutritionClient(baseURL, appID, apiKey string) *NutritionClient {
	if baseURL == "" {
		baseURL = DefaultNutritionixURL
	}
	return &NutritionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type InstantResults struct {
	Common  []json.RawMessage `json:"common"`
	Branded []json.RawMessage `json:"branded"`
}

// ExerciseQuery is the body of a natural-language exercise lookup.
type ExerciseQuery struct {
	Query    string  `json:"query"`
	Gender   string  `json:"gender,omitempty"`
	WeightKg float64 `json:"weight_kg,omitempty"`
	HeightCm float64 `json:"height_cm,omitempty"`
	Age      int     `json:"age,omitempty"`
}

func (n *NutritionClient) SearchInstant(ctx context.Context, query string) (*InstantResults, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("Search query is required")
	}
	var out InstantResults
	if err := n.do(ctx, http.MethodGet, "/search/instant", url.Values{"query": {query}}, nil, &out); err != nil {
		return nil, apperr.External("Failed to fetch food suggestions", err)
	}
	if out.Common == nil {
		out.Common = []json.RawMessage{}
	}
	if out.Branded == nil {
		out.Branded = []json.RawMessage{}
	}
	return &out, nil
}

func (n *NutritionClient) Nutrients(ctx context.Context, query string) ([]json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("Food query is required")
	}
	var out struct {
		Foods []json.RawMessage `json:"foods"`
	}
	if err := n.do(ctx, http.MethodPost, "/natural/nutrients", nil, map[string]string{"query": query}, &out); err != nil {
		return nil, apperr.External("Failed to fetch nutrition information", err)
	}
	if out.Foods == nil {
		out.Foods = []json.RawMessage{}
	}
	return out.Foods, nil
}

func (n *NutritionClient) Exercise(ctx context.Context, q ExerciseQuery) ([]json.RawMessage, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, apperr.Validation("Exercise description is required")
	}
	var out struct {
		Exercises []json.RawMessage `json:"exercises"`
	}
	if err := n.do(ctx, http.MethodPost, "/natural/exercise", nil, q, &out); err != nil {
		return nil, apperr.External("Failed to calculate exercise calories", err)
	}
	if out.Exercises == nil {
		out.Exercises = []json.RawMessage{}
	}
	return out.Exercises, nil
}

func (n *NutritionClient) ItemByUPC(ctx context.Context, upc string) (json.RawMessage, error) {
	if strings.TrimSpace(upc) == "" {
		return nil, apperr.Validation("UPC code is required")
	}
	var out struct {
		Foods []json.RawMessage `json:"foods"`
	}
	if err := n.do(ctx, http.MethodGet, "/search/item", url.Values{"upc": {upc}}, nil, &out); err != nil {
		return nil, apperr.External("Failed to fetch food item", err)
	}
	if len(out.Foods) == 0 {
		return nil, apperr.NotFound("Food item not found")
	}
	return out.Foods[0], nil
}

func (n *NutritionClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := n.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-app-id", n.appID)
	req.Header.Set("x-app-key", n.apiKey)

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Bytes("body", respBody).Msg("nutritionix error response")
		return fmt.Errorf("nutritionix %s returned %d", path, resp.StatusCode)
	}
	return json.Unmarshal(respBody, out)
}

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

type CalorieInput struct {
	Gender        string  `json:"gender"`
	Age           int     `json:"age"`
	HeightCm      float64 `json:"height_cm"`
	WeightKg      float64 `json:"weight_kg"`
	ActivityLevel string  `json:"activity_level"`
}

type CalorieResult struct {
	DailyCalories int64  `json:"daily_calories"`
	BMR           int64  `json:"bmr"`
	ActivityLevel string `json:"activity_level"`
}

// DailyCalories applies the Mifflin-St Jeor equation and an activity multiplier.
func DailyCalories(in CalorieInput) (*CalorieResult, error) {
	if in.Gender == "" || in.Age <= 0 || in.HeightCm <= 0 || in.WeightKg <= 0 || in.ActivityLevel == "" {
		return nil, apperr.Validation("All fields (gender, age, height, weight, activity_level) are required")
	}
	multiplier, ok := activityMultipliers[in.ActivityLevel]
	if !ok {
		return nil, apperr.Validation("activity_level must be one of sedentary, light, moderate, active, very_active")
	}

	bmr := 10*in.WeightKg + 6.25*in.HeightCm - 5*float64(in.Age)
	if strings.EqualFold(in.Gender, "male") {
		bmr += 5
	} else {
		bmr -= 161
	}
	return &CalorieResult{
		DailyCalories: int64(math.Round(bmr * multiplier)),
		BMR:           int64(math.Round(bmr)),
		ActivityLevel: in.ActivityLevel,
	}, nil
}
