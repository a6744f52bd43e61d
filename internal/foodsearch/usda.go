package foodsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultUSDABaseURL = "https://api.nal.usda.gov/fdc/v1"
	searchPageSize     = 15
)

// USDA queries FoodData Central.
type USDA struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewUSDA(apiKey string) *USDA {
	return &USDA{
		BaseURL:    DefaultUSDABaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type usdaSearchResponse struct {
	Foods []struct {
		FdcID         int64  `json:"fdcId"`
		Description   string `json:"description"`
		BrandOwner    string `json:"brandOwner"`
		DataType      string `json:"dataType"`
		FoodNutrients []struct {
			NutrientID int     `json:"nutrientId"`
			Value      float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

type usdaFoodResponse struct {
	FdcID         int64  `json:"fdcId"`
	Description   string `json:"description"`
	FoodNutrients []struct {
		Nutrient struct {
			ID int `json:"id"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

// Search returns up to 15 foods matching query.
func (u *USDA) Search(ctx context.Context, query string) ([]Summary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(searchPageSize))
	params.Set("api_key", u.APIKey)

	var parsed usdaSearchResponse
	if err := getJSON(ctx, u.HTTPClient, u.BaseURL+"/foods/search?"+params.Encode(), &parsed); err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(parsed.Foods))
	for _, f := range parsed.Foods {
		values := make(map[int]float64, len(f.FoodNutrients))
		for _, n := range f.FoodNutrients {
			values[n.NutrientID] = n.Value
		}
		out = append(out, Summary{
			FdcID:    f.FdcID,
			Name:     f.Description,
			Brand:    f.BrandOwner,
			DataType: f.DataType,
			Per100g:  per100gFrom(values),
		})
	}
	return out, nil
}

// Details returns the per-100 g facts of one food.
func (u *USDA) Details(ctx context.Context, fdcID int64) (Details, error) {
	if fdcID <= 0 {
		return Details{}, fmt.Errorf("%w: fdcId must be positive", ErrInvalidInput)
	}
	params := url.Values{}
	params.Set("api_key", u.APIKey)
	endpoint := fmt.Sprintf("%s/food/%d?%s", u.BaseURL, fdcID, params.Encode())

	var parsed usdaFoodResponse
	if err := getJSON(ctx, u.HTTPClient, endpoint, &parsed); err != nil {
		return Details{}, err
	}
	values := make(map[int]float64, len(parsed.FoodNutrients))
	for _, n := range parsed.FoodNutrients {
		// First occurrence wins.
		if _, ok := values[n.Nutrient.ID]; !ok {
			values[n.Nutrient.ID] = n.Amount
		}
	}
	return Details{
		FdcID:   fdcID,
		Name:    parsed.Description,
		Per100g: per100gFrom(values),
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nutrition-backend/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: parse response: %v", ErrUpstream, err)
	}
	return nil
}
