package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// LinearRegressor evaluates an exported linear model:
// price = intercept + sum(coefficients[i] * features[i]).
type LinearRegressor struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func NewLinearRegressor(intercept float64, coefficients []float64) (*LinearRegressor, error) {
	if len(coefficients) != FeatureCount {
		return nil, fmt.Errorf("linear artifact has %d coefficients, expected %d", len(coefficients), FeatureCount)
	}
	return &LinearRegressor{Intercept: intercept, Coefficients: append([]float64(nil), coefficients...)}, nil
}

func LoadLinearRegressor(path string) (*LinearRegressor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading linear artifact: %w", err)
	}

	var raw LinearRegressor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing linear artifact: %w", err)
	}

	return NewLinearRegressor(raw.Intercept, raw.Coefficients)
}

func (m *LinearRegressor) Predict(features FeatureVector) (float64, error) {
	price := m.Intercept
	for i, c := range m.Coefficients {
		price += c * features[i]
	}
	return price, nil
}

func (m *LinearRegressor) Release() {}
