package core

import (
	"fmt"
	"math"
)

// FeatureCount is the width of the vector every artifact is trained on.
const FeatureCount = 8

// FeatureVector layout. Changing the order invalidates every trained artifact.
const (
	FeatureAge = iota
	FeatureListPrice
	FeatureOdometerKm
	FeatureOwnerCount
	FeatureIsDiesel
	FeatureIsPetrol
	FeatureIsIndividualSeller
	FeatureIsManualTransmission
)

type FeatureVector [FeatureCount]float64

func (v FeatureVector) Float32() []float32 {
	out := make([]float32, FeatureCount)
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// ValidateRequest checks the value ranges the artifacts can be fed with.
func ValidateRequest(req EstimationRequest, currentYear int) error {
	if age := currentYear - req.ManufactureYear; age < 0 {
		return fmt.Errorf("%w: manufacture year %d is in the future", ErrValidation, req.ManufactureYear)
	}
	if math.IsNaN(req.ListPrice) || math.IsInf(req.ListPrice, 0) || req.ListPrice <= 0 {
		return fmt.Errorf("%w: list price must be positive, got %v", ErrValidation, req.ListPrice)
	}
	if req.OdometerKm < 0 {
		return fmt.Errorf("%w: odometer reading must not be negative, got %d", ErrValidation, req.OdometerKm)
	}
	return nil
}

// EncodeFeatures maps a request onto the fixed feature layout. Fuel is
// encoded with two flags only: a vehicle that is neither diesel nor petrol
// has both flags cleared.
func EncodeFeatures(req EstimationRequest, currentYear int) (FeatureVector, error) {
	var v FeatureVector

	age := currentYear - req.ManufactureYear
	if age < 0 {
		return v, fmt.Errorf("%w: negative vehicle age %d", ErrValidation, age)
	}

	v[FeatureAge] = float64(age)
	v[FeatureListPrice] = req.ListPrice
	v[FeatureOdometerKm] = float64(req.OdometerKm)
	v[FeatureOwnerCount] = float64(req.OwnerCount)

	switch req.Fuel {
	case FuelDiesel:
		v[FeatureIsDiesel] = 1
	case FuelPetrol:
		v[FeatureIsPetrol] = 1
	}

	if req.Seller == SellerIndividual {
		v[FeatureIsIndividualSeller] = 1
	}
	if req.Transmission == TransmissionManual {
		v[FeatureIsManualTransmission] = 1
	}

	return v, nil
}
