package core

import (
	"fmt"
	"strings"

	"resale-backend/pkg/api"
)

type FuelType string

const (
	FuelPetrol FuelType = "petrol"
	FuelDiesel FuelType = "diesel"
	FuelOther  FuelType = "other"
)

type SellerType string

const (
	SellerIndividual SellerType = "individual"
	SellerDealer     SellerType = "dealer"
)

type TransmissionType string

const (
	TransmissionManual    TransmissionType = "manual"
	TransmissionAutomatic TransmissionType = "automatic"
)

// Owner labels as submitted by the estimation form, mapped to the number of
// previous owners the artifacts were trained on.
var ownerCounts = map[string]int{
	"First":          0,
	"Second":         1,
	"Third":          2,
	"Fourth & Above": 3,
}

func OwnerLabels() []string {
	return []string{"First", "Second", "Third", "Fourth & Above"}
}

type EstimationRequest struct {
	ManufactureYear int
	ListPrice       float64
	OdometerKm      int
	OwnerCount      int
	Fuel            FuelType
	Seller          SellerType
	Transmission    TransmissionType
	Vehicle         string
}

// NewEstimationRequest normalizes a decoded estimation form. Unrecognized
// fuel, seller and transmission values fall back to other, dealer and
// automatic respectively; an unrecognized owner label counts as a first owner.
func NewEstimationRequest(form api.EstimateForm) (EstimationRequest, error) {
	vehicle := strings.TrimSpace(form.Vehicle)
	if vehicle == "" {
		return EstimationRequest{}, fmt.Errorf("%w: vehicle is required", ErrParse)
	}

	req := EstimationRequest{
		ManufactureYear: form.Year,
		ListPrice:       form.ShowRoomPrice,
		OdometerKm:      form.Kilometers,
		OwnerCount:      ownerCounts[strings.TrimSpace(form.Owner)],
		Fuel:            FuelOther,
		Seller:          SellerDealer,
		Transmission:    TransmissionAutomatic,
		Vehicle:         vehicle,
	}

	switch FuelType(strings.ToLower(strings.TrimSpace(form.Fuel))) {
	case FuelPetrol:
		req.Fuel = FuelPetrol
	case FuelDiesel:
		req.Fuel = FuelDiesel
	}

	if SellerType(strings.ToLower(strings.TrimSpace(form.Seller))) == SellerIndividual {
		req.Seller = SellerIndividual
	}

	if TransmissionType(strings.ToLower(strings.TrimSpace(form.Transmission))) == TransmissionManual {
		req.Transmission = TransmissionManual
	}

	return req, nil
}

// Brand is the first word of the vehicle identifier.
func (r EstimationRequest) Brand() string {
	fields := strings.Fields(r.Vehicle)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

type EstimationResult struct {
	Price     float64
	Unit      string
	Formatted string

	Category      string
	CategoryLabel string
	Vehicle       string
	Brand         string

	Features FeatureVector
}
