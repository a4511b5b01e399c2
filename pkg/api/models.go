package api

import (
	"time"

	"github.com/google/uuid"
)

// EstimateForm is the form submitted to the estimation endpoint. Every field
// is required.
type EstimateForm struct {
	Year          int     `schema:"year,required"`
	ShowRoomPrice float64 `schema:"show_room_price,required"`
	Kilometers    int     `schema:"kilometers,required"`
	Vehicle       string  `schema:"vehicle,required"`
	Owner         string  `schema:"owner,required"`
	Fuel          string  `schema:"fuel,required"`
	Seller        string  `schema:"seller,required"`
	Transmission  string  `schema:"transmission,required"`
}

type EstimateResponse struct {
	ResultId uuid.UUID
	Result   string
	Price    float64
	Unit     string
	Category string
	Vehicle  string
	Brand    string
	Saved    bool
}

// EstimateView is what the results page shows: the formatted estimate and
// the inputs echoed back as submitted.
type EstimateView struct {
	Result        string
	Vehicle       string
	Year          int
	ShowroomPrice float64
	Kilometers    int
	Owner         string
	Fuel          string
	Seller        string
	Transmission  string
}

type Prediction struct {
	Id             uuid.UUID
	Type           string
	Brand          string
	Model          string
	Mileage        string
	PredictedPrice string
	Fuel           string `json:"Fuel,omitempty"`
	Transmission   string `json:"Transmission,omitempty"`
	Seller         string `json:"Seller,omitempty"`
	Date           time.Time
}

type DailyCount struct {
	Date  string
	Count int
}

type DailyAverage struct {
	Date         string
	AveragePrice float64
}

type LabelCount struct {
	Label string
	Count int
}

type Insights struct {
	PerDay        []DailyCount
	AveragePerDay []DailyAverage
	TopBrands     []LabelCount
	Prices        []float64
	Types         []LabelCount
	Recent        []Prediction
}

type Vehicles struct {
	Vehicles []string
	Owners   []string
	Unit     string
}
