package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pipeline validates, encodes and prices a single estimation request. It
// performs no I/O; persisting the result is left to the caller.
type Pipeline struct {
	estimator *Estimator
	now       func() time.Time
}

func NewPipeline(estimator *Estimator, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{estimator: estimator, now: now}
}

func (p *Pipeline) Estimator() *Estimator {
	return p.estimator
}

func (p *Pipeline) Estimate(req EstimationRequest) (EstimationResult, error) {
	currentYear := p.now().Year()

	if err := ValidateRequest(req, currentYear); err != nil {
		return EstimationResult{}, err
	}

	features, err := EncodeFeatures(req, currentYear)
	if err != nil {
		return EstimationResult{}, err
	}

	category, err := p.estimator.CategoryOf(req.Vehicle)
	if err != nil {
		return EstimationResult{}, err
	}

	price, err := p.estimator.Predict(features, category.Name)
	if err != nil {
		return EstimationResult{}, err
	}

	unit := p.estimator.Unit()

	return EstimationResult{
		Price:         price,
		Unit:          unit,
		Formatted:     FormatPrice(price, unit),
		Category:      category.Name,
		CategoryLabel: category.Label,
		Vehicle:       req.Vehicle,
		Brand:         req.Brand(),
		Features:      features,
	}, nil
}

// FormatPrice rounds half away from zero to two decimals and drops trailing
// zeros, keeping one after the point for whole amounts: 12.345 -> "12.35",
// 12 -> "12.0".
func FormatPrice(price float64, unit string) string {
	rounded := decimal.NewFromFloat(price).Round(2)
	if rounded.IsInteger() {
		return rounded.StringFixed(1) + " " + unit
	}
	return rounded.String() + " " + unit
}
