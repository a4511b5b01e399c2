package core

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

type Category struct {
	Name      string
	Label     string
	Vehicles  []string
	Regressor Regressor
}

// Estimator holds one artifact per vehicle category. It is built once at
// start-up and never mutated afterwards, so it is shared by all requests
// without locking.
type Estimator struct {
	unit         string
	categories   map[string]Category
	vehicleIndex map[string]string
	vehicles     []string
}

func NewEstimator(unit string, categories []Category) (*Estimator, error) {
	if unit == "" {
		unit = DefaultUnit
	}

	e := &Estimator{
		unit:         unit,
		categories:   make(map[string]Category, len(categories)),
		vehicleIndex: make(map[string]string),
	}

	for _, c := range categories {
		if c.Regressor == nil {
			return nil, fmt.Errorf("category '%s' has no artifact", c.Name)
		}
		if _, ok := e.categories[c.Name]; ok {
			return nil, fmt.Errorf("category '%s' is declared more than once", c.Name)
		}
		e.categories[c.Name] = c

		for _, v := range c.Vehicles {
			key := normalizeVehicle(v)
			if other, ok := e.vehicleIndex[key]; ok {
				return nil, fmt.Errorf("vehicle '%s' is listed in both '%s' and '%s'", v, other, c.Name)
			}
			e.vehicleIndex[key] = c.Name
			e.vehicles = append(e.vehicles, v)
		}
	}

	sort.Strings(e.vehicles)

	return e, nil
}

// LoadEstimator reads the manifest in dir and loads every artifact it lists.
func LoadEstimator(dir string, loaders map[ArtifactType]ArtifactLoader) (*Estimator, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(manifest.Categories))
	release := func() {
		for _, c := range categories {
			c.Regressor.Release()
		}
	}

	for _, spec := range manifest.Categories {
		regressor, err := loadArtifact(loaders, dir, spec.Artifact)
		if err != nil {
			release()
			return nil, fmt.Errorf("category '%s': %w", spec.Name, err)
		}

		label := spec.Label
		if label == "" {
			label = spec.Name
		}

		categories = append(categories, Category{
			Name:      spec.Name,
			Label:     label,
			Vehicles:  spec.Vehicles,
			Regressor: regressor,
		})
		slog.Info("loaded artifact", "category", spec.Name, "type", spec.Artifact.Type, "path", spec.Artifact.Path, "vehicles", len(spec.Vehicles))
	}

	estimator, err := NewEstimator(manifest.Unit, categories)
	if err != nil {
		release()
		return nil, err
	}
	return estimator, nil
}

func (e *Estimator) Unit() string {
	return e.unit
}

func (e *Estimator) Vehicles() []string {
	return append([]string(nil), e.vehicles...)
}

// CategoryOf resolves the category a vehicle identifier belongs to.
func (e *Estimator) CategoryOf(vehicle string) (Category, error) {
	name, ok := e.vehicleIndex[normalizeVehicle(vehicle)]
	if !ok {
		return Category{}, fmt.Errorf("%w: unknown vehicle '%s'", ErrInferenceFailure, vehicle)
	}
	return e.categories[name], nil
}

// Predict runs the artifact of the given category only.
func (e *Estimator) Predict(features FeatureVector, category string) (float64, error) {
	c, ok := e.categories[category]
	if !ok {
		return 0, fmt.Errorf("%w: unknown category '%s'", ErrInferenceFailure, category)
	}

	price, err := c.Regressor.Predict(features)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInferenceFailure, err)
	}

	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: artifact for '%s' returned %v", ErrInferenceFailure, category, price)
	}

	return price, nil
}

func (e *Estimator) Release() {
	for _, c := range e.categories {
		c.Regressor.Release()
	}
}
