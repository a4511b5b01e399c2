package core

import (
	"fmt"
	"path/filepath"
)

// ArtifactType identifies the serialization of a trained regression artifact.
type ArtifactType string

const (
	LinearArtifact ArtifactType = "linear"
	OnnxArtifact   ArtifactType = "onnx"
)

// Regressor is a loaded, immutable artifact. Implementations must be safe for
// concurrent Predict calls.
type Regressor interface {
	Predict(features FeatureVector) (float64, error)

	Release()
}

type ArtifactLoader func(path string, spec ArtifactSpec) (Regressor, error)

func NewArtifactLoaders() map[ArtifactType]ArtifactLoader {
	return map[ArtifactType]ArtifactLoader{
		LinearArtifact: func(path string, _ ArtifactSpec) (Regressor, error) {
			return LoadLinearRegressor(path)
		},
		OnnxArtifact: func(path string, spec ArtifactSpec) (Regressor, error) {
			return LoadOnnxRegressor(path, spec.InputName, spec.OutputName)
		},
	}
}

func loadArtifact(loaders map[ArtifactType]ArtifactLoader, dir string, spec ArtifactSpec) (Regressor, error) {
	loader, ok := loaders[spec.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported artifact type '%s'", spec.Type)
	}

	regressor, err := loader(filepath.Join(dir, spec.Path), spec)
	if err != nil {
		return nil, fmt.Errorf("error loading %s artifact %s: %w", spec.Type, spec.Path, err)
	}
	return regressor, nil
}
