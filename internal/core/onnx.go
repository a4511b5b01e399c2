package core

import (
	"errors"
	"fmt"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultOnnxInput  = "float_input"
	defaultOnnxOutput = "variable"
)

// OnnxRegressor runs a regression graph exported to ONNX (for example from
// scikit-learn via skl2onnx). The graph takes a float32 [1, FeatureCount]
// tensor and produces a single float32 value.
type OnnxRegressor struct {
	session *ort.DynamicAdvancedSession
}

func LoadOnnxRegressor(path, inputName, outputName string) (*OnnxRegressor, error) {
	if !ort.IsInitialized() {
		return nil, errors.New("onnx runtime environment is not initialized, set ONNX_RUNTIME_DYLIB")
	}

	if inputName == "" {
		inputName = defaultOnnxInput
	}
	if outputName == "" {
		outputName = defaultOnnxOutput
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session: %w", err)
	}

	return &OnnxRegressor{session: session}, nil
}

func (m *OnnxRegressor) Predict(features FeatureVector) (float64, error) {
	inT, err := ort.NewTensor(ort.NewShape(1, FeatureCount), features.Float32())
	if err != nil {
		return 0, err
	}
	defer inT.Destroy()

	outT, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, err
	}
	defer outT.Destroy()

	if err := m.session.Run([]ort.Value{inT}, []ort.Value{outT}); err != nil {
		return 0, fmt.Errorf("session run error: %w", err)
	}

	out := outT.GetData()
	if len(out) != 1 {
		return 0, fmt.Errorf("expected a single output value, got %d", len(out))
	}
	return float64(out[0]), nil
}

func (m *OnnxRegressor) Release() {
	if err := m.session.Destroy(); err != nil {
		slog.Error("error destroying onnx session", "error", err)
	}
}
