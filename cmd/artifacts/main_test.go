package main

import (
	"os"
	"path/filepath"
	"testing"

	"resale-backend/cmd"
	"resale-backend/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifacts(t *testing.T, manifest string, files map[string][]byte) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, core.ManifestFile), []byte(manifest), 0644))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0644))
	}
	return dir
}

func TestVerifyArtifactsLinear(t *testing.T) {
	dir := writeArtifacts(t, `
categories:
  - name: four_wheeler
    artifact: {type: linear, path: car.json}
    vehicles: [city]
`, map[string][]byte{
		"car.json": []byte(`{"intercept": 1, "coefficients": [0, 0, 0, 0, 0, 0, 0, 0]}`),
	})

	assert.NoError(t, verifyArtifacts(dir))
	assert.Error(t, verifyArtifacts(t.TempDir()))
}

func TestVerifyArtifactsOnnx(t *testing.T) {
	dylib := os.Getenv("ONNX_RUNTIME_DYLIB")
	if dylib == "" {
		t.Skip("ONNX_RUNTIME_DYLIB not set")
	}
	defer cmd.InitOnnxRuntime(dylib)()

	model, err := os.ReadFile("../../internal/core/testdata/linear.onnx")
	require.NoError(t, err)

	dir := writeArtifacts(t, `
categories:
  - name: four_wheeler
    artifact: {type: onnx, path: car.onnx}
    vehicles: [city]
`, map[string][]byte{"car.onnx": model})

	assert.NoError(t, verifyArtifacts(dir))
}
