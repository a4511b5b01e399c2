package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestProvider(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	dir := t.TempDir()
	provider, err := NewLocalProvider(dir)
	require.NoError(t, err)
	return provider, dir
}

func TestLocalProvider_PutGetObject(t *testing.T) {
	provider, baseDir := setupTestProvider(t)
	ctx := context.Background()

	content := []byte("picture bytes")
	require.NoError(t, provider.PutObject(ctx, "profile-pics", "users/a.png", bytes.NewReader(content)))

	data, err := os.ReadFile(filepath.Join(baseDir, "profile-pics", "users", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, content, data)

	data, err = provider.GetObject(ctx, "profile-pics", "users/a.png")
	require.NoError(t, err)
	assert.Equal(t, content, data)

	reader, err := provider.OpenObject(ctx, "profile-pics", "users/a.png")
	require.NoError(t, err)
	streamed, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, content, streamed)
}

func TestLocalProvider_NotFound(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	_, err := provider.GetObject(ctx, "bucket", "missing.png")
	assert.True(t, errors.Is(err, ErrObjectNotFound))

	_, err = provider.OpenObject(ctx, "bucket", "missing.png")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestLocalProvider_RejectsEscapingKeys(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	for _, key := range []string{"../secret", "a/../../secret", "", `a\..\b`} {
		_, err := provider.GetObject(ctx, "bucket", key)
		assert.Error(t, err, key)
		assert.False(t, errors.Is(err, ErrObjectNotFound), key)
	}

	assert.Error(t, provider.PutObject(ctx, "../bucket", "a.txt", bytes.NewReader(nil)))
}

func TestLocalProvider_DeleteObject(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.PutObject(ctx, "bucket", "a.txt", bytes.NewReader([]byte("a"))))
	require.NoError(t, provider.DeleteObject(ctx, "bucket", "a.txt"))
	require.NoError(t, provider.DeleteObject(ctx, "bucket", "a.txt"))

	_, err := provider.GetObject(ctx, "bucket", "a.txt")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestLocalProvider_ListObjects(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	for _, key := range []string{"artifacts/manifest.yaml", "artifacts/car.json", "profile_pics/a.png"} {
		require.NoError(t, provider.PutObject(ctx, "bucket", key, bytes.NewReader([]byte(key))))
	}

	objects, err := provider.ListObjects(ctx, "bucket", "artifacts/")
	require.NoError(t, err)
	assert.Equal(t, []Object{
		{Name: "artifacts/car.json", Size: int64(len("artifacts/car.json"))},
		{Name: "artifacts/manifest.yaml", Size: int64(len("artifacts/manifest.yaml"))},
	}, objects)

	objects, err = provider.ListObjects(ctx, "empty", "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestUploadAndDownloadDir(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "manifest.yaml"), []byte("categories: []"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "onnx"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(src, "onnx", "bike.onnx"), []byte("onnx"), 0644))

	size, err := DirSize(src)
	require.NoError(t, err)
	assert.Equal(t, int64(len("categories: []")+len("onnx")), size)

	var uploaded int64
	require.NoError(t, UploadDir(ctx, provider, "models", "v1", src, func(n int64) { uploaded += n }))
	assert.Equal(t, size, uploaded)

	dest := filepath.Join(t.TempDir(), "artifacts")
	require.NoError(t, DownloadDir(ctx, provider, "models", "v1", dest))

	data, err := os.ReadFile(filepath.Join(dest, "manifest.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "categories: []", string(data))

	data, err = os.ReadFile(filepath.Join(dest, "onnx", "bike.onnx"))
	require.NoError(t, err)
	assert.Equal(t, "onnx", string(data))

	err = DownloadDir(ctx, provider, "models", "v2", dest)
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}
