package integrationtests

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resale-backend/cmd"
	"resale-backend/internal/core"
	"resale-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucketName = "test-bucket"

func setupS3Provider(t *testing.T, ctx context.Context) *storage.S3Provider {
	endpoint := setupMinioContainer(t, ctx)

	provider, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     endpoint,
		S3AccessKeyID:     minioUsername,
		S3SecretAccessKey: minioPassword,
		S3Region:          "us-east-1",
	})
	require.NoError(t, err)

	require.NoError(t, provider.CreateBucket(ctx, bucketName))
	// Creating an existing bucket is not an error.
	require.NoError(t, provider.CreateBucket(ctx, bucketName))

	return provider
}

func TestS3Provider(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	provider := setupS3Provider(t, ctx)

	require.NoError(t, provider.PutObject(ctx, bucketName, "profile_pics/a/one.png", strings.NewReader("one")))
	require.NoError(t, provider.PutObject(ctx, bucketName, "profile_pics/b/two.png", strings.NewReader("two")))

	data, err := provider.GetObject(ctx, bucketName, "profile_pics/a/one.png")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	reader, err := provider.OpenObject(ctx, bucketName, "profile_pics/b/two.png")
	require.NoError(t, err)
	data, err = io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, "two", string(data))

	objects, err := provider.ListObjects(ctx, bucketName, "profile_pics/")
	require.NoError(t, err)
	assert.Equal(t, []storage.Object{
		{Name: "profile_pics/a/one.png", Size: 3},
		{Name: "profile_pics/b/two.png", Size: 3},
	}, objects)

	require.NoError(t, provider.DeleteObject(ctx, bucketName, "profile_pics/a/one.png"))

	_, err = provider.GetObject(ctx, bucketName, "profile_pics/a/one.png")
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))

	_, err = provider.OpenObject(ctx, bucketName, "missing")
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))
}

func TestFetchEstimatorFromS3(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	provider := setupS3Provider(t, ctx)

	var uploaded int64
	require.NoError(t, storage.UploadDir(ctx, provider, bucketName, "v1", writeArtifacts(t), func(size int64) {
		uploaded += size
	}))
	assert.Positive(t, uploaded)

	dir := filepath.Join(t.TempDir(), "artifacts")
	estimator, err := cmd.FetchEstimator(ctx, provider, bucketName, "v1", dir)
	require.NoError(t, err)
	defer estimator.Release()

	_, err = os.Stat(filepath.Join(dir, core.ManifestFile))
	require.NoError(t, err)

	price, err := estimator.Predict(core.FeatureVector{9, 8.5, 30000, 0, 0, 1, 1, 1}, "four_wheeler")
	require.NoError(t, err)
	assert.InDelta(t, 5.25, price, 1e-9)

	_, err = cmd.FetchEstimator(ctx, provider, bucketName, "missing", dir)
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))
}
