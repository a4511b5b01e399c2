package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"path"

	"resale-backend/cmd"
	"resale-backend/internal/core"
	"resale-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
)

type Config struct {
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	ArtifactBucket    string `env:"ARTIFACT_BUCKET" envDefault:"artifacts"`

	OnnxRuntimeDylib string `env:"ONNX_RUNTIME_DYLIB"`
}

func main() {
	var (
		envFile string
		dir     string
		prefix  string
		local   string
	)
	flag.StringVar(&envFile, "env", "", "path to load env from")
	flag.StringVar(&dir, "dir", "", "artifact directory containing "+core.ManifestFile)
	flag.StringVar(&prefix, "prefix", "current", "key prefix to upload the artifacts under")
	flag.StringVar(&local, "local", "", "upload into a local storage root instead of S3")
	flag.Parse()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("error loading .env file '%s': %v", envFile, err)
		}
	}

	if dir == "" {
		log.Fatalf("-dir is required")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	destroyOnnx := cmd.InitOnnxRuntime(cfg.OnnxRuntimeDylib)
	defer destroyOnnx()

	// Refuse to publish an artifact set the server could not load.
	if err := verifyArtifacts(dir); err != nil {
		log.Fatalf("invalid artifact directory: %v", err)
	}

	provider := newProvider(cfg, local)

	ctx := context.Background()
	if err := provider.CreateBucket(ctx, cfg.ArtifactBucket); err != nil {
		log.Fatalf("error creating bucket: %v", err)
	}

	total, err := storage.DirSize(dir)
	if err != nil {
		log.Fatalf("error sizing %s: %v", dir, err)
	}

	bar := progressbar.DefaultBytes(total, fmt.Sprintf("uploading to %s", path.Join(cfg.ArtifactBucket, prefix)))
	if err := storage.UploadDir(ctx, provider, cfg.ArtifactBucket, prefix, dir, func(size int64) {
		_ = bar.Add64(size)
	}); err != nil {
		log.Fatalf("error uploading artifacts: %v", err)
	}
	_ = bar.Finish()

	slog.Info("artifacts uploaded", "bucket", cfg.ArtifactBucket, "prefix", prefix)
}

func verifyArtifacts(dir string) error {
	estimator, err := core.LoadEstimator(dir, core.NewArtifactLoaders())
	if err != nil {
		return err
	}
	defer estimator.Release()

	slog.Info("artifacts verified", "vehicles", len(estimator.Vehicles()), "unit", estimator.Unit())
	return nil
}

func newProvider(cfg Config, local string) storage.Provider {
	if local != "" {
		provider, err := storage.NewLocalProvider(local)
		if err != nil {
			log.Fatalf("error creating local storage: %v", err)
		}
		return provider
	}

	provider, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("error creating S3 client: %v", err)
	}
	return provider
}
