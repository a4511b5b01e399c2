package main

import (
	"context"
	"log"
	"net/http"

	"resale-backend/cmd"
	"resale-backend/internal/core"
	"resale-backend/internal/database"
	"resale-backend/internal/messaging"
	"resale-backend/internal/storage"

	"github.com/caarlos0/env/v11"
)

type APIConfig struct {
	cmd.WebConfig

	DatabaseURL       string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL       string `env:"RABBITMQ_URL,notEmpty,required"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	ArtifactBucket    string `env:"ARTIFACT_BUCKET" envDefault:"artifacts"`
	ArtifactPrefix    string `env:"ARTIFACT_PREFIX" envDefault:"current"`
	ArtifactDir       string `env:"ARTIFACT_DIR" envDefault:"/tmp/resale-artifacts"`
	APIPort           string `env:"API_PORT" envDefault:"8001"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	destroyOnnx := cmd.InitOnnxRuntime(cfg.OnnxRuntimeDylib)
	defer destroyOnnx()

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s3p, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	if err := s3p.CreateBucket(context.Background(), cfg.UploadBucket); err != nil {
		log.Fatalf("Failed to create upload bucket: %v", err)
	}

	estimator, err := cmd.FetchEstimator(context.Background(), s3p, cfg.ArtifactBucket, cfg.ArtifactPrefix, cfg.ArtifactDir)
	if err != nil {
		log.Fatalf("Failed to load estimator: %v", err)
	}
	defer estimator.Release()

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	handler := cmd.NewHandler(db, core.NewPipeline(estimator, nil), s3p, publisher, cfg.WebConfig)

	cmd.RunServer(&http.Server{Addr: ":" + cfg.APIPort, Handler: handler}, nil)
}
