package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"resale-backend/cmd"
	"resale-backend/internal/core"
	"resale-backend/internal/database"
	"resale-backend/internal/mailer"
	"resale-backend/internal/messaging"
	"resale-backend/internal/storage"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	cmd.WebConfig

	Root        string `env:"ROOT" envDefault:"./resale-data"`
	Port        int    `env:"PORT" envDefault:"5022"`
	ArtifactDir string `env:"ARTIFACT_DIR" envDefault:"./artifacts"`
	MailURL     string `env:"MAIL_URL"`
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating root directory: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.Root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting backend", "root", cfg.Root, "port", cfg.Port, "artifact_dir", cfg.ArtifactDir)

	destroyOnnx := cmd.InitOnnxRuntime(cfg.OnnxRuntimeDylib)
	defer destroyOnnx()

	db, err := database.NewDatabase(filepath.Join(cfg.Root, "db", "resale.db"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	provider, err := storage.NewLocalProvider(filepath.Join(cfg.Root, "storage"))
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	if err := provider.CreateBucket(context.Background(), cfg.UploadBucket); err != nil {
		log.Fatalf("Failed to create upload bucket: %v", err)
	}

	estimator, err := core.LoadEstimator(cfg.ArtifactDir, core.NewArtifactLoaders())
	if err != nil {
		log.Fatalf("Failed to load estimator from %s: %v", cfg.ArtifactDir, err)
	}
	defer estimator.Release()

	queue := messaging.NewInMemoryQueue()

	worker := mailer.NewWorker(queue, cmd.NewMailSender(cfg.MailURL))
	worker.Start()

	handler := cmd.NewHandler(db, core.NewPipeline(estimator, nil), provider, queue, cfg.WebConfig)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	cmd.RunServer(server, func() {
		slog.Info("shutting down mail worker")
		worker.Stop()
		worker.Wait()
	})
}
