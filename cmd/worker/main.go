package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"resale-backend/cmd"
	"resale-backend/internal/mailer"
	"resale-backend/internal/messaging"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	RabbitMQURL string `env:"RABBITMQ_URL,notEmpty,required"`
	MailURL     string `env:"MAIL_URL"`
}

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	worker := mailer.NewWorker(receiver, cmd.NewMailSender(cfg.MailURL))
	worker.Start()

	slog.Info("worker started, waiting for tasks")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutdown signal received, waiting for in-flight tasks")
	worker.Stop()
	worker.Wait()

	slog.Info("worker process stopped")
}
