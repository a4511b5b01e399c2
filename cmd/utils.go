package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"resale-backend/internal/api"
	"resale-backend/internal/auth"
	"resale-backend/internal/core"
	"resale-backend/internal/database"
	"resale-backend/internal/mailer"
	"resale-backend/internal/messaging"
	"resale-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	ort "github.com/yalue/onnxruntime_go"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// WebConfig is the configuration shared by every binary that serves the web
// app.
type WebConfig struct {
	SecretKey      string   `env:"SECRET_KEY,notEmpty,required"`
	PublicURL      string   `env:"PUBLIC_URL" envDefault:"http://localhost:5022"`
	SecureCookies  bool     `env:"SECURE_COOKIES" envDefault:"false"`
	UploadBucket   string   `env:"UPLOAD_BUCKET" envDefault:"uploads"`
	MaxUploadBytes int64    `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	OnnxRuntimeDylib string `env:"ONNX_RUNTIME_DYLIB"`
}

// InitOnnxRuntime initializes the ONNX runtime when a shared library is
// configured. The returned function tears it down again.
func InitOnnxRuntime(dylib string) func() {
	if dylib == "" {
		slog.Info("ONNX_RUNTIME_DYLIB not set, onnx artifacts are unavailable")
		return func() {}
	}

	ort.SetSharedLibraryPath(dylib)
	if err := ort.InitializeEnvironment(); err != nil {
		log.Fatalf("could not init ONNX Runtime: %v", err)
	}

	return func() {
		if err := ort.DestroyEnvironment(); err != nil {
			slog.Error("error destroying onnx env", "error", err)
		}
	}
}

// FetchEstimator downloads the artifact set stored below prefix into dir and
// loads it.
func FetchEstimator(ctx context.Context, provider storage.Provider, bucket, prefix, dir string) (*core.Estimator, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("error clearing artifact dir %s: %w", dir, err)
	}

	if err := storage.DownloadDir(ctx, provider, bucket, prefix, dir); err != nil {
		return nil, fmt.Errorf("error downloading artifacts: %w", err)
	}
	slog.Info("artifacts downloaded", "bucket", bucket, "prefix", prefix, "dir", dir)

	return core.LoadEstimator(dir, core.NewArtifactLoaders())
}

// NewMailSender returns a shoutrrr sender for url, or a sender that only logs
// when no url is configured.
func NewMailSender(url string) mailer.Sender {
	if url == "" {
		slog.Warn("MAIL_URL not set, mails will be logged instead of sent")
		return mailer.LogSender{}
	}

	sender, err := mailer.NewShoutrrrSender(url, 30*time.Second)
	if err != nil {
		log.Fatalf("error creating mail sender: %v", err)
	}
	return sender
}

func NewHandler(db *gorm.DB, pipeline *core.Pipeline, provider storage.Provider, publisher messaging.Publisher, cfg WebConfig) http.Handler {
	publicURL := strings.TrimRight(cfg.PublicURL, "/")

	store := auth.NewCookieStore(cfg.SecretKey, cfg.SecureCookies)
	googleEnabled := auth.InitializeGoth(store, auth.GoogleConfig{
		ClientId:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		CallbackURL:  publicURL + "/google_login/authorized",
	})

	server := api.NewServer(
		db,
		database.NewHistoryStore(db),
		pipeline,
		provider,
		publisher,
		auth.NewSessionManager(store),
		auth.NewResetTokens(cfg.SecretKey),
		api.Config{
			PublicURL:      publicURL,
			UploadBucket:   cfg.UploadBucket,
			MaxUploadBytes: cfg.MaxUploadBytes,
			GoogleEnabled:  googleEnabled,
			AllowedOrigins: cfg.AllowedOrigins,
			CSRFKey:        auth.DeriveKey(cfg.SecretKey, "csrf"),
			SecureCookies:  cfg.SecureCookies,
		},
	)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	server.AddRoutes(r)

	return r
}

// RunServer serves until SIGINT or SIGTERM, then shuts the server down and
// calls onShutdown.
func RunServer(server *http.Server, onShutdown func()) {
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", server.Addr, err)
	}

	if onShutdown != nil {
		onShutdown()
	}
	slog.Info("server stopped")
}
