package integrationtests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"resale-backend/internal/api"
	"resale-backend/internal/core"
	"resale-backend/internal/database"
	"resale-backend/internal/messaging"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

const (
	minioUsername = "admin"
	minioPassword = "password"
)

func setupMinioContainer(t *testing.T, ctx context.Context) string {
	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return "http://" + connStr
}

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func setupRabbitMQContainer(t *testing.T, ctx context.Context) string {
	rabbitmqContainer, err := rabbitmq.Run(ctx, "rabbitmq:3.12.11-management-alpine")
	require.NoError(t, err, "Failed to start RabbitMQ container")

	t.Cleanup(func() {
		err := rabbitmqContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate RabbitMQ container")
	})

	connStr, err := rabbitmqContainer.AmqpURL(ctx)
	require.NoError(t, err, "Failed to get RabbitMQ AMQP URL")

	return connStr
}

func createDB(t *testing.T) *gorm.DB {
	uri := setupPostgresContainer(t, context.Background())
	db, err := database.NewDatabase(uri)
	require.NoError(t, err)

	return db
}

const testManifest = `
unit: lakh rupees
categories:
  - name: four_wheeler
    label: Car
    artifact:
      type: linear
      path: car.json
    vehicles: [city, Swift Dzire]
  - name: two_wheeler
    label: Bike
    artifact:
      type: linear
      path: bike.json
    vehicles: [pulsar]
`

// writeArtifacts creates a linear artifact set. With features
// [9, 8.5, 30000, 0, 0, 1, 1, 1] the car artifact predicts 4.25 + 1 = 5.25.
func writeArtifacts(t *testing.T) string {
	dir := t.TempDir()
	files := map[string]string{
		core.ManifestFile: testManifest,
		"car.json":        `{"intercept": 1, "coefficients": [0, 0.5, 0, 0, 0, 0, 0, 0]}`,
		"bike.json":       `{"intercept": 0.2, "coefficients": [0, 0.1, 0, 0, 0, 0, 0, 0]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

// recordingSender collects the mails a worker delivers.
type recordingSender struct {
	mu    sync.Mutex
	mails []messaging.MailTaskPayload
}

func (s *recordingSender) Send(ctx context.Context, mail messaging.MailTaskPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mails = append(s.mails, mail)
	return nil
}

func (s *recordingSender) waitForMail(t *testing.T) messaging.MailTaskPayload {
	var mail messaging.MailTaskPayload
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.mails) == 0 {
			return false
		}
		mail = s.mails[0]
		return true
	}, 10*time.Second, 50*time.Millisecond)
	return mail
}

// browser keeps cookies and the csrf token between requests against a
// handler.
type browser struct {
	handler http.Handler
	cookies map[string]*http.Cookie
	token   string
}

func newBrowser(handler http.Handler) *browser {
	return &browser{handler: handler, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		b.cookies[cookie.Name] = cookie
	}
	if token := rec.Header().Get(api.CSRFHeader); token != "" {
		b.token = token
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, values url.Values) *httptest.ResponseRecorder {
	if b.token == "" {
		b.get("/login")
	}

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(api.CSRFHeader, b.token)
	return b.do(req)
}
