package integrationtests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"resale-backend/cmd"
	"resale-backend/internal/core"
	"resale-backend/internal/mailer"
	"resale-backend/internal/messaging"
	"resale-backend/internal/storage"
	"resale-backend/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEstimateFlow runs the server the way cmd/api wires it: Postgres history,
// artifacts and uploads in S3, reset mails through RabbitMQ.
func TestEstimateFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := createDB(t)
	provider := setupS3Provider(t, ctx)
	amqpURL := setupRabbitMQContainer(t, ctx)

	require.NoError(t, storage.UploadDir(ctx, provider, bucketName, "current", writeArtifacts(t), nil))
	estimator, err := cmd.FetchEstimator(ctx, provider, bucketName, "current", t.TempDir())
	require.NoError(t, err)
	defer estimator.Release()

	publisher, err := messaging.NewRabbitMQPublisher(amqpURL)
	require.NoError(t, err)
	defer publisher.Close()

	receiver, err := messaging.NewRabbitMQReceiver(amqpURL)
	require.NoError(t, err)
	sender := &recordingSender{}
	worker := mailer.NewWorker(receiver, sender)
	worker.Start()
	defer func() {
		worker.Stop()
		worker.Wait()
	}()

	pipeline := core.NewPipeline(estimator, func() time.Time {
		return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	})
	handler := cmd.NewHandler(db, pipeline, provider, publisher, cmd.WebConfig{
		SecretKey:    "integration-secret",
		PublicURL:    "http://resale.test",
		UploadBucket: bucketName,
	})

	b := newBrowser(handler)

	rec := b.post("/signup", url.Values{"email": {"driver@example.com"}, "password": {"password123"}, "confirm": {"password123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = b.post("/login", url.Values{"email": {"driver@example.com"}, "password": {"password123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/home", rec.Header().Get("Location"))

	rec = b.post("/estimatedResult", url.Values{
		"year":            {"2015"},
		"show_room_price": {"8.5"},
		"kilometers":      {"30000"},
		"vehicle":         {"city"},
		"owner":           {"First"},
		"fuel":            {"Petrol"},
		"seller":          {"Individual"},
		"transmission":    {"Manual"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page := b.get(rec.Header().Get("Location"))
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "5.25 lakh rupees")

	rec = b.get("/api/v1/insights")
	require.Equal(t, http.StatusOK, rec.Code)
	var insights api.Insights
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insights))
	require.Len(t, insights.Recent, 1)
	assert.Equal(t, "Car", insights.Recent[0].Type)
	assert.Equal(t, "5.25 lakh rupees", insights.Recent[0].PredictedPrice)
	assert.Equal(t, []api.LabelCount{{Label: "city", Count: 1}}, insights.TopBrands)

	rec = b.post("/forgot_password", url.Values{"email": {"driver@example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	mail := sender.waitForMail(t)
	assert.Equal(t, "driver@example.com", mail.To)
	assert.Equal(t, mailer.PasswordResetSubject, mail.Subject)
	assert.True(t, strings.Contains(mail.Body, "http://resale.test/reset_password/"))
}
