package database_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"resale-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

func newUser(email string) *database.User {
	return &database.User{Id: uuid.New(), Email: email, CreationTime: time.Now().UTC()}
}

func prediction(userId uuid.UUID, brand, vehicleType string, price float64, date time.Time) *database.Prediction {
	return &database.Prediction{
		Id:             uuid.New(),
		UserId:         userId,
		Type:           vehicleType,
		Brand:          brand,
		Model:          brand + " model",
		Mileage:        "30000",
		PredictedPrice: fmt.Sprintf("%v lakh rupees", price),
		PriceValue:     price,
		Date:           date,
	}
}

func TestHistoryAppendAndList(t *testing.T) {
	alice, bob := newUser("alice@example.com"), newUser("bob@example.com")
	db := createDB(t, alice, bob)
	history := database.NewHistoryStore(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		require.NoError(t, history.Append(ctx, prediction(alice.Id, "city", "Car", float64(i), base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, history.Append(ctx, prediction(bob.Id, "pulsar", "Bike", 1, base)))

	recent, err := history.ListRecent(ctx, alice.Id, database.RecentLimit)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, 11.0, recent[0].PriceValue)
	assert.Equal(t, 2.0, recent[9].PriceValue)
	for _, p := range recent {
		assert.Equal(t, alice.Id, p.UserId)
	}

	all, err := history.ListRecent(ctx, bob.Id, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestHistoryAppendDefaults(t *testing.T) {
	alice := newUser("alice@example.com")
	db := createDB(t, alice)
	history := database.NewHistoryStore(db)

	p := &database.Prediction{
		UserId:         alice.Id,
		Type:           "Car",
		Brand:          "city",
		Model:          "city",
		Mileage:        "30000",
		PredictedPrice: "4.75 lakh rupees",
		Fuel:           sql.NullString{String: "petrol", Valid: true},
	}
	require.NoError(t, history.Append(context.Background(), p))
	assert.NotEqual(t, uuid.Nil, p.Id)
	assert.False(t, p.Date.IsZero())

	stored, err := history.Get(context.Background(), alice.Id, p.Id)
	require.NoError(t, err)
	assert.Equal(t, "petrol", stored.Fuel.String)
	assert.False(t, stored.Seller.Valid)

	assert.Error(t, history.Append(context.Background(), &database.Prediction{Type: "Car"}))
}

func TestHistoryGetScopedToUser(t *testing.T) {
	alice, bob := newUser("alice@example.com"), newUser("bob@example.com")
	p := prediction(alice.Id, "city", "Car", 4, time.Now())
	db := createDB(t, alice, bob, p)
	history := database.NewHistoryStore(db)

	_, err := history.Get(context.Background(), bob.Id, p.Id)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestHistoryDelete(t *testing.T) {
	alice, bob := newUser("alice@example.com"), newUser("bob@example.com")
	p := prediction(alice.Id, "city", "Car", 4, time.Now())
	db := createDB(t, alice, bob, p)
	history := database.NewHistoryStore(db)
	ctx := context.Background()

	assert.ErrorIs(t, history.Delete(ctx, bob.Id, p.Id), database.ErrNotOwner)
	assert.ErrorIs(t, history.Delete(ctx, alice.Id, uuid.New()), gorm.ErrRecordNotFound)

	require.NoError(t, history.Delete(ctx, alice.Id, p.Id))

	remaining, err := history.ListRecent(ctx, alice.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestHistoryDeleteForUser(t *testing.T) {
	alice, bob := newUser("alice@example.com"), newUser("bob@example.com")
	db := createDB(t, alice, bob,
		prediction(alice.Id, "city", "Car", 4, time.Now()),
		prediction(alice.Id, "verna", "Car", 5, time.Now()),
		prediction(bob.Id, "pulsar", "Bike", 1, time.Now()),
	)
	history := database.NewHistoryStore(db)
	ctx := context.Background()

	require.NoError(t, history.DeleteForUser(ctx, alice.Id))

	remaining, err := history.ListRecent(ctx, alice.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	remaining, err = history.ListRecent(ctx, bob.Id, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestHistoryInsights(t *testing.T) {
	alice, bob := newUser("alice@example.com"), newUser("bob@example.com")
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	db := createDB(t, alice, bob,
		prediction(alice.Id, "city", "Car", 4, day1),
		prediction(alice.Id, "city", "Car", 6, day1.Add(time.Hour)),
		prediction(alice.Id, "verna", "Car", 8, day2),
		prediction(alice.Id, "pulsar", "Bike", 1, day2.Add(time.Hour)),
		prediction(bob.Id, "swift", "Car", 100, day2),
	)
	history := database.NewHistoryStore(db)

	insights, err := history.Insights(context.Background(), alice.Id)
	require.NoError(t, err)

	assert.Equal(t, []database.DailyStat{
		{Day: "2024-03-01", Count: 2, AveragePrice: 5},
		{Day: "2024-03-02", Count: 2, AveragePrice: 4.5},
	}, insights.Daily)
	assert.Equal(t, []database.GroupCount{
		{Label: "city", Count: 2},
		{Label: "pulsar", Count: 1},
		{Label: "verna", Count: 1},
	}, insights.TopBrands)
	assert.Equal(t, []database.GroupCount{
		{Label: "Car", Count: 3},
		{Label: "Bike", Count: 1},
	}, insights.Types)
	assert.ElementsMatch(t, []float64{4, 6, 8, 1}, insights.Prices)
	require.Len(t, insights.Recent, 4)
	assert.Equal(t, "pulsar", insights.Recent[0].Brand)
}

func TestHistoryInsightsEmpty(t *testing.T) {
	alice := newUser("alice@example.com")
	db := createDB(t, alice)

	insights, err := database.NewHistoryStore(db).Insights(context.Background(), alice.Id)
	require.NoError(t, err)
	assert.Empty(t, insights.Daily)
	assert.Empty(t, insights.TopBrands)
	assert.Empty(t, insights.Recent)
}
