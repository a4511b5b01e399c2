package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"resale-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateUser(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	user, err := database.CreateUser(ctx, db, " Alice@Example.com ", "hash")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "hash", user.PasswordHash.String)
	assert.False(t, user.IsGoogle)

	_, err = database.CreateUser(ctx, db, "ALICE@example.com", "other")
	assert.ErrorIs(t, err, database.ErrEmailTaken)

	found, err := database.GetUserByEmail(ctx, db, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, user.Id, found.Id)

	found, err = database.GetUser(ctx, db, user.Id)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)
}

func TestFindOrCreateOAuthUser(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	created, err := database.FindOrCreateOAuthUser(ctx, db, "gina@example.com", "Gina")
	require.NoError(t, err)
	assert.True(t, created.IsGoogle)
	assert.Equal(t, "Gina", created.Username.String)
	assert.False(t, created.PasswordHash.Valid)

	again, err := database.FindOrCreateOAuthUser(ctx, db, "Gina@example.com", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, created.Id, again.Id)
	assert.Equal(t, "Gina", again.Username.String)

	existing, err := database.CreateUser(ctx, db, "pat@example.com", "hash")
	require.NoError(t, err)
	linked, err := database.FindOrCreateOAuthUser(ctx, db, "pat@example.com", "Pat")
	require.NoError(t, err)
	assert.Equal(t, existing.Id, linked.Id)
	assert.Equal(t, "hash", linked.PasswordHash.String)
}

func TestUpdateUser(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	user, err := database.CreateUser(ctx, db, "alice@example.com", "old")
	require.NoError(t, err)

	require.NoError(t, database.UpdatePassword(ctx, db, user.Id, "new"))
	require.NoError(t, database.UpdateUsername(ctx, db, user.Id, "alice"))
	require.NoError(t, database.UpdateProfilePic(ctx, db, user.Id, "profile_pics/a.png"))
	database.TouchLastLogin(ctx, db, user.Id)

	found, err := database.GetUser(ctx, db, user.Id)
	require.NoError(t, err)
	assert.Equal(t, "new", found.PasswordHash.String)
	assert.Equal(t, "alice", found.Username.String)
	assert.Equal(t, "profile_pics/a.png", found.ProfilePic.String)
	assert.True(t, found.LastLogin.Valid)

	require.NoError(t, database.UpdateUsername(ctx, db, user.Id, ""))
	found, err = database.GetUser(ctx, db, user.Id)
	require.NoError(t, err)
	assert.False(t, found.Username.Valid)
}

func TestDeleteUserRemovesHistory(t *testing.T) {
	alice, bob := newUser("alice@example.com"), newUser("bob@example.com")
	db := createDB(t, alice, bob,
		prediction(alice.Id, "city", "Car", 4, time.Now()),
		prediction(alice.Id, "verna", "Car", 5, time.Now()),
		prediction(bob.Id, "pulsar", "Bike", 1, time.Now()),
	)
	ctx := context.Background()

	require.NoError(t, database.DeleteUser(ctx, db, alice.Id))

	_, err := database.GetUser(ctx, db, alice.Id)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var count int64
	require.NoError(t, db.Model(&database.Prediction{}).Where("user_id = ?", alice.Id).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&database.Prediction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, database.DeleteUser(ctx, db, alice.Id), gorm.ErrRecordNotFound)
}
