package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("email is already registered")

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func CreateUser(ctx context.Context, txn *gorm.DB, email, passwordHash string) (*User, error) {
	user := User{
		Id:           uuid.New(),
		Email:        NormalizeEmail(email),
		PasswordHash: sql.NullString{String: passwordHash, Valid: passwordHash != ""},
		CreationTime: time.Now().UTC(),
	}

	err := txn.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var count int64
		if err := txn.Model(&User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("error checking for existing user: %w", err)
		}
		if count > 0 {
			return ErrEmailTaken
		}

		if err := txn.Create(&user).Error; err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			slog.Error("error creating user", "email", user.Email, "error", err)
		}
		return nil, err
	}

	return &user, nil
}

func GetUser(ctx context.Context, txn *gorm.DB, userId uuid.UUID) (*User, error) {
	var user User
	if err := txn.WithContext(ctx).First(&user, "id = ?", userId).Error; err != nil {
		return nil, fmt.Errorf("error getting user %v: %w", userId, err)
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, txn *gorm.DB, email string) (*User, error) {
	var user User
	if err := txn.WithContext(ctx).First(&user, "email = ?", NormalizeEmail(email)).Error; err != nil {
		return nil, fmt.Errorf("error getting user by email: %w", err)
	}
	return &user, nil
}

// FindOrCreateOAuthUser returns the account registered under email, creating
// a passwordless Google account the first time the address is seen.
func FindOrCreateOAuthUser(ctx context.Context, txn *gorm.DB, email, name string) (*User, error) {
	email = NormalizeEmail(email)

	attrs := User{
		Id:           uuid.New(),
		IsGoogle:     true,
		Username:     sql.NullString{String: name, Valid: name != ""},
		CreationTime: time.Now().UTC(),
	}

	var user User
	if err := txn.WithContext(ctx).Where(User{Email: email}).Attrs(attrs).FirstOrCreate(&user).Error; err != nil {
		slog.Error("error finding or creating oauth user", "email", email, "error", err)
		return nil, fmt.Errorf("error finding or creating user: %w", err)
	}
	return &user, nil
}

func UpdatePassword(ctx context.Context, txn *gorm.DB, userId uuid.UUID, passwordHash string) error {
	result := txn.WithContext(ctx).Model(&User{Id: userId}).Update("password_hash", sql.NullString{String: passwordHash, Valid: true})
	if result.Error != nil {
		slog.Error("error updating password", "user_id", userId, "error", result.Error)
		return fmt.Errorf("error updating password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("error updating password for user %v: %w", userId, gorm.ErrRecordNotFound)
	}
	return nil
}

func UpdateUsername(ctx context.Context, txn *gorm.DB, userId uuid.UUID, username string) error {
	value := sql.NullString{String: username, Valid: username != ""}
	if err := txn.WithContext(ctx).Model(&User{Id: userId}).Update("username", value).Error; err != nil {
		slog.Error("error updating username", "user_id", userId, "error", err)
		return fmt.Errorf("error updating username: %w", err)
	}
	return nil
}

func UpdateProfilePic(ctx context.Context, txn *gorm.DB, userId uuid.UUID, key string) error {
	value := sql.NullString{String: key, Valid: key != ""}
	if err := txn.WithContext(ctx).Model(&User{Id: userId}).Update("profile_pic", value).Error; err != nil {
		slog.Error("error updating profile picture", "user_id", userId, "error", err)
		return fmt.Errorf("error updating profile picture: %w", err)
	}
	return nil
}

func TouchLastLogin(ctx context.Context, txn *gorm.DB, userId uuid.UUID) {
	now := sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err := txn.WithContext(ctx).Model(&User{Id: userId}).Update("last_login", now).Error; err != nil {
		slog.Error("error updating last login", "user_id", userId, "error", err)
	}
}

// DeleteUser removes the account together with its history.
func DeleteUser(ctx context.Context, txn *gorm.DB, userId uuid.UUID) error {
	return txn.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("user_id = ?", userId).Delete(&Prediction{}).Error; err != nil {
			return fmt.Errorf("error deleting predictions: %w", err)
		}

		result := txn.Delete(&User{Id: userId})
		if result.Error != nil {
			return fmt.Errorf("error deleting user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("error deleting user %v: %w", userId, gorm.ErrRecordNotFound)
		}

		slog.Info("deleted user", "user_id", userId)
		return nil
	})
}
