package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"resale-backend/internal/database"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"gorm.io/gorm"
)

const (
	ResetTokenMaxAge = 30 * time.Minute

	resetTokenName = "reset_password"
)

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

type resetPayload struct {
	UserId uuid.UUID `json:"uid"`
	Stamp  string    `json:"stp"`
}

// ResetTokens issues signed, timestamped password reset tokens. A token is
// bound to the password hash at the time it was issued, so it stops working
// once the password has been changed.
type ResetTokens struct {
	codec *securecookie.SecureCookie
}

func NewResetTokens(secret string) *ResetTokens {
	codec := securecookie.New(DeriveKey(secret, "reset"), nil)
	codec.MaxAge(int(ResetTokenMaxAge.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &ResetTokens{codec: codec}
}

func passwordStamp(user *database.User) string {
	hash := sha256.Sum256([]byte(user.PasswordHash.String))
	return hex.EncodeToString(hash[:8])
}

func (t *ResetTokens) Generate(user *database.User) (string, error) {
	token, err := t.codec.Encode(resetTokenName, resetPayload{UserId: user.Id, Stamp: passwordStamp(user)})
	if err != nil {
		return "", fmt.Errorf("error encoding reset token: %w", err)
	}
	return token, nil
}

func (t *ResetTokens) Verify(ctx context.Context, db *gorm.DB, token string) (*database.User, error) {
	var payload resetPayload
	if err := t.codec.Decode(resetTokenName, token, &payload); err != nil {
		return nil, ErrInvalidResetToken
	}

	user, err := database.GetUser(ctx, db, payload.UserId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}

	if passwordStamp(user) != payload.Stamp {
		return nil, ErrInvalidResetToken
	}

	return user, nil
}
