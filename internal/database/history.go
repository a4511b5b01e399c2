package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotOwner = errors.New("prediction belongs to another user")

// History is the per-user log of successful estimates.
type History interface {
	Append(ctx context.Context, prediction *Prediction) error

	ListRecent(ctx context.Context, userId uuid.UUID, limit int) ([]Prediction, error)

	Get(ctx context.Context, userId, predictionId uuid.UUID) (Prediction, error)

	Delete(ctx context.Context, userId, predictionId uuid.UUID) error

	DeleteForUser(ctx context.Context, userId uuid.UUID) error

	Insights(ctx context.Context, userId uuid.UUID) (Insights, error)
}

type HistoryStore struct {
	db *gorm.DB
}

func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (h *HistoryStore) Append(ctx context.Context, prediction *Prediction) error {
	if prediction.UserId == uuid.Nil {
		return fmt.Errorf("prediction must belong to a user")
	}
	if prediction.Id == uuid.Nil {
		prediction.Id = uuid.New()
	}
	if prediction.Date.IsZero() {
		prediction.Date = time.Now().UTC()
	}

	if err := h.db.WithContext(ctx).Create(prediction).Error; err != nil {
		slog.Error("error saving prediction", "user_id", prediction.UserId, "error", err)
		return fmt.Errorf("error saving prediction: %w", err)
	}
	return nil
}

// ListRecent returns the user's records newest first. A limit <= 0 returns all
// of them.
func (h *HistoryStore) ListRecent(ctx context.Context, userId uuid.UUID, limit int) ([]Prediction, error) {
	query := h.db.WithContext(ctx).Where("user_id = ?", userId).Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var predictions []Prediction
	if err := query.Find(&predictions).Error; err != nil {
		slog.Error("error listing predictions", "user_id", userId, "error", err)
		return nil, fmt.Errorf("error listing predictions: %w", err)
	}
	return predictions, nil
}

func (h *HistoryStore) Get(ctx context.Context, userId, predictionId uuid.UUID) (Prediction, error) {
	var prediction Prediction
	if err := h.db.WithContext(ctx).Where("user_id = ?", userId).First(&prediction, "id = ?", predictionId).Error; err != nil {
		return Prediction{}, fmt.Errorf("error getting prediction %v: %w", predictionId, err)
	}
	return prediction, nil
}

// Delete removes a single record. It fails with ErrNotOwner when the record
// exists but belongs to someone else, and with gorm.ErrRecordNotFound when it
// does not exist at all.
func (h *HistoryStore) Delete(ctx context.Context, userId, predictionId uuid.UUID) error {
	return h.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var prediction Prediction
		if err := txn.First(&prediction, "id = ?", predictionId).Error; err != nil {
			return fmt.Errorf("error getting prediction %v: %w", predictionId, err)
		}

		if prediction.UserId != userId {
			return ErrNotOwner
		}

		if err := txn.Delete(&Prediction{Id: predictionId}).Error; err != nil {
			slog.Error("error deleting prediction", "prediction_id", predictionId, "error", err)
			return fmt.Errorf("error deleting prediction: %w", err)
		}
		return nil
	})
}

func (h *HistoryStore) DeleteForUser(ctx context.Context, userId uuid.UUID) error {
	if err := h.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&Prediction{}).Error; err != nil {
		slog.Error("error deleting predictions", "user_id", userId, "error", err)
		return fmt.Errorf("error deleting predictions: %w", err)
	}
	return nil
}
