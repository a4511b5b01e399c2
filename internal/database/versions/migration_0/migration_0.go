package migration_0

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash sql.NullString
	IsGoogle     bool           `gorm:"default:false"`
	Username     sql.NullString `gorm:"size:100"`
	ProfilePic   sql.NullString
	CreationTime time.Time
	LastLogin    sql.NullTime

	Predictions []Prediction `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

type Prediction struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index"`
	Type           string    `gorm:"size:50;not null"`
	Brand          string    `gorm:"size:100;not null"`
	Model          string    `gorm:"size:100;not null"`
	Mileage        string    `gorm:"size:50;not null"`
	PredictedPrice string    `gorm:"size:50;not null"`
	Date           time.Time `gorm:"index"`
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Prediction{}); err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}
