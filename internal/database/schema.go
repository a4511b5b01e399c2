package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email        string `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash sql.NullString
	IsGoogle     bool `gorm:"default:false"`

	Username   sql.NullString `gorm:"size:100"`
	ProfilePic sql.NullString

	CreationTime time.Time
	LastLogin    sql.NullTime

	Predictions []Prediction `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

// Prediction is one history record. It is written once after a successful
// estimate and never updated.
type Prediction struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId uuid.UUID `gorm:"type:uuid;not null;index"`

	Type           string `gorm:"size:50;not null"`
	Brand          string `gorm:"size:100;not null"`
	Model          string `gorm:"size:100;not null"`
	Mileage        string `gorm:"size:50;not null"`
	PredictedPrice string `gorm:"size:50;not null"`
	PriceValue     float64

	Fuel         sql.NullString `gorm:"size:20"`
	Transmission sql.NullString `gorm:"size:20"`
	Seller       sql.NullString `gorm:"size:20"`

	Features datatypes.JSON

	Date time.Time `gorm:"index"`
}
