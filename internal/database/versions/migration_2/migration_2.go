package migration_2

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Prediction struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	PredictedPrice string
	PriceValue     float64 `gorm:"default:0"`
	Features       datatypes.JSON
}

// Migration stores the numeric price next to the formatted one and adds the
// feature vector column. The numeric value of existing rows is recovered from
// the leading number of the formatted price.
func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&Prediction{}, "PriceValue"); err != nil {
		return fmt.Errorf("error adding PriceValue column: %w", err)
	}
	if err := db.Migrator().AddColumn(&Prediction{}, "Features"); err != nil {
		return fmt.Errorf("error adding Features column: %w", err)
	}

	var rows []Prediction
	if err := db.Select("id", "predicted_price").Find(&rows).Error; err != nil {
		return fmt.Errorf("error loading predictions: %w", err)
	}

	for _, row := range rows {
		fields := strings.Fields(row.PredictedPrice)
		if len(fields) == 0 {
			continue
		}
		value, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			slog.Warn("unable to parse stored price", "prediction_id", row.Id, "price", row.PredictedPrice)
			continue
		}
		if err := db.Model(&Prediction{Id: row.Id}).Update("price_value", value).Error; err != nil {
			return fmt.Errorf("error backfilling price for prediction %v: %w", row.Id, err)
		}
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&Prediction{}, "Features"); err != nil {
		return fmt.Errorf("error dropping Features column: %w", err)
	}
	if err := db.Migrator().DropColumn(&Prediction{}, "PriceValue"); err != nil {
		return fmt.Errorf("error dropping PriceValue column: %w", err)
	}
	return nil
}
