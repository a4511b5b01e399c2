package migration_1

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

type Prediction struct {
	Fuel         sql.NullString `gorm:"size:20"`
	Transmission sql.NullString `gorm:"size:20"`
	Seller       sql.NullString `gorm:"size:20"`
}

var columns = []string{"Fuel", "Transmission", "Seller"}

// Migration adds the optional vehicle attributes to existing history rows.
// Older rows keep NULL for all three.
func Migration(db *gorm.DB) error {
	for _, column := range columns {
		if db.Migrator().HasColumn(&Prediction{}, column) {
			continue
		}
		if err := db.Migrator().AddColumn(&Prediction{}, column); err != nil {
			return fmt.Errorf("error adding %s column: %w", column, err)
		}
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	for _, column := range columns {
		if err := db.Migrator().DropColumn(&Prediction{}, column); err != nil {
			return fmt.Errorf("error dropping %s column: %w", column, err)
		}
	}
	return nil
}
