package migration

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const schemaVersionRow = 1

// SchemaVersion is the single-row generation tag of a store.
type SchemaVersion struct {
	ID        int `gorm:"primaryKey;autoIncrement:false"`
	Version   int `gorm:"not null"`
	UpdatedAt time.Time
}

func (SchemaVersion) TableName() string {
	return "schema_versions"
}

// generationFresh marks a store with no tables at all.
const generationFresh = 0

// detectGeneration reads the version tag. An untagged store that already
// holds prompts predates versioning and is generation 1.
func detectGeneration(db *gorm.DB) (int, error) {
	m := db.Migrator()
	if m.HasTable(&SchemaVersion{}) {
		var row SchemaVersion
		err := db.First(&row, "id = ?", schemaVersionRow).Error
		if err == nil {
			return row.Version, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
	}
	if m.HasTable("prompts") {
		return 1, nil
	}
	return generationFresh, nil
}

func writeGeneration(tx *gorm.DB, version int) error {
	if err := tx.AutoMigrate(&SchemaVersion{}); err != nil {
		return err
	}
	row := SchemaVersion{ID: schemaVersionRow, Version: version, UpdatedAt: time.Now().UTC()}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "updated_at"}),
	}).Create(&row).Error
}
