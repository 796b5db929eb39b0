package model

import (
	"time"

	"github.com/google/uuid"
)

type SharedCreation struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(255);not null;index"`
	Prompt          string    `gorm:"type:text"`
	Description     *string   `gorm:"type:text"`
	IsPublic        bool      `gorm:"not null;default:false"`
	LastModified    time.Time
	RemoteRecordId  *string `gorm:"type:varchar(64);index"`
	RemoteChangeTag *string `gorm:"type:varchar(64)"`
}

func (SharedCreation) TableName() string {
	return "shared_creations"
}

type DataSource struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	SharedCreationId uuid.UUID `gorm:"type:uuid;not null;index"`
	Position         int       `gorm:"not null;default:0"`
	Data             []byte
}

func (DataSource) TableName() string {
	return "data_sources"
}

// All lists the current-generation tables in creation order.
func All() []interface{} {
	return []interface{}{
		&Prompt{},
		&PromptHistory{},
		&ExternalSource{},
		&SharedCreation{},
		&DataSource{},
	}
}
