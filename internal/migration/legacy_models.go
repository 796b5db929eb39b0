package migration

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Table layouts of earlier schema generations. They are only used to build
// legacy stores and to address legacy columns while migrating.

// promptV1 kept attachments inline as a JSON array of base64 blobs.
type promptV1 struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name           string         `gorm:"type:varchar(255);not null;index"`
	ExternalSource datatypes.JSON `gorm:"column:external_source"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time
}

func (promptV1) TableName() string { return "prompts" }

type promptV2 struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name           string         `gorm:"type:varchar(255);not null;index"`
	Description    *string        `gorm:"type:text"`
	SourceLink     *string        `gorm:"type:text"`
	ExternalSource datatypes.JSON `gorm:"column:external_source"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time
}

func (promptV2) TableName() string { return "prompts" }

// historyV1 referenced its prompt through a plain string column.
type historyV1 struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	PromptRef string    `gorm:"column:prompt_ref;type:varchar(64)"`
	Prompt    string    `gorm:"column:prompt;type:text"`
	Version   int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

func (historyV1) TableName() string { return "prompt_histories" }

type sharedCreationV1 struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(255);not null;index"`
	Prompt          string    `gorm:"type:text"`
	Description     *string   `gorm:"type:text"`
	IsPublic        bool      `gorm:"not null;default:false"`
	RemoteRecordId  *string   `gorm:"type:varchar(64);index"`
	RemoteChangeTag *string   `gorm:"type:varchar(64)"`
}

func (sharedCreationV1) TableName() string { return "shared_creations" }

type sharedCreationV2 struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(255);not null;index"`
	Prompt          string    `gorm:"type:text"`
	Description     *string   `gorm:"type:text"`
	IsPublic        bool      `gorm:"not null;default:false"`
	LastModified    time.Time
	RemoteRecordId  *string `gorm:"type:varchar(64);index"`
	RemoteChangeTag *string `gorm:"type:varchar(64)"`
}

func (sharedCreationV2) TableName() string { return "shared_creations" }

type dataSourceV1 struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	SharedCreationId uuid.UUID `gorm:"type:uuid;not null;index"`
	Position         int       `gorm:"not null;default:0"`
	Data             []byte
}

func (dataSourceV1) TableName() string { return "data_sources" }

// generationOneModels creates an unversioned generation 1 store.
func generationOneModels() []interface{} {
	return []interface{}{&promptV1{}, &historyV1{}, &sharedCreationV1{}, &dataSourceV1{}}
}
