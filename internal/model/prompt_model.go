package model

import (
	"time"

	"github.com/google/uuid"
)

// Relationships are resolved by the repositories rather than declared as gorm
// associations, so cascade deletes run inside the caller's transaction on every
// driver.

type Prompt struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(255);not null;index"`
	Description *string   `gorm:"type:text"`
	SourceLink  *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
}

func (Prompt) TableName() string {
	return "prompts"
}

type PromptHistory struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PromptId   uuid.UUID `gorm:"type:uuid;index"`
	PromptText string    `gorm:"type:text"`
	Version    int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time
}

func (PromptHistory) TableName() string {
	return "prompt_histories"
}

type ExternalSource struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PromptId uuid.UUID `gorm:"type:uuid;not null;index"`
	Position int       `gorm:"not null;default:0"`
	Data     []byte
}

func (ExternalSource) TableName() string {
	return "external_sources"
}
