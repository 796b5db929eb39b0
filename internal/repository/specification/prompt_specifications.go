package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByPromptID struct {
	PromptID uuid.UUID
}

func (s ByPromptID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("prompt_id = ?", s.PromptID)
}

// ByName matches the prompt name exactly.
type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}
