package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySharedCreationID struct {
	SharedCreationID uuid.UUID
}

func (s BySharedCreationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("shared_creation_id = ?", s.SharedCreationID)
}

// ByContent matches a shared creation on its (name, prompt, description)
// tuple. A nil Description only matches rows without one.
type ByContent struct {
	Name        string
	Text        string
	Description *string
}

func (s ByContent) Apply(db *gorm.DB) *gorm.DB {
	db = db.Where("name = ? AND prompt = ?", s.Name, s.Text)
	if s.Description == nil {
		return db.Where("description IS NULL")
	}
	return db.Where("description = ?", *s.Description)
}

// HasRemoteReference selects creations that were pushed at least once.
type HasRemoteReference struct{}

func (s HasRemoteReference) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("remote_record_id IS NOT NULL AND remote_record_id <> ''")
}
