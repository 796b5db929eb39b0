package specification

import "gorm.io/gorm"

// Specification defines the interface for query specifications.
// Implementations only compose equality, inequality, ordering and paging
// over declared columns.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
