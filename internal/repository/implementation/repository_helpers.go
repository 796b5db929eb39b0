package implementation

import (
	"prompt-manager-core/internal/repository/contract"
	"prompt-manager-core/internal/repository/specification"

	"gorm.io/gorm"
)

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func recorderOrNop(rec contract.ChangeRecorder) contract.ChangeRecorder {
	if rec == nil {
		return contract.NopRecorder
	}
	return rec
}
