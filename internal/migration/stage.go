package migration

import (
	"gorm.io/gorm"
)

// Stage moves a store from one generation to the next. Run receives the
// stage transaction; the engine bumps the version tag in the same transaction.
type Stage interface {
	Name() string
	From() int
	To() int
	Run(tx *gorm.DB, mc *MigrationContext) error
}

// LightweightStage only adds tables and columns; no data is rewritten.
type LightweightStage struct {
	Label       string
	FromVersion int
	ToVersion   int
	Models      []interface{}
}

func (s *LightweightStage) Name() string { return s.Label }
func (s *LightweightStage) From() int    { return s.FromVersion }
func (s *LightweightStage) To() int      { return s.ToVersion }

func (s *LightweightStage) Run(tx *gorm.DB, _ *MigrationContext) error {
	return tx.AutoMigrate(s.Models...)
}

// Hook reads or writes staged data around a structural change.
type Hook func(tx *gorm.DB, mc *MigrationContext) error

// CustomStage stages data in Before, applies the structural change in
// Migrate and rebuilds relationships in After.
type CustomStage struct {
	Label       string
	FromVersion int
	ToVersion   int
	Before      Hook
	Migrate     func(tx *gorm.DB) error
	After       Hook
}

func (s *CustomStage) Name() string { return s.Label }
func (s *CustomStage) From() int    { return s.FromVersion }
func (s *CustomStage) To() int      { return s.ToVersion }

func (s *CustomStage) Run(tx *gorm.DB, mc *MigrationContext) error {
	if s.Before != nil {
		if err := s.Before(tx, mc); err != nil {
			return err
		}
	}
	if s.Migrate != nil {
		if err := s.Migrate(tx); err != nil {
			return err
		}
	}
	if s.After != nil {
		if err := s.After(tx, mc); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPlan is the ordered list of stages from generation 1 to 3.
func DefaultPlan() []Stage {
	return []Stage{
		&LightweightStage{
			Label:       "add-descriptions",
			FromVersion: 1,
			ToVersion:   2,
			Models:      []interface{}{&promptV2{}, &sharedCreationV2{}},
		},
		NewExternalSourceStage(),
	}
}
