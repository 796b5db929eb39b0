package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"prompt-manager-core/internal/model"
	"prompt-manager-core/internal/pkg/logger"

	"gorm.io/gorm"
)

const module = "Migration"

var (
	// ErrUnmigratable is fatal. The store stays at the generation it had
	// before the failing stage and must not be used by the application.
	ErrUnmigratable = errors.New("store cannot be migrated")

	// ErrIncompleteMigration means an after-hook left staged data behind.
	ErrIncompleteMigration = errors.New("migration left staged data unconsumed")
)

type State int

const (
	StateClosed State = iota
	StateOpening
	StateStageRunning
	StateOpen
	StateUnmigratable
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateStageRunning:
		return "stage-running"
	case StateOpen:
		return "open"
	case StateUnmigratable:
		return "unmigratable"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Engine brings a store from whatever generation it is at up to the latest
// one, one stage at a time. Open must succeed before any repository touches
// the database.
type Engine struct {
	db     *gorm.DB
	stages []Stage
	logger logger.ILogger

	mu         sync.RWMutex
	state      State
	stageIndex int
}

type Option func(*Engine)

// WithStages replaces the default plan.
func WithStages(stages ...Stage) Option {
	return func(e *Engine) {
		e.stages = stages
	}
}

func WithLogger(log logger.ILogger) Option {
	return func(e *Engine) {
		e.logger = log
	}
}

func NewEngine(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:         db,
		stages:     DefaultPlan(),
		logger:     logger.NewNopLogger(),
		stageIndex: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current state and, while a stage runs, its index.
func (e *Engine) State() (State, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state, e.stageIndex
}

func (e *Engine) setState(s State, stage int) {
	e.mu.Lock()
	e.state = s
	e.stageIndex = stage
	e.mu.Unlock()
}

// Latest is the generation the plan ends at.
func (e *Engine) Latest() int {
	if len(e.stages) == 0 {
		return 1
	}
	return e.stages[len(e.stages)-1].To()
}

// Generation reads the store's current version tag.
func (e *Engine) Generation(ctx context.Context) (int, error) {
	return detectGeneration(e.db.WithContext(ctx))
}

// Open runs every pending stage in order. A fresh store is created directly
// at the latest generation.
func (e *Engine) Open(ctx context.Context) error {
	if s, _ := e.State(); s == StateOpen {
		return nil
	}
	e.setState(StateOpening, -1)

	db := e.db.WithContext(ctx)
	current, err := detectGeneration(db)
	if err != nil {
		return e.fail(fmt.Errorf("%w: reading version tag: %v", ErrUnmigratable, err))
	}

	latest := e.Latest()
	if current == generationFresh {
		if err := e.createFresh(db, latest); err != nil {
			return e.fail(fmt.Errorf("%w: creating store: %v", ErrUnmigratable, err))
		}
		e.logger.Info(module, "Created store at latest generation", map[string]interface{}{
			"generation": latest,
		})
		e.setState(StateOpen, -1)
		return nil
	}

	if current > latest {
		return e.fail(fmt.Errorf("%w: store generation %d is newer than %d", ErrUnmigratable, current, latest))
	}

	for i, stage := range e.stages {
		if stage.From() < current {
			continue
		}
		if stage.From() != current {
			return e.fail(fmt.Errorf("%w: no stage leads from generation %d", ErrUnmigratable, current))
		}

		e.setState(StateStageRunning, i)
		if err := e.runStage(db, stage); err != nil {
			e.logger.Error(module, "Stage failed", map[string]interface{}{
				"stage": stage.Name(),
				"from":  stage.From(),
				"to":    stage.To(),
				"error": err.Error(),
			})
			return e.fail(fmt.Errorf("%w: stage %s: %w", ErrUnmigratable, stage.Name(), err))
		}
		e.logger.Info(module, "Stage completed", map[string]interface{}{
			"stage": stage.Name(),
			"to":    stage.To(),
		})
		current = stage.To()
	}

	if current != latest {
		return e.fail(fmt.Errorf("%w: stopped at generation %d, want %d", ErrUnmigratable, current, latest))
	}

	e.setState(StateOpen, -1)
	return nil
}

func (e *Engine) runStage(db *gorm.DB, stage Stage) error {
	mc := NewMigrationContext(stage.Name())
	defer mc.Clear()

	return db.Transaction(func(tx *gorm.DB) error {
		if err := stage.Run(tx, mc); err != nil {
			return err
		}
		if !mc.Drained() {
			return fmt.Errorf("%w: %d entries", ErrIncompleteMigration, mc.Pending())
		}
		return writeGeneration(tx, stage.To())
	})
}

func (e *Engine) createFresh(db *gorm.DB, latest int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(model.All()...); err != nil {
			return err
		}
		return writeGeneration(tx, latest)
	})
}

func (e *Engine) fail(err error) error {
	e.setState(StateUnmigratable, -1)
	return err
}
