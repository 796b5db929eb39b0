package unitofwork

import (
	"context"
	"fmt"
	"sync"

	"prompt-manager-core/internal/pkg/logger"
	"prompt-manager-core/internal/repository/contract"
	"prompt-manager-core/internal/repository/implementation"
	"prompt-manager-core/pkg/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db     *gorm.DB
	tx     *gorm.DB
	ctx    context.Context
	sink   ChangeSink
	logger logger.ILogger

	mu      sync.Mutex
	pending []events.ChangeEvent
}

func NewUnitOfWork(db *gorm.DB, sink ChangeSink, log logger.ILogger) UnitOfWork {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &UnitOfWorkImpl{
		db:     db,
		ctx:    context.Background(),
		sink:   sink,
		logger: log,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return contract.WrapPersistence("begin", fmt.Errorf("transaction already started"))
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return contract.WrapPersistence("begin", tx.Error)
	}
	u.tx = tx
	u.ctx = ctx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return contract.WrapPersistence("commit", fmt.Errorf("no transaction to commit"))
	}
	err := u.tx.Commit().Error
	u.tx = nil
	if err != nil {
		u.discard()
		return contract.WrapPersistence("commit", err)
	}

	u.flush()
	return nil
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return contract.WrapPersistence("rollback", fmt.Errorf("no transaction to rollback"))
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	u.discard()
	return contract.WrapPersistence("rollback", err)
}

// Record implements contract.ChangeRecorder. Writes made outside a
// transaction are already durable and are handed over immediately.
func (u *UnitOfWorkImpl) Record(entity string, id uuid.UUID, op events.ChangeOp) {
	u.mu.Lock()
	u.pending = append(u.pending, events.NewChangeEvent(entity, id, op))
	u.mu.Unlock()

	if u.tx == nil {
		u.flush()
	}
}

func (u *UnitOfWorkImpl) discard() {
	u.mu.Lock()
	u.pending = nil
	u.mu.Unlock()
}

// flush hands committed changes to the sink. Replication problems are logged
// and never reported to the caller of Commit.
func (u *UnitOfWorkImpl) flush() {
	u.mu.Lock()
	changes := u.pending
	u.pending = nil
	u.mu.Unlock()

	if u.sink == nil || len(changes) == 0 {
		return
	}
	if err := u.sink.Publish(u.ctx, changes); err != nil {
		u.logger.Warn("UnitOfWork", "Failed to queue changes for replication", map[string]interface{}{
			"error":   err.Error(),
			"changes": len(changes),
		})
	}
}

// Repository Accessors

func (u *UnitOfWorkImpl) PromptRepository() contract.PromptRepository {
	return implementation.NewPromptRepository(u.getDB(), u)
}

func (u *UnitOfWorkImpl) PromptHistoryRepository() contract.PromptHistoryRepository {
	return implementation.NewPromptHistoryRepository(u.getDB(), u)
}

func (u *UnitOfWorkImpl) ExternalAssetRepository() contract.ExternalAssetRepository {
	return implementation.NewExternalAssetRepository(u.getDB(), u)
}

func (u *UnitOfWorkImpl) SharedCreationRepository() contract.SharedCreationRepository {
	return implementation.NewSharedCreationRepository(u.getDB(), u)
}

func (u *UnitOfWorkImpl) DataSourceRepository() contract.DataSourceRepository {
	return implementation.NewDataSourceRepository(u.getDB(), u)
}
