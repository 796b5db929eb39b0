package unitofwork

import (
	"context"

	"prompt-manager-core/internal/repository/contract"
)

// UnitOfWork groups repository writes into one durable unit. Commit is the
// store's save: either every pending write becomes visible or none does.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PromptRepository() contract.PromptRepository
	PromptHistoryRepository() contract.PromptHistoryRepository
	ExternalAssetRepository() contract.ExternalAssetRepository
	SharedCreationRepository() contract.SharedCreationRepository
	DataSourceRepository() contract.DataSourceRepository
}

// Run executes fn inside a transaction and commits it. Any error from fn or
// from the commit rolls the whole batch back.
func Run(ctx context.Context, factory RepositoryFactory, fn func(uow UnitOfWork) error) error {
	uow := factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := fn(uow); err != nil {
		_ = uow.Rollback()
		return err
	}

	return uow.Commit()
}
