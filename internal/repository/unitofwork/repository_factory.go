package unitofwork

import (
	"context"

	"prompt-manager-core/pkg/events"
)

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

// ChangeSink receives the changes of every committed unit of work.
type ChangeSink interface {
	Publish(ctx context.Context, changes []events.ChangeEvent) error
}
