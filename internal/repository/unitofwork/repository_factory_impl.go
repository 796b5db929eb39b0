package unitofwork

import (
	"context"

	"prompt-manager-core/internal/pkg/logger"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db     *gorm.DB
	sink   ChangeSink
	logger logger.ILogger
}

type Option func(*RepositoryFactoryImpl)

// WithChangeSink queues committed changes for background replication.
func WithChangeSink(sink ChangeSink) Option {
	return func(f *RepositoryFactoryImpl) {
		f.sink = sink
	}
}

func WithLogger(log logger.ILogger) Option {
	return func(f *RepositoryFactoryImpl) {
		f.logger = log
	}
}

func NewRepositoryFactory(db *gorm.DB, opts ...Option) RepositoryFactory {
	f := &RepositoryFactoryImpl{db: db}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	// Short lived, one per operation.
	return NewUnitOfWork(f.db, f.sink, f.logger)
}
