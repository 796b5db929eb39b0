package contract

import (
	"context"

	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/repository/specification"

	"github.com/google/uuid"
)

type SharedCreationRepository interface {
	Create(ctx context.Context, creation *entity.SharedCreation) error
	Update(ctx context.Context, creation *entity.SharedCreation) error
	// Delete removes the creation together with its data sources.
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SharedCreation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SharedCreation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type DataSourceRepository interface {
	Create(ctx context.Context, source *entity.DataSource) error
	DeleteBySharedCreationID(ctx context.Context, sharedCreationID uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DataSource, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
