package contract

import (
	"context"

	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/repository/specification"

	"github.com/google/uuid"
)

type PromptRepository interface {
	Create(ctx context.Context, prompt *entity.Prompt) error
	Update(ctx context.Context, prompt *entity.Prompt) error
	// Delete removes the prompt together with its histories. External assets
	// are removed through ExternalAssetRepository.DeleteByPromptID.
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Prompt, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Prompt, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type PromptHistoryRepository interface {
	Create(ctx context.Context, history *entity.PromptHistory) error
	Update(ctx context.Context, history *entity.PromptHistory) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PromptHistory, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PromptHistory, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type ExternalAssetRepository interface {
	Create(ctx context.Context, asset *entity.ExternalAsset) error
	DeleteByPromptID(ctx context.Context, promptID uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExternalAsset, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
