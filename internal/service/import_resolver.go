package service

import (
	"context"

	"prompt-manager-core/internal/deeplink"
	"prompt-manager-core/internal/pkg/logger"

	"github.com/google/uuid"
)

// ImportResolver turns a shared-creation deep link into a local prompt.
type ImportResolver struct {
	sync   ISyncService
	scheme string
	logger logger.ILogger
}

func NewImportResolver(sync ISyncService, scheme string, log logger.ILogger) *ImportResolver {
	if scheme == "" {
		scheme = deeplink.DefaultScheme
	}
	return &ImportResolver{sync: sync, scheme: scheme, logger: log}
}

// Resolve validates uri before anything touches the remote store and returns
// the ID of the newly created prompt.
func (r *ImportResolver) Resolve(ctx context.Context, uri string) (uuid.UUID, error) {
	id, err := deeplink.Parse(uri, r.scheme)
	if err != nil {
		r.logger.Warn("ImportResolver", "Rejected deep link", map[string]interface{}{
			"uri":   uri,
			"error": err.Error(),
		})
		return uuid.Nil, err
	}

	prompt, _, err := r.sync.ImportAndMaterialize(ctx, id.String())
	if err != nil {
		return uuid.Nil, err
	}
	return prompt.Id, nil
}
