// FILE: internal/service/prompt_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prompt-manager-core/internal/dto"
	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/pkg/logger"
	"prompt-manager-core/internal/repository/specification"
	"prompt-manager-core/internal/repository/unitofwork"

	"github.com/google/uuid"
)

var (
	ErrPromptNotFound  = errors.New("prompt not found")
	ErrHistoryNotFound = errors.New("prompt history not found")
	// ErrLastHistory protects the rule that a saved prompt keeps at least one history.
	ErrLastHistory = errors.New("cannot delete the only history of a prompt")
)

type IPromptService interface {
	CreatePrompt(ctx context.Context, req *dto.CreatePromptRequest) (*entity.Prompt, error)
	GetPrompt(ctx context.Context, id uuid.UUID) (*entity.Prompt, error)
	ListPrompts(ctx context.Context, req *dto.ListPromptsRequest) ([]*entity.Prompt, error)
	LatestHistory(ctx context.Context, promptID uuid.UUID) (*entity.PromptHistory, error)
	AcceptRewrite(ctx context.Context, req *dto.AcceptRewriteRequest) (*entity.PromptHistory, error)
	EditHistoryText(ctx context.Context, req *dto.EditHistoryRequest) (*entity.PromptHistory, error)
	DeleteHistory(ctx context.Context, historyID uuid.UUID) error
	DeletePrompt(ctx context.Context, id uuid.UUID) error
	CreateShareDraft(ctx context.Context, req *dto.CreateShareDraftRequest) (*entity.SharedCreation, error)
	FindSharedCreation(ctx context.Context, req *dto.FindSharedCreationRequest) ([]*entity.SharedCreation, error)
}

type promptService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewPromptService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IPromptService {
	return &promptService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

// CreatePrompt saves the prompt, its first history (version 0) and its
// attachments as one unit.
func (s *promptService) CreatePrompt(ctx context.Context, req *dto.CreatePromptRequest) (*entity.Prompt, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prompt := &entity.Prompt{
		Id:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		SourceLink:  req.SourceLink,
		CreatedAt:   now,
	}
	history := &entity.PromptHistory{
		Id:         uuid.New(),
		PromptId:   prompt.Id,
		PromptText: req.Text,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	prompt.Histories = []*entity.PromptHistory{history}
	for i, data := range req.Attachments {
		prompt.ExternalAssets = append(prompt.ExternalAssets, &entity.ExternalAsset{
			Id:       uuid.New(),
			PromptId: prompt.Id,
			Position: i,
			Data:     data,
		})
	}

	err := unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		if err := uow.PromptRepository().Create(ctx, prompt); err != nil {
			return err
		}
		if err := uow.PromptHistoryRepository().Create(ctx, history); err != nil {
			return err
		}
		for _, asset := range prompt.ExternalAssets {
			if err := uow.ExternalAssetRepository().Create(ctx, asset); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("PromptService", "Prompt created", map[string]interface{}{
		"prompt_id":   prompt.Id.String(),
		"attachments": len(prompt.ExternalAssets),
	})
	return prompt, nil
}

// GetPrompt loads the prompt with its histories (oldest version first) and
// its attachments in list order.
func (s *promptService) GetPrompt(ctx context.Context, id uuid.UUID) (*entity.Prompt, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	prompt, err := uow.PromptRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, ErrPromptNotFound
	}

	histories, err := uow.PromptHistoryRepository().FindAll(ctx,
		specification.ByPromptID{PromptID: id},
		specification.OrderBy{Field: "version"},
	)
	if err != nil {
		return nil, err
	}
	assets, err := uow.ExternalAssetRepository().FindAll(ctx, specification.ByPromptID{PromptID: id})
	if err != nil {
		return nil, err
	}

	prompt.Histories = histories
	prompt.ExternalAssets = assets
	return prompt, nil
}

// ListPrompts returns prompts newest first, one page at a time.
func (s *promptService) ListPrompts(ctx context.Context, req *dto.ListPromptsRequest) ([]*entity.Prompt, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: req.Limit, Offset: req.Offset},
	}
	if req.Name != "" {
		specs = append(specs, specification.ByName{Name: req.Name})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.PromptRepository().FindAll(ctx, specs...)
}

func (s *promptService) LatestHistory(ctx context.Context, promptID uuid.UUID) (*entity.PromptHistory, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	history, err := uow.PromptHistoryRepository().FindOne(ctx,
		specification.ByPromptID{PromptID: promptID},
		specification.OrderBy{Field: "version", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, ErrHistoryNotFound
	}
	return history, nil
}

// AcceptRewrite appends a history one version above the current latest.
func (s *promptService) AcceptRewrite(ctx context.Context, req *dto.AcceptRewriteRequest) (*entity.PromptHistory, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var history *entity.PromptHistory
	err := unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		prompt, err := uow.PromptRepository().FindOne(ctx, specification.ByID{ID: req.PromptId})
		if err != nil {
			return err
		}
		if prompt == nil {
			return ErrPromptNotFound
		}

		latest, err := uow.PromptHistoryRepository().FindOne(ctx,
			specification.ByPromptID{PromptID: req.PromptId},
			specification.OrderBy{Field: "version", Desc: true},
		)
		if err != nil {
			return err
		}

		next := 0
		if latest != nil {
			next = latest.Version + 1
		}
		now := time.Now().UTC()
		history = &entity.PromptHistory{
			Id:         uuid.New(),
			PromptId:   req.PromptId,
			PromptText: req.Text,
			Version:    next,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := uow.PromptHistoryRepository().Create(ctx, history); err != nil {
			return err
		}

		prompt.UpdatedAt = &now
		return uow.PromptRepository().Update(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// EditHistoryText changes the text of an existing version in place.
func (s *promptService) EditHistoryText(ctx context.Context, req *dto.EditHistoryRequest) (*entity.PromptHistory, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var history *entity.PromptHistory
	err := unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		found, err := uow.PromptHistoryRepository().FindOne(ctx, specification.ByID{ID: req.HistoryId})
		if err != nil {
			return err
		}
		if found == nil {
			return ErrHistoryNotFound
		}

		found.PromptText = req.Text
		found.UpdatedAt = time.Now().UTC()
		history = found
		return uow.PromptHistoryRepository().Update(ctx, found)
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (s *promptService) DeleteHistory(ctx context.Context, historyID uuid.UUID) error {
	return unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		history, err := uow.PromptHistoryRepository().FindOne(ctx, specification.ByID{ID: historyID})
		if err != nil {
			return err
		}
		if history == nil {
			return ErrHistoryNotFound
		}

		remaining, err := uow.PromptHistoryRepository().Count(ctx, specification.ByPromptID{PromptID: history.PromptId})
		if err != nil {
			return err
		}
		if remaining <= 1 {
			return ErrLastHistory
		}
		return uow.PromptHistoryRepository().Delete(ctx, historyID)
	})
}

// DeletePrompt removes the prompt, every history and every attachment.
func (s *promptService) DeletePrompt(ctx context.Context, id uuid.UUID) error {
	err := unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		prompt, err := uow.PromptRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return err
		}
		if prompt == nil {
			return ErrPromptNotFound
		}
		if err := uow.ExternalAssetRepository().DeleteByPromptID(ctx, id); err != nil {
			return err
		}
		return uow.PromptRepository().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("PromptService", "Prompt deleted", map[string]interface{}{
		"prompt_id": id.String(),
	})
	return nil
}

// CreateShareDraft copies the prompt's latest text and its attachments into
// a new SharedCreation without a remote reference.
func (s *promptService) CreateShareDraft(ctx context.Context, req *dto.CreateShareDraftRequest) (*entity.SharedCreation, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	prompt, err := s.GetPrompt(ctx, req.PromptId)
	if err != nil {
		return nil, err
	}
	latest := prompt.LatestHistory()
	if latest == nil {
		return nil, fmt.Errorf("prompt %s: %w", prompt.Id, ErrHistoryNotFound)
	}

	draft := &entity.SharedCreation{
		Id:           uuid.New(),
		Name:         prompt.Name,
		Prompt:       latest.PromptText,
		Description:  prompt.Description,
		IsPublic:     req.IsPublic,
		LastModified: time.Now().UTC(),
	}
	for i, asset := range prompt.ExternalAssets {
		draft.DataSources = append(draft.DataSources, &entity.DataSource{
			Id:               uuid.New(),
			SharedCreationId: draft.Id,
			Position:         i,
			Data:             asset.Data,
		})
	}

	err = unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		if err := uow.SharedCreationRepository().Create(ctx, draft); err != nil {
			return err
		}
		for _, ds := range draft.DataSources {
			if err := uow.DataSourceRepository().Create(ctx, ds); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// FindSharedCreation is a best-effort lookup by content. Several shares of the
// same content may exist; they are returned newest first.
func (s *promptService) FindSharedCreation(ctx context.Context, req *dto.FindSharedCreationRequest) ([]*entity.SharedCreation, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SharedCreationRepository().FindAll(ctx,
		specification.ByContent{Name: req.Name, Text: req.Text, Description: req.Description},
		specification.OrderBy{Field: "last_modified", Desc: true},
	)
}
