package implementation

import (
	"context"
	"errors"

	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/mapper"
	"prompt-manager-core/internal/model"
	"prompt-manager-core/internal/repository/contract"
	"prompt-manager-core/internal/repository/specification"
	"prompt-manager-core/pkg/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromptRepositoryImpl struct {
	db       *gorm.DB
	mapper   *mapper.PromptMapper
	recorder contract.ChangeRecorder
}

func NewPromptRepository(db *gorm.DB, recorder contract.ChangeRecorder) contract.PromptRepository {
	return &PromptRepositoryImpl{
		db:       db,
		mapper:   mapper.NewPromptMapper(),
		recorder: recorderOrNop(recorder),
	}
}

func (r *PromptRepositoryImpl) Create(ctx context.Context, prompt *entity.Prompt) error {
	m := r.mapper.ToModel(prompt)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return contract.WrapPersistence("create prompt", err)
	}
	prompt.CreatedAt = m.CreatedAt
	r.recorder.Record(events.EntityPrompt, m.Id, events.OpInsert)
	return nil
}

func (r *PromptRepositoryImpl) Update(ctx context.Context, prompt *entity.Prompt) error {
	m := r.mapper.ToModel(prompt)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return contract.WrapPersistence("update prompt", err)
	}
	r.recorder.Record(events.EntityPrompt, m.Id, events.OpUpdate)
	return nil
}

func (r *PromptRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("prompt_id = ?", id).Delete(&model.PromptHistory{}).Error; err != nil {
		return contract.WrapPersistence("delete prompt histories", err)
	}
	if err := db.Delete(&model.Prompt{}, "id = ?", id).Error; err != nil {
		return contract.WrapPersistence("delete prompt", err)
	}

	r.recorder.Record(events.EntityPrompt, id, events.OpDelete)
	return nil
}

func (r *PromptRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Prompt, error) {
	var m model.Prompt
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, contract.WrapPersistence("find prompt", err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PromptRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Prompt, error) {
	var models []*model.Prompt
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, contract.WrapPersistence("find prompts", err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PromptRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Prompt{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, contract.WrapPersistence("count prompts", err)
	}
	return count, nil
}
