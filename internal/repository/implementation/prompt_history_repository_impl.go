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

type PromptHistoryRepositoryImpl struct {
	db       *gorm.DB
	mapper   *mapper.PromptHistoryMapper
	recorder contract.ChangeRecorder
}

func NewPromptHistoryRepository(db *gorm.DB, recorder contract.ChangeRecorder) contract.PromptHistoryRepository {
	return &PromptHistoryRepositoryImpl{
		db:       db,
		mapper:   mapper.NewPromptHistoryMapper(),
		recorder: recorderOrNop(recorder),
	}
}

func (r *PromptHistoryRepositoryImpl) Create(ctx context.Context, history *entity.PromptHistory) error {
	m := r.mapper.ToModel(history)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return contract.WrapPersistence("create prompt history", err)
	}
	r.recorder.Record(events.EntityPromptHistory, m.Id, events.OpInsert)
	return nil
}

func (r *PromptHistoryRepositoryImpl) Update(ctx context.Context, history *entity.PromptHistory) error {
	m := r.mapper.ToModel(history)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return contract.WrapPersistence("update prompt history", err)
	}
	r.recorder.Record(events.EntityPromptHistory, m.Id, events.OpUpdate)
	return nil
}

func (r *PromptHistoryRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.PromptHistory{}, "id = ?", id).Error; err != nil {
		return contract.WrapPersistence("delete prompt history", err)
	}
	r.recorder.Record(events.EntityPromptHistory, id, events.OpDelete)
	return nil
}

func (r *PromptHistoryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PromptHistory, error) {
	var m model.PromptHistory
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, contract.WrapPersistence("find prompt history", err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PromptHistoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PromptHistory, error) {
	var models []*model.PromptHistory
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, contract.WrapPersistence("find prompt histories", err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PromptHistoryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.PromptHistory{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, contract.WrapPersistence("count prompt histories", err)
	}
	return count, nil
}
