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

type SharedCreationRepositoryImpl struct {
	db       *gorm.DB
	mapper   *mapper.SharedCreationMapper
	recorder contract.ChangeRecorder
}

func NewSharedCreationRepository(db *gorm.DB, recorder contract.ChangeRecorder) contract.SharedCreationRepository {
	return &SharedCreationRepositoryImpl{
		db:       db,
		mapper:   mapper.NewSharedCreationMapper(),
		recorder: recorderOrNop(recorder),
	}
}

func (r *SharedCreationRepositoryImpl) Create(ctx context.Context, creation *entity.SharedCreation) error {
	m := r.mapper.ToModel(creation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return contract.WrapPersistence("create shared creation", err)
	}
	r.recorder.Record(events.EntitySharedCreation, m.Id, events.OpInsert)
	return nil
}

// Update writes every column, including a cleared remote reference.
func (r *SharedCreationRepositoryImpl) Update(ctx context.Context, creation *entity.SharedCreation) error {
	m := r.mapper.ToModel(creation)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return contract.WrapPersistence("update shared creation", err)
	}
	r.recorder.Record(events.EntitySharedCreation, m.Id, events.OpUpdate)
	return nil
}

func (r *SharedCreationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("shared_creation_id = ?", id).Delete(&model.DataSource{}).Error; err != nil {
		return contract.WrapPersistence("delete data sources", err)
	}
	if err := db.Delete(&model.SharedCreation{}, "id = ?", id).Error; err != nil {
		return contract.WrapPersistence("delete shared creation", err)
	}

	r.recorder.Record(events.EntitySharedCreation, id, events.OpDelete)
	return nil
}

func (r *SharedCreationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SharedCreation, error) {
	var m model.SharedCreation
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, contract.WrapPersistence("find shared creation", err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SharedCreationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SharedCreation, error) {
	var models []*model.SharedCreation
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, contract.WrapPersistence("find shared creations", err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SharedCreationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.SharedCreation{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, contract.WrapPersistence("count shared creations", err)
	}
	return count, nil
}
