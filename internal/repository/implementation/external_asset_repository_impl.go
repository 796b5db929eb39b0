package implementation

import (
	"context"

	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/mapper"
	"prompt-manager-core/internal/model"
	"prompt-manager-core/internal/repository/contract"
	"prompt-manager-core/internal/repository/specification"
	"prompt-manager-core/pkg/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExternalAssetRepositoryImpl struct {
	db       *gorm.DB
	mapper   *mapper.ExternalAssetMapper
	recorder contract.ChangeRecorder
}

func NewExternalAssetRepository(db *gorm.DB, recorder contract.ChangeRecorder) contract.ExternalAssetRepository {
	return &ExternalAssetRepositoryImpl{
		db:       db,
		mapper:   mapper.NewExternalAssetMapper(),
		recorder: recorderOrNop(recorder),
	}
}

func (r *ExternalAssetRepositoryImpl) Create(ctx context.Context, asset *entity.ExternalAsset) error {
	m := r.mapper.ToModel(asset)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return contract.WrapPersistence("create external asset", err)
	}
	r.recorder.Record(events.EntityExternalAsset, m.Id, events.OpInsert)
	return nil
}

func (r *ExternalAssetRepositoryImpl) DeleteByPromptID(ctx context.Context, promptID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("prompt_id = ?", promptID).Delete(&model.ExternalSource{}).Error; err != nil {
		return contract.WrapPersistence("delete external assets", err)
	}
	r.recorder.Record(events.EntityExternalAsset, promptID, events.OpDelete)
	return nil
}

func (r *ExternalAssetRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExternalAsset, error) {
	var models []*model.ExternalSource
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Order("position ASC").Find(&models).Error; err != nil {
		return nil, contract.WrapPersistence("find external assets", err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ExternalAssetRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ExternalSource{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, contract.WrapPersistence("count external assets", err)
	}
	return count, nil
}
