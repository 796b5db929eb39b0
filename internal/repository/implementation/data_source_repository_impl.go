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

type DataSourceRepositoryImpl struct {
	db       *gorm.DB
	mapper   *mapper.DataSourceMapper
	recorder contract.ChangeRecorder
}

func NewDataSourceRepository(db *gorm.DB, recorder contract.ChangeRecorder) contract.DataSourceRepository {
	return &DataSourceRepositoryImpl{
		db:       db,
		mapper:   mapper.NewDataSourceMapper(),
		recorder: recorderOrNop(recorder),
	}
}

func (r *DataSourceRepositoryImpl) Create(ctx context.Context, source *entity.DataSource) error {
	m := r.mapper.ToModel(source)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return contract.WrapPersistence("create data source", err)
	}
	r.recorder.Record(events.EntityDataSource, m.Id, events.OpInsert)
	return nil
}

func (r *DataSourceRepositoryImpl) DeleteBySharedCreationID(ctx context.Context, sharedCreationID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("shared_creation_id = ?", sharedCreationID).Delete(&model.DataSource{}).Error; err != nil {
		return contract.WrapPersistence("delete data sources", err)
	}
	r.recorder.Record(events.EntityDataSource, sharedCreationID, events.OpDelete)
	return nil
}

func (r *DataSourceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DataSource, error) {
	var models []*model.DataSource
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Order("position ASC").Find(&models).Error; err != nil {
		return nil, contract.WrapPersistence("find data sources", err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DataSourceRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.DataSource{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, contract.WrapPersistence("count data sources", err)
	}
	return count, nil
}
