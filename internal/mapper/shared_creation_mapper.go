package mapper

import (
	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/model"
)

type SharedCreationMapper struct{}

func NewSharedCreationMapper() *SharedCreationMapper {
	return &SharedCreationMapper{}
}

func (m *SharedCreationMapper) ToEntity(s *model.SharedCreation) *entity.SharedCreation {
	if s == nil {
		return nil
	}

	var ref *entity.RemoteReference
	if s.RemoteRecordId != nil && *s.RemoteRecordId != "" {
		ref = &entity.RemoteReference{RecordID: *s.RemoteRecordId}
		if s.RemoteChangeTag != nil {
			ref.ChangeTag = *s.RemoteChangeTag
		}
	}

	return &entity.SharedCreation{
		Id:           s.Id,
		Name:         s.Name,
		Prompt:       s.Prompt,
		Description:  s.Description,
		IsPublic:     s.IsPublic,
		LastModified: s.LastModified,
		RemoteRef:    ref,
	}
}

func (m *SharedCreationMapper) ToModel(s *entity.SharedCreation) *model.SharedCreation {
	if s == nil {
		return nil
	}

	var recordID, changeTag *string
	if s.RemoteRef != nil {
		id, tag := s.RemoteRef.RecordID, s.RemoteRef.ChangeTag
		recordID, changeTag = &id, &tag
	}

	return &model.SharedCreation{
		Id:              s.Id,
		Name:            s.Name,
		Prompt:          s.Prompt,
		Description:     s.Description,
		IsPublic:        s.IsPublic,
		LastModified:    s.LastModified,
		RemoteRecordId:  recordID,
		RemoteChangeTag: changeTag,
	}
}

func (m *SharedCreationMapper) ToEntities(creations []*model.SharedCreation) []*entity.SharedCreation {
	entities := make([]*entity.SharedCreation, len(creations))
	for i, s := range creations {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

type DataSourceMapper struct{}

func NewDataSourceMapper() *DataSourceMapper {
	return &DataSourceMapper{}
}

func (m *DataSourceMapper) ToEntity(d *model.DataSource) *entity.DataSource {
	if d == nil {
		return nil
	}
	return &entity.DataSource{
		Id:               d.Id,
		SharedCreationId: d.SharedCreationId,
		Position:         d.Position,
		Data:             d.Data,
	}
}

func (m *DataSourceMapper) ToModel(d *entity.DataSource) *model.DataSource {
	if d == nil {
		return nil
	}
	return &model.DataSource{
		Id:               d.Id,
		SharedCreationId: d.SharedCreationId,
		Position:         d.Position,
		Data:             d.Data,
	}
}

func (m *DataSourceMapper) ToEntities(sources []*model.DataSource) []*entity.DataSource {
	entities := make([]*entity.DataSource, len(sources))
	for i, d := range sources {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
