package mapper

import (
	"time"

	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/model"
)

type PromptMapper struct{}

func NewPromptMapper() *PromptMapper {
	return &PromptMapper{}
}

func (m *PromptMapper) ToEntity(p *model.Prompt) *entity.Prompt {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Prompt{
		Id:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		SourceLink:  p.SourceLink,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *PromptMapper) ToModel(p *entity.Prompt) *model.Prompt {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.Prompt{
		Id:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		SourceLink:  p.SourceLink,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *PromptMapper) ToEntities(prompts []*model.Prompt) []*entity.Prompt {
	entities := make([]*entity.Prompt, len(prompts))
	for i, p := range prompts {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

type PromptHistoryMapper struct{}

func NewPromptHistoryMapper() *PromptHistoryMapper {
	return &PromptHistoryMapper{}
}

func (m *PromptHistoryMapper) ToEntity(h *model.PromptHistory) *entity.PromptHistory {
	if h == nil {
		return nil
	}
	return &entity.PromptHistory{
		Id:         h.Id,
		PromptId:   h.PromptId,
		PromptText: h.PromptText,
		Version:    h.Version,
		CreatedAt:  h.CreatedAt,
		UpdatedAt:  h.UpdatedAt,
	}
}

func (m *PromptHistoryMapper) ToModel(h *entity.PromptHistory) *model.PromptHistory {
	if h == nil {
		return nil
	}
	return &model.PromptHistory{
		Id:         h.Id,
		PromptId:   h.PromptId,
		PromptText: h.PromptText,
		Version:    h.Version,
		CreatedAt:  h.CreatedAt,
		UpdatedAt:  h.UpdatedAt,
	}
}

func (m *PromptHistoryMapper) ToEntities(histories []*model.PromptHistory) []*entity.PromptHistory {
	entities := make([]*entity.PromptHistory, len(histories))
	for i, h := range histories {
		entities[i] = m.ToEntity(h)
	}
	return entities
}

type ExternalAssetMapper struct{}

func NewExternalAssetMapper() *ExternalAssetMapper {
	return &ExternalAssetMapper{}
}

func (m *ExternalAssetMapper) ToEntity(s *model.ExternalSource) *entity.ExternalAsset {
	if s == nil {
		return nil
	}
	return &entity.ExternalAsset{
		Id:       s.Id,
		PromptId: s.PromptId,
		Position: s.Position,
		Data:     s.Data,
	}
}

func (m *ExternalAssetMapper) ToModel(a *entity.ExternalAsset) *model.ExternalSource {
	if a == nil {
		return nil
	}
	return &model.ExternalSource{
		Id:       a.Id,
		PromptId: a.PromptId,
		Position: a.Position,
		Data:     a.Data,
	}
}

func (m *ExternalAssetMapper) ToEntities(sources []*model.ExternalSource) []*entity.ExternalAsset {
	entities := make([]*entity.ExternalAsset, len(sources))
	for i, s := range sources {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
