package dto

import (
	"time"

	"prompt-manager-core/internal/entity"

	"github.com/google/uuid"
)

type PromptHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Version   int       `json:"version"`
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PromptResponse struct {
	Id          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	Description *string                 `json:"description,omitempty"`
	SourceLink  *string                 `json:"source_link,omitempty"`
	Attachments int                     `json:"attachments"`
	Histories   []PromptHistoryResponse `json:"histories,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   *time.Time              `json:"updated_at,omitempty"`
}

type SharedCreationResponse struct {
	Id           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Prompt       string    `json:"prompt"`
	Description  *string   `json:"description,omitempty"`
	IsPublic     bool      `json:"is_public"`
	Attachments  int       `json:"attachments"`
	RemoteID     string    `json:"remote_id,omitempty"`
	LastModified time.Time `json:"last_modified"`
	Link         string    `json:"link,omitempty"`
}

type ImportRequest struct {
	URI string `json:"uri" validate:"required"`
}

type ImportResponse struct {
	PromptId uuid.UUID `json:"prompt_id"`
}

type CleanupResponse struct {
	Checked     int         `json:"checked"`
	Kept        int         `json:"kept"`
	Deleted     []uuid.UUID `json:"deleted"`
	Unreachable []uuid.UUID `json:"unreachable"`
}

func NewPromptHistoryResponse(h *entity.PromptHistory) PromptHistoryResponse {
	return PromptHistoryResponse{
		Id:        h.Id,
		Version:   h.Version,
		Text:      h.PromptText,
		UpdatedAt: h.UpdatedAt,
	}
}

func NewPromptResponse(p *entity.Prompt) PromptResponse {
	res := PromptResponse{
		Id:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		SourceLink:  p.SourceLink,
		Attachments: len(p.ExternalAssets),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, h := range p.Histories {
		res.Histories = append(res.Histories, NewPromptHistoryResponse(h))
	}
	return res
}

func NewSharedCreationResponse(sc *entity.SharedCreation) SharedCreationResponse {
	res := SharedCreationResponse{
		Id:           sc.Id,
		Name:         sc.Name,
		Prompt:       sc.Prompt,
		Description:  sc.Description,
		IsPublic:     sc.IsPublic,
		Attachments:  len(sc.DataSources),
		LastModified: sc.LastModified,
	}
	if sc.RemoteRef != nil {
		res.RemoteID = sc.RemoteRef.RecordID
	}
	return res
}
