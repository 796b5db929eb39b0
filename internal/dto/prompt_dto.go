package dto

import (
	"github.com/google/uuid"
)

type CreatePromptRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Text        string   `json:"text" validate:"required"`
	Description *string  `json:"description"`
	SourceLink  *string  `json:"source_link" validate:"omitempty,url"`
	Attachments [][]byte `json:"attachments"`
}

// ListPromptsRequest pages through prompts. A zero Limit returns every prompt.
type ListPromptsRequest struct {
	Name   string `json:"name" query:"name"`
	Limit  int    `json:"limit" query:"limit" validate:"gte=0,lte=500"`
	Offset int    `json:"offset" query:"offset" validate:"gte=0"`
}

// AcceptRewriteRequest stores an accepted AI rewrite as the next version.
type AcceptRewriteRequest struct {
	PromptId uuid.UUID `json:"prompt_id" validate:"required"`
	Text     string    `json:"text" validate:"required"`
}

type EditHistoryRequest struct {
	HistoryId uuid.UUID `json:"history_id" validate:"required"`
	Text      string    `json:"text" validate:"required"`
}

// CreateShareDraftRequest projects a prompt's latest content into a local,
// not yet pushed SharedCreation.
type CreateShareDraftRequest struct {
	PromptId uuid.UUID `json:"prompt_id" validate:"required"`
	IsPublic bool      `json:"is_public"`
}

type FindSharedCreationRequest struct {
	Name        string  `json:"name" validate:"required"`
	Text        string  `json:"text"`
	Description *string `json:"description"`
}
