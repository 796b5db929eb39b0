package entity

import (
	"time"

	"github.com/google/uuid"
)

type Prompt struct {
	Id             uuid.UUID
	Name           string
	Description    *string
	SourceLink     *string
	ExternalAssets []*ExternalAsset
	Histories      []*PromptHistory
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// LatestHistory returns the entry with the highest version, or nil.
func (p *Prompt) LatestHistory() *PromptHistory {
	var latest *PromptHistory
	for _, h := range p.Histories {
		if latest == nil || h.Version > latest.Version {
			latest = h
		}
	}
	return latest
}

type PromptHistory struct {
	Id         uuid.UUID
	PromptId   uuid.UUID
	PromptText string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ExternalAsset is a binary attachment stored out-of-line from its Prompt.
type ExternalAsset struct {
	Id       uuid.UUID
	PromptId uuid.UUID
	Position int
	Data     []byte
}
