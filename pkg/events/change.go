package events

import (
	"time"

	"github.com/google/uuid"
)

type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// Entity names used in change events.
const (
	EntityPrompt         = "prompt"
	EntityPromptHistory  = "prompt_history"
	EntityExternalAsset  = "external_asset"
	EntitySharedCreation = "shared_creation"
	EntityDataSource     = "data_source"
)

// ChangeEvent describes one committed write to the local store.
type ChangeEvent struct {
	Entity     string    `json:"entity"`
	EntityID   uuid.UUID `json:"entity_id"`
	Op         ChangeOp  `json:"op"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewChangeEvent(entity string, id uuid.UUID, op ChangeOp) ChangeEvent {
	return ChangeEvent{
		Entity:     entity,
		EntityID:   id,
		Op:         op,
		OccurredAt: time.Now().UTC(),
	}
}
