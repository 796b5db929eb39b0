package contract

import (
	"github.com/google/uuid"

	"prompt-manager-core/pkg/events"
)

// ChangeRecorder collects the writes a repository performs so they can be
// replicated once the surrounding transaction commits.
type ChangeRecorder interface {
	Record(entity string, id uuid.UUID, op events.ChangeOp)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, uuid.UUID, events.ChangeOp) {}

// NopRecorder discards every change.
var NopRecorder ChangeRecorder = nopRecorder{}
