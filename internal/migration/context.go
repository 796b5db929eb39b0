package migration

import "github.com/google/uuid"

// MigrationContext carries data from a custom stage's before-hook to its
// after-hook. It is created when the stage starts, drained by the after-hook
// and cleared when the stage ends; nothing outside a pipeline run reads it.
type MigrationContext struct {
	Stage string

	// PromptBlobs holds inline attachments keyed by old prompt ID.
	PromptBlobs map[uuid.UUID][][]byte
	// HistoryPrompt holds the legacy prompt reference of each history row.
	HistoryPrompt map[uuid.UUID]uuid.UUID
	// HistoryText holds the raw prompt text of each history row.
	HistoryText map[uuid.UUID]string
}

func NewMigrationContext(stage string) *MigrationContext {
	return &MigrationContext{
		Stage:         stage,
		PromptBlobs:   make(map[uuid.UUID][][]byte),
		HistoryPrompt: make(map[uuid.UUID]uuid.UUID),
		HistoryText:   make(map[uuid.UUID]string),
	}
}

// Pending returns the number of staged entries not yet consumed.
func (mc *MigrationContext) Pending() int {
	return len(mc.PromptBlobs) + len(mc.HistoryPrompt) + len(mc.HistoryText)
}

func (mc *MigrationContext) Drained() bool {
	return mc.Pending() == 0
}

func (mc *MigrationContext) Clear() {
	clear(mc.PromptBlobs)
	clear(mc.HistoryPrompt)
	clear(mc.HistoryText)
}
