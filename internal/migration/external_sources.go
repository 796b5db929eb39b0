package migration

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"prompt-manager-core/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// externalSourceNamespace seeds the IDs of relocated attachments.
var externalSourceNamespace = uuid.MustParse("6f1f7a52-2d8e-4c1b-9a5e-3c0b7e4f9d21")

// ExternalSourceID is stable for a (prompt, position) pair, so a repeated
// run of the relocation overwrites rows instead of adding new ones.
func ExternalSourceID(promptID uuid.UUID, position int) uuid.UUID {
	return uuid.NewSHA1(externalSourceNamespace, []byte(promptID.String()+"/"+strconv.Itoa(position)))
}

// NewExternalSourceStage moves inline attachments into external_sources
// and turns the string prompt reference on histories into a real prompt_id.
func NewExternalSourceStage() *CustomStage {
	return &CustomStage{
		Label:       "relocate-external-sources",
		FromVersion: 2,
		ToVersion:   3,
		Before:      stageLegacyData,
		Migrate:     relocateColumns,
		After:       rebuildRelations,
	}
}

func stageLegacyData(tx *gorm.DB, mc *MigrationContext) error {
	m := tx.Migrator()

	if m.HasColumn(&promptV2{}, "external_source") {
		var prompts []promptV2
		if err := tx.Select("id", "external_source").Find(&prompts).Error; err != nil {
			return fmt.Errorf("reading inline sources: %w", err)
		}
		for _, p := range prompts {
			blobs, err := decodeInlineSources(p.ExternalSource)
			if err != nil {
				return fmt.Errorf("prompt %s: %w", p.Id, err)
			}
			if len(blobs) > 0 {
				mc.PromptBlobs[p.Id] = blobs
			}
		}
	}

	if m.HasColumn(&historyV1{}, "prompt_ref") {
		var histories []historyV1
		if err := tx.Select("id", "prompt_ref", "prompt").Find(&histories).Error; err != nil {
			return fmt.Errorf("reading histories: %w", err)
		}
		for _, h := range histories {
			// An unparsable reference leaves the history without a prompt.
			promptID, err := uuid.Parse(strings.TrimSpace(h.PromptRef))
			if err != nil {
				promptID = uuid.Nil
			}
			mc.HistoryPrompt[h.Id] = promptID
			mc.HistoryText[h.Id] = h.Prompt
		}
	}

	return nil
}

func decodeInlineSources(raw []byte) ([][]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var blobs [][]byte
	if err := json.Unmarshal(raw, &blobs); err != nil {
		return nil, fmt.Errorf("decoding inline sources: %w", err)
	}
	return blobs, nil
}

// relocateColumns drops the legacy columns first. On SQLite a column drop
// rebuilds the table and loses its indexes, which AutoMigrate then recreates.
func relocateColumns(tx *gorm.DB) error {
	m := tx.Migrator()

	legacy := []struct {
		table  interface{}
		column string
	}{
		{&promptV2{}, "external_source"},
		{&historyV1{}, "prompt_ref"},
		{&historyV1{}, "prompt"},
	}
	for _, l := range legacy {
		if !m.HasColumn(l.table, l.column) {
			continue
		}
		if err := m.DropColumn(l.table, l.column); err != nil {
			return fmt.Errorf("dropping %s: %w", l.column, err)
		}
	}

	return tx.AutoMigrate(model.All()...)
}

func rebuildRelations(tx *gorm.DB, mc *MigrationContext) error {
	for historyID, promptID := range mc.HistoryPrompt {
		updates := map[string]interface{}{
			"prompt_id":   promptID,
			"prompt_text": mc.HistoryText[historyID],
		}
		if promptID == uuid.Nil {
			updates["prompt_id"] = nil
		}
		if err := tx.Model(&model.PromptHistory{}).Where("id = ?", historyID).Updates(updates).Error; err != nil {
			return fmt.Errorf("history %s: %w", historyID, err)
		}
		delete(mc.HistoryPrompt, historyID)
		delete(mc.HistoryText, historyID)
	}

	for promptID, blobs := range mc.PromptBlobs {
		for position, data := range blobs {
			source := model.ExternalSource{
				Id:       ExternalSourceID(promptID, position),
				PromptId: promptID,
				Position: position,
				Data:     data,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"prompt_id", "position", "data"}),
			}).Create(&source).Error
			if err != nil {
				return fmt.Errorf("external source %d of prompt %s: %w", position, promptID, err)
			}
		}
		delete(mc.PromptBlobs, promptID)
	}

	return nil
}
