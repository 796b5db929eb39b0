package migration

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"prompt-manager-core/internal/model"
	"prompt-manager-core/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openStore(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenQuiet(database.DriverSQLite, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type legacyFixture struct {
	promptID  uuid.UUID
	historyID uuid.UUID
	orphanID  uuid.UUID
	blobs     [][]byte
}

// seedGenerationOne builds an unversioned store holding one prompt with two
// inline attachments, one history pointing at it and one dangling history.
func seedGenerationOne(t *testing.T, db *gorm.DB) legacyFixture {
	t.Helper()
	require.NoError(t, db.AutoMigrate(generationOneModels()...))

	f := legacyFixture{
		promptID:  uuid.New(),
		historyID: uuid.New(),
		orphanID:  uuid.New(),
		blobs:     [][]byte{[]byte("first attachment"), []byte("second attachment")},
	}
	inline, err := json.Marshal(f.blobs)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, db.Create(&promptV1{
		Id: f.promptID, Name: "Summarise", ExternalSource: datatypes.JSON(inline), CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&promptV1{
		Id: uuid.New(), Name: "No attachments", CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&historyV1{
		Id: f.historyID, PromptRef: f.promptID.String(), Prompt: "Summarise this text", Version: 0, CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&historyV1{
		Id: f.orphanID, PromptRef: "not-a-uuid", Prompt: "lost", Version: 0, CreatedAt: now, UpdatedAt: now,
	}).Error)
	return f
}

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(value).Count(&n).Error)
	return n
}

func TestOpen_FreshStoreStartsAtLatestGeneration(t *testing.T) {
	db := openStore(t)
	engine := NewEngine(db)

	require.NoError(t, engine.Open(context.Background()))

	gen, err := engine.Generation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, gen)
	assert.True(t, db.Migrator().HasTable(&model.ExternalSource{}))
	assert.False(t, db.Migrator().HasColumn(&promptV2{}, "external_source"))

	state, _ := engine.State()
	assert.Equal(t, StateOpen, state)
}

func TestOpen_MigratesGenerationOneStore(t *testing.T) {
	db := openStore(t)
	f := seedGenerationOne(t, db)

	require.NoError(t, NewEngine(db).Open(context.Background()))

	gen, err := detectGeneration(db)
	require.NoError(t, err)
	assert.Equal(t, 3, gen)

	m := db.Migrator()
	assert.False(t, m.HasColumn(&promptV2{}, "external_source"))
	assert.False(t, m.HasColumn(&historyV1{}, "prompt_ref"))
	assert.True(t, m.HasColumn(&model.Prompt{}, "description"))
	assert.True(t, m.HasColumn(&model.SharedCreation{}, "last_modified"))

	var history model.PromptHistory
	require.NoError(t, db.First(&history, "id = ?", f.historyID).Error)
	assert.Equal(t, f.promptID, history.PromptId)
	assert.Equal(t, "Summarise this text", history.PromptText)

	var orphan model.PromptHistory
	require.NoError(t, db.First(&orphan, "id = ?", f.orphanID).Error)
	assert.Equal(t, uuid.Nil, orphan.PromptId)
	assert.Equal(t, "lost", orphan.PromptText)

	var sources []model.ExternalSource
	require.NoError(t, db.Order("position").Find(&sources, "prompt_id = ?", f.promptID).Error)
	require.Len(t, sources, 2)
	for i, s := range sources {
		assert.Equal(t, i, s.Position)
		assert.Equal(t, f.blobs[i], s.Data)
		assert.Equal(t, ExternalSourceID(f.promptID, i), s.Id)
	}
	assert.Equal(t, int64(2), countRows(t, db, &model.ExternalSource{}))
}

func TestOpen_IsIdempotent(t *testing.T) {
	db := openStore(t)
	seedGenerationOne(t, db)
	ctx := context.Background()

	require.NoError(t, NewEngine(db).Open(ctx))
	sources := countRows(t, db, &model.ExternalSource{})
	histories := countRows(t, db, &model.PromptHistory{})

	require.NoError(t, NewEngine(db).Open(ctx))
	assert.Equal(t, sources, countRows(t, db, &model.ExternalSource{}))
	assert.Equal(t, histories, countRows(t, db, &model.PromptHistory{}))

	// Running the custom stage again against a migrated store changes nothing.
	stage := NewExternalSourceStage()
	mc := NewMigrationContext(stage.Name())
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return stage.Run(tx, mc)
	}))
	assert.True(t, mc.Drained())
	assert.Equal(t, sources, countRows(t, db, &model.ExternalSource{}))
}

func TestOpen_OverwritesPartiallyRelocatedSources(t *testing.T) {
	db := openStore(t)
	f := seedGenerationOne(t, db)

	require.NoError(t, db.AutoMigrate(&promptV2{}, &sharedCreationV2{}, &model.ExternalSource{}))
	require.NoError(t, writeGeneration(db, 2))
	require.NoError(t, db.Create(&model.ExternalSource{
		Id: ExternalSourceID(f.promptID, 0), PromptId: f.promptID, Position: 0, Data: []byte("stale"),
	}).Error)

	require.NoError(t, NewEngine(db).Open(context.Background()))

	assert.Equal(t, int64(2), countRows(t, db, &model.ExternalSource{}))
	var first model.ExternalSource
	require.NoError(t, db.First(&first, "id = ?", ExternalSourceID(f.promptID, 0)).Error)
	assert.Equal(t, f.blobs[0], first.Data)
}

func TestOpen_FailedStageKeepsPreviousGeneration(t *testing.T) {
	db := openStore(t)
	f := seedGenerationOne(t, db)

	failing := NewExternalSourceStage()
	failing.After = func(tx *gorm.DB, mc *MigrationContext) error {
		return errors.New("disk full")
	}
	plan := DefaultPlan()
	engine := NewEngine(db, WithStages(plan[0], failing))

	err := engine.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnmigratable)

	state, _ := engine.State()
	assert.Equal(t, StateUnmigratable, state)

	gen, err := detectGeneration(db)
	require.NoError(t, err)
	assert.Equal(t, 2, gen)

	m := db.Migrator()
	assert.True(t, m.HasColumn(&promptV2{}, "external_source"))
	assert.True(t, m.HasColumn(&historyV1{}, "prompt_ref"))
	assert.False(t, m.HasTable(&model.ExternalSource{}))

	var legacy historyV1
	require.NoError(t, db.First(&legacy, "id = ?", f.historyID).Error)
	assert.Equal(t, f.promptID.String(), legacy.PromptRef)
}

func TestOpen_UndrainedContextIsIncomplete(t *testing.T) {
	db := openStore(t)
	seedGenerationOne(t, db)

	lazy := NewExternalSourceStage()
	lazy.After = func(tx *gorm.DB, mc *MigrationContext) error { return nil }
	plan := DefaultPlan()

	err := NewEngine(db, WithStages(plan[0], lazy)).Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnmigratable)
	assert.ErrorIs(t, err, ErrIncompleteMigration)
}

func TestOpen_RejectsNewerStore(t *testing.T) {
	db := openStore(t)
	require.NoError(t, NewEngine(db).Open(context.Background()))
	require.NoError(t, writeGeneration(db, 7))

	err := NewEngine(db).Open(context.Background())
	assert.ErrorIs(t, err, ErrUnmigratable)
}

func TestMigrationContext_DrainAndClear(t *testing.T) {
	mc := NewMigrationContext("test")
	assert.True(t, mc.Drained())

	id := uuid.New()
	mc.PromptBlobs[id] = [][]byte{[]byte("x")}
	mc.HistoryText[id] = "text"
	assert.Equal(t, 2, mc.Pending())
	assert.False(t, mc.Drained())

	mc.Clear()
	assert.True(t, mc.Drained())
}

func TestExternalSourceID_IsDeterministic(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, ExternalSourceID(id, 1), ExternalSourceID(id, 1))
	assert.NotEqual(t, ExternalSourceID(id, 0), ExternalSourceID(id, 1))
	assert.NotEqual(t, ExternalSourceID(id, 0), ExternalSourceID(uuid.New(), 0))
}
