package service

import (
	"context"
	"path/filepath"
	"testing"

	"prompt-manager-core/internal/dto"
	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/migration"
	"prompt-manager-core/internal/pkg/logger"
	"prompt-manager-core/internal/repository/unitofwork"
	"prompt-manager-core/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*gorm.DB, unitofwork.RepositoryFactory) {
	t.Helper()
	db, err := database.OpenQuiet(database.DriverSQLite, filepath.Join(t.TempDir(), "prompts.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, migration.NewEngine(db).Open(context.Background()))
	return db, unitofwork.NewRepositoryFactory(db)
}

func seedPrompt(t *testing.T, svc IPromptService, name, text string, attachments ...[]byte) *entity.Prompt {
	t.Helper()
	prompt, err := svc.CreatePrompt(context.Background(), &dto.CreatePromptRequest{
		Name:        name,
		Text:        text,
		Attachments: attachments,
	})
	require.NoError(t, err)
	return prompt
}

func nopLogger() logger.ILogger {
	return logger.NewNopLogger()
}
