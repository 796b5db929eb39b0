package service

import (
	"context"
	"testing"

	"prompt-manager-core/internal/dto"
	"prompt-manager-core/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePrompt_StoresFirstHistoryAndAttachments(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())

	created := seedPrompt(t, svc, "Foo", "hello", []byte("a"), []byte("b"))

	got, err := svc.GetPrompt(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Foo", got.Name)
	require.Len(t, got.Histories, 1)
	assert.Equal(t, 0, got.Histories[0].Version)
	assert.Equal(t, "hello", got.Histories[0].PromptText)
	require.Len(t, got.ExternalAssets, 2)
	assert.Equal(t, []byte("a"), got.ExternalAssets[0].Data)
	assert.Equal(t, []byte("b"), got.ExternalAssets[1].Data)
}

func TestCreatePrompt_RejectsInvalidRequest(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())

	_, err := svc.CreatePrompt(context.Background(), &dto.CreatePromptRequest{Text: "no name"})
	assert.ErrorIs(t, err, dto.ErrInvalidRequest)
}

func TestDeletePrompt_CascadesToHistoriesAndAssets(t *testing.T) {
	db, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())
	ctx := context.Background()

	prompt := seedPrompt(t, svc, "Foo", "hello", []byte("attachment"))
	_, err := svc.AcceptRewrite(ctx, &dto.AcceptRewriteRequest{PromptId: prompt.Id, Text: "hello again"})
	require.NoError(t, err)
	keep := seedPrompt(t, svc, "Bar", "untouched", []byte("other"))

	require.NoError(t, svc.DeletePrompt(ctx, prompt.Id))

	var histories, assets int64
	require.NoError(t, db.Model(&model.PromptHistory{}).Where("prompt_id = ?", prompt.Id).Count(&histories).Error)
	require.NoError(t, db.Model(&model.ExternalSource{}).Where("prompt_id = ?", prompt.Id).Count(&assets).Error)
	assert.Zero(t, histories)
	assert.Zero(t, assets)

	_, err = svc.GetPrompt(ctx, prompt.Id)
	assert.ErrorIs(t, err, ErrPromptNotFound)

	survivor, err := svc.GetPrompt(ctx, keep.Id)
	require.NoError(t, err)
	assert.Len(t, survivor.Histories, 1)
	assert.Len(t, survivor.ExternalAssets, 1)
}

func TestListPrompts_PagesAndFiltersByName(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		seedPrompt(t, svc, name, "text "+name)
	}

	all, err := svc.ListPrompts(ctx, &dto.ListPromptsRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	first, err := svc.ListPrompts(ctx, &dto.ListPromptsRequest{Limit: 2})
	require.NoError(t, err)
	second, err := svc.ListPrompts(ctx, &dto.ListPromptsRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Len(t, second, 1)

	var names []string
	for _, p := range append(first, second...) {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"A", "B", "C"}, names)

	named, err := svc.ListPrompts(ctx, &dto.ListPromptsRequest{Name: "B"})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "B", named[0].Name)

	_, err = svc.ListPrompts(ctx, &dto.ListPromptsRequest{Limit: -1})
	assert.ErrorIs(t, err, dto.ErrInvalidRequest)
}

func TestDeletePrompt_Unknown(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())

	err := svc.DeletePrompt(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestAcceptRewrite_AppendsNextVersion(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())
	ctx := context.Background()

	prompt := seedPrompt(t, svc, "Foo", "v0")
	first, err := svc.AcceptRewrite(ctx, &dto.AcceptRewriteRequest{PromptId: prompt.Id, Text: "v1"})
	require.NoError(t, err)
	second, err := svc.AcceptRewrite(ctx, &dto.AcceptRewriteRequest{PromptId: prompt.Id, Text: "v2"})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	latest, err := svc.LatestHistory(ctx, prompt.Id)
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.PromptText)

	got, err := svc.GetPrompt(ctx, prompt.Id)
	require.NoError(t, err)
	assert.NotNil(t, got.UpdatedAt)
}

func TestAcceptRewrite_UnknownPrompt(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())

	_, err := svc.AcceptRewrite(context.Background(), &dto.AcceptRewriteRequest{PromptId: uuid.New(), Text: "x"})
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestEditHistoryText(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())
	ctx := context.Background()

	prompt := seedPrompt(t, svc, "Foo", "typo")
	edited, err := svc.EditHistoryText(ctx, &dto.EditHistoryRequest{HistoryId: prompt.Histories[0].Id, Text: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, 0, edited.Version)

	latest, err := svc.LatestHistory(ctx, prompt.Id)
	require.NoError(t, err)
	assert.Equal(t, "fixed", latest.PromptText)
}

func TestDeleteHistory_KeepsLastHistory(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())
	ctx := context.Background()

	prompt := seedPrompt(t, svc, "Foo", "v0")
	err := svc.DeleteHistory(ctx, prompt.Histories[0].Id)
	assert.ErrorIs(t, err, ErrLastHistory)

	rewrite, err := svc.AcceptRewrite(ctx, &dto.AcceptRewriteRequest{PromptId: prompt.Id, Text: "v1"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteHistory(ctx, rewrite.Id))

	latest, err := svc.LatestHistory(ctx, prompt.Id)
	require.NoError(t, err)
	assert.Equal(t, "v0", latest.PromptText)
}

func TestCreateShareDraft_CopiesLatestContent(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())
	ctx := context.Background()

	prompt := seedPrompt(t, svc, "Foo", "v0", []byte("payload"))
	_, err := svc.AcceptRewrite(ctx, &dto.AcceptRewriteRequest{PromptId: prompt.Id, Text: "v1"})
	require.NoError(t, err)

	draft, err := svc.CreateShareDraft(ctx, &dto.CreateShareDraftRequest{PromptId: prompt.Id, IsPublic: true})
	require.NoError(t, err)
	assert.True(t, draft.IsDraft())
	assert.Equal(t, "Foo", draft.Name)
	assert.Equal(t, "v1", draft.Prompt)
	assert.True(t, draft.IsPublic)
	require.Len(t, draft.DataSources, 1)
	assert.Equal(t, []byte("payload"), draft.DataSources[0].Data)
}

func TestFindSharedCreation_MatchesContentTuple(t *testing.T) {
	_, factory := newTestStore(t)
	svc := NewPromptService(factory, nopLogger())
	ctx := context.Background()

	prompt := seedPrompt(t, svc, "Foo", "hello")
	first, err := svc.CreateShareDraft(ctx, &dto.CreateShareDraftRequest{PromptId: prompt.Id})
	require.NoError(t, err)
	second, err := svc.CreateShareDraft(ctx, &dto.CreateShareDraftRequest{PromptId: prompt.Id})
	require.NoError(t, err)

	found, err := svc.FindSharedCreation(ctx, &dto.FindSharedCreationRequest{Name: "Foo", Text: "hello"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.ElementsMatch(t, []uuid.UUID{first.Id, second.Id}, []uuid.UUID{found[0].Id, found[1].Id})

	desc := "described"
	none, err := svc.FindSharedCreation(ctx, &dto.FindSharedCreationRequest{Name: "Foo", Text: "hello", Description: &desc})
	require.NoError(t, err)
	assert.Empty(t, none)
}
