package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prompt-manager-core/pkg/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(name string, public bool) *remote.Record {
	rec := remote.NewRecord("SharedCreationRecord")
	rec.Fields["name"] = name
	rec.Fields["isPublic"] = public
	return rec
}

func TestStore_SaveCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Save(ctx, newRecord("first", false))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.ChangeTag)

	created.Fields["name"] = "renamed"
	updated, err := s.Save(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.NotEqual(t, created.ChangeTag, updated.ChangeTag)
	assert.Equal(t, 1, s.Len())

	fetched, err := s.Fetch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", fetched.Fields["name"])
}

func TestStore_StaleChangeTagConflicts(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Save(ctx, newRecord("first", false))
	require.NoError(t, err)

	stale := created.Clone()
	_, err = s.Save(ctx, created)
	require.NoError(t, err)

	_, err = s.Save(ctx, stale)
	conflict, ok := remote.AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, created.ID, conflict.RecordID)
	require.NotNil(t, conflict.Server)
	assert.NotEqual(t, stale.ChangeTag, conflict.Server.ChangeTag)
}

func TestStore_MissingRecord(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Fetch(ctx, "nope")
	assert.ErrorIs(t, err, remote.ErrNotFound)

	rec := newRecord("ghost", false)
	rec.ID = "nope"
	_, err = s.Save(ctx, rec)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "nope"), remote.ErrNotFound)
}

func TestStore_CancelledContextIsTransportError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Fetch(ctx, "x")
	assert.True(t, remote.IsTransport(err))
	assert.False(t, remote.IsNotFound(err))
}

func TestStore_QueryFiltersSortsAndLimits(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for _, r := range []*remote.Record{
		newRecord("a", true),
		newRecord("b", false),
		newRecord("c", true),
		newRecord("d", true),
	} {
		_, err := s.Save(ctx, r)
		require.NoError(t, err)
	}

	got, err := s.Query(ctx, remote.Query{
		RecordType:         "SharedCreationRecord",
		Equals:             map[string]any{"isPublic": true},
		SortByModifiedDesc: true,
		Limit:              2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].Fields["name"])
	assert.Equal(t, "c", got[1].Fields["name"])

	none, err := s.Query(ctx, remote.Query{RecordType: "Other"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_AssetFromFileSurvivesFileRemoval(t *testing.T) {
	ctx := context.Background()
	s := New()

	path := filepath.Join(t.TempDir(), "asset.bin")
	require.NoError(t, os.WriteFile(path, []byte("bytes on disk"), 0o600))

	rec := newRecord("with asset", false)
	rec.Fields["dataSourceAssets"] = []remote.Asset{{FilePath: path}}
	created, err := s.Save(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	fetched, err := s.Fetch(ctx, created.ID)
	require.NoError(t, err)
	assets := fetched.Fields["dataSourceAssets"].([]remote.Asset)
	require.Len(t, assets, 1)
	assert.Equal(t, []byte("bytes on disk"), assets[0].Data)
	assert.Empty(t, assets[0].FilePath)
}

func TestStore_FetchReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Save(ctx, newRecord("orig", false))
	require.NoError(t, err)

	created.Fields["name"] = "mutated locally"
	fetched, err := s.Fetch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", fetched.Fields["name"])
}
