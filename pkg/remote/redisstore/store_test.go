package redisstore

import (
	"context"
	"os"
	"testing"

	"prompt-manager-core/pkg/blobstore"
	"prompt-manager-core/pkg/remote"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a live server; set REDIS_URL to run them.
func newStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping redis store tests: REDIS_URL not set")
	}

	ctx := context.Background()
	rdb, err := Connect(ctx, url)
	require.NoError(t, err)

	blobs, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)

	prefix := "test-" + uuid.NewString()
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		rdb.Close()
	})
	return New(rdb, blobs, prefix)
}

func TestStore_RoundTripAndConflict(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	rec := remote.NewRecord("SharedCreationRecord")
	rec.Fields["name"] = "Foo"
	rec.Fields["isPublic"] = true
	rec.Fields["dataSourceAssets"] = []remote.Asset{{Data: []byte("blob")}}

	created, err := s.Save(ctx, rec)
	require.NoError(t, err)

	fetched, err := s.Fetch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Foo", fetched.Fields["name"])
	assert.Equal(t, []byte("blob"), fetched.Fields["dataSourceAssets"].([]remote.Asset)[0].Data)

	stale := fetched.Clone()
	_, err = s.Save(ctx, fetched)
	require.NoError(t, err)
	_, err = s.Save(ctx, stale)
	_, ok := remote.AsConflict(err)
	assert.True(t, ok)

	public, err := s.Query(ctx, remote.Query{
		RecordType:         "SharedCreationRecord",
		Equals:             map[string]any{"isPublic": true},
		SortByModifiedDesc: true,
		Limit:              10,
	})
	require.NoError(t, err)
	assert.Len(t, public, 1)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.ErrorIs(t, s.Delete(ctx, created.ID), remote.ErrNotFound)
	_, err = s.Fetch(ctx, created.ID)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestStore_QuerySkipsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var skipped []string
	s.onSkip = func(id string, err error) {
		skipped = append(skipped, id)
	}

	rec := remote.NewRecord("SharedCreationRecord")
	rec.Fields["name"] = "Foo"
	rec.Fields["isPublic"] = true
	good, err := s.Save(ctx, rec)
	require.NoError(t, err)

	badID := uuid.NewString()
	require.NoError(t, s.rdb.HSet(ctx, s.recordKey(badID), map[string]interface{}{
		fieldType:       "SharedCreationRecord",
		fieldChangeTag:  uuid.NewString(),
		fieldModifiedAt: "0",
		fieldDocument:   `{"isPublic":{"k":"bool","v":true},"extra":{"k":"richtext","v":"x"}}`,
	}).Err())
	require.NoError(t, s.rdb.ZAdd(ctx, s.indexKey("SharedCreationRecord"), redis.Z{Score: 0, Member: badID}).Err())

	public, err := s.Query(ctx, remote.Query{
		RecordType: "SharedCreationRecord",
		Equals:     map[string]any{"isPublic": true},
	})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, good.ID, public[0].ID)
	assert.Equal(t, []string{badID}, skipped)
}
