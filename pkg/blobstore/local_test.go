package blobstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	n, err := store.Put(ctx, "records/abc/0", bytes.NewReader([]byte("payload")))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	ok, err := store.Exists(ctx, "records/abc/0")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := store.Get(ctx, "records/abc/0")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, store.Delete(ctx, "records/abc/0"))
	_, err = store.Get(ctx, "records/abc/0")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine.
	require.NoError(t, store.Delete(ctx, "records/abc/0"))
}

func TestLocal_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(ctx, "k", bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	_, err = store.Put(ctx, "k", bytes.NewReader([]byte("two")))
	require.NoError(t, err)

	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}

func TestLocal_RejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		key  string
		want error
	}{
		{"", ErrEmptyKey},
		{"../escape", ErrInvalidKey},
		{"a/../../b", ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := store.Put(ctx, tt.key, bytes.NewReader(nil))
			assert.ErrorIs(t, err, tt.want)
			_, err = store.Get(ctx, tt.key)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
