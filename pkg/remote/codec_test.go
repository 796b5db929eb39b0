package remote

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prompt-manager-core/pkg/blobstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFields_PreservesKinds(t *testing.T) {
	stamp := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	fields := map[string]any{
		"name":     "Foo",
		"isPublic": true,
		"count":    int64(3),
		"score":    0.5,
		"at":       stamp,
		"raw":      []byte{0, 1, 2},
		"tags":     []string{"a", "b"},
		"legacy":   [][]byte{[]byte("x"), []byte("y")},
		"desc":     nil,
		"assets":   []Asset{{Key: "r/assets/1", Size: 4, Data: []byte("drop")}},
	}

	data, err := EncodeFields(fields)
	require.NoError(t, err)
	got, err := DecodeFields(data)
	require.NoError(t, err)

	assert.Equal(t, "Foo", got["name"])
	assert.Equal(t, true, got["isPublic"])
	assert.Equal(t, int64(3), got["count"])
	assert.Equal(t, 0.5, got["score"])
	assert.True(t, stamp.Equal(got["at"].(time.Time)))
	assert.Equal(t, []byte{0, 1, 2}, got["raw"])
	assert.Equal(t, []string{"a", "b"}, got["tags"])
	assert.Equal(t, [][]byte{[]byte("x"), []byte("y")}, got["legacy"])
	assert.Contains(t, got, "desc")
	assert.Nil(t, got["desc"])
	// Asset payloads live in the blob store, never in the document.
	assert.Equal(t, []Asset{{Key: "r/assets/1", Size: 4}}, got["assets"])
}

func TestEncodeFields_RejectsUnknownTypes(t *testing.T) {
	_, err := EncodeFields(map[string]any{"bad": struct{}{}})
	assert.Error(t, err)
}

func TestDecodeFields_RejectsUnknownKind(t *testing.T) {
	_, err := DecodeFields([]byte(`{"x":{"k":"mystery","v":1}}`))
	assert.Error(t, err)
}

func TestPersistAndHydrateAssets(t *testing.T) {
	ctx := context.Background()
	blobs, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "upload.bin")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	fields := map[string]any{
		"name":   "n",
		"assets": []Asset{{FilePath: path}, {Data: []byte("inline")}},
	}

	stored, written, err := PersistAssets(ctx, blobs, "rec-1", fields)
	require.NoError(t, err)
	assert.Len(t, written, 2)
	assert.ElementsMatch(t, written, AssetKeys(stored))

	assets := stored["assets"].([]Asset)
	for _, a := range assets {
		assert.Nil(t, a.Data)
		assert.Empty(t, a.FilePath)
	}
	assert.Equal(t, int64(len("from file")), assets[0].Size)

	require.NoError(t, HydrateAssets(ctx, blobs, stored))
	assert.Equal(t, []byte("from file"), assets[0].Data)
	assert.Equal(t, []byte("inline"), assets[1].Data)

	require.NoError(t, DeleteUnreferenced(ctx, blobs, written, written[:1]))
	ok, err := blobs.Exists(ctx, written[1])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuery_Matches(t *testing.T) {
	rec := &Record{Type: "T", Fields: map[string]any{
		"sharedCreationID": "abc",
		"isPublic":         true,
		"n":                int64(2),
	}}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"type only", Query{RecordType: "T"}, true},
		{"wrong type", Query{RecordType: "U"}, false},
		{"string equal", Query{Equals: map[string]any{"sharedCreationID": "abc"}}, true},
		{"string differs", Query{Equals: map[string]any{"sharedCreationID": "abd"}}, false},
		{"bool equal", Query{Equals: map[string]any{"isPublic": true}}, true},
		{"number across int kinds", Query{Equals: map[string]any{"n": 2}}, true},
		{"missing field equals nil", Query{Equals: map[string]any{"desc": nil}}, true},
		{"missing field vs value", Query{Equals: map[string]any{"desc": "x"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(rec))
		})
	}
}

func TestTransport_KeepsDefinitiveAnswers(t *testing.T) {
	assert.ErrorIs(t, Transport("fetch", ErrNotFound), ErrNotFound)
	assert.False(t, IsTransport(Transport("fetch", ErrNotFound)))

	conflict := &ConflictError{RecordID: "x"}
	_, ok := AsConflict(Transport("save", conflict))
	assert.True(t, ok)

	wrapped := Transport("save", os.ErrDeadlineExceeded)
	assert.True(t, IsTransport(wrapped))
	assert.ErrorIs(t, wrapped, os.ErrDeadlineExceeded)
	assert.Nil(t, Transport("save", nil))
}
