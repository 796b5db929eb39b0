// Package remote defines the document store shared creations are published
// to. A record is a flat set of named fields plus server-assigned identity.
package remote

import (
	"context"
	"time"
)

// Record field values are limited to nil, string, bool, int64, float64,
// time.Time, []byte, []string, [][]byte and []Asset.
type Record struct {
	Type       string
	ID         string
	ChangeTag  string
	ModifiedAt time.Time
	Fields     map[string]any
}

func NewRecord(recordType string) *Record {
	return &Record{Type: recordType, Fields: make(map[string]any)}
}

// Asset is a managed large object attached to a record. On write the payload
// comes from FilePath when set, otherwise from Data. Records returned by a
// Store always carry Data.
type Asset struct {
	Key      string
	Size     int64
	FilePath string
	Data     []byte
}

type Query struct {
	RecordType         string
	Equals             map[string]any
	SortByModifiedDesc bool
	Limit              int
}

// SkipFunc is told about stored records a query left out because their
// fields could not be decoded or their assets could not be loaded.
type SkipFunc func(recordID string, err error)

type Store interface {
	// Fetch returns ErrNotFound when no record has the given ID.
	Fetch(ctx context.Context, id string) (*Record, error)
	// Save creates the record when ID is empty. Otherwise it updates the record
	// in place if ChangeTag still matches the server, returning *ConflictError
	// when it does not and ErrNotFound when the record is gone. The returned
	// record carries the new ChangeTag.
	Save(ctx context.Context, rec *Record) (*Record, error)
	// Delete returns ErrNotFound when no record has the given ID.
	Delete(ctx context.Context, id string) error
	// Query fails only when the backend cannot be read. Individual records that
	// cannot be decoded are left out of the result.
	Query(ctx context.Context, q Query) ([]*Record, error)
}

// Clone deep-copies the record so stores never share field storage with callers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = cloneValue(v)
	}
	return &out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return append([]byte(nil), val...)
	case []string:
		return append([]string(nil), val...)
	case [][]byte:
		out := make([][]byte, len(val))
		for i, b := range val {
			out[i] = append([]byte(nil), b...)
		}
		return out
	case []Asset:
		out := make([]Asset, len(val))
		for i, a := range val {
			a.Data = append([]byte(nil), a.Data...)
			out[i] = a
		}
		return out
	default:
		return v
	}
}
