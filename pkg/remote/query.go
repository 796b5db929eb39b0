package remote

import (
	"bytes"
	"sort"
	"time"
)

// Matches reports whether rec satisfies the type and equality predicates.
func (q Query) Matches(rec *Record) bool {
	if rec == nil {
		return false
	}
	if q.RecordType != "" && rec.Type != q.RecordType {
		return false
	}
	for field, want := range q.Equals {
		if !valuesEqual(rec.Fields[field], want) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and limits records in memory. Stores without native
// query support build on it.
func (q Query) Apply(records []*Record) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	if q.SortByModifiedDesc {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ModifiedAt.After(out[j].ModifiedAt)
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	}
	if an, ok := asFloat(a); ok {
		bn, ok := asFloat(b)
		return ok && an == bn
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
