// Package memory is an in-process remote.Store. Asset payloads are kept inline.
package memory

import (
	"context"
	"sync"
	"time"

	"prompt-manager-core/pkg/remote"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type Store struct {
	cache *cache.Cache
	// writes serializes compare-and-swap on change tags.
	writes sync.Mutex
	now    func() time.Time
}

func New() *Store {
	return &Store{
		cache: cache.New(cache.NoExpiration, 0),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) get(id string) (*remote.Record, bool) {
	if x, found := s.cache.Get(id); found {
		return x.(*remote.Record), true
	}
	return nil, false
}

func (s *Store) Fetch(ctx context.Context, id string) (*remote.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &remote.TransportError{Op: "fetch", Err: err}
	}
	rec, ok := s.get(id)
	if !ok {
		return nil, remote.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) Save(ctx context.Context, rec *remote.Record) (*remote.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &remote.TransportError{Op: "save", Err: err}
	}

	stored := rec.Clone()
	for name, value := range stored.Fields {
		assets, ok := value.([]remote.Asset)
		if !ok {
			continue
		}
		for i := range assets {
			data, err := remote.LoadAsset(assets[i])
			if err != nil {
				return nil, &remote.TransportError{Op: "save", Err: err}
			}
			assets[i].Data = append([]byte(nil), data...)
			assets[i].Size = int64(len(data))
			assets[i].FilePath = ""
			if assets[i].Key == "" {
				assets[i].Key = uuid.NewString()
			}
		}
		stored.Fields[name] = assets
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	if stored.ID == "" {
		stored.ID = uuid.NewString()
	} else {
		current, ok := s.get(stored.ID)
		if !ok {
			return nil, remote.ErrNotFound
		}
		if current.ChangeTag != stored.ChangeTag {
			return nil, &remote.ConflictError{RecordID: stored.ID, Server: current.Clone()}
		}
	}

	stored.ChangeTag = uuid.NewString()
	stored.ModifiedAt = s.now()
	s.cache.Set(stored.ID, stored, cache.NoExpiration)

	return stored.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return &remote.TransportError{Op: "delete", Err: err}
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	if _, ok := s.get(id); !ok {
		return remote.ErrNotFound
	}
	s.cache.Delete(id)
	return nil
}

func (s *Store) Query(ctx context.Context, q remote.Query) ([]*remote.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &remote.TransportError{Op: "query", Err: err}
	}

	items := s.cache.Items()
	all := make([]*remote.Record, 0, len(items))
	for _, item := range items {
		all = append(all, item.Object.(*remote.Record))
	}

	matched := q.Apply(all)
	out := make([]*remote.Record, len(matched))
	for i, r := range matched {
		out[i] = r.Clone()
	}
	return out, nil
}

// Len reports how many records are stored.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
