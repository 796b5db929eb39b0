// Package redisstore keeps remote records in Redis hashes with a sorted-set
// index per record type, ordered by modification time.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"prompt-manager-core/pkg/blobstore"
	"prompt-manager-core/pkg/remote"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	fieldType       = "type"
	fieldChangeTag  = "change_tag"
	fieldModifiedAt = "modified_at"
	fieldDocument   = "fields"
)

type Store struct {
	rdb    *redis.Client
	blobs  blobstore.Store
	prefix string
	now    func() time.Time
	onSkip remote.SkipFunc
}

type Option func(*Store)

// WithSkipFunc reports records a query could not decode.
func WithSkipFunc(fn remote.SkipFunc) Option {
	return func(s *Store) {
		s.onSkip = fn
	}
}

// New uses prefix to namespace every key the store writes.
func New(rdb *redis.Client, blobs blobstore.Store, prefix string, opts ...Option) *Store {
	if prefix == "" {
		prefix = "remote"
	}
	s := &Store{
		rdb:    rdb,
		blobs:  blobs,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
		onSkip: func(string, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect parses a redis:// URL, falling back to a bare address, and pings.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *Store) recordKey(id string) string {
	return s.prefix + ":record:" + id
}

func (s *Store) indexKey(recordType string) string {
	return s.prefix + ":index:" + recordType
}

func (s *Store) decode(ctx context.Context, id string, vals map[string]string) (*remote.Record, error) {
	rec, err := parse(id, vals)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// parse decodes the hash without downloading asset payloads.
func parse(id string, vals map[string]string) (*remote.Record, error) {
	fields, err := remote.DecodeFields([]byte(vals[fieldDocument]))
	if err != nil {
		return nil, &remote.TransportError{Op: "decode", Err: err}
	}
	nanos, _ := strconv.ParseInt(vals[fieldModifiedAt], 10, 64)
	return &remote.Record{
		Type:       vals[fieldType],
		ID:         id,
		ChangeTag:  vals[fieldChangeTag],
		ModifiedAt: time.Unix(0, nanos).UTC(),
		Fields:     fields,
	}, nil
}

func (s *Store) hydrate(ctx context.Context, rec *remote.Record) error {
	if err := remote.HydrateAssets(ctx, s.blobs, rec.Fields); err != nil {
		return &remote.TransportError{Op: "hydrate", Err: err}
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context, id string) (*remote.Record, error) {
	vals, err := s.rdb.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return nil, &remote.TransportError{Op: "fetch", Err: err}
	}
	if len(vals) == 0 {
		return nil, remote.ErrNotFound
	}
	return s.decode(ctx, id, vals)
}

func (s *Store) Save(ctx context.Context, rec *remote.Record) (*remote.Record, error) {
	creating := rec.ID == ""
	id := rec.ID
	if creating {
		id = uuid.NewString()
	}
	key := s.recordKey(id)

	persisted, written, err := remote.PersistAssets(ctx, s.blobs, id, rec.Fields)
	if err != nil {
		s.discard(written)
		return nil, &remote.TransportError{Op: "upload", Err: err}
	}
	doc, err := remote.EncodeFields(persisted)
	if err != nil {
		s.discard(written)
		return nil, &remote.TransportError{Op: "encode", Err: err}
	}

	tag := uuid.NewString()
	modified := s.now()
	var previousKeys []string

	txf := func(tx *redis.Tx) error {
		if !creating {
			current, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return &remote.TransportError{Op: "save", Err: err}
			}
			if len(current) == 0 {
				return remote.ErrNotFound
			}
			if current[fieldChangeTag] != rec.ChangeTag {
				return s.conflict(ctx, id, current)
			}
			if fields, err := remote.DecodeFields([]byte(current[fieldDocument])); err == nil {
				previousKeys = remote.AssetKeys(fields)
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				fieldType:       rec.Type,
				fieldChangeTag:  tag,
				fieldModifiedAt: strconv.FormatInt(modified.UnixNano(), 10),
				fieldDocument:   string(doc),
			})
			pipe.ZAdd(ctx, s.indexKey(rec.Type), redis.Z{
				Score:  float64(modified.UnixMilli()),
				Member: id,
			})
			return nil
		})
		return err
	}

	if err := s.rdb.Watch(ctx, txf, key); err != nil {
		s.discard(written)
		if errors.Is(err, redis.TxFailedErr) {
			// Another writer got in between our read and our write.
			vals, fetchErr := s.rdb.HGetAll(ctx, key).Result()
			if fetchErr != nil || len(vals) == 0 {
				return nil, &remote.ConflictError{RecordID: id}
			}
			return nil, s.conflict(ctx, id, vals)
		}
		return nil, remote.Transport("save", err)
	}

	if len(previousKeys) > 0 {
		_ = remote.DeleteUnreferenced(ctx, s.blobs, previousKeys, remote.AssetKeys(persisted))
	}

	return s.decode(ctx, id, map[string]string{
		fieldType:       rec.Type,
		fieldChangeTag:  tag,
		fieldModifiedAt: strconv.FormatInt(modified.UnixNano(), 10),
		fieldDocument:   string(doc),
	})
}

func (s *Store) conflict(ctx context.Context, id string, vals map[string]string) error {
	server, err := s.decode(ctx, id, vals)
	if err != nil {
		server = nil
	}
	return &remote.ConflictError{RecordID: id, Server: server}
}

func (s *Store) discard(keys []string) {
	for _, k := range keys {
		_ = s.blobs.Delete(context.Background(), k)
	}
}

func (s *Store) Delete(ctx context.Context, id string) error {
	key := s.recordKey(id)
	vals, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return &remote.TransportError{Op: "delete", Err: err}
	}
	if len(vals) == 0 {
		return remote.ErrNotFound
	}

	var removed *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, key)
		pipe.ZRem(ctx, s.indexKey(vals[fieldType]), id)
		return nil
	})
	if err != nil {
		return &remote.TransportError{Op: "delete", Err: err}
	}
	if removed.Val() == 0 {
		return remote.ErrNotFound
	}

	if fields, err := remote.DecodeFields([]byte(vals[fieldDocument])); err == nil {
		for _, k := range remote.AssetKeys(fields) {
			_ = s.blobs.Delete(ctx, k)
		}
	}
	return nil
}

// Query walks the type index newest first, reading every hash in one
// pipeline. Predicates are checked before assets are downloaded, and records
// that fail to decode or hydrate are skipped.
func (s *Store) Query(ctx context.Context, q remote.Query) ([]*remote.Record, error) {
	if q.RecordType == "" {
		return nil, fmt.Errorf("redisstore: query needs a record type")
	}

	ids, err := s.rdb.ZRevRange(ctx, s.indexKey(q.RecordType), 0, -1).Result()
	if err != nil {
		return nil, &remote.TransportError{Op: "query", Err: err}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, &remote.TransportError{Op: "query", Err: err}
	}

	var records []*remote.Record
	for i, id := range ids {
		vals := cmds[i].Val()
		if len(vals) == 0 {
			// Deleted between the index read and the fetch.
			continue
		}
		rec, err := parse(id, vals)
		if err != nil {
			s.onSkip(id, err)
			continue
		}
		if !q.Matches(rec) {
			continue
		}
		if err := s.hydrate(ctx, rec); err != nil {
			s.onSkip(id, err)
			continue
		}
		records = append(records, rec)
		// The index is already newest first.
		if q.Limit > 0 && len(records) >= q.Limit {
			break
		}
	}
	return q.Apply(records), nil
}
