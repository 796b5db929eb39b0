// Package gormstore keeps remote records in a relational database, one row
// per record with the fields in a JSON document column.
package gormstore

import (
	"context"
	"errors"
	"time"

	"prompt-manager-core/pkg/blobstore"
	"prompt-manager-core/pkg/remote"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type recordRow struct {
	ID         string         `gorm:"type:varchar(64);primaryKey"`
	Type       string         `gorm:"type:varchar(128);not null;index"`
	ChangeTag  string         `gorm:"type:varchar(64);not null"`
	ModifiedAt time.Time      `gorm:"not null;index"`
	Fields     datatypes.JSON `gorm:"not null"`
}

func (recordRow) TableName() string {
	return "remote_records"
}

type Store struct {
	db     *gorm.DB
	blobs  blobstore.Store
	now    func() time.Time
	onSkip remote.SkipFunc
}

type Option func(*Store)

// WithSkipFunc reports rows a query could not decode.
func WithSkipFunc(fn remote.SkipFunc) Option {
	return func(s *Store) {
		s.onSkip = fn
	}
}

func New(db *gorm.DB, blobs blobstore.Store, opts ...Option) *Store {
	s := &Store{
		db:     db,
		blobs:  blobs,
		now:    func() time.Time { return time.Now().UTC() },
		onSkip: func(string, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the record table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&recordRow{})
}

func (s *Store) findRow(ctx context.Context, id string) (*recordRow, error) {
	var row recordRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, remote.ErrNotFound
		}
		return nil, &remote.TransportError{Op: "fetch", Err: err}
	}
	return &row, nil
}

func (s *Store) toRecord(ctx context.Context, row *recordRow) (*remote.Record, error) {
	fields, err := remote.DecodeFields(row.Fields)
	if err != nil {
		return nil, &remote.TransportError{Op: "decode", Err: err}
	}
	if err := remote.HydrateAssets(ctx, s.blobs, fields); err != nil {
		return nil, &remote.TransportError{Op: "hydrate", Err: err}
	}
	return &remote.Record{
		Type:       row.Type,
		ID:         row.ID,
		ChangeTag:  row.ChangeTag,
		ModifiedAt: row.ModifiedAt.UTC(),
		Fields:     fields,
	}, nil
}

func (s *Store) Fetch(ctx context.Context, id string) (*remote.Record, error) {
	row, err := s.findRow(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toRecord(ctx, row)
}

func (s *Store) Save(ctx context.Context, rec *remote.Record) (*remote.Record, error) {
	creating := rec.ID == ""
	id := rec.ID
	if creating {
		id = uuid.NewString()
	}

	var previousKeys []string
	if !creating {
		current, err := s.findRow(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.ChangeTag != rec.ChangeTag {
			return nil, s.conflict(ctx, current)
		}
		if fields, err := remote.DecodeFields(current.Fields); err == nil {
			previousKeys = remote.AssetKeys(fields)
		}
	}

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

	row := recordRow{
		ID:         id,
		Type:       rec.Type,
		ChangeTag:  uuid.NewString(),
		ModifiedAt: s.now(),
		Fields:     datatypes.JSON(doc),
	}

	if err := s.write(ctx, &row, creating, rec.ChangeTag); err != nil {
		s.discard(written)
		return nil, err
	}

	if len(previousKeys) > 0 {
		// Superseded blobs are garbage; failing to remove them is not a save failure.
		_ = remote.DeleteUnreferenced(ctx, s.blobs, previousKeys, remote.AssetKeys(persisted))
	}

	return s.toRecord(ctx, &row)
}

// write inserts the row or swaps it in only while the stored change tag is
// still expectedTag.
func (s *Store) write(ctx context.Context, row *recordRow, creating bool, expectedTag string) error {
	db := s.db.WithContext(ctx)
	if creating {
		if err := db.Create(row).Error; err != nil {
			return &remote.TransportError{Op: "save", Err: err}
		}
		return nil
	}

	result := db.Model(&recordRow{}).
		Where("id = ? AND change_tag = ?", row.ID, expectedTag).
		Updates(map[string]interface{}{
			"type":        row.Type,
			"change_tag":  row.ChangeTag,
			"modified_at": row.ModifiedAt,
			"fields":      row.Fields,
		})
	if result.Error != nil {
		return &remote.TransportError{Op: "save", Err: result.Error}
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// Lost the race: the row was changed or removed after we read it.
	current, err := s.findRow(ctx, row.ID)
	if err != nil {
		return err
	}
	return s.conflict(ctx, current)
}

func (s *Store) conflict(ctx context.Context, current *recordRow) error {
	server, err := s.toRecord(ctx, current)
	if err != nil {
		server = nil
	}
	return &remote.ConflictError{RecordID: current.ID, Server: server}
}

func (s *Store) discard(keys []string) {
	for _, k := range keys {
		_ = s.blobs.Delete(context.Background(), k)
	}
}

func (s *Store) Delete(ctx context.Context, id string) error {
	row, err := s.findRow(ctx, id)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&recordRow{})
	if result.Error != nil {
		return &remote.TransportError{Op: "delete", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return remote.ErrNotFound
	}

	if fields, err := remote.DecodeFields(row.Fields); err == nil {
		for _, k := range remote.AssetKeys(fields) {
			_ = s.blobs.Delete(ctx, k)
		}
	}
	return nil
}

// Query pushes type, string and bool predicates down to the database. Any
// other predicate is checked in memory, in which case the limit is too.
// Rows that fail to decode or hydrate are skipped, so a pushed-down limit
// may yield fewer records.
func (s *Store) Query(ctx context.Context, q remote.Query) ([]*remote.Record, error) {
	db := s.db.WithContext(ctx).Model(&recordRow{})
	if q.RecordType != "" {
		db = db.Where("type = ?", q.RecordType)
	}

	pushedAll := true
	for field, value := range q.Equals {
		switch value.(type) {
		case string, bool:
			db = db.Where(datatypes.JSONQuery("fields").Equals(value, field, "v"))
		default:
			pushedAll = false
		}
	}
	if q.SortByModifiedDesc {
		db = db.Order("modified_at DESC")
	}
	if pushedAll && q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var rows []recordRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, &remote.TransportError{Op: "query", Err: err}
	}

	records := make([]*remote.Record, 0, len(rows))
	for i := range rows {
		rec, err := s.toRecord(ctx, &rows[i])
		if err != nil {
			s.onSkip(rows[i].ID, err)
			continue
		}
		records = append(records, rec)
	}
	return q.Apply(records), nil
}
