// Package sharedrecord translates SharedCreations to and from the flat remote
// record layout.
package sharedrecord

import (
	"fmt"

	"prompt-manager-core/internal/entity"
	"prompt-manager-core/pkg/remote"

	"github.com/google/uuid"
)

const (
	RecordType = "SharedCreationRecord"

	FieldName             = "name"
	FieldPrompt           = "prompt"
	FieldDescription      = "desc"
	FieldSharedCreationID = "sharedCreationID"
	FieldIsPublic         = "isPublic"
	FieldAssets           = "dataSourceAssets"
	// FieldLegacyBlobs held attachments inline before assets existed. It is
	// still read, never written.
	FieldLegacyBlobs = "dataSources"

	DefaultName = "Untitled from Cloud"
)

type Mapper struct {
	recordType string
}

func NewMapper(recordType string) *Mapper {
	if recordType == "" {
		recordType = RecordType
	}
	return &Mapper{recordType: recordType}
}

func (m *Mapper) RecordType() string {
	return m.recordType
}

// ToRemoteRecord flattens sc. Attachments go to the asset list; the legacy
// blob field is always cleared. assetFiles, when given, supplies a staged file
// per attachment and takes precedence over the in-memory bytes.
func (m *Mapper) ToRemoteRecord(sc *entity.SharedCreation, assetFiles []string) *remote.Record {
	rec := remote.NewRecord(m.recordType)
	if sc.RemoteRef != nil {
		rec.ID = sc.RemoteRef.RecordID
		rec.ChangeTag = sc.RemoteRef.ChangeTag
	}

	rec.Fields[FieldName] = sc.Name
	rec.Fields[FieldPrompt] = sc.Prompt
	if sc.Description != nil {
		rec.Fields[FieldDescription] = *sc.Description
	} else {
		rec.Fields[FieldDescription] = nil
	}
	rec.Fields[FieldSharedCreationID] = sc.Id.String()
	rec.Fields[FieldIsPublic] = sc.IsPublic

	assets := make([]remote.Asset, len(sc.DataSources))
	for i, ds := range sc.DataSources {
		if i < len(assetFiles) && assetFiles[i] != "" {
			assets[i] = remote.Asset{FilePath: assetFiles[i], Size: int64(len(ds.Data))}
			continue
		}
		assets[i] = remote.Asset{Data: ds.Data, Size: int64(len(ds.Data))}
	}
	rec.Fields[FieldAssets] = assets
	rec.Fields[FieldLegacyBlobs] = nil

	return rec
}

// FieldWarning records a field that could not be read as written and the
// default used instead.
type FieldWarning struct {
	Field  string
	Reason string
}

func (w FieldWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Reason)
}

// Decoded is the best-effort result of reading a remote record.
type Decoded struct {
	Creation *entity.SharedCreation
	Warnings []FieldWarning
}

// Usable reports whether a creation could be produced at all.
func (d Decoded) Usable() bool {
	return d.Creation != nil
}

func (d *Decoded) warn(field, format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, FieldWarning{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// FromRemoteRecord never fails. Missing or mistyped fields fall back to
// defaults and are reported as warnings. A nil record or a record of another
// type yields an unusable result.
func (m *Mapper) FromRemoteRecord(rec *remote.Record) Decoded {
	var d Decoded
	if rec == nil {
		d.warn("record", "missing")
		return d
	}
	if rec.Type != m.recordType {
		d.warn("record", "unexpected type %q", rec.Type)
		return d
	}

	sc := &entity.SharedCreation{
		Name:         d.stringField(rec, FieldName, DefaultName),
		Prompt:       d.stringField(rec, FieldPrompt, ""),
		Description:  d.optionalString(rec, FieldDescription),
		IsPublic:     d.boolField(rec, FieldIsPublic),
		LastModified: rec.ModifiedAt,
	}
	if rec.ID != "" {
		sc.RemoteRef = &entity.RemoteReference{RecordID: rec.ID, ChangeTag: rec.ChangeTag}
	}

	sc.Id = d.idField(rec)
	for i, data := range d.attachments(rec) {
		sc.DataSources = append(sc.DataSources, &entity.DataSource{
			Id:               uuid.New(),
			SharedCreationId: sc.Id,
			Position:         i,
			Data:             data,
		})
	}

	d.Creation = sc
	return d
}

func (d *Decoded) stringField(rec *remote.Record, field, fallback string) string {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		d.warn(field, "missing, using %q", fallback)
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		d.warn(field, "expected string, got %T", v)
		return fallback
	}
	return s
}

func (d *Decoded) optionalString(rec *remote.Record, field string) *string {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		d.warn(field, "expected string, got %T", v)
		return nil
	}
	return &s
}

func (d *Decoded) boolField(rec *remote.Record, field string) bool {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		d.warn(field, "missing, using false")
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	default:
		d.warn(field, "expected bool, got %T", v)
		return false
	}
}

func (d *Decoded) idField(rec *remote.Record) uuid.UUID {
	raw, ok := rec.Fields[FieldSharedCreationID].(string)
	if !ok {
		d.warn(FieldSharedCreationID, "missing, assigned a new ID")
		return uuid.New()
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		d.warn(FieldSharedCreationID, "invalid %q, assigned a new ID", raw)
		return uuid.New()
	}
	return id
}

// attachments prefers the asset list and only falls back to the legacy blob
// list when the asset list is absent or empty.
func (d *Decoded) attachments(rec *remote.Record) [][]byte {
	switch assets := rec.Fields[FieldAssets].(type) {
	case []remote.Asset:
		if len(assets) > 0 {
			out := make([][]byte, len(assets))
			for i, a := range assets {
				if a.Data == nil {
					d.warn(FieldAssets, "asset %d has no payload", i)
				}
				out[i] = a.Data
			}
			return out
		}
	case nil:
	default:
		d.warn(FieldAssets, "expected asset list, got %T", assets)
	}

	switch blobs := rec.Fields[FieldLegacyBlobs].(type) {
	case [][]byte:
		return blobs
	case nil:
		return nil
	default:
		d.warn(FieldLegacyBlobs, "expected blob list, got %T", blobs)
		return nil
	}
}
