// FILE: internal/service/sync_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"prompt-manager-core/internal/entity"
	"prompt-manager-core/internal/pkg/logger"
	"prompt-manager-core/internal/repository/specification"
	"prompt-manager-core/internal/repository/unitofwork"
	"prompt-manager-core/internal/sharedrecord"
	"prompt-manager-core/pkg/remote"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const syncModule = "SyncService"

var ErrNotDraft = errors.New("shared creation has been pushed; delete it through the remote store")

type ISyncService interface {
	// Push writes sc to the remote store and sets sc.RemoteRef on success.
	// The caller persists the reference.
	Push(ctx context.Context, sc *entity.SharedCreation) error
	// PushSaved pushes a stored shared creation and persists its new reference.
	PushSaved(ctx context.Context, id uuid.UUID) (*entity.SharedCreation, error)
	PushAll(ctx context.Context, ids []uuid.UUID) []PushResult
	FetchByCorrelationKey(ctx context.Context, key string) (*entity.SharedCreation, error)
	Delete(ctx context.Context, sc *entity.SharedCreation) error
	DiscardDraft(ctx context.Context, id uuid.UUID) error
	ImportAndMaterialize(ctx context.Context, key string) (*entity.Prompt, *entity.PromptHistory, error)
	CleanupOrphans(ctx context.Context) (*CleanupReport, error)
	ListPublic(ctx context.Context, limit int) ([]*entity.SharedCreation, error)
	LoadSharedCreation(ctx context.Context, id uuid.UUID) (*entity.SharedCreation, error)
}

type PushResult struct {
	SharedCreationID uuid.UUID
	RecordID         string
	Err              error
}

type CleanupReport struct {
	Checked int
	// Deleted holds local creations whose remote record is confirmed gone.
	Deleted []uuid.UUID
	Kept    int
	// Unreachable holds creations whose remote check failed; they were kept.
	Unreachable []uuid.UUID
}

type SyncOptions struct {
	TempDir            string
	CleanupConcurrency int
	ListLimit          int
	Policy             ConflictPolicy
}

type syncService struct {
	uowFactory  unitofwork.RepositoryFactory
	store       remote.Store
	mapper      *sharedrecord.Mapper
	policy      ConflictPolicy
	tempDir     string
	concurrency int
	listLimit   int
	logger      logger.ILogger
	tracer      trace.Tracer

	// writeMu keeps local writes single-writer while remote calls fan out.
	writeMu sync.Mutex
}

func NewSyncService(
	uowFactory unitofwork.RepositoryFactory,
	store remote.Store,
	mapper *sharedrecord.Mapper,
	opts SyncOptions,
	log logger.ILogger,
) ISyncService {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.CleanupConcurrency <= 0 {
		opts.CleanupConcurrency = 4
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = 50
	}
	if opts.Policy == nil {
		opts.Policy = SurfaceConflicts{}
	}
	return &syncService{
		uowFactory:  uowFactory,
		store:       store,
		mapper:      mapper,
		policy:      opts.Policy,
		tempDir:     opts.TempDir,
		concurrency: opts.CleanupConcurrency,
		listLimit:   opts.ListLimit,
		logger:      log,
		tracer:      otel.Tracer("sync"),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *syncService) Push(ctx context.Context, sc *entity.SharedCreation) (err error) {
	ctx, span := s.tracer.Start(ctx, "sync.push",
		trace.WithAttributes(attribute.String("shared_creation.id", sc.Id.String())))
	defer func() { endSpan(span, err) }()

	// An existing reference is checked first so an externally deleted record
	// is recreated instead of failing the update. A stale reference is only
	// dropped from sc once the new record is saved.
	var stale *entity.RemoteReference
	defer func() {
		if err != nil && stale != nil {
			sc.RemoteRef = stale
		}
	}()
	if sc.RemoteRef != nil {
		_, fetchErr := s.store.Fetch(ctx, sc.RemoteRef.RecordID)
		switch {
		case fetchErr == nil:
		case remote.IsNotFound(fetchErr):
			s.logger.Warn(syncModule, "Remote record missing, creating a new one", map[string]interface{}{
				"shared_creation_id": sc.Id.String(),
				"stale_record_id":    sc.RemoteRef.RecordID,
			})
			stale, sc.RemoteRef = sc.RemoteRef, nil
		default:
			return remote.Transport("push", fetchErr)
		}
	}

	files, cleanup, err := s.stageAssets(sc)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("stage assets for %s: %w", sc.Id, err)
	}

	rec := s.mapper.ToRemoteRecord(sc, files)
	saved, err := s.store.Save(ctx, rec)
	if conflict, ok := remote.AsConflict(err); ok {
		if retry := s.policy.Resolve(rec, conflict); retry != nil {
			s.logger.Info(syncModule, "Resolving push conflict", map[string]interface{}{
				"shared_creation_id": sc.Id.String(),
				"record_id":          conflict.RecordID,
				"policy":             s.policy.Name(),
			})
			saved, err = s.store.Save(ctx, retry)
		}
	}
	if err != nil {
		s.logger.Error(syncModule, "Push failed", map[string]interface{}{
			"shared_creation_id": sc.Id.String(),
			"error":              err.Error(),
		})
		return remote.Transport("push", err)
	}

	sc.RemoteRef = &entity.RemoteReference{RecordID: saved.ID, ChangeTag: saved.ChangeTag}
	sc.LastModified = saved.ModifiedAt
	span.SetAttributes(attribute.String("remote.record_id", saved.ID))
	return nil
}

// stageAssets writes every data source to its own temp file for upload. The
// returned cleanup removes whatever was created and is safe to call on error.
func (s *syncService) stageAssets(sc *entity.SharedCreation) ([]string, func(), error) {
	var paths []string
	cleanup := func() {
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.logger.Warn(syncModule, "Failed to remove staged asset", map[string]interface{}{
					"path":  p,
					"error": err.Error(),
				})
			}
		}
	}

	if len(sc.DataSources) == 0 {
		return nil, cleanup, nil
	}
	if err := os.MkdirAll(s.tempDir, 0o700); err != nil {
		return nil, cleanup, err
	}

	for _, ds := range sc.DataSources {
		f, err := os.CreateTemp(s.tempDir, "shared-asset-*")
		if err != nil {
			return nil, cleanup, err
		}
		paths = append(paths, f.Name())

		_, werr := f.Write(ds.Data)
		cerr := f.Close()
		if werr != nil {
			return nil, cleanup, werr
		}
		if cerr != nil {
			return nil, cleanup, cerr
		}
	}
	return paths, cleanup, nil
}

func (s *syncService) LoadSharedCreation(ctx context.Context, id uuid.UUID) (*entity.SharedCreation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sc, err := uow.SharedCreationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, ErrSharedCreationNotFound
	}

	sources, err := uow.DataSourceRepository().FindAll(ctx, specification.BySharedCreationID{SharedCreationID: id})
	if err != nil {
		return nil, err
	}
	sc.DataSources = sources
	return sc, nil
}

func (s *syncService) PushSaved(ctx context.Context, id uuid.UUID) (*entity.SharedCreation, error) {
	sc, err := s.LoadSharedCreation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Push(ctx, sc); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err = unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		return uow.SharedCreationRepository().Update(ctx, sc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(syncModule, "Shared creation pushed", map[string]interface{}{
		"shared_creation_id": sc.Id.String(),
		"record_id":          sc.RemoteRef.RecordID,
	})
	return sc, nil
}

// PushAll pushes every item independently; one failure does not stop the rest.
func (s *syncService) PushAll(ctx context.Context, ids []uuid.UUID) []PushResult {
	results := make([]PushResult, len(ids))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			res := PushResult{SharedCreationID: id}
			sc, err := s.PushSaved(ctx, id)
			if err != nil {
				res.Err = err
			} else {
				res.RecordID = sc.RemoteRef.RecordID
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *syncService) decode(rec *remote.Record) sharedrecord.Decoded {
	decoded := s.mapper.FromRemoteRecord(rec)
	if len(decoded.Warnings) > 0 {
		warnings := make([]string, len(decoded.Warnings))
		for i, w := range decoded.Warnings {
			warnings[i] = w.String()
		}
		recordID := ""
		if rec != nil {
			recordID = rec.ID
		}
		s.logger.Warn(syncModule, "Remote record decoded with defaults", map[string]interface{}{
			"record_id": recordID,
			"warnings":  warnings,
		})
	}
	return decoded
}

// FetchByCorrelationKey returns the newest record whose sharedCreationID is key.
func (s *syncService) FetchByCorrelationKey(ctx context.Context, key string) (_ *entity.SharedCreation, err error) {
	ctx, span := s.tracer.Start(ctx, "sync.fetch_by_key")
	defer func() { endSpan(span, err) }()

	recs, err := s.store.Query(ctx, remote.Query{
		RecordType:         s.mapper.RecordType(),
		Equals:             map[string]any{sharedrecord.FieldSharedCreationID: key},
		SortByModifiedDesc: true,
	})
	if err != nil {
		return nil, remote.Transport("query", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("correlation key %s: %w", key, remote.ErrNotFound)
	}
	if len(recs) > 1 {
		s.logger.Warn(syncModule, "Correlation key matches several records, using the newest", map[string]interface{}{
			"key":     key,
			"matches": len(recs),
		})
	}

	decoded := s.decode(recs[0])
	if !decoded.Usable() {
		return nil, fmt.Errorf("record %s: %w", recs[0].ID, ErrUnusableRecord)
	}
	return decoded.Creation, nil
}

// Delete removes the remote record first and the local copy only after that
// succeeded. A creation that was never pushed is left alone.
func (s *syncService) Delete(ctx context.Context, sc *entity.SharedCreation) (err error) {
	ctx, span := s.tracer.Start(ctx, "sync.delete",
		trace.WithAttributes(attribute.String("shared_creation.id", sc.Id.String())))
	defer func() { endSpan(span, err) }()

	if sc.RemoteRef == nil {
		s.logger.Debug(syncModule, "Nothing to delete remotely", map[string]interface{}{
			"shared_creation_id": sc.Id.String(),
		})
		return nil
	}

	if err := s.store.Delete(ctx, sc.RemoteRef.RecordID); err != nil {
		if !remote.IsNotFound(err) {
			s.logger.Warn(syncModule, "Remote delete failed, keeping local copy", map[string]interface{}{
				"shared_creation_id": sc.Id.String(),
				"record_id":          sc.RemoteRef.RecordID,
				"error":              err.Error(),
			})
			return &DeleteError{SharedCreationID: sc.Id, Err: remote.Transport("delete", err)}
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		return uow.SharedCreationRepository().Delete(ctx, sc.Id)
	})
}

// DiscardDraft deletes a local creation that was never pushed.
func (s *syncService) DiscardDraft(ctx context.Context, id uuid.UUID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		sc, err := uow.SharedCreationRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return err
		}
		if sc == nil {
			return ErrSharedCreationNotFound
		}
		if !sc.IsDraft() {
			return ErrNotDraft
		}
		return uow.SharedCreationRepository().Delete(ctx, id)
	})
}

// ImportAndMaterialize always creates a new prompt, even when the same key
// was imported before.
func (s *syncService) ImportAndMaterialize(ctx context.Context, key string) (*entity.Prompt, *entity.PromptHistory, error) {
	sc, err := s.FetchByCorrelationKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	prompt := &entity.Prompt{
		Id:          uuid.New(),
		Name:        sc.Name,
		Description: sc.Description,
		CreatedAt:   now,
	}
	history := &entity.PromptHistory{
		Id:         uuid.New(),
		PromptId:   prompt.Id,
		PromptText: sc.Prompt,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	prompt.Histories = []*entity.PromptHistory{history}
	for i, ds := range sc.DataSources {
		prompt.ExternalAssets = append(prompt.ExternalAssets, &entity.ExternalAsset{
			Id:       uuid.New(),
			PromptId: prompt.Id,
			Position: i,
			Data:     ds.Data,
		})
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err = unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
		if err := uow.PromptRepository().Create(ctx, prompt); err != nil {
			return err
		}
		if err := uow.PromptHistoryRepository().Create(ctx, history); err != nil {
			return err
		}
		for _, asset := range prompt.ExternalAssets {
			if err := uow.ExternalAssetRepository().Create(ctx, asset); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(syncModule, "Imported shared creation", map[string]interface{}{
		"key":       key,
		"prompt_id": prompt.Id.String(),
	})
	return prompt, history, nil
}

type remoteState int

const (
	remotePresent remoteState = iota
	remoteGone
	remoteUnknown
)

// CleanupOrphans deletes local creations whose remote record is confirmed
// gone. Any other failure while checking keeps the local copy.
func (s *syncService) CleanupOrphans(ctx context.Context) (_ *CleanupReport, err error) {
	ctx, span := s.tracer.Start(ctx, "sync.cleanup_orphans")
	defer func() { endSpan(span, err) }()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	linked, err := uow.SharedCreationRepository().FindAll(ctx, specification.HasRemoteReference{})
	if err != nil {
		return nil, err
	}

	states := make([]remoteState, len(linked))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, sc := range linked {
		i, sc := i, sc
		g.Go(func() error {
			_, err := s.store.Fetch(ctx, sc.RemoteRef.RecordID)
			switch {
			case err == nil:
				states[i] = remotePresent
			case remote.IsNotFound(err):
				states[i] = remoteGone
			default:
				states[i] = remoteUnknown
				s.logger.Warn(syncModule, "Could not verify remote record", map[string]interface{}{
					"shared_creation_id": sc.Id.String(),
					"error":              err.Error(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &CleanupReport{Checked: len(linked)}
	var orphans []uuid.UUID
	for i, sc := range linked {
		switch states[i] {
		case remotePresent:
			report.Kept++
		case remoteGone:
			orphans = append(orphans, sc.Id)
		default:
			report.Unreachable = append(report.Unreachable, sc.Id)
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, id := range orphans {
		err := unitofwork.Run(ctx, s.uowFactory, func(uow unitofwork.UnitOfWork) error {
			return uow.SharedCreationRepository().Delete(ctx, id)
		})
		if err != nil {
			return report, err
		}
		report.Deleted = append(report.Deleted, id)
	}

	s.logger.Info(syncModule, "Orphan cleanup finished", map[string]interface{}{
		"checked":     report.Checked,
		"deleted":     len(report.Deleted),
		"unreachable": len(report.Unreachable),
	})
	return report, nil
}

// ListPublic returns public records newest first. Records that cannot be
// mapped are skipped.
func (s *syncService) ListPublic(ctx context.Context, limit int) (_ []*entity.SharedCreation, err error) {
	ctx, span := s.tracer.Start(ctx, "sync.list_public")
	defer func() { endSpan(span, err) }()

	if limit <= 0 {
		limit = s.listLimit
	}

	recs, err := s.store.Query(ctx, remote.Query{
		RecordType:         s.mapper.RecordType(),
		Equals:             map[string]any{sharedrecord.FieldIsPublic: true},
		SortByModifiedDesc: true,
		Limit:              limit,
	})
	if err != nil {
		return nil, remote.Transport("query", err)
	}

	out := make([]*entity.SharedCreation, 0, len(recs))
	for _, rec := range recs {
		decoded := s.decode(rec)
		if !decoded.Usable() {
			continue
		}
		out = append(out, decoded.Creation)
	}
	return out, nil
}
