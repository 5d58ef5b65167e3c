// Package service serves the schema document and keeps it current.
//
// Every read first computes the live fingerprint with one cheap catalog
// query. A matching cached snapshot is served as is; otherwise the full
// catalog is read, assembled, flattened and stored. Concurrent callers that
// need the same work share one execution.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/koustreak/schemacache/internal/cache"
	"github.com/koustreak/schemacache/internal/catalog"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/logger"
	"github.com/koustreak/schemacache/internal/schema"
	"github.com/koustreak/schemacache/internal/version"
	"golang.org/x/sync/singleflight"
)

const (
	keyCheck   = "check"
	keyRebuild = "rebuild"
)

// Service is safe for concurrent use.
type Service struct {
	reader  *catalog.Reader
	tracker *version.Tracker
	cache   *cache.Store
	log     *logger.Logger
	group   singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New returns a Service reading the catalog through reader and caching in
// store.
func New(reader *catalog.Reader, store *cache.Store, opts ...Option) *Service {
	s := &Service{
		reader:  reader,
		tracker: version.NewTracker(reader),
		cache:   store,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSchema returns the serialized document for the current catalog.
//
// When the fingerprint check or the rebuild fails and a document was cached
// before, that document is returned and the failure is only logged. Without
// a cached document the failure is returned.
func (s *Service) GetSchema(ctx context.Context) ([]byte, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Document, nil
}

// Snapshot is GetSchema returning the fingerprint alongside the document.
func (s *Service) Snapshot(ctx context.Context) (*cache.Snapshot, error) {
	snap, err := s.do(ctx, keyCheck, s.check)
	if err == nil {
		return snap, nil
	}

	stale := s.cache.Cached()
	if stale == nil {
		stale, _ = s.cache.Load(ctx)
	}
	if stale == nil {
		return nil, err
	}

	s.logFor(ctx).WarnWith("serving cached schema after failed check", err, fields(err, map[string]interface{}{
		"fingerprint": stale.Fingerprint.Short(),
	}))
	return stale, nil
}

// Refresh rebuilds the document if the catalog drifted since it was stored.
// Unlike GetSchema it always reports failure.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.do(ctx, keyCheck, s.check)
	return err
}

// Rebuild reads the full catalog and stores a new document regardless of
// the fingerprint.
func (s *Service) Rebuild(ctx context.Context) error {
	_, err := s.do(ctx, keyRebuild, func(ctx context.Context) (*cache.Snapshot, error) {
		live, err := s.tracker.Compute(ctx)
		if err != nil {
			return nil, err
		}
		return s.rebuild(ctx, live)
	})
	return err
}

// Fingerprint returns the fingerprint of the stored document, or "" when
// none was stored yet.
func (s *Service) Fingerprint(ctx context.Context) (version.Fingerprint, error) {
	return s.cache.Fingerprint(ctx)
}

// LiveFingerprint computes the fingerprint of the catalog as it is now.
func (s *Service) LiveFingerprint(ctx context.Context) (version.Fingerprint, error) {
	return s.tracker.Compute(ctx)
}

// Invalidate drops the in-memory copy; the next read goes to storage.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
	s.log.Info("schema cache invalidated")
}

// Ping checks the catalog database and the storage backend.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.reader.Ping(ctx); err != nil {
		return err
	}
	return s.cache.Ping(ctx)
}

// do runs fn once per key for all concurrent callers. The shared work runs
// under a context that keeps the values of ctx but not its cancellation, so a
// caller that gives up only stops waiting; callers still joined get the
// result.
func (s *Service) do(ctx context.Context, key string, fn func(context.Context) (*cache.Snapshot, error)) (*cache.Snapshot, error) {
	work := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return fn(work)
	})

	select {
	case <-ctx.Done():
		return nil, &errs.Error{
			Kind:    errs.ErrKindTimeout,
			Op:      "service." + key,
			Message: "stopped waiting for schema work",
			Cause:   ctx.Err(),
		}
	case res := <-ch:
		if res.Shared {
			s.logFor(ctx).DebugWith("joined in-flight schema work", map[string]interface{}{"key": key})
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cache.Snapshot), nil
	}
}

func (s *Service) check(ctx context.Context) (*cache.Snapshot, error) {
	live, err := s.tracker.Compute(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := s.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap != nil && !version.HasChanged(snap.Fingerprint, live) {
		s.logFor(ctx).DebugWith("schema cache hit", map[string]interface{}{"fingerprint": live.Short()})
		return snap, nil
	}

	persisted := version.Fingerprint("")
	if snap != nil {
		persisted = snap.Fingerprint
	}
	s.logFor(ctx).With().
		Str("persisted", persisted.Short()).
		Str("live", live.Short()).
		Logger().
		Info("schema drift detected")

	return s.rebuild(ctx, live)
}

// rebuild stores the document under live, the fingerprint computed before
// the read. If the catalog changes during the read, the stored fingerprint
// is older than the document and the next check rebuilds again.
func (s *Service) rebuild(ctx context.Context, live version.Fingerprint) (*cache.Snapshot, error) {
	start := time.Now()
	log := s.logFor(ctx)

	sets, err := s.reader.Read(ctx)
	if err != nil {
		log.ErrorWith("schema rebuild failed", err, fields(err, nil))
		return nil, err
	}

	doc := schema.Build(sets)
	data, err := doc.JSON()
	if err != nil {
		log.ErrorWith("schema rebuild failed", err, fields(err, nil))
		return nil, err
	}

	snap := cache.Snapshot{Document: data, Fingerprint: live}
	if err := s.cache.Put(ctx, snap); err != nil {
		log.ErrorWith("schema rebuild failed", err, fields(err, nil))
		return nil, err
	}

	log.With().
		Int("tables", len(doc.Tables)).
		Int("bytes", len(data)).
		Str("fingerprint", live.Short()).
		Dur("duration", time.Since(start)).
		Logger().
		Info("schema rebuilt")

	return &snap, nil
}

// logFor returns the request-scoped logger carried by ctx, if any.
func (s *Service) logFor(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, s.log)
}

// fields adds the op and kind of err to extra.
func fields(err error, extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"kind": errs.KindOf(err).String()}
	var e *errs.Error
	if errors.As(err, &e) && e.Op != "" {
		out["op"] = e.Op
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
