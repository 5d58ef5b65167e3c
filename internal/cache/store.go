// Package cache keeps the current schema document and its fingerprint.
//
// A Store persists both values through a filestore.Store and keeps the last
// loaded or stored pair in memory, so repeated reads cost no storage I/O.
// Put is the only mutation of persisted state; Invalidate drops only the
// in-memory copy. Create one Store per process and share it.
package cache

import (
	"context"
	"sync"

	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
	"github.com/koustreak/schemacache/internal/logger"
	"github.com/koustreak/schemacache/internal/version"
)

// Snapshot is one serialized document together with the fingerprint of the
// catalog it was built from.
type Snapshot struct {
	Document    []byte
	Fingerprint version.Fingerprint
}

// Store is safe for concurrent use. Readers see the previous snapshot until
// Put returns.
type Store struct {
	backend        filestore.Store
	documentKey    string
	fingerprintKey string
	log            *logger.Logger

	mu      sync.RWMutex
	current *Snapshot
}

// Option configures a Store.
type Option func(*Store)

// WithKeys overrides the storage keys of the document and the fingerprint.
func WithKeys(document, fingerprint string) Option {
	return func(s *Store) {
		s.documentKey = document
		s.fingerprintKey = fingerprint
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a Store persisting through backend.
func New(backend filestore.Store, opts ...Option) *Store {
	s := &Store{
		backend:        backend,
		documentKey:    filestore.DefaultDocumentKey,
		fingerprintKey: filestore.DefaultFingerprintKey,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cached returns the in-memory snapshot without touching storage, or nil.
func (s *Store) Cached() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load returns the current snapshot: from memory when present, else from
// storage. It returns (nil, nil) when nothing was ever stored. A document
// persisted without a fingerprint is returned with an empty Fingerprint.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	if snap := s.Cached(); snap != nil {
		return snap, nil
	}

	doc, err := s.backend.Get(ctx, s.documentKey)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WithOp(err, "cache.load", errs.ErrKindStorage)
	}

	var fp version.Fingerprint
	raw, err := s.backend.Get(ctx, s.fingerprintKey)
	switch {
	case err == nil:
		fp = version.Fingerprint(raw)
	case errs.IsNotFound(err):
		s.log.With().Str("key", s.fingerprintKey).Logger().
			Warn("persisted document has no fingerprint")
	default:
		return nil, errs.WithOp(err, "cache.load", errs.ErrKindStorage)
	}

	snap := &Snapshot{Document: doc, Fingerprint: fp}

	s.mu.Lock()
	// A concurrent Put wins over what was just read.
	if s.current == nil {
		s.current = snap
	} else {
		snap = s.current
	}
	s.mu.Unlock()

	s.log.With().
		Int("bytes", len(snap.Document)).
		Str("fingerprint", snap.Fingerprint.Short()).
		Logger().
		Debug("loaded snapshot from storage")

	return snap, nil
}

// Fingerprint returns the fingerprint of the current snapshot, or "" when
// nothing was ever stored.
func (s *Store) Fingerprint(ctx context.Context) (version.Fingerprint, error) {
	snap, err := s.Load(ctx)
	if err != nil || snap == nil {
		return "", err
	}
	return snap.Fingerprint, nil
}

// Put persists snap and makes it the in-memory snapshot. The document is
// written before the fingerprint: if the second write fails, storage holds
// the new document under the old fingerprint and the next check rebuilds.
// On failure the in-memory snapshot is left unchanged.
func (s *Store) Put(ctx context.Context, snap Snapshot) error {
	if snap.Fingerprint == "" {
		return &errs.Error{Kind: errs.ErrKindInvalidInput, Op: "cache.store", Message: "snapshot has no fingerprint"}
	}

	if err := s.backend.Put(ctx, s.documentKey, snap.Document); err != nil {
		return storeError(s.documentKey, err)
	}
	if err := s.backend.Put(ctx, s.fingerprintKey, []byte(snap.Fingerprint)); err != nil {
		return storeError(s.fingerprintKey, err)
	}

	s.mu.Lock()
	s.current = &snap
	s.mu.Unlock()
	return nil
}

// storeError reports any failed write as a storage error.
func storeError(key string, err error) error {
	return &errs.Error{Kind: errs.ErrKindStorage, Op: "cache.store", Message: "write " + key, Cause: err}
}

// Invalidate drops the in-memory snapshot. Persisted state is kept, so the
// next Load reads storage again.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Ping checks the storage backend.
func (s *Store) Ping(ctx context.Context) error {
	return errs.WithOp(s.backend.Ping(ctx), "cache.ping", errs.ErrKindStorage)
}
