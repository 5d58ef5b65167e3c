// Package filestore defines the persistent key/value storage used for the
// schema document and its fingerprint.
//
// All providers (local directory, MinIO, Redis, MongoDB) implement the Store
// interface. Callers depend only on this package, never on a specific
// provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig()
//	cfg.Local.Dir = "/var/lib/schemacache"
//	store, err := local.New(cfg.Local)
//	if err != nil { ... }
//	defer store.Close()
//
//	data, err := store.Get(ctx, cfg.DocumentKey)
package filestore

import "context"

// Store is the single interface all storage providers must implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, clients, etc.).
	Close() error

	// Get returns the value stored under key. An absent key is an
	// errs.ErrKindNotFound error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value under key. A concurrent Get observes either the
	// previous value or data, never a partial write.
	Put(ctx context.Context, key string, data []byte) error
}
