// Package redis provides a Redis implementation of filestore.Store.
// Each key is one string value; SET replaces it atomically.
package redis

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
	goredis "github.com/redis/go-redis/v9"
)

// Store is a Redis-backed filestore.Store.
type Store struct {
	client *goredis.Client
	prefix string
}

var _ filestore.Store = (*Store)(nil)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg filestore.RedisConfig) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	s := NewWithClient(client, cfg.KeyPrefix)
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// NewWithClient wraps an existing client. Keys are stored as prefix+key.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close closes the Redis connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		return nil, mapError(err, "failed to get "+key)
	}
	return value, nil
}

// Put stores data under key without expiry.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return mapError(err, "failed to set "+key)
	}
	return nil
}

func mapError(err error, msg string) *errs.Error {
	if errors.Is(err, goredis.Nil) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	var redisErr goredis.Error
	if errors.As(err, &redisErr) {
		reply := redisErr.Error()
		if strings.HasPrefix(reply, "NOAUTH") || strings.HasPrefix(reply, "WRONGPASS") || strings.HasPrefix(reply, "NOPERM") {
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		}
		return errs.Wrap(errs.ErrKindStorage, msg, err)
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
