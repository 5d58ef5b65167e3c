// Package mongo provides a MongoDB implementation of filestore.Store.
// Each key is one document {_id: key, data: <binary>, updated_at: <time>}
// in a single collection; an upserting replace swaps it atomically.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store is a MongoDB-backed filestore.Store.
type Store struct {
	client     *mongodrv.Client
	collection *mongodrv.Collection
}

var _ filestore.Store = (*Store)(nil)

type entry struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, cfg filestore.MongoConfig) (*Store, error) {
	client, err := mongodrv.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, mapError(err, "failed to create mongo client")
	}

	s := &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Ping verifies the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return mapError(err, "disconnect failed")
	}
	return nil
}

// Get returns the data of the document with _id key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&e)
	if err != nil {
		return nil, mapError(err, "failed to get "+key)
	}
	return e.Data, nil
}

// Put replaces or inserts the document with _id key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: key}},
		entry{Key: key, Data: data, UpdatedAt: time.Now().UTC()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return mapError(err, "failed to put "+key)
	}
	return nil
}

func mapError(err error, msg string) *errs.Error {
	switch {
	case errors.Is(err, mongodrv.ErrNoDocuments):
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), mongodrv.IsTimeout(err):
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	case mongodrv.IsNetworkError(err):
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	var se mongodrv.ServerError
	if errors.As(err, &se) {
		// 13 Unauthorized, 18 AuthenticationFailed
		if se.HasErrorCode(13) || se.HasErrorCode(18) {
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		}
	}
	return errs.Wrap(errs.ErrKindStorage, msg, err)
}
