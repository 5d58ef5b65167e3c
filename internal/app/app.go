// Package app turns a config.Config into connected components: the catalog
// database, the storage backend, the cache and the service on top.
package app

import (
	"context"
	"io"
	"os"

	"github.com/koustreak/schemacache/internal/cache"
	"github.com/koustreak/schemacache/internal/catalog"
	"github.com/koustreak/schemacache/internal/config"
	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/database/postgres"
	"github.com/koustreak/schemacache/internal/database/sqldb"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
	"github.com/koustreak/schemacache/internal/filestore/local"
	"github.com/koustreak/schemacache/internal/filestore/minio"
	"github.com/koustreak/schemacache/internal/filestore/mongo"
	"github.com/koustreak/schemacache/internal/filestore/redis"
	"github.com/koustreak/schemacache/internal/logger"
	"github.com/koustreak/schemacache/internal/service"
)

// App owns every long-lived component. Close releases them.
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	DB      database.DB
	Storage filestore.Store
	Cache   *cache.Store
	Service *service.Service
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig, out io.Writer) *logger.Logger {
	if out == nil {
		out = os.Stderr
	}
	return logger.New(&logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		TimeFormat: "rfc3339",
		Output:     out,
	})
}

// New connects the database and the storage backend and assembles the
// service. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	dialect, err := catalog.ForDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	db, err := OpenDatabase(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	store, err := OpenStorage(ctx, &cfg.Storage)
	if err != nil {
		db.Close()
		return nil, err
	}

	reader := catalog.NewReader(db, dialect,
		catalog.WithParallel(cfg.Catalog.Parallel),
		catalog.WithLogger(log),
	)
	c := cache.New(store,
		cache.WithKeys(cfg.Storage.DocumentKey, cfg.Storage.FingerprintKey),
		cache.WithLogger(log),
	)

	log.With().
		Str("driver", string(cfg.Database.Driver)).
		Str("storage", string(cfg.Storage.Provider)).
		Bool("parallel", cfg.Catalog.Parallel).
		Logger().
		Info("schemacache initialised")

	return &App{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Storage: store,
		Cache:   c,
		Service: service.New(reader, c, service.WithLogger(log)),
	}, nil
}

// Close releases the database pool and the storage client.
func (a *App) Close() {
	a.DB.Close()
	if err := a.Storage.Close(); err != nil {
		a.Log.WarnWith("closing storage failed", err, nil)
	}
}

// OpenDatabase connects the driver named in cfg.
func OpenDatabase(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == database.DriverPostgres {
		d, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	d, err := sqldb.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// OpenStorage connects the provider named in cfg.
func OpenStorage(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		store filestore.Store
		err   error
	)
	switch cfg.Provider {
	case filestore.ProviderLocal:
		store, err = local.New(cfg.Local)
	case filestore.ProviderMinIO:
		store, err = minio.New(ctx, cfg.MinIO)
	case filestore.ProviderRedis:
		store, err = redis.New(ctx, cfg.Redis)
	case filestore.ProviderMongo:
		store, err = mongo.New(ctx, cfg.Mongo)
	default:
		err = errs.New(errs.ErrKindInvalidInput, "unknown storage provider "+string(cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
