// Package config loads schemacache settings from an optional YAML file and
// SCHEMACACHE_* environment variables. Environment variables win over the
// file; nested keys use "_" (SCHEMACACHE_DATABASE_DSN for database.dsn).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/koustreak/schemacache/internal/database"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
	"github.com/koustreak/schemacache/internal/server"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "SCHEMACACHE"

// Config is the complete process configuration.
type Config struct {
	Database database.Config  `mapstructure:"database"`
	Catalog  CatalogConfig    `mapstructure:"catalog"`
	Storage  filestore.Config `mapstructure:"storage"`
	Server   server.Config    `mapstructure:"server"`
	Log      LogConfig        `mapstructure:"log"`
}

// CatalogConfig tunes the catalog reader.
type CatalogConfig struct {
	// Parallel runs the metadata queries concurrently.
	Parallel bool `mapstructure:"parallel"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads path (when non-empty) or ./schemacache.yaml (when present),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file "+path, err)
		}
	} else {
		v.SetConfigName("schemacache")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	db := database.DefaultConfig("")
	return &Config{
		Database: *db,
		Storage:  *filestore.DefaultConfig(),
		Server:   server.DefaultConfig(),
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("database.driver", string(d.Database.Driver))
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.min_conns", d.Database.MinConns)
	v.SetDefault("database.max_conn_lifetime", d.Database.MaxConnLifetime)
	v.SetDefault("database.max_conn_idle_time", d.Database.MaxConnIdleTime)
	v.SetDefault("database.connect_timeout", d.Database.ConnectTimeout)

	v.SetDefault("catalog.parallel", d.Catalog.Parallel)

	v.SetDefault("storage.provider", string(d.Storage.Provider))
	v.SetDefault("storage.document_key", d.Storage.DocumentKey)
	v.SetDefault("storage.fingerprint_key", d.Storage.FingerprintKey)
	v.SetDefault("storage.local.dir", d.Storage.Local.Dir)
	v.SetDefault("storage.minio.endpoint", d.Storage.MinIO.Endpoint)
	v.SetDefault("storage.minio.access_key", d.Storage.MinIO.AccessKey)
	v.SetDefault("storage.minio.secret_key", d.Storage.MinIO.SecretKey)
	v.SetDefault("storage.minio.use_ssl", d.Storage.MinIO.UseSSL)
	v.SetDefault("storage.minio.region", d.Storage.MinIO.Region)
	v.SetDefault("storage.minio.bucket", d.Storage.MinIO.Bucket)
	v.SetDefault("storage.minio.prefix", d.Storage.MinIO.Prefix)
	v.SetDefault("storage.redis.addr", d.Storage.Redis.Addr)
	v.SetDefault("storage.redis.username", d.Storage.Redis.Username)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", d.Storage.Redis.DB)
	v.SetDefault("storage.redis.key_prefix", d.Storage.Redis.KeyPrefix)
	v.SetDefault("storage.mongo.uri", d.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", d.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", d.Storage.Mongo.Collection)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	return nil
}
