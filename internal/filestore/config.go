package filestore

import (
	"fmt"
	"strings"

	"github.com/koustreak/schemacache/internal/errs"
)

// Provider identifies the storage backend.
type Provider string

const (
	ProviderLocal Provider = "local"
	ProviderMinIO Provider = "minio"
	ProviderRedis Provider = "redis"
	ProviderMongo Provider = "mongo"
)

// Default keys of the two persisted values.
const (
	DefaultDocumentKey    = "schema.json"
	DefaultFingerprintKey = "schema.version"
)

// Config holds the settings of every provider. Only the section matching
// Provider is used.
type Config struct {
	// Provider is the storage backend (e.g. ProviderLocal).
	Provider Provider `mapstructure:"provider"`

	// DocumentKey names the serialized schema document.
	DocumentKey string `mapstructure:"document_key"`

	// FingerprintKey names the fingerprint of the persisted document.
	FingerprintKey string `mapstructure:"fingerprint_key"`

	Local LocalConfig `mapstructure:"local"`
	MinIO MinIOConfig `mapstructure:"minio"`
	Redis RedisConfig `mapstructure:"redis"`
	Mongo MongoConfig `mapstructure:"mongo"`
}

// LocalConfig configures the filesystem backend.
type LocalConfig struct {
	// Dir holds one file per key. It is created if missing.
	Dir string `mapstructure:"dir"`
}

// MinIOConfig configures the MinIO / S3 backend.
type MinIOConfig struct {
	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string `mapstructure:"endpoint"`

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string `mapstructure:"access_key"`

	// SecretKey is the secret access key.
	SecretKey string `mapstructure:"secret_key"`

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool `mapstructure:"use_ssl"`

	// Region is used by region-aware backends (e.g. AWS S3).
	// Leave empty for MinIO.
	Region string `mapstructure:"region"`

	// Bucket holds the objects. It is created on connect when missing.
	Bucket string `mapstructure:"bucket"`

	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// KeyPrefix is prepended to every key.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// MongoConfig configures the MongoDB backend. Each key is one document in
// Collection, with the key as _id.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// DefaultConfig returns a local-directory config with the default keys.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderLocal,
		DocumentKey:    DefaultDocumentKey,
		FingerprintKey: DefaultFingerprintKey,
		Local:          LocalConfig{Dir: ".schemacache"},
		MinIO:          MinIOConfig{Endpoint: "localhost:9000", Bucket: "schemacache"},
		Redis:          RedisConfig{Addr: "localhost:6379", KeyPrefix: "schemacache:"},
		Mongo:          MongoConfig{URI: "mongodb://localhost:27017", Database: "schemacache", Collection: "snapshots"},
	}
}

// Validate checks the settings of the selected provider.
func (c *Config) Validate() error {
	invalid := func(msg string) error {
		return &errs.Error{Kind: errs.ErrKindInvalidInput, Op: "filestore.config", Message: msg}
	}

	if strings.TrimSpace(c.DocumentKey) == "" || strings.TrimSpace(c.FingerprintKey) == "" {
		return invalid("document and fingerprint keys are required")
	}
	if c.DocumentKey == c.FingerprintKey {
		return invalid("document and fingerprint keys must differ")
	}

	switch c.Provider {
	case ProviderLocal:
		if c.Local.Dir == "" {
			return invalid("local.dir is required")
		}
	case ProviderMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return invalid("minio.endpoint and minio.bucket are required")
		}
	case ProviderRedis:
		if c.Redis.Addr == "" {
			return invalid("redis.addr is required")
		}
	case ProviderMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" || c.Mongo.Collection == "" {
			return invalid("mongo.uri, mongo.database and mongo.collection are required")
		}
	default:
		return invalid(fmt.Sprintf("unknown storage provider %q", c.Provider))
	}
	return nil
}
