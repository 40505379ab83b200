package storage

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Backend string // memory, file, redis, mongo, or postgres; "" means file

	Dir string // file

	RedisAddr   string // redis
	RedisDB     int
	RedisPrefix string

	MongoURI        string // mongo
	MongoDatabase   string
	MongoCollection string

	PostgresDSN   string // postgres
	PostgresTable string
}

// Open creates the store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis store: address is required")
		}
		return DialRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("mongo store: uri is required")
		}
		return DialMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres store: dsn is required")
		}
		return DialPostgres(ctx, cfg.PostgresDSN, cfg.PostgresTable)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
