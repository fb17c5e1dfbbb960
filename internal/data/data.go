package data

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"flashlink/internal/conf"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedis,
	NewLinkRepo,
	NewLinkCache,
	NewCachedLinkRepository,
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Data holds the record store driver.
type Data struct {
	db *entsql.Driver
}

// NewData opens the record store and creates missing tables.
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	driver, source := DriverSQLite, "file:flashlink?mode=memory&cache=shared&_fk=1"
	if c != nil && c.Database != nil {
		if c.Database.Driver != "" {
			driver = c.Database.Driver
		}
		if c.Database.Source != "" {
			source = c.Database.Source
		}
	}

	d, err := OpenData(context.Background(), driver, source)
	if err != nil {
		return nil, nil, err
	}
	helper.Infof("record store: %s", driver)

	cleanup := func() {
		helper.Info("closing the data resources")
		if err := d.db.Close(); err != nil {
			helper.Error(err)
		}
	}

	return d, cleanup, nil
}

// OpenData connects and migrates without any config plumbing.
func OpenData(ctx context.Context, driver, source string) (*Data, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("data: unsupported database driver %q", driver)
	}

	drv, err := entsql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("data: open %s: %w", driver, err)
	}
	if err := Migrate(ctx, drv); err != nil {
		drv.Close()
		return nil, err
	}
	return &Data{db: drv}, nil
}

// Migrate creates the tables and indexes of the record store.
func Migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("data: migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("data: create schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (d *Data) Close() error {
	return d.db.Close()
}

// NewRedis connects the shared Redis used by the rate limiter, the redis
// cache and the redis event log. It returns nil when no address is configured.
func NewRedis(c *conf.Data, logger log.Logger) (redis.UniversalClient, func(), error) {
	helper := log.NewHelper(logger)
	if c == nil || c.Redis == nil || c.Redis.Addr == "" {
		helper.Warn("redis not configured")
		return nil, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           c.Redis.Db,
		DialTimeout:  c.Redis.DialTimeout.AsDuration(),
		ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// The limiter fails open and the cache degrades to misses, so keep going.
		helper.Warnf("redis ping %s failed: %v", c.Redis.Addr, err)
	}

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			helper.Error(err)
		}
	}
	return rdb, cleanup, nil
}
