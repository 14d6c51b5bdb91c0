package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-mailchimp/core"
	"github.com/goliatone/go-mailchimp/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

type persistenceConfig struct {
	driver string
	server string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool {
	return c.debug
}

func (c persistenceConfig) GetDriver() string {
	return c.driver
}

func (c persistenceConfig) GetServer() string {
	return c.server
}

func (c persistenceConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func (c persistenceConfig) GetOtelIdentifier() string {
	return "go-mailchimp"
}

// Store owns the history database and the stores built on it.
type Store struct {
	client   *persistence.Client
	activity *ActivityStore
}

// Open connects to the history database, applies migrations for its
// dialect and builds the activity store.
func Open(ctx context.Context, cfg core.HistoryConfig) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: history dsn is required")
	}
	driver, sqlDriver, dialect, migrationDialect, err := resolveDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if migrationDialect == migrations.DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{driver: sqlDriver, server: dsn}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	_, err = migrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != migrationDialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	},
		migrations.WithDialects(migrationDialect),
		migrations.WithSourceLabel("go-mailchimp"),
	)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}

	activity, err := NewActivityStore(client.DB())
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Store{client: client, activity: activity}, nil
}

func (s *Store) Activity() *ActivityStore {
	if s == nil {
		return nil
	}
	return s.activity
}

func (s *Store) DB() *bun.DB {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.DB()
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func resolveDriver(driver string) (string, string, schema.Dialect, string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", core.HistoryDriverSQLite, "sqlite3":
		return core.HistoryDriverSQLite, "sqlite3", sqlitedialect.New(), migrations.DialectSQLite, nil
	case core.HistoryDriverPostgres, "postgresql":
		return core.HistoryDriverPostgres, "postgres", pgdialect.New(), migrations.DialectPostgres, nil
	default:
		return "", "", nil, "", fmt.Errorf("sqlstore: unsupported history driver %q", driver)
	}
}
