package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	mailchimp "github.com/goliatone/go-mailchimp"
	_ "github.com/mattn/go-sqlite3"
)

func TestSchemas_ReturnsPostgresAndSQLite(t *testing.T) {
	schemas, err := Schemas()
	if err != nil {
		t.Fatalf("schemas: %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("expected 2 schemas, got %d", len(schemas))
	}

	want := []string{"00001_mailchimp_request_activity", "00002_mailchimp_request_activity_filters"}
	for _, schema := range schemas {
		if schema.Dialect != DialectPostgres && schema.Dialect != DialectSQLite {
			t.Fatalf("unexpected dialect %q", schema.Dialect)
		}
		if len(schema.Versions) != len(want) {
			t.Fatalf("expected %d %s versions, got %v", len(want), schema.Dialect, schema.Versions)
		}
		for i, version := range want {
			if schema.Versions[i] != version {
				t.Fatalf("expected %s version %d = %q, got %q", schema.Dialect, i, version, schema.Versions[i])
			}
		}
	}
}

func TestSchemaFor_AcceptsDriverName(t *testing.T) {
	schema, err := SchemaFor("sqlite3")
	if err != nil {
		t.Fatalf("schema for sqlite3: %v", err)
	}
	if schema.Dialect != DialectSQLite || schema.Path != "data/sql/migrations/sqlite" {
		t.Fatalf("unexpected schema %q at %q", schema.Dialect, schema.Path)
	}
	if _, err := SchemaFor("mysql"); err == nil {
		t.Fatalf("expected unsupported dialect to fail")
	}
}

func TestRegister_UsesSelectedDialects(t *testing.T) {
	var calls []string
	var labels []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		calls = append(calls, dialect)
		labels = append(labels, label)
		return nil
	}, WithDialects(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected one sqlite registration, got %v", calls)
	}
	if labels[0] != "go-mailchimp" {
		t.Fatalf("expected default source label, got %q", labels[0])
	}
	if len(reg.Schemas) != 1 {
		t.Fatalf("expected registered schema to be recorded, got %d", len(reg.Schemas))
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected missing register func to fail")
	}
}

func TestRegister_UnknownDialectFails(t *testing.T) {
	_, err := Register(context.Background(), func(context.Context, string, string, fs.FS) error {
		return nil
	}, WithDialects("mysql"))
	if err == nil {
		t.Fatalf("expected unknown dialect to fail")
	}
}

func TestSchemas_FlatRoot(t *testing.T) {
	root := fstest.MapFS{
		"00001_x.up.sql":          {Data: []byte("SELECT 1;")},
		"00001_x.down.sql":        {Data: []byte("SELECT 1;")},
		"sqlite/00001_x.up.sql":   {Data: []byte("SELECT 1;")},
		"sqlite/00001_x.down.sql": {Data: []byte("SELECT 1;")},
	}
	schemas, err := Schemas(root)
	if err != nil {
		t.Fatalf("schemas: %v", err)
	}
	if schemas[0].Path != "." || schemas[1].Path != "sqlite" {
		t.Fatalf("unexpected paths %q %q", schemas[0].Path, schemas[1].Path)
	}
}

func TestSchemas_RequiresDownMigration(t *testing.T) {
	root := fstest.MapFS{
		"00001_x.up.sql":          {Data: []byte("SELECT 1;")},
		"sqlite/00001_x.up.sql":   {Data: []byte("SELECT 1;")},
		"sqlite/00001_x.down.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := Schemas(root); err == nil || !strings.Contains(err.Error(), "no down file") {
		t.Fatalf("expected missing down file error, got %v", err)
	}
}

func TestMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := mailchimp.GetMigrationsFS()
	for _, name := range []string{"00001_mailchimp_request_activity", "00002_mailchimp_request_activity_filters"} {
		for _, dir := range []string{"data/sql/migrations/", "data/sql/migrations/sqlite/"} {
			for _, suffix := range []string{".up.sql", ".down.sql"} {
				content, err := fs.ReadFile(root, dir+name+suffix)
				if err != nil {
					t.Fatalf("read migration %s: %v", dir+name+suffix, err)
				}
				if len(content) == 0 {
					t.Fatalf("expected migration %s to have SQL content", dir+name+suffix)
				}
			}
		}
	}
}

func TestSQLiteRequestActivityMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-request-activity?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(mailchimp.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	for _, migration := range []string{
		"00001_mailchimp_request_activity.up.sql",
		"00002_mailchimp_request_activity_filters.up.sql",
	} {
		if err := execSQLMigration(ctx, db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply %s: %v", migration, err)
		}
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO mailchimp_request_activity (id, operation, method, path, outcome) VALUES (?, ?, ?, ?, ?)`,
		"req_1", "lists.list", "GET", "/lists", "success",
	); err != nil {
		t.Fatalf("insert activity: %v", err)
	}

	var indexCount int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name LIKE 'idx_mailchimp_request_activity_%'`,
	).Scan(&indexCount); err != nil {
		t.Fatalf("count indexes: %v", err)
	}
	if indexCount != 3 {
		t.Fatalf("expected 3 activity indexes, got %d", indexCount)
	}

	for _, migration := range []string{
		"00002_mailchimp_request_activity_filters.down.sql",
		"00001_mailchimp_request_activity.down.sql",
	} {
		if err := execSQLMigration(ctx, db, sqliteMigrations, migration); err != nil {
			t.Fatalf("rollback %s: %v", migration, err)
		}
	}
	var tableCount int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='mailchimp_request_activity'`,
	).Scan(&tableCount); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tableCount != 0 {
		t.Fatalf("expected activity table to be dropped")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
