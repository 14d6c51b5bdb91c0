// Package migrations exposes the request history schema per SQL dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	mailchimp "github.com/goliatone/go-mailchimp"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	defaultSourceLabel = "go-mailchimp"
	embeddedRoot       = "data/sql/migrations"
)

// Schema is the migration set for one dialect.
type Schema struct {
	Dialect string
	Path    string
	FS      fs.FS
	// Versions lists migration names without the .up.sql suffix, sorted.
	Versions []string
}

// Registration records what Register handed to the callback.
type Registration struct {
	SourceLabel string
	Dialects    []string
	Schemas     []Schema
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithDialects limits registration to the named dialects.
func WithDialects(dialects ...string) Option {
	return func(r *Registration) {
		var next []string
		for _, dialect := range dialects {
			dialect = normalizeDialect(dialect)
			if dialect != "" && !slices.Contains(next, dialect) {
				next = append(next, dialect)
			}
		}
		if len(next) > 0 {
			r.Dialects = next
		}
	}
}

// Schemas loads the postgres schema from the root and the sqlite schema from
// its sqlite/ subdirectory. The root is the embedded module filesystem unless
// a source is given.
func Schemas(sources ...fs.FS) ([]Schema, error) {
	root := mailchimp.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}

	base, basePath, err := schemaRoot(root)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite schema: %w", err)
	}

	schemas := []Schema{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: joinPath(basePath, "sqlite"), FS: sqliteFS},
	}
	for i := range schemas {
		versions, err := versionsOf(schemas[i])
		if err != nil {
			return nil, err
		}
		schemas[i].Versions = versions
	}
	return schemas, nil
}

// SchemaFor returns the schema registered for a dialect.
func SchemaFor(dialect string, sources ...fs.FS) (Schema, error) {
	schemas, err := Schemas(sources...)
	if err != nil {
		return Schema{}, err
	}
	dialect = normalizeDialect(dialect)
	for _, schema := range schemas {
		if schema.Dialect == dialect {
			return schema, nil
		}
	}
	return Schema{}, fmt.Errorf("migrations: unsupported dialect %q", dialect)
}

// Register calls registerFn once per selected dialect with that dialect's
// migration filesystem.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: defaultSourceLabel,
		Dialects:    []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	schemas, err := Schemas()
	if err != nil {
		return reg, err
	}
	for _, schema := range schemas {
		if !slices.Contains(reg.Dialects, schema.Dialect) {
			continue
		}
		if err := registerFn(ctx, schema.Dialect, reg.SourceLabel, schema.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", schema.Dialect, schema.Path, err)
		}
		reg.Schemas = append(reg.Schemas, schema)
	}
	if len(reg.Schemas) == 0 {
		return reg, fmt.Errorf("migrations: no schema matches dialects %v", reg.Dialects)
	}
	return reg, nil
}

// versionsOf requires at least one migration and a down file for every up file.
func versionsOf(schema Schema) ([]string, error) {
	ups, err := fs.Glob(schema.FS, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s %s: %w", schema.Dialect, schema.Path, err)
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("migrations: %s schema %q has no *.up.sql files", schema.Dialect, schema.Path)
	}
	versions := make([]string, 0, len(ups))
	for _, up := range ups {
		version := strings.TrimSuffix(up, ".up.sql")
		if _, err := fs.Stat(schema.FS, version+".down.sql"); err != nil {
			return nil, fmt.Errorf("migrations: %s migration %s has no down file", schema.Dialect, version)
		}
		versions = append(versions, version)
	}
	slices.Sort(versions)
	return versions, nil
}

func schemaRoot(root fs.FS) (fs.FS, string, error) {
	info, err := fs.Stat(root, embeddedRoot)
	if err == nil && info.IsDir() {
		sub, subErr := fs.Sub(root, embeddedRoot)
		if subErr != nil {
			return nil, "", fmt.Errorf("migrations: resolve root: %w", subErr)
		}
		return sub, embeddedRoot, nil
	}

	if matches, globErr := fs.Glob(root, "*.sql"); globErr == nil && len(matches) > 0 {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found: %w", embeddedRoot, err)
}

func normalizeDialect(dialect string) string {
	dialect = strings.ToLower(strings.TrimSpace(dialect))
	if dialect == "sqlite3" {
		return DialectSQLite
	}
	return dialect
}

func joinPath(base, suffix string) string {
	if base == "." {
		return suffix
	}
	return strings.TrimSuffix(base, "/") + "/" + suffix
}
