package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"

	ledger "github.com/goliatone/go-ledger"
	persistence "github.com/goliatone/go-persistence-bun"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	sqliteDir  = "sqlite"
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// JournalTables are the tables a migrated ledger journal must contain.
var JournalTables = []string{
	"ledger_commits",
	"ledger_accounts",
	"ledger_reservations",
	"ledger_nonces",
	"ledger_role_members",
	"ledger_allowances",
	"ledger_events",
}

// Source is one dialect's migration tree.
type Source struct {
	Dialect  string
	Path     string
	FS       fs.FS
	Versions []string
}

// Plan is what Register hands to the persistence layer.
type Plan struct {
	Label    string
	Dialects []string
	Sources  []Source
}

type RegisterFunc func(ctx context.Context, source Source, label string) error

type Option func(*Plan)

func WithLabel(label string) Option {
	return func(p *Plan) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			p.Label = trimmed
		}
	}
}

// WithDialects restricts registration to the named dialects.
func WithDialects(dialects ...string) Option {
	return func(p *Plan) {
		normalized := normalizeDialects(dialects)
		if len(normalized) > 0 {
			p.Dialects = normalized
		}
	}
}

// WithSources replaces the embedded migration trees, mainly for hosts that
// ship extra ledger tables.
func WithSources(sources ...Source) Option {
	return func(p *Plan) {
		kept := make([]Source, 0, len(sources))
		for _, source := range sources {
			source.Dialect = normalizeDialect(source.Dialect)
			if source.Dialect == "" || source.FS == nil {
				continue
			}
			kept = append(kept, source)
		}
		if len(kept) > 0 {
			p.Sources = kept
		}
	}
}

// Sources resolves the postgres and sqlite trees from root, or from the
// embedded ledger schema when root is nil. Every up migration must have a
// matching down migration.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = ledger.GetMigrationsFS()
	}
	base, basePath, err := migrationsRoot(root)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, sqliteDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: path.Join(basePath, sqliteDir), FS: sqliteFS},
	}
	for i := range sources {
		versions, err := pairedVersions(sources[i])
		if err != nil {
			return nil, err
		}
		sources[i].Versions = versions
	}
	return sources, nil
}

// Register walks the plan's sources for the selected dialects and passes
// each one to registerFn.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Plan, error) {
	plan := Plan{
		Label:    "go-ledger",
		Dialects: []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&plan)
		}
	}
	if registerFn == nil {
		return plan, fmt.Errorf("migrations: register function is required")
	}
	if len(plan.Sources) == 0 {
		sources, err := Sources(nil)
		if err != nil {
			return plan, err
		}
		plan.Sources = sources
	}

	registered := 0
	for _, source := range plan.Sources {
		if !slices.Contains(plan.Dialects, source.Dialect) {
			continue
		}
		if err := registerFn(ctx, source, plan.Label); err != nil {
			return plan, fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Path, err)
		}
		registered++
	}
	if registered == 0 {
		return plan, fmt.Errorf("migrations: no source for dialects %v", plan.Dialects)
	}
	return plan, nil
}

// Apply migrates client to the latest journal schema for dialect and checks
// that every journal table exists afterwards.
func Apply(ctx context.Context, client *persistence.Client, dialect string, opts ...Option) error {
	if client == nil {
		return fmt.Errorf("migrations: persistence client is required")
	}
	target := normalizeDialect(dialect)
	if target == "" {
		return fmt.Errorf("migrations: dialect is required")
	}
	opts = append(opts, WithDialects(target))
	if _, err := Register(ctx, func(_ context.Context, source Source, _ string) error {
		client.RegisterSQLMigrations(source.FS)
		return nil
	}, opts...); err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("migrations: apply %s: %w", target, err)
	}
	return Verify(ctx, client, target)
}

// Verify reports the first journal table missing from the database.
func Verify(ctx context.Context, client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("migrations: persistence client is required")
	}
	var query string
	switch normalizeDialect(dialect) {
	case DialectSQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case DialectPostgres:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	for _, table := range JournalTables {
		var count int
		if err := client.DB().NewRaw(query, table).Scan(ctx, &count); err != nil {
			return fmt.Errorf("migrations: inspect %s: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("migrations: journal table %s is missing", table)
		}
	}
	return nil
}

func pairedVersions(source Source) ([]string, error) {
	ups, err := fs.Glob(source.FS, "*"+upSuffix)
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s %s: %w", source.Dialect, source.Path, err)
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("migrations: %s tree %q has no %s files", source.Dialect, source.Path, upSuffix)
	}
	versions := make([]string, 0, len(ups))
	for _, up := range ups {
		version := strings.TrimSuffix(up, upSuffix)
		if _, err := fs.Stat(source.FS, version+downSuffix); err != nil {
			return nil, fmt.Errorf("migrations: %s migration %s has no down file", source.Dialect, version)
		}
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions, nil
}

func migrationsRoot(root fs.FS) (fs.FS, string, error) {
	const embedded = "data/sql/migrations"
	if sub, err := fs.Sub(root, embedded); err == nil {
		if _, statErr := fs.Stat(sub, sqliteDir); statErr == nil {
			return sub, embedded, nil
		}
	}
	if _, err := fs.Stat(root, sqliteDir); err == nil {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: no %s tree with a %s subdirectory", embedded, sqliteDir)
}

func normalizeDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "sqlite", "sqlite3":
		return DialectSQLite
	case "postgres", "postgresql", "pg":
		return DialectPostgres
	default:
		return ""
	}
}

func normalizeDialects(dialects []string) []string {
	out := make([]string, 0, len(dialects))
	for _, dialect := range dialects {
		normalized := normalizeDialect(dialect)
		if normalized == "" || slices.Contains(out, normalized) {
			continue
		}
		out = append(out, normalized)
	}
	return out
}
