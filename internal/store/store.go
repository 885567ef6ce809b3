package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/distype/distype/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Supported database/sql driver names.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Options configures a Store. Zero values select the defaults.
type Options struct {
	// Driver is DriverCGO (default) or DriverPureGo.
	Driver string

	// ChatPrefix is prepended to synthesized chat names.
	ChatPrefix string

	// MinChatCount is the seeded chat floor and the size of the
	// protected prefix of the name-sorted chat listing.
	MinChatCount int

	// UncategorizedID is the reserved id of the distinguished category.
	UncategorizedID string

	// UncategorizedName is the name given to the distinguished category
	// when bootstrap has to create it.
	UncategorizedName string

	// ProtectUncategorized makes DeleteCategory refuse the distinguished
	// category instead of deleting it.
	ProtectUncategorized bool

	// DefaultSettings seeds the settings row when it does not exist.
	DefaultSettings model.Settings

	// IDs generates record ids. Defaults to UUIDv7Generator.
	IDs IDGenerator

	// Logger defaults to slog.Default() tagged with component=store.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Driver == "" {
		o.Driver = DriverCGO
	}
	if o.ChatPrefix == "" {
		o.ChatPrefix = model.DefaultChatPrefix
	}
	if o.MinChatCount <= 0 {
		o.MinChatCount = model.DefaultMinChatCount
	}
	if o.UncategorizedID == "" {
		o.UncategorizedID = model.DefaultUncategorizedID
	}
	if o.UncategorizedName == "" {
		o.UncategorizedName = model.DefaultUncategorizedName
	}
	if o.IDs == nil {
		o.IDs = UUIDv7Generator{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "store")
	}
	o.ChatPrefix = model.NormalizeName(o.ChatPrefix)
	o.UncategorizedName = model.NormalizeName(o.UncategorizedName)
	return o
}

// Store is the single owner of all chats, categories, messages and settings.
//
// Every mutation runs in one SQL transaction while holding the writer lock,
// and any resulting category view recomputation is installed before the lock
// is released. Reads hold the reader lock, so they never observe a
// half-applied mutation.
type Store struct {
	db     *sql.DB
	opts   Options
	logger *slog.Logger

	mu      sync.RWMutex
	order   []string // category view: ids, uncategorized first
	version int      // schema version established by bootstrap
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates or opens the database at path, bumps its schema version,
// seeds the defaults and returns a ready Store.
// Parent directories are created if needed. Use MemoryPath for tests.
func Open(path string, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	if opts.Driver != DriverCGO && opts.Driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported driver %q: must be %q or %q", opts.Driver, DriverCGO, DriverPureGo)
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(opts.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time, and an in-memory database
	// exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s := &Store{
		db:     db,
		opts:   opts,
		logger: opts.Logger,
	}

	if err := s.bootstrap(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap store: %w", err)
	}

	s.logger.Info("store opened", "path", path, "driver", opts.Driver, "schema_version", s.version)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info("closing store")
	return s.db.Close()
}

// SchemaVersion returns the schema version written by bootstrap.
func (s *Store) SchemaVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// migrateSchema applies the schema and column migrations, then bumps
// user_version by one. A fresh database ends at version 1.
func migrateSchema(ctx context.Context, tx *sql.Tx, logger *slog.Logger) (int, error) {
	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return 0, fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(ctx, tx, logger); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	next := version + 1
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", next)); err != nil {
		return 0, fmt.Errorf("set user_version: %w", err)
	}

	return next, nil
}

// columnMigrations add columns that databases created by earlier releases lack.
// SQLite has no ADD COLUMN IF NOT EXISTS, so each is guarded by a check.
var columnMigrations = []struct {
	table  string
	column string
	apply  string
}{
	{
		table:  "chats",
		column: "text",
		apply:  `ALTER TABLE chats ADD COLUMN text TEXT NOT NULL DEFAULT ''`,
	},
	{
		table:  "messages",
		column: "text",
		apply:  `ALTER TABLE messages ADD COLUMN text TEXT NOT NULL DEFAULT ''`,
	},
	{
		table:  "settings",
		column: "voice_id",
		apply:  `ALTER TABLE settings ADD COLUMN voice_id TEXT NOT NULL DEFAULT ''`,
	},
}

// runMigrations applies the column migrations. Safe to run repeatedly.
func runMigrations(ctx context.Context, tx *sql.Tx, logger *slog.Logger) error {
	for _, m := range columnMigrations {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, m.table, m.column,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking %s.%s: %w", m.table, m.column, err)
		}
		if exists > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.apply); err != nil {
			return fmt.Errorf("adding %s column to %s: %w", m.column, m.table, err)
		}
		logger.Info("applied migration", "table", m.table, "column", m.column)
	}
	return nil
}

// withTx runs fn in a transaction that is committed if fn returns nil and
// rolled back otherwise. Callers must hold s.mu for writing.
//
// Store errors returned by fn pass through unchanged; anything else,
// including begin and commit failures, becomes a storage fault.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageFault(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return storageFault(op, err)
	}

	if err := tx.Commit(); err != nil {
		return storageFault(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}
