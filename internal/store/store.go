package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leitmotif-dev/stratum/internal/schema"
)

// Store owns one database file, the model that shaped it, and the working
// set of uncommitted changes.
type Store struct {
	db    *sql.DB
	model *schema.Model
	log   *slog.Logger
	path  string

	// writing asserts the single-writer contract; see beginWrite.
	writing atomic.Bool

	// Working set: staged operations in staging order, with a by-key index
	// so re-staging a record replaces its earlier operation in place.
	pending []*pendingOp
	index   map[string]*pendingOp
}

// Options configures Open.
type Options struct {
	// Dir overrides the per-user data directory. Tests point this at a
	// temporary directory.
	Dir string

	// Logger receives commit failures and masked-looking query errors.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Open creates or opens the store file fileName under the per-user data
// directory (or opts.Dir) and brings it up to date with the model: tables
// are created for new entity types, columns added for new attributes, and
// the model version recorded in the file.
//
// Opening is idempotent. It fails if the file was created with a different
// model, if a declared attribute's column type changed, or if the file's
// model version is newer than the given model's.
func Open(model *schema.Model, fileName string, opts Options) (*Store, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}

	path, err := resolvePath(opts.Dir, fileName)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY and keeps the working-set flush on one handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		db:    db,
		model: model,
		log:   logger,
		path:  path,
		index: make(map[string]*pendingOp),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return s, nil
}

// MustOpen is Open with the fatal startup policy: an application that cannot
// open its store cannot run, so any failure terminates the process.
func MustOpen(model *schema.Model, fileName string, opts Options) *Store {
	s, err := Open(model, fileName, opts)
	if err != nil {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("store open failed", "file", fileName, "err", err)
		os.Exit(1)
	}
	return s
}

// Close closes the database connection. Uncommitted working-set changes are
// discarded.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Model returns the model the store was opened with.
func (s *Store) Model() *schema.Model { return s.model }

// Path returns the resolved store file path.
func (s *Store) Path() string { return s.path }

// PendingCount returns the number of staged, uncommitted operations.
func (s *Store) PendingCount() int { return len(s.pending) }

// beginWrite asserts the single-writer contract. Overlapping writes are a
// caller error, not a condition the store recovers from, so the violation
// panics rather than blocking.
func (s *Store) beginWrite() func() {
	if !s.writing.CompareAndSwap(false, true) {
		panic("store: overlapping write operations; all writes must come from a single goroutine")
	}
	return func() { s.writing.Store(false) }
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
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// initSchema creates missing tables, adds missing columns, and records the
// model identity and version. Idempotent.
func (s *Store) initSchema() error {
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS _stratum_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	if err := s.checkModelName(); err != nil {
		return err
	}

	var version int64
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > s.model.Version {
		return fmt.Errorf("store file is at model version %d, newer than model version %d", version, s.model.Version)
	}

	for _, name := range s.model.CreationOrder() {
		et, _ := s.model.EntityType(name)
		if _, err := s.db.Exec(et.CreateTableSQL()); err != nil {
			return fmt.Errorf("create table %s: %w", et.Name, err)
		}
		if err := s.migrateColumns(et); err != nil {
			return err
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", s.model.Version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// checkModelName records the model name on first open and rejects reopening
// the file with a different model.
func (s *Store) checkModelName() error {
	var stored string
	err := s.db.QueryRow(`SELECT value FROM _stratum_meta WHERE key = 'model_name'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec(
			`INSERT INTO _stratum_meta (key, value) VALUES ('model_name', ?)`, s.model.Name,
		); err != nil {
			return fmt.Errorf("record model name: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read model name: %w", err)
	case stored != s.model.Name:
		return &ModelMismatchError{StoreModel: stored, WantModel: s.model.Name}
	default:
		return nil
	}
}

// migrateColumns performs lightweight migration for one entity type: new
// attributes become new columns, and a changed column type is an error.
func (s *Store) migrateColumns(et *schema.EntityType) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", schema.QuoteIdent(et.Name)))
	if err != nil {
		return fmt.Errorf("table_info %s: %w", et.Name, err)
	}
	defer rows.Close()

	existing := make(map[string]string)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("scan table_info %s: %w", et.Name, err)
		}
		existing[name] = typ
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table_info %s: %w", et.Name, err)
	}

	for _, a := range et.Attributes {
		have, ok := existing[a.Name]
		if !ok {
			if _, err := s.db.Exec(et.AddColumnSQL(a)); err != nil {
				return fmt.Errorf("add column %s.%s: %w", et.Name, a.Name, err)
			}
			continue
		}
		if have != a.ColumnType() {
			return &MigrationError{EntityType: et.Name, Column: a.Name, Have: have, Want: a.ColumnType()}
		}
	}
	return nil
}
