// Package corpus provides SQLite-backed persistence for generated quiz
// items, cached illustrations, and the synthesis event log.
package corpus

import (
	"database/sql"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// DefaultIllustrationCap bounds how many illustrations are retained.
const DefaultIllustrationCap = 200

// Store wraps the SQLite database holding the corpus.
type Store struct {
	db *sql.DB

	// IllustrationCap is the retention bound for the image sub-store.
	// Oldest entries beyond the cap are evicted first, blocked or not.
	IllustrationCap int

	mu      sync.Mutex
	entropy *rand.ChaCha8
}

// Open creates a Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	var seed [32]byte
	now := time.Now().UnixNano()
	for i := 0; i < 8; i++ {
		seed[i] = byte(now >> (8 * i))
	}

	s := &Store{
		db:              db,
		IllustrationCap: DefaultIllustrationCap,
		entropy:         rand.NewChaCha8(seed),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// newRecordID mints a ULID. Record IDs sort by creation time, which the
// image sub-store relies on for oldest-first eviction.
func (s *Store) newRecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id                  TEXT PRIMARY KEY,
		category            TEXT NOT NULL,
		kind                TEXT NOT NULL,
		difficulty          INTEGER NOT NULL,
		text                TEXT NOT NULL,
		options             TEXT,
		correct_index       INTEGER NOT NULL DEFAULT 0,
		placement           TEXT,
		explanation         TEXT NOT NULL DEFAULT '',
		illustration_prompt TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

	CREATE TABLE IF NOT EXISTS illustrations (
		prompt     TEXT PRIMARY KEY,
		image      BLOB,
		blocked    INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_illustrations_created ON illustrations(created_at);

	CREATE TABLE IF NOT EXISTS synth_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp     TEXT NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_synth_events_purpose ON synth_events(purpose);
	`
	_, err := s.db.Exec(schema)
	return err
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZFORGE_DB environment variable
// 2. $XDG_DATA_HOME/quizforge/quizforge.db
// 3. ~/.local/share/quizforge/quizforge.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZFORGE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "quizforge", "quizforge.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
