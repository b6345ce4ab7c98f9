// Package store persists feasibility verdicts in SQLite so that repeated
// runs over unchanged classes skip the instruction walk. Verdicts are keyed
// by class content hash, so an edited class never reuses a stale verdict.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/bceval/eval"
)

var log = commonlog.GetLogger("bceval.store")

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
}

// Store is a SQLite-backed eval.VerdictStore.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

var _ eval.VerdictStore = (*Store)(nil)

// Open opens or creates the verdict database at path. The special path
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Debugf("opened verdict store %s", path)
	return &Store{db: db, path: path}, nil
}

// migrate creates the verdicts table. Tables written before verdicts
// recorded their dependencies are dropped, since their rows cannot be
// validated.
func migrate(db *sql.DB) error {
	var columns, withDeps int
	err := db.QueryRow(
		"SELECT COUNT(*), COUNT(CASE WHEN name = 'deps' THEN 1 END) FROM pragma_table_info('verdicts')",
	).Scan(&columns, &withDeps)
	if err != nil {
		return fmt.Errorf("inspecting table: %w", err)
	}
	if columns > 0 && withDeps == 0 {
		log.Infof("dropping verdicts without dependency records")
		if _, err := db.Exec("DROP TABLE verdicts"); err != nil {
			return fmt.Errorf("dropping table: %w", err)
		}
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS verdicts (
		class_hash TEXT NOT NULL,
		name       TEXT NOT NULL,
		descriptor TEXT NOT NULL,
		internals  INTEGER NOT NULL,
		feasible   INTEGER NOT NULL,
		deps       BLOB,
		PRIMARY KEY (class_hash, name, descriptor, internals)
	)`)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadVerdict implements eval.VerdictStore.
func (s *Store) LoadVerdict(classHash, name, desc string, internals bool) (eval.StoredVerdict, bool, error) {
	var feasible int
	var deps []byte
	err := s.db.QueryRow(
		"SELECT feasible, deps FROM verdicts WHERE class_hash = ? AND name = ? AND descriptor = ? AND internals = ?",
		classHash, name, desc, boolInt(internals),
	).Scan(&feasible, &deps)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return eval.StoredVerdict{}, false, nil
		}
		return eval.StoredVerdict{}, false, fmt.Errorf("querying verdict: %w", err)
	}

	v := eval.StoredVerdict{Feasible: feasible != 0}
	if len(deps) > 0 {
		if err := cbor.Unmarshal(deps, &v.Deps); err != nil {
			return eval.StoredVerdict{}, false, fmt.Errorf("decoding verdict dependencies: %w", err)
		}
	}
	return v, true, nil
}

// SaveVerdict implements eval.VerdictStore.
func (s *Store) SaveVerdict(classHash, name, desc string, internals bool, v eval.StoredVerdict) error {
	deps, err := encMode.Marshal(v.Deps)
	if err != nil {
		return fmt.Errorf("encoding verdict dependencies: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO verdicts (class_hash, name, descriptor, internals, feasible, deps) VALUES (?, ?, ?, ?, ?, ?)",
		classHash, name, desc, boolInt(internals), boolInt(v.Feasible), deps,
	)
	if err != nil {
		return fmt.Errorf("saving verdict: %w", err)
	}
	return nil
}

// Count returns the number of stored verdicts.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM verdicts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting verdicts: %w", err)
	}
	return n, nil
}

// Prune deletes verdicts for classes whose hash is not in keep, returning
// the number removed.
func (s *Store) Prune(keep []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning prune: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("CREATE TEMP TABLE IF NOT EXISTS keep_hashes (class_hash TEXT PRIMARY KEY)"); err != nil {
		return 0, fmt.Errorf("creating keep table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM keep_hashes"); err != nil {
		return 0, fmt.Errorf("clearing keep table: %w", err)
	}
	for _, h := range keep {
		if _, err := tx.Exec("INSERT OR IGNORE INTO keep_hashes (class_hash) VALUES (?)", h); err != nil {
			return 0, fmt.Errorf("recording kept hash: %w", err)
		}
	}
	res, err := tx.Exec("DELETE FROM verdicts WHERE class_hash NOT IN (SELECT class_hash FROM keep_hashes)")
	if err != nil {
		return 0, fmt.Errorf("pruning verdicts: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prune: %w", err)
	}
	return int(n), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
