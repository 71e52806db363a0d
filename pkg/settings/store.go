package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/debug"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("settings: store closed")

// migrations are applied in order, once each. Append only.
var migrations = []string{
	// v1 key/value preferences
	`CREATE TABLE IF NOT EXISTS preferences (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	// v2 change history for diagnostics
	`CREATE TABLE IF NOT EXISTS preference_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		changed_at INTEGER NOT NULL DEFAULT (unixepoch())
	)`,
}

const (
	keyVerbosity = "verbosity"
	keyMono      = "mono"
	keyOutput    = "output"
	keySpatial   = "spatial"
	volumePrefix = "volume."
)

// Store persists Settings in SQLite.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	log    *debug.Logger
	closed bool
}

// Open opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" for a throwaway store.
func Open(path string, log *debug.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	// One connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: debug.Or(log)}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		s.log.Warn("settings busy_timeout: %v (non-fatal)", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate settings: %w", err)
	}
	return s, nil
}

// Close releases the database. Later calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for i, stmt := range migrations {
		v := i + 1
		if v <= current {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", v, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_migrations(version) VALUES(?)`, v); err != nil {
			return fmt.Errorf("record migration %d: %w", v, err)
		}
		s.log.Debug("settings: applied migration v%d", v)
	}
	return nil
}

// Get returns the raw value of key. ok is false when the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	err = s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts one raw value.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := put(tx, key, value); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func put(tx *sql.Tx, key, value string) error {
	if _, err := tx.Exec(
		`INSERT INTO preferences(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if _, err := tx.Exec(`INSERT INTO preference_log(key, value) VALUES(?, ?)`, key, value); err != nil {
		return fmt.Errorf("log %s: %w", key, err)
	}
	return nil
}

// Save writes every field of st in one transaction.
func (s *Store) Save(st Settings) error {
	st.Clamp()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	kv := map[string]string{
		keyVerbosity: st.Verbosity.String(),
		keyMono:      strconv.FormatBool(st.Mono),
		keyOutput:    st.Output.String(),
		keySpatial:   strconv.FormatBool(st.Spatial),
	}
	for _, id := range bus.All() {
		kv[volumePrefix+id.String()] = strconv.FormatFloat(st.Volumes[id], 'f', -1, 64)
	}
	for k, v := range kv {
		if err := put(tx, k, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Load reads the stored settings. Missing or malformed keys keep their
// defaults and are logged; only a closed store is an error.
func (s *Store) Load() (Settings, error) {
	st := Default()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return st, ErrClosed
	}
	rows, err := s.db.Query(`SELECT key, value FROM preferences`)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("settings: load failed, using defaults: %v", err)
		return st, nil
	}
	stored := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			continue
		}
		stored[k] = v
	}
	rows.Close()
	s.mu.Unlock()

	bad := func(key, value string, err error) {
		s.log.Warn("settings: ignoring %s=%q: %v", key, value, err)
	}
	if v, ok := stored[keyVerbosity]; ok {
		if p, err := ParseVerbosity(v); err == nil {
			st.Verbosity = p
		} else {
			bad(keyVerbosity, v, err)
		}
	}
	if v, ok := stored[keyOutput]; ok {
		if p, err := ParseOutputMode(v); err == nil {
			st.Output = p
		} else {
			bad(keyOutput, v, err)
		}
	}
	if v, ok := stored[keyMono]; ok {
		if p, err := strconv.ParseBool(v); err == nil {
			st.Mono = p
		} else {
			bad(keyMono, v, err)
		}
	}
	if v, ok := stored[keySpatial]; ok {
		if p, err := strconv.ParseBool(v); err == nil {
			st.Spatial = p
		} else {
			bad(keySpatial, v, err)
		}
	}
	for _, id := range bus.All() {
		key := volumePrefix + id.String()
		v, ok := stored[key]
		if !ok {
			continue
		}
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			st.Volumes[id] = p
		} else {
			bad(key, v, err)
		}
	}
	st.Clamp()
	return st, nil
}

// History returns how many preference writes have been recorded.
func (s *Store) History() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM preference_log`).Scan(&n)
	return n, err
}
