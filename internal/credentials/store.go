// Package credentials stores the API keys for the catalog and model services.
package credentials

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"reviewero/internal/apperr"
)

// Services lists every service a key can be stored for, in display order.
var Services = []string{apperr.ServiceTMDB, apperr.ServiceOMDb, apperr.ServiceGemini}

// EnvVar returns the environment variable that overrides the stored key.
func EnvVar(service string) string {
	return "REVIEWERO_" + strings.ToUpper(service) + "_KEY"
}

// Known reports whether service is one of Services.
func Known(service string) bool {
	for _, s := range Services {
		if s == service {
			return true
		}
	}
	return false
}

// Store is a SQLite-backed key store.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrating credential store: %w", err)
	}
	// Keys are secrets; keep the file private.
	if err := os.Chmod(path, 0o600); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("securing credential store: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	if _, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}
	var version int
	if err := s.conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version < 1 {
		_, err := s.conn.Exec(`
			CREATE TABLE IF NOT EXISTS credentials (
				service    TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			INSERT INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("applying v1 schema: %w", err)
		}
	}
	return nil
}

// Get returns the stored key for service, or "" when none is stored.
func (s *Store) Get(service string) (string, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM credentials WHERE service = ?`, service).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s key: %w", service, err)
	}
	return value, nil
}

// Set stores the key for service. An empty value removes it.
func (s *Store) Set(service, value string) error {
	if !Known(service) {
		return fmt.Errorf("unknown service %q (valid: %s)", service, strings.Join(Services, ", "))
	}
	return setKey(s.conn, service, strings.TrimSpace(value))
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setKey(db execer, service, value string) error {
	if value == "" {
		if _, err := db.Exec(`DELETE FROM credentials WHERE service = ?`, service); err != nil {
			return fmt.Errorf("removing %s key: %w", service, err)
		}
		return nil
	}
	_, err := db.Exec(`
		INSERT INTO credentials (service, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		service, value)
	if err != nil {
		return fmt.Errorf("saving %s key: %w", service, err)
	}
	return nil
}

// Key returns the effective key for service: the environment override if set,
// otherwise the stored value. Read errors yield "".
func (s *Store) Key(service string) string {
	if v := strings.TrimSpace(os.Getenv(EnvVar(service))); v != "" {
		return v
	}
	v, err := s.Get(service)
	if err != nil {
		return ""
	}
	return v
}

// Source reports where the effective key for service comes from: "env", "store" or "".
func (s *Store) Source(service string) string {
	if strings.TrimSpace(os.Getenv(EnvVar(service))) != "" {
		return "env"
	}
	if v, err := s.Get(service); err == nil && v != "" {
		return "store"
	}
	return ""
}

// Mask hides all but the first and last characters of a key.
func Mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
