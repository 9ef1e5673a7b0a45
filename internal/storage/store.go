// Package storage persists generated results locally.
package storage

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit is how many entries are kept when no limit is given.
const DefaultHistoryLimit = 20

const keyCheckPlaintext = "wardrobe-editorial"

// ErrWrongPassphrase is returned when the database was created with a
// different passphrase.
var ErrWrongPassphrase = errors.New("history passphrase does not match this database")

// HistoryEntry is one saved result.
type HistoryEntry struct {
	ID        string
	Variant   editorial.Variant
	Label     string
	Payload   editorial.Payload
	CreatedAt time.Time
}

// HistorySummary is a list row without the payload.
type HistorySummary struct {
	ID        string
	Variant   editorial.Variant
	Label     string
	CreatedAt time.Time
}

// HistoryStore defines the interface for result history persistence.
type HistoryStore interface {
	SaveHistory(ctx context.Context, entry *HistoryEntry) (string, error)
	GetHistory(ctx context.Context, id string) (*HistoryEntry, error)
	ListHistory(ctx context.Context) ([]HistorySummary, error)
	DeleteHistory(ctx context.Context, id string) error
	Close() error
}

// SQLiteStore implements HistoryStore using SQLite with encrypted payloads.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	limit         int
	mu            sync.RWMutex
	now           func() time.Time
}

// NewSQLiteStore opens or creates the history database at dbPath. The
// passphrase is stretched with a salt kept in the database; limit bounds
// the number of kept entries (DefaultHistoryLimit when not positive).
func NewSQLiteStore(dbPath, passphrase string, limit int) (*SQLiteStore, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("history passphrase is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	// WAL and a busy timeout let the CLI and a second process share the file
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, limit: limit, now: time.Now}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", dbPath).Msg("failed to restrict history database permissions")
	}

	key, err := store.loadKey(passphrase)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.encryptionKey = key

	return store, nil
}

func (s *SQLiteStore) init() error {
	historyQuery := `
	CREATE TABLE IF NOT EXISTS history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		variant TEXT NOT NULL,
		label TEXT NOT NULL,
		encrypted_payload TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(historyQuery); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}

	settingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(settingsQuery); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}

	return nil
}

// loadKey derives the encryption key, creating the salt and the key check
// on first use.
func (s *SQLiteStore) loadKey(passphrase string) ([]byte, error) {
	salt, err := s.setting("kdf_salt")
	if err != nil {
		return nil, err
	}

	if salt == "" {
		raw, err := NewSalt()
		if err != nil {
			return nil, err
		}
		key := DeriveKey(passphrase, raw)
		check, err := Encrypt([]byte(keyCheckPlaintext), key)
		if err != nil {
			return nil, err
		}
		if err := s.setSetting("kdf_salt", base64.StdEncoding.EncodeToString(raw)); err != nil {
			return nil, err
		}
		if err := s.setSetting("key_check", check); err != nil {
			return nil, err
		}
		return key, nil
	}

	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	key := DeriveKey(passphrase, raw)

	check, err := s.setting("key_check")
	if err != nil {
		return nil, err
	}
	if plain, err := Decrypt(check, key); err != nil || string(plain) != keyCheckPlaintext {
		return nil, ErrWrongPassphrase
	}
	return key, nil
}

func (s *SQLiteStore) setting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) setSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// SaveHistory stores entry under a new id and evicts the oldest entries
// beyond the limit. The id and creation time are filled in on entry.
func (s *SQLiteStore) SaveHistory(ctx context.Context, entry *HistoryEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payloadJSON, err := json.Marshal(entry.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	encrypted, err := Encrypt(payloadJSON, s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt payload: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now().UTC()
	if entry.Variant == "" {
		entry.Variant = editorial.VariantEditorial
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history (id, variant, label, encrypted_payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, string(entry.Variant), entry.Label, encrypted, entry.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to save history entry: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM history WHERE seq NOT IN (
			SELECT seq FROM history ORDER BY seq DESC LIMIT ?
		)
	`, s.limit)
	if err != nil {
		return "", fmt.Errorf("failed to evict history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit history entry: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		log.Debug().Int64("evicted", n).Int("limit", s.limit).Msg("history evicted")
	}
	return entry.ID, nil
}

// GetHistory retrieves an entry by id.
// Returns nil, nil if the entry doesn't exist.
func (s *SQLiteStore) GetHistory(ctx context.Context, id string) (*HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var variant, label, encrypted string
	var createdAt time.Time

	err := s.db.QueryRowContext(ctx,
		"SELECT variant, label, encrypted_payload, created_at FROM history WHERE id = ?",
		id,
	).Scan(&variant, &label, &encrypted, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history entry: %w", err)
	}

	payloadJSON, err := Decrypt(encrypted, s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}

	var payload editorial.Payload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &HistoryEntry{
		ID:        id,
		Variant:   editorial.Variant(variant),
		Label:     label,
		Payload:   payload,
		CreatedAt: createdAt,
	}, nil
}

// ListHistory returns the kept entries, newest first.
func (s *SQLiteStore) ListHistory(ctx context.Context) ([]HistorySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, variant, label, created_at FROM history ORDER BY seq DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistorySummary
	for rows.Next() {
		var e HistorySummary
		var variant string
		if err := rows.Scan(&e.ID, &variant, &e.Label, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Variant = editorial.Variant(variant)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteHistory removes an entry by id.
func (s *SQLiteStore) DeleteHistory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
