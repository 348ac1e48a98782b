package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Keys used by the import pipeline. The offset cursor is a bare integer:
// 0 means both "start a new batch" and "previous batch complete".
const (
	KeyOffset            = "import.offset"
	KeyLastImportStart   = "import.last_start"
	KeyLastImportSuccess = "import.last_success"
	KeyAccessToken       = "source.access_token"
	KeyTokenExpiry       = "source.token_expiry"
)

var _ StateRepository = (*StateRepositoryImpl)(nil)

type StateRepositoryImpl struct {
	db *DB
}

func NewStateRepository(db *DB) *StateRepositoryImpl {
	return &StateRepositoryImpl{db: db}
}

func (r *StateRepositoryImpl) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`
		SELECT value FROM sync_state WHERE key = ?
	`, key).Scan(&value)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get state %s: %w", key, err)
	}

	return value, nil
}

func (r *StateRepositoryImpl) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)

	if err != nil {
		return fmt.Errorf("failed to set state %s: %w", key, err)
	}

	return nil
}

func (r *StateRepositoryImpl) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM sync_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}

func (r *StateRepositoryImpl) GetOffset() (int, error) {
	value, err := r.Get(KeyOffset)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid offset value %q: %w", value, err)
	}

	return offset, nil
}

func (r *StateRepositoryImpl) SetOffset(offset int) error {
	return r.Set(KeyOffset, strconv.Itoa(offset))
}

func (r *StateRepositoryImpl) GetTime(key string) (*time.Time, error) {
	value, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp value %q for %s: %w", value, key, err)
	}

	return &t, nil
}

func (r *StateRepositoryImpl) SetTime(key string, t time.Time) error {
	return r.Set(key, t.UTC().Format(time.RFC3339))
}

func (r *StateRepositoryImpl) TryLock(name string, ttl time.Duration) (bool, error) {
	key := "lock." + name
	now := time.Now().UTC()

	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var value string
	err = tx.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to read lock %s: %w", name, err)
	}

	if value != "" {
		expiry, parseErr := time.Parse(time.RFC3339, value)
		// An unparsable expiry is treated as stale rather than wedging
		// the importer forever.
		if parseErr == nil && expiry.After(now) {
			return false, nil
		}
	}

	_, err = tx.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, now.Add(ttl).Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit lock %s: %w", name, err)
	}

	return true, nil
}

func (r *StateRepositoryImpl) Unlock(name string) error {
	return r.Delete("lock." + name)
}
