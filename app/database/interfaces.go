package database

import (
	"time"
)

// ItemWrite is the payload for an item upsert. ID 0 creates a new item.
// The unique identifier field is written in the same transaction as the
// item row so a partially-synced item can always be found again.
type ItemWrite struct {
	ID          int64
	Title       string
	Body        string
	Status      string
	UniqueField string
	UniqueValue string
}

type ItemRepository interface {
	GetItem(id int64) (*Item, error)
	GetItemCount() (int, error)

	// FindIDByField returns the id of the item whose field name has the
	// given value, regardless of item status. 0 means no match.
	FindIDByField(name, value string) (int64, error)

	UpsertItem(w ItemWrite) (int64, error)

	SetField(itemID int64, name, key, value string) error
	DeleteField(itemID int64, name string) error
	// DeleteFieldPrefix removes the field named prefix and every field
	// named <prefix>_... (repeating rows, group sub-values).
	DeleteFieldPrefix(itemID int64, prefix string) error
	GetFields(itemID int64) (map[string]string, error)
}

type TermRepository interface {
	// LookupOrCreate returns the id of the term matching the exact
	// (name, taxonomy, parentID) triple, creating it on first use.
	LookupOrCreate(name, taxonomy string, parentID int64) (int64, error)

	// ReplaceItemTerms replaces the item's assigned terms within one
	// taxonomy with exactly the given set. Terms in other taxonomies are
	// untouched.
	ReplaceItemTerms(itemID int64, taxonomy string, termIDs []int64) error

	GetItemTerms(itemID int64, taxonomy string) ([]Term, error)
	GetTermCount() (int, error)
}

type StateRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error

	GetOffset() (int, error)
	SetOffset(offset int) error

	GetTime(key string) (*time.Time, error)
	SetTime(key string, t time.Time) error

	// TryLock acquires a named run guard with a TTL. Returns false when a
	// live lock is already held (an overlapping invocation).
	TryLock(name string, ttl time.Duration) (bool, error)
	Unlock(name string) error
}
