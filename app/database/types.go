package database

import (
	"time"
)

// Item is a content item row. Items are never deleted by the importer;
// re-syncing an unchanged record leaves a single row per unique identifier.
type Item struct {
	ID        int64
	Title     string
	Body      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Field is one flattened field value attached to an item. Repeating fields
// store their row count under the bare field name and row values under
// <name>_<row>_<subname>.
type Field struct {
	ID     int64
	ItemID int64
	Name   string
	Key    string
	Value  string
}

// Term is a categorical tag, optionally nested under a parent term within
// the same taxonomy. ParentID 0 means top level.
type Term struct {
	ID        int64
	Name      string
	Taxonomy  string
	ParentID  int64
	CreatedAt time.Time
}
