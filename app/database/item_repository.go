package database

import (
	"database/sql"
	"fmt"
)

var _ ItemRepository = (*ItemRepositoryImpl)(nil)

type ItemRepositoryImpl struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepositoryImpl {
	return &ItemRepositoryImpl{db: db}
}

func (r *ItemRepositoryImpl) GetItem(id int64) (*Item, error) {
	var item Item
	err := r.db.QueryRow(`
		SELECT id, title, body, status, created_at, updated_at
		FROM items
		WHERE id = ?
	`, id).Scan(&item.ID, &item.Title, &item.Body, &item.Status, &item.CreatedAt, &item.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

func (r *ItemRepositoryImpl) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *ItemRepositoryImpl) FindIDByField(name, value string) (int64, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT item_id
		FROM item_fields
		WHERE name = ? AND value = ?
		LIMIT 1
	`, name, value).Scan(&id)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find item by field: %w", err)
	}

	return id, nil
}

func (r *ItemRepositoryImpl) UpsertItem(w ItemWrite) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := w.ID
	if id == 0 {
		res, err := tx.Exec(`
			INSERT INTO items (title, body, status)
			VALUES (?, ?, ?)
		`, w.Title, w.Body, w.Status)
		if err != nil {
			return 0, fmt.Errorf("failed to insert item: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get inserted item id: %w", err)
		}
	} else {
		_, err := tx.Exec(`
			UPDATE items
			SET title = ?, body = ?, status = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, w.Title, w.Body, w.Status, id)
		if err != nil {
			return 0, fmt.Errorf("failed to update item: %w", err)
		}
	}

	if w.UniqueField != "" {
		_, err = tx.Exec(`
			INSERT INTO item_fields (item_id, name, field_key, value)
			VALUES (?, ?, '', ?)
			ON CONFLICT (item_id, name) DO UPDATE SET value = excluded.value
		`, id, w.UniqueField, w.UniqueValue)
		if err != nil {
			return 0, fmt.Errorf("failed to set unique identifier field: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit item upsert: %w", err)
	}

	return id, nil
}

func (r *ItemRepositoryImpl) SetField(itemID int64, name, key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO item_fields (item_id, name, field_key, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (item_id, name) DO UPDATE SET field_key = excluded.field_key, value = excluded.value
	`, itemID, name, key, value)

	if err != nil {
		return fmt.Errorf("failed to set field %s: %w", name, err)
	}

	return nil
}

func (r *ItemRepositoryImpl) DeleteField(itemID int64, name string) error {
	_, err := r.db.Exec(`
		DELETE FROM item_fields
		WHERE item_id = ? AND name = ?
	`, itemID, name)

	if err != nil {
		return fmt.Errorf("failed to delete field %s: %w", name, err)
	}

	return nil
}

func (r *ItemRepositoryImpl) DeleteFieldPrefix(itemID int64, prefix string) error {
	// Underscore is a LIKE wildcard, so the separator is escaped.
	_, err := r.db.Exec(`
		DELETE FROM item_fields
		WHERE item_id = ? AND (name = ? OR name LIKE ? ESCAPE '\')
	`, itemID, prefix, likeEscape(prefix)+`\_%`)

	if err != nil {
		return fmt.Errorf("failed to delete fields with prefix %s: %w", prefix, err)
	}

	return nil
}

func (r *ItemRepositoryImpl) GetFields(itemID int64) (map[string]string, error) {
	rows, err := r.db.Query(`
		SELECT name, value
		FROM item_fields
		WHERE item_id = ?
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan field row: %w", err)
		}
		fields[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating field rows: %w", err)
	}

	return fields, nil
}
