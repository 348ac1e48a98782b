package database

import (
	"database/sql"
	"fmt"
	"strings"
)

var _ TermRepository = (*TermRepositoryImpl)(nil)

type TermRepositoryImpl struct {
	db *DB
}

func NewTermRepository(db *DB) *TermRepositoryImpl {
	return &TermRepositoryImpl{db: db}
}

func (r *TermRepositoryImpl) LookupOrCreate(name, taxonomy string, parentID int64) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("term name is required")
	}
	if taxonomy == "" {
		return 0, fmt.Errorf("term taxonomy is required")
	}

	// INSERT OR IGNORE against the (name, taxonomy, parent_id) unique
	// index keeps the lookup-or-create race free.
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO terms (name, taxonomy, parent_id)
		VALUES (?, ?, ?)
	`, name, taxonomy, parentID)
	if err != nil {
		return 0, fmt.Errorf("failed to create term %s/%s: %w", taxonomy, name, err)
	}

	var id int64
	err = r.db.QueryRow(`
		SELECT id
		FROM terms
		WHERE name = ? AND taxonomy = ? AND parent_id = ?
	`, name, taxonomy, parentID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up term %s/%s: %w", taxonomy, name, err)
	}

	return id, nil
}

func (r *TermRepositoryImpl) ReplaceItemTerms(itemID int64, taxonomy string, termIDs []int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM item_terms
		WHERE item_id = ?
		  AND term_id IN (SELECT id FROM terms WHERE taxonomy = ?)
	`, itemID, taxonomy)
	if err != nil {
		return fmt.Errorf("failed to clear %s terms: %w", taxonomy, err)
	}

	for _, termID := range termIDs {
		_, err = tx.Exec(`
			INSERT OR IGNORE INTO item_terms (item_id, term_id)
			VALUES (?, ?)
		`, itemID, termID)
		if err != nil {
			return fmt.Errorf("failed to assign term %d: %w", termID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit term assignment: %w", err)
	}

	return nil
}

func (r *TermRepositoryImpl) GetItemTerms(itemID int64, taxonomy string) ([]Term, error) {
	rows, err := r.db.Query(`
		SELECT t.id, t.name, t.taxonomy, t.parent_id, t.created_at
		FROM terms t
		JOIN item_terms it ON it.term_id = t.id
		WHERE it.item_id = ? AND t.taxonomy = ?
		ORDER BY t.parent_id, t.name
	`, itemID, taxonomy)
	if err != nil {
		return nil, fmt.Errorf("failed to get item terms: %w", err)
	}
	defer rows.Close()

	var terms []Term
	for rows.Next() {
		var term Term
		if err := rows.Scan(&term.ID, &term.Name, &term.Taxonomy, &term.ParentID, &term.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan term row: %w", err)
		}
		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating term rows: %w", err)
	}

	return terms, nil
}

func (r *TermRepositoryImpl) GetTermCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM terms").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get term count: %w", err)
	}
	return count, nil
}

// GetTerm retrieves a term by id. Used by taxonomy tests and the stats
// endpoint's sanity checks.
func (r *TermRepositoryImpl) GetTerm(id int64) (*Term, error) {
	var term Term
	err := r.db.QueryRow(`
		SELECT id, name, taxonomy, parent_id, created_at
		FROM terms
		WHERE id = ?
	`, id).Scan(&term.ID, &term.Name, &term.Taxonomy, &term.ParentID, &term.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get term: %w", err)
	}

	return &term, nil
}

// TermNames is a readability helper for logs and tests.
func TermNames(terms []Term) string {
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
