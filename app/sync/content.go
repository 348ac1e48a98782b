package sync

import (
	"fmt"
	"log/slog"

	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/listing"
)

// ContentSync upserts the content item for one record, keyed by the
// configured unique identifier field. Items are looked up among any
// status and never deleted.
type ContentSync struct {
	items       database.ItemRepository
	uniqueField string
}

func NewContentSync(items database.ItemRepository, uniqueField string) *ContentSync {
	return &ContentSync{
		items:       items,
		uniqueField: uniqueField,
	}
}

// Upsert creates or updates the item for the model and returns its id.
// A failure is logged with payload context and returned as an error: the
// caller must not run field or taxonomy sync for this record.
func (s *ContentSync) Upsert(m *listing.Model) (int64, error) {
	uniqueID := m.UniqueID()
	if uniqueID == "" {
		slog.Error("Record has no unique identifier, skipping",
			"unique_field", s.uniqueField, "title", m.DisplayName())
		return 0, fmt.Errorf("record has empty %s", s.uniqueField)
	}

	existingID, err := s.items.FindIDByField(s.uniqueField, uniqueID)
	if err != nil {
		slog.Error("Failed to look up item by unique identifier",
			"unique_field", s.uniqueField, "unique_id", uniqueID, "error", err)
		return 0, fmt.Errorf("failed to look up item: %w", err)
	}

	id, err := s.items.UpsertItem(database.ItemWrite{
		ID:          existingID,
		Title:       m.DisplayName(),
		Body:        m.Body(),
		Status:      "published",
		UniqueField: s.uniqueField,
		UniqueValue: uniqueID,
	})
	if err != nil || id == 0 {
		slog.Error("Failed to upsert item",
			"unique_id", uniqueID, "title", m.DisplayName(), "existing_id", existingID, "error", err)
		if err == nil {
			err = fmt.Errorf("upsert returned empty item id")
		}
		return 0, fmt.Errorf("failed to upsert item %s: %w", uniqueID, err)
	}

	return id, nil
}
