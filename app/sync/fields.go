package sync

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/listing"
	"github.com/sagepoint/listing-sync/app/schema"
)

// FieldSync applies a model's values onto the destination field schema for
// one item. Every write clears the previous value first: stale rows and
// values from an earlier sync never survive a run.
type FieldSync struct {
	items database.ItemRepository
}

func NewFieldSync(items database.ItemRepository) *FieldSync {
	return &FieldSync{items: items}
}

// Apply maps every top-level model field onto the item. Field names absent
// from the index are skipped silently; names present with an unsupported
// type are logged and dropped. Write errors are logged and the remaining
// fields still sync.
func (s *FieldSync) Apply(m *listing.Model, idx schema.Index, itemID int64) {
	for name, value := range m.Fields() {
		node, ok := idx[name]
		if !ok {
			continue
		}
		s.applyField(itemID, name, node, value)
	}
}

func (s *FieldSync) applyField(itemID int64, name string, node *schema.Node, value any) {
	switch node.Type {
	case schema.TypeText, schema.TypeTextarea, schema.TypeNumber,
		schema.TypeEmail, schema.TypeURL, schema.TypeTrueFalse, schema.TypeDate:
		if err := s.items.SetField(itemID, name, node.Key, scalarString(value)); err != nil {
			slog.Error("Failed to set field", "item_id", itemID, "field", name, "error", err)
		}

	case schema.TypeGroup:
		s.applyGroup(itemID, name, node, value)

	case schema.TypeRepeater:
		s.applyRepeater(itemID, name, node, value)

	default:
		slog.Error("Unsupported destination field type, value dropped",
			"item_id", itemID, "field", name, "type", node.Type)
	}
}

func (s *FieldSync) applyGroup(itemID int64, name string, node *schema.Node, value any) {
	values, ok := value.(map[string]any)
	if !ok {
		slog.Error("Group field requires a mapping value, dropped",
			"item_id", itemID, "field", name)
		return
	}

	if err := s.items.DeleteFieldPrefix(itemID, name); err != nil {
		slog.Error("Failed to clear group field", "item_id", itemID, "field", name, "error", err)
		return
	}

	for subName, subValue := range values {
		subNode, ok := node.Sub[subName]
		if !ok {
			continue
		}
		s.applyField(itemID, name+"_"+subName, subNode, subValue)
	}
}

func (s *FieldSync) applyRepeater(itemID int64, name string, node *schema.Node, value any) {
	rows := repeaterRows(value)
	if rows == nil {
		slog.Error("Repeater field requires a list value, dropped",
			"item_id", itemID, "field", name)
		return
	}

	if err := s.items.DeleteFieldPrefix(itemID, name); err != nil {
		slog.Error("Failed to clear repeater field", "item_id", itemID, "field", name, "error", err)
		return
	}

	if err := s.items.SetField(itemID, name, node.Key, strconv.Itoa(len(rows))); err != nil {
		slog.Error("Failed to set repeater count", "item_id", itemID, "field", name, "error", err)
		return
	}

	for i, row := range rows {
		for subName, subValue := range row {
			subNode, ok := node.Sub[subName]
			if !ok {
				// Unmapped sub-keys in a source row are not an error.
				continue
			}
			s.applyField(itemID, fmt.Sprintf("%s_%d_%s", name, i, subName), subNode, subValue)
		}
	}
}

func repeaterRows(value any) []map[string]any {
	switch rows := value.(type) {
	case []map[string]any:
		return rows
	case []any:
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			if row, ok := r.(map[string]any); ok {
				out = append(out, row)
			}
		}
		return out
	case nil:
		return []map[string]any{}
	default:
		return nil
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case *float64:
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
