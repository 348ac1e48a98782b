package schema

// Node is one entry of a field index: the field's key, its type, and a
// sub-index for nested fields of group and repeater types.
type Node struct {
	Key  string
	Type string
	Sub  Index
}

// Index maps destination field names to their definitions at one nesting
// level. It is built once per batch and is read-only afterwards.
type Index map[string]*Node

// BuildIndex walks a field group recursively into a name-keyed lookup tree.
func BuildIndex(group *Group) Index {
	return indexFields(group.Fields)
}

func indexFields(fields []Field) Index {
	idx := make(Index, len(fields))
	for _, f := range fields {
		node := &Node{
			Key:  f.Key,
			Type: f.Type,
		}
		if len(f.Fields) > 0 {
			node.Sub = indexFields(f.Fields)
		}
		idx[f.Name] = node
	}
	return idx
}
