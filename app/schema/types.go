package schema

// Group is one field-group definition loaded from a YAML schema file. It is
// the externally-managed description of the destination field layout.
type Group struct {
	Group  GroupInfo `yaml:"group"`
	Fields []Field   `yaml:"fields"`
}

type GroupInfo struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// Field describes one destination field. Group and repeater fields carry
// nested sub-fields.
type Field struct {
	Name   string  `yaml:"name"`
	Key    string  `yaml:"key"`
	Type   string  `yaml:"type"`
	Fields []Field `yaml:"fields"`
}

// Field types understood by the field sync.
const (
	TypeText      = "text"
	TypeTextarea  = "textarea"
	TypeNumber    = "number"
	TypeEmail     = "email"
	TypeURL       = "url"
	TypeTrueFalse = "true_false"
	TypeDate      = "date"
	TypeGroup     = "group"
	TypeRepeater  = "repeater"
)

var validTypes = map[string]bool{
	TypeText:      true,
	TypeTextarea:  true,
	TypeNumber:    true,
	TypeEmail:     true,
	TypeURL:       true,
	TypeTrueFalse: true,
	TypeDate:      true,
	TypeGroup:     true,
	TypeRepeater:  true,
}
