package jsonb

import (
	"fmt"

	"github.com/rebeliceyang/assetq/internal/models"
)

// Path is a key inside a custom field value document
type Path struct {
	Key string
}

// Key builds a path
func Key(key string) Path {
	return Path{Key: key}
}

// Text returns the SQL expression extracting the key as text from column
func (p Path) Text(column string) string {
	return fmt.Sprintf("%s->>'%s'", column, p.Key)
}

const (
	RawKey            = "raw"
	ValueTextKey      = "valueText"
	ValueMultiLineKey = "valueMultiLineText"
	ValueOptionKey    = "valueOption"
	ValueDateKey      = "valueDate"
	ValueBooleanKey   = "valueBoolean"
)

// SearchPaths are the value keys free-text search looks into
var SearchPaths = []Path{
	Key(ValueTextKey),
	Key(ValueMultiLineKey),
	Key(ValueOptionKey),
	Key(ValueDateKey),
	Key(ValueBooleanKey),
	Key(RawKey),
}

// ValuePath returns where a custom field of the given type keeps its typed value.
// Types without a dedicated key are read from the raw value.
func ValuePath(t models.CustomFieldType) Path {
	switch t {
	case models.CustomFieldDate:
		return Key(ValueDateKey)
	case models.CustomFieldBoolean:
		return Key(ValueBooleanKey)
	case models.CustomFieldMultilineText:
		return Key(ValueMultiLineKey)
	case models.CustomFieldOption:
		return Key(ValueOptionKey)
	default:
		return Key(RawKey)
	}
}
