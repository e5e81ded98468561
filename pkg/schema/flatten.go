package schema

import (
	"errors"
	"fmt"
)

// ErrDuplicateID reports two fields sharing an id anywhere in one tree.
var ErrDuplicateID = errors.New("schema: duplicate field id")

// Walk visits fields depth-first in document order, descending into groups and
// layout rows alike. Returning false from visit skips the node's children.
func Walk(fields []Field, visit func(Field) bool) {
	for _, field := range fields {
		if !visit(field) {
			continue
		}
		if len(field.Children) > 0 {
			Walk(field.Children, visit)
		}
	}
}

// Flatten returns every field carrying an id, in document order. Layout rows
// are transparent: their children are included, the rows themselves are not.
// Groups are included ahead of their children.
func Flatten(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	Walk(fields, func(field Field) bool {
		if field.Kind != KindRow && field.ID != "" {
			out = append(out, field)
		}
		return true
	})
	return out
}

// Index maps field ids to their definitions for one screen.
type Index struct {
	order  []string
	fields map[string]Field
}

// NewIndex flattens fields and rejects duplicate ids.
func NewIndex(fields []Field) (*Index, error) {
	flat := Flatten(fields)
	idx := &Index{
		order:  make([]string, 0, len(flat)),
		fields: make(map[string]Field, len(flat)),
	}
	for _, field := range flat {
		if _, exists := idx.fields[field.ID]; exists {
			return nil, fmt.Errorf("%w %q", ErrDuplicateID, field.ID)
		}
		idx.fields[field.ID] = field
		idx.order = append(idx.order, field.ID)
	}
	return idx, nil
}

// Field returns the definition for id.
func (i *Index) Field(id string) (Field, bool) {
	if i == nil {
		return Field{}, false
	}
	field, ok := i.fields[id]
	return field, ok
}

// IDs returns ids in document order.
func (i *Index) IDs() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.order...)
}

// Len reports the number of indexed fields.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.order)
}
