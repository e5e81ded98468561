package schema

import (
	"fmt"
	"strings"
)

// Kind enumerates the input variants a Field can take. The set is closed;
// switches over Kind in this module list every variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindShortText
	KindMultilineText
	KindNumeric
	KindSingleChoice
	KindMultiChoice
	KindCheckbox
	KindConsent
	KindGroup
	// KindRow is a presentational side-by-side layout. Rows carry no id and
	// have no effect on visibility or validation.
	KindRow
)

var kindNames = map[Kind]string{
	KindShortText:     "text",
	KindMultilineText: "textarea",
	KindNumeric:       "number",
	KindSingleChoice:  "select",
	KindMultiChoice:   "multiselect",
	KindCheckbox:      "checkbox",
	KindConsent:       "consent",
	KindGroup:         "group",
	KindRow:           "row",
}

var kindAliases = map[string]Kind{
	"text":           KindShortText,
	"short_text":     KindShortText,
	"email":          KindShortText,
	"tel":            KindShortText,
	"phone":          KindShortText,
	"date":           KindShortText,
	"password":       KindShortText,
	"textarea":       KindMultilineText,
	"multiline":      KindMultilineText,
	"number":         KindNumeric,
	"numeric":        KindNumeric,
	"select":         KindSingleChoice,
	"radio":          KindSingleChoice,
	"single_choice":  KindSingleChoice,
	"multiselect":    KindMultiChoice,
	"multi_choice":   KindMultiChoice,
	"checkbox_group": KindMultiChoice,
	"checkbox":       KindCheckbox,
	"consent":        KindConsent,
	"group":          KindGroup,
	"row":            KindRow,
}

// ParseKind resolves a document type name, accepting the common aliases used
// by screen authors ("radio", "email", "checkbox_group", ...).
func ParseKind(name string) (Kind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return KindUnknown, fmt.Errorf("schema: unknown field type %q", name)
	}
	return kind, nil
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the canonical type name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts any name ParseKind accepts.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Container reports whether the kind holds children instead of an answer.
func (k Kind) Container() bool {
	return k == KindGroup || k == KindRow
}

// Textual reports whether answers of this kind are typed free text.
func (k Kind) Textual() bool {
	switch k {
	case KindShortText, KindMultilineText, KindNumeric:
		return true
	default:
		return false
	}
}
