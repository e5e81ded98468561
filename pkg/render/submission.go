package render

import (
	"fmt"
	"sort"
	"strings"
)

// HiddenField is an input posted with a confirmation form but never shown.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Hidden builds a HiddenField, stringifying value with fmt.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken carries an anti-forgery token under the name the host expects
// ("_csrf", "csrf_token").
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// ScreenField records which wizard screen a confirmation belongs to.
func ScreenField(screenID string) HiddenField {
	return Hidden("_screen", screenID)
}

// MergeHiddenFields copies base and applies fields on top. Blank names are
// dropped; later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			out[name] = field.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields returns fields ordered by name for stable output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	merged := MergeHiddenFields(fields)
	if len(merged) == 0 {
		return nil
	}
	out := make([]HiddenField, 0, len(merged))
	for name, value := range merged {
		out = append(out, HiddenField{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
