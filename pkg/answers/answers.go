package answers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Answers maps flat field ids to the dynamically typed values collected by the
// host. Values are typically nil, string, []string, []any, bool or numbers
// (often encoded as strings by text inputs).
type Answers map[string]any

// Undefined is the string form an absent answer takes when compared against a
// literal, matching what browser hosts observe for missing keys.
const Undefined = "undefined"

// Lookup returns the value stored for id and whether the key is present.
func (a Answers) Lookup(id string) (any, bool) {
	if a == nil {
		return nil, false
	}
	value, ok := a[id]
	return value, ok
}

// Resolve looks id up as a flat key first and then, for dotted ids such as
// "demographics.dob", walks nested maps one segment at a time.
func (a Answers) Resolve(id string) (any, bool) {
	if value, ok := a.Lookup(id); ok {
		return value, true
	}
	if !strings.Contains(id, ".") || len(a) == 0 {
		return nil, false
	}

	var current any = map[string]any(a)
	for _, part := range strings.Split(id, ".") {
		var (
			next any
			ok   bool
		)
		switch typed := current.(type) {
		case map[string]any:
			next, ok = typed[part]
		case Answers:
			next, ok = typed[part]
		case map[string]string:
			next, ok = typed[part]
		}
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Resolved reports whether the value Resolve finds for id is answered. It is
// the dotted-id form of Answered.
func (a Answers) Resolved(id string) bool {
	value, ok := a.Resolve(id)
	return ok && !IsUnanswered(value)
}

// String returns the comparison form of the answer stored for id. Absent keys
// yield Undefined.
func (a Answers) String(id string) string {
	value, ok := a.Lookup(id)
	if !ok {
		return Undefined
	}
	return Stringify(value)
}

// Answered reports whether id holds a value other than nil, "" or an empty
// list.
func (a Answers) Answered(id string) bool {
	value, ok := a.Lookup(id)
	if !ok {
		return false
	}
	return !IsUnanswered(value)
}

// Clone returns a shallow copy with list values copied so callers can keep a
// stable snapshot while the host continues to mutate its map.
func (a Answers) Clone() Answers {
	if a == nil {
		return Answers{}
	}
	out := make(Answers, len(a))
	for key, value := range a {
		switch typed := value.(type) {
		case []string:
			out[key] = append([]string(nil), typed...)
		case []any:
			out[key] = append([]any(nil), typed...)
		default:
			out[key] = value
		}
	}
	return out
}

// IsUnanswered treats nil, the empty string and empty lists as unanswered.
// false and 0 are answers.
func IsUnanswered(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	default:
		return false
	}
}

// Stringify converts a value the same way a browser host coerces it to a
// string: lists join with commas, booleans become "true"/"false" and nil
// becomes "null".
func Stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return "null"
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return formatFloat(typed)
	case float32:
		return formatFloat(float64(typed))
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case uint:
		return strconv.FormatUint(uint64(typed), 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case json.Number:
		return typed.String()
	case []string:
		return strings.Join(typed, ",")
	case []any:
		parts := make([]string, len(typed))
		for i, item := range typed {
			if item == nil {
				continue
			}
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(value)
	}
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Number parses value as a finite number. Strings are trimmed first; the empty
// string, booleans, lists and non-finite results are rejected.
func Number(value any) (float64, bool) {
	var out float64
	switch typed := value.(type) {
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		out = parsed
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		out = parsed
	case float64:
		out = typed
	case float32:
		out = float64(typed)
	case int:
		out = float64(typed)
	case int64:
		out = float64(typed)
	case int32:
		out = float64(typed)
	case uint:
		out = float64(typed)
	case uint64:
		out = float64(typed)
	default:
		return 0, false
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, false
	}
	return out, true
}

// Contains reports whether value is a list holding literal verbatim. Scalars
// never contain anything, even when they equal literal.
func Contains(value any, literal string) bool {
	switch typed := value.(type) {
	case []string:
		for _, item := range typed {
			if item == literal {
				return true
			}
		}
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok && s == literal {
				return true
			}
		}
	}
	return false
}

// Holds reports whether value equals want, or is a list containing want.
func Holds(value any, want string) bool {
	switch value.(type) {
	case []string, []any:
		return Contains(value, want)
	case nil:
		return false
	default:
		return Stringify(value) == want
	}
}

// StrictEqual compares two answers without type coercion. Lists are equal when
// they hold the same elements in the same order.
func StrictEqual(a, b any) bool {
	switch left := a.(type) {
	case nil:
		return b == nil
	case string:
		right, ok := b.(string)
		return ok && left == right
	case bool:
		right, ok := b.(bool)
		return ok && left == right
	case []string:
		right, ok := b.([]string)
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if left[i] != right[i] {
				return false
			}
		}
		return true
	case []any:
		right, ok := b.([]any)
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if !StrictEqual(left[i], right[i]) {
				return false
			}
		}
		return true
	default:
		ln, lok := Number(a)
		rn, rok := Number(b)
		if lok && rok {
			if _, isString := b.(string); isString {
				return false
			}
			return ln == rn
		}
		return false
	}
}
