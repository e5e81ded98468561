package schema

// Field describes one input, or a group of inputs, on a wizard screen. Fields
// loaded for a screen are treated as immutable for the screen's lifetime.
type Field struct {
	ID          string      `json:"id,omitempty"`
	Kind        Kind        `json:"type"`
	Label       string      `json:"label,omitempty"`
	Help        string      `json:"help,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Validation  *Validation `json:"validation,omitempty"`
	// Min and Max are bare numeric bounds, only consulted for numeric fields
	// that carry no Validation bundle.
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Options []Option `json:"options,omitempty"`
	// Gate is nil for fields that are always live.
	Gate     Gate    `json:"-"`
	Children []Field `json:"children,omitempty"`
}

// Option is a choice offered by single/multi-choice fields.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Validation bundles the structured rules applied to a field's answer. Message
// is surfaced whenever a configured rule fails.
type Validation struct {
	Pattern          string   `json:"pattern,omitempty"`
	Message          string   `json:"message,omitempty"`
	MatchesField     string   `json:"matches_field,omitempty"`
	Min              *float64 `json:"min,omitempty"`
	Max              *float64 `json:"max,omitempty"`
	GreaterThanField string   `json:"greater_than_field,omitempty"`
	LessThanField    string   `json:"less_than_field,omitempty"`
}

// HasBounds reports whether the bundle declares min or max.
func (v *Validation) HasBounds() bool {
	return v != nil && (v.Min != nil || v.Max != nil)
}

// Gate decides when a field is live. Implementations are Progressive and
// Conditional.
type Gate interface {
	gate()
}

// Progressive ties a field to a prior field being answered, optionally
// narrowed by an extra expression.
type Progressive struct {
	DependsOn      string `json:"depends_on"`
	ExtraCondition string `json:"extra_condition,omitempty"`
}

// Conditional shows a field while Expression evaluates true.
type Conditional struct {
	Expression string `json:"expression"`
}

func (Progressive) gate() {}
func (Conditional) gate() {}

// AggregateRule caps how many of Fields may hold Value at once. When more
// than Limit do, every field holding Value receives Message.
type AggregateRule struct {
	Fields  []string `json:"fields"`
	Value   string   `json:"value"`
	Limit   int      `json:"limit"`
	Message string   `json:"message,omitempty"`
}

// Screen is one step of the wizard.
type Screen struct {
	ID     string          `json:"id"`
	Title  string          `json:"title,omitempty"`
	Fields []Field         `json:"fields"`
	Rules  []AggregateRule `json:"rules,omitempty"`
}

// IsGroup reports whether the field holds children rather than an answer.
func (f Field) IsGroup() bool {
	return f.Kind.Container()
}

// Float is a small helper for building bounds in code.
func Float(v float64) *float64 {
	return &v
}
