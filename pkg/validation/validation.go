package validation

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/text/language"

	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/visibility"
)

// ErrorMap holds one message per invalid field id. A missing key means the
// field is valid.
type ErrorMap map[string]string

// Valid reports whether the map holds no errors.
func (m ErrorMap) Valid() bool {
	return len(m) == 0
}

// IDs returns the invalid field ids sorted lexically.
func (m ErrorMap) IDs() []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for id, msg := range m {
		out[id] = msg
	}
	return out
}

// Option configures a Validator.
type Option func(*Validator)

// WithMessages overrides the generated message source.
func WithMessages(messages Messages) Option {
	return func(v *Validator) {
		if messages != nil {
			v.messages = messages
		}
	}
}

// WithLocale selects the built-in catalog locale for generated messages.
func WithLocale(tag language.Tag) Option {
	return func(v *Validator) {
		v.messages = NewCatalogMessages(tag)
	}
}

// WithLogger receives configuration warnings: malformed visibility
// expressions and patterns that fail to compile.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// Validator applies field and screen rules for one screen. It is safe for
// concurrent use once built.
type Validator struct {
	screen   schema.Screen
	resolver *visibility.Resolver
	patterns map[string]*regexp.Regexp
	messages Messages
	logger   *slog.Logger
}

// New compiles the patterns and visibility gates of screen.
func New(screen schema.Screen, options ...Option) *Validator {
	v := &Validator{
		screen:   screen,
		patterns: make(map[string]*regexp.Regexp),
		logger:   logging.Discard(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	if v.messages == nil {
		v.messages = NewCatalogMessages(language.English)
	}
	v.resolver = visibility.New(screen.Fields, visibility.WithLogger(v.logger))

	for _, field := range schema.Flatten(screen.Fields) {
		if field.Validation == nil || field.Validation.Pattern == "" {
			continue
		}
		if _, seen := v.patterns[field.Validation.Pattern]; seen {
			continue
		}
		v.patterns[field.Validation.Pattern] = v.compile(field.ID, field.Validation.Pattern)
	}
	return v
}

// Resolver exposes the visibility resolver the validator filters with.
func (v *Validator) Resolver() *visibility.Resolver {
	return v.resolver
}

// Screen returns the screen the validator was built for.
func (v *Validator) Screen() schema.Screen {
	return v.screen
}

// ValidateField runs the per-field rules against value and returns the first
// failing rule's message, or "" when the value is acceptable. Liveness is not
// checked; callers blur-validating a field should check it first.
func (v *Validator) ValidateField(field schema.Field, value any, a answers.Answers) string {
	switch field.Kind {
	case schema.KindGroup, schema.KindRow, schema.KindUnknown:
		return ""
	case schema.KindConsent:
		if accepted, ok := value.(bool); ok && accepted {
			return ""
		}
		return v.messages.Message(MsgConsent)
	case schema.KindShortText, schema.KindMultilineText, schema.KindNumeric,
		schema.KindSingleChoice, schema.KindMultiChoice, schema.KindCheckbox:
		return v.validateAnswer(field, value, a)
	default:
		return ""
	}
}

// ValidateScreen validates every live field and then applies the screen's
// aggregate rules. Hidden fields never contribute errors.
func (v *Validator) ValidateScreen(a answers.Answers) ErrorMap {
	errs := make(ErrorMap)
	live := v.resolver.Live(a)
	liveIDs := make(map[string]struct{}, len(live))
	for _, field := range live {
		liveIDs[field.ID] = struct{}{}
		value, _ := a.Lookup(field.ID)
		if msg := v.ValidateField(field, value, a); msg != "" {
			errs[field.ID] = msg
		}
	}
	for _, rule := range v.screen.Rules {
		v.applyAggregate(rule, liveIDs, a, errs)
	}
	return errs
}

// ValidateField is the stateless form of Validator.ValidateField using the
// default English messages.
func ValidateField(field schema.Field, value any, a answers.Answers) string {
	return New(schema.Screen{Fields: []schema.Field{field}}).ValidateField(field, value, a)
}

// ValidateScreen is the stateless form of Validator.ValidateScreen.
func ValidateScreen(screen schema.Screen, a answers.Answers) ErrorMap {
	return New(screen).ValidateScreen(a)
}

func (v *Validator) validateAnswer(field schema.Field, value any, a answers.Answers) string {
	if answers.IsUnanswered(value) {
		if field.Required {
			return v.messages.Message(MsgRequired)
		}
		return ""
	}

	rules := field.Validation
	if rules != nil {
		if msg := v.checkPattern(field.ID, rules, value); msg != "" {
			return msg
		}
		if msg := v.checkMatches(rules, value, a); msg != "" {
			return msg
		}
		if rules.HasBounds() {
			if msg := v.checkBounds(value, rules.Min, rules.Max, rules.Message); msg != "" {
				return msg
			}
		}
		if msg := v.checkRelative(rules, value, a); msg != "" {
			return msg
		}
	}

	// Bare bounds are the only numeric rule without a bundle. A numeric field
	// with neither accepts any text.
	if field.Kind == schema.KindNumeric && rules == nil && (field.Min != nil || field.Max != nil) {
		return v.checkBounds(value, field.Min, field.Max, "")
	}
	return ""
}

func (v *Validator) checkPattern(fieldID string, rules *schema.Validation, value any) string {
	if rules.Pattern == "" {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	re, known := v.patterns[rules.Pattern]
	if !known {
		re = v.compile(fieldID, rules.Pattern)
	}
	if re == nil || re.MatchString(text) {
		return ""
	}
	return v.configured(rules.Message, MsgPattern)
}

func (v *Validator) checkMatches(rules *schema.Validation, value any, a answers.Answers) string {
	if rules.MatchesField == "" {
		return ""
	}
	other, ok := a.Lookup(rules.MatchesField)
	if !ok {
		return ""
	}
	if answers.StrictEqual(value, other) {
		return ""
	}
	return v.configured(rules.Message, MsgMismatch)
}

func (v *Validator) checkBounds(value any, minimum, maximum *float64, configured string) string {
	n, ok := answers.Number(value)
	if !ok {
		return v.messages.Message(MsgInvalidNumber)
	}
	if minimum != nil && n < *minimum {
		return v.configured(configured, MsgMin, formatNumber(*minimum))
	}
	if maximum != nil && n > *maximum {
		return v.configured(configured, MsgMax, formatNumber(*maximum))
	}
	return ""
}

func (v *Validator) checkRelative(rules *schema.Validation, value any, a answers.Answers) string {
	if rules.GreaterThanField != "" {
		if other, ok := numericAnswer(a, rules.GreaterThanField); ok {
			own, ok := answers.Number(value)
			if !ok {
				return v.messages.Message(MsgInvalidNumber)
			}
			if own <= other {
				return v.configured(rules.Message, MsgGreaterThan, formatNumber(other))
			}
		}
	}
	if rules.LessThanField != "" {
		if other, ok := numericAnswer(a, rules.LessThanField); ok {
			own, ok := answers.Number(value)
			if !ok {
				return v.messages.Message(MsgInvalidNumber)
			}
			if own >= other {
				return v.configured(rules.Message, MsgLessThan, formatNumber(other))
			}
		}
	}
	return ""
}

func (v *Validator) applyAggregate(rule schema.AggregateRule, live map[string]struct{}, a answers.Answers, errs ErrorMap) {
	holding := make([]string, 0, len(rule.Fields))
	for _, id := range rule.Fields {
		if _, ok := live[id]; !ok {
			continue
		}
		value, _ := a.Lookup(id)
		if answers.Holds(value, rule.Value) {
			holding = append(holding, id)
		}
	}
	if len(holding) <= rule.Limit {
		return
	}
	// The shared message replaces any per-field error so every offending
	// field reads the same.
	msg := v.configured(rule.Message, MsgTooMany, rule.Limit)
	for _, id := range holding {
		errs[id] = msg
	}
}

func (v *Validator) configured(msg string, key MessageKey, args ...any) string {
	if msg != "" {
		return msg
	}
	return v.messages.Message(key, args...)
}

// compile anchors pattern so the whole value must match. Patterns RE2 cannot
// compile are skipped.
func (v *Validator) compile(fieldID, pattern string) *regexp.Regexp {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		v.logger.Warn("validation: pattern ignored",
			slog.String("field", fieldID),
			slog.String("pattern", pattern),
			slog.String("reason", err.Error()),
		)
		return nil
	}
	return re
}

func numericAnswer(a answers.Answers, id string) (float64, bool) {
	value, ok := a.Lookup(id)
	if !ok {
		return 0, false
	}
	return answers.Number(value)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
