package visibility

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/condition"
	"github.com/goliatone/go-formwizard/pkg/schema"
)

// Set holds the ids of live fields.
type Set map[string]struct{}

// Has reports whether id is live.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the live ids sorted lexically.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger routes configuration warnings (malformed expressions) to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver decides liveness for the fields of one screen. Gates are compiled
// once at construction; every query afterwards is a pure function of the
// answers passed in.
type Resolver struct {
	fields []schema.Field
	flat   []schema.Field
	gates  map[string]compiledGate
	logger *slog.Logger
}

type compiledGate struct {
	kind      gateKind
	dependsOn string
	cond      condition.Condition
}

type gateKind int

const (
	gateNone gateKind = iota
	gateProgressive
	gateConditional
)

// New compiles the gates of fields. Malformed expressions fail open: the
// affected gate behaves as if its expression held, and a warning is logged.
func New(fields []schema.Field, options ...Option) *Resolver {
	r := &Resolver{
		fields: fields,
		logger: logging.Discard(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}

	r.flat = schema.Flatten(fields)
	r.gates = make(map[string]compiledGate, len(r.flat))
	for _, field := range r.flat {
		r.gates[field.ID] = compile(field, r.logger)
	}
	return r
}

// Fields returns the schema tree the resolver was built for.
func (r *Resolver) Fields() []schema.Field {
	return r.fields
}

// IsVisible reports whether field is live for a. Fields unknown to the
// resolver are compiled on the fly.
func (r *Resolver) IsVisible(field schema.Field, a answers.Answers) bool {
	gate, ok := r.gates[field.ID]
	if !ok || field.ID == "" {
		gate = compile(field, r.logger)
	}
	return gate.holds(a)
}

// VisibleFields returns the ids of every live field, groups included. Each
// field is judged by its own gate only; a hidden group does not hide its
// children.
func (r *Resolver) VisibleFields(a answers.Answers) Set {
	out := make(Set, len(r.flat))
	for _, field := range r.flat {
		if r.gates[field.ID].holds(a) {
			out[field.ID] = struct{}{}
		}
	}
	return out
}

// Live returns the live answerable fields (groups and rows excluded) in
// document order.
func (r *Resolver) Live(a answers.Answers) []schema.Field {
	out := make([]schema.Field, 0, len(r.flat))
	for _, field := range r.flat {
		if field.IsGroup() {
			continue
		}
		if r.gates[field.ID].holds(a) {
			out = append(out, field)
		}
	}
	return out
}

// Prune returns a copy of a restricted to live answerable fields of this
// screen. Keys that belong to other screens are dropped too.
func (r *Resolver) Prune(a answers.Answers) answers.Answers {
	out := make(answers.Answers)
	for _, field := range r.Live(a) {
		if value, ok := a.Lookup(field.ID); ok {
			out[field.ID] = value
		}
	}
	return out
}

// IsVisible is the stateless form of Resolver.IsVisible.
func IsVisible(field schema.Field, a answers.Answers) bool {
	return compile(field, nil).holds(a)
}

// VisibleFields is the stateless form of Resolver.VisibleFields.
func VisibleFields(fields []schema.Field, a answers.Answers) Set {
	return New(fields).VisibleFields(a)
}

// Prune is the stateless form of Resolver.Prune.
func Prune(fields []schema.Field, a answers.Answers) answers.Answers {
	return New(fields).Prune(a)
}

func (g compiledGate) holds(a answers.Answers) bool {
	switch g.kind {
	case gateProgressive:
		if !a.Resolved(g.dependsOn) {
			return false
		}
		return condition.Evaluate(g.cond, a)
	case gateConditional:
		return condition.Evaluate(g.cond, a)
	default:
		return true
	}
}

func compile(field schema.Field, logger *slog.Logger) compiledGate {
	switch gate := field.Gate.(type) {
	case schema.Progressive:
		if gate.DependsOn == "" {
			warn(logger, field.ID, "", "progressive gate without depends_on")
			return compiledGate{kind: gateNone}
		}
		compiled := compiledGate{kind: gateProgressive, dependsOn: gate.DependsOn}
		if gate.ExtraCondition != "" {
			compiled.cond = parse(field.ID, gate.ExtraCondition, logger)
		}
		return compiled
	case *schema.Progressive:
		if gate == nil {
			return compiledGate{kind: gateNone}
		}
		return compile(schema.Field{ID: field.ID, Gate: *gate}, logger)
	case schema.Conditional:
		return compiledGate{kind: gateConditional, cond: parse(field.ID, gate.Expression, logger)}
	case *schema.Conditional:
		if gate == nil {
			return compiledGate{kind: gateNone}
		}
		return compiledGate{kind: gateConditional, cond: parse(field.ID, gate.Expression, logger)}
	default:
		return compiledGate{kind: gateNone}
	}
}

func parse(fieldID, expression string, logger *slog.Logger) condition.Condition {
	cond, err := condition.ParseFailOpen(expression)
	switch {
	case err == nil:
	case errors.Is(err, condition.ErrMixedCombinators):
		if logger != nil {
			logger.Warn("visibility: expression mixes AND and OR",
				slog.String("field", fieldID),
				slog.String("expression", expression),
				slog.String("resolved", cond.String()),
			)
		}
	default:
		warn(logger, fieldID, expression, err.Error())
	}
	return cond
}

func warn(logger *slog.Logger, fieldID, expression, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("visibility: gate fails open",
		slog.String("field", fieldID),
		slog.String("expression", expression),
		slog.String("reason", reason),
	)
}
