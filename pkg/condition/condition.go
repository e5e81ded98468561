package condition

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/answers"
)

// Operator identifies the comparison performed by a Comparison.
type Operator int

const (
	// Equals compares the answer's string form with the literal.
	Equals Operator = iota
	// NotEquals is the exact complement of Equals.
	NotEquals
	// Contains tests membership of the literal in a list answer.
	Contains
)

func (op Operator) String() string {
	switch op {
	case Equals:
		return "=="
	case NotEquals:
		return "!="
	case Contains:
		return "contains"
	default:
		return "op(" + strconv.Itoa(int(op)) + ")"
	}
}

// Condition is a parsed predicate over an answer map. The set of
// implementations is closed: Comparison, AllOf, AnyOf and Always.
type Condition interface {
	// Eval reports whether the condition holds for the supplied answers.
	Eval(a answers.Answers) bool
	// String re-serializes the condition into the expression grammar.
	String() string

	condition()
}

// Comparison is a single `field OP literal` clause.
type Comparison struct {
	Field   string
	Op      Operator
	Literal string
}

// AllOf holds when every clause holds. Clauses are never combinators
// themselves; the grammar is flat.
type AllOf []Condition

// AnyOf holds when at least one clause holds.
type AnyOf []Condition

// Always is the condition malformed expressions resolve to when callers opt
// into fail-open behaviour.
type Always struct{}

func (Comparison) condition() {}
func (AllOf) condition()      {}
func (AnyOf) condition()      {}
func (Always) condition()     {}

// Eval implements Condition.
func (c Comparison) Eval(a answers.Answers) bool {
	switch c.Op {
	case Equals:
		return stringValue(a, c.Field) == c.Literal
	case NotEquals:
		return stringValue(a, c.Field) != c.Literal
	case Contains:
		value, ok := lookup(a, c.Field)
		return ok && answers.Contains(value, c.Literal)
	default:
		return false
	}
}

// Eval implements Condition.
func (c AllOf) Eval(a answers.Answers) bool {
	for _, clause := range c {
		if !Evaluate(clause, a) {
			return false
		}
	}
	return true
}

// Eval implements Condition.
func (c AnyOf) Eval(a answers.Answers) bool {
	for _, clause := range c {
		if Evaluate(clause, a) {
			return true
		}
	}
	return false
}

// Eval implements Condition.
func (Always) Eval(answers.Answers) bool { return true }

func (c Comparison) String() string {
	return c.Field + " " + c.Op.String() + " \"" + c.Literal + "\""
}

func (c AllOf) String() string { return join(c, keywordAnd) }

func (c AnyOf) String() string { return join(c, keywordOr) }

func (Always) String() string { return "" }

func join(clauses []Condition, keyword string) string {
	parts := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		if clause == nil {
			continue
		}
		parts = append(parts, clause.String())
	}
	return strings.Join(parts, " "+keyword+" ")
}

// Evaluate reports whether cond holds for a. A nil condition holds.
func Evaluate(cond Condition, a answers.Answers) bool {
	if cond == nil {
		return true
	}
	return cond.Eval(a)
}

func stringValue(a answers.Answers, field string) string {
	value, ok := lookup(a, field)
	if !ok {
		return answers.Undefined
	}
	return answers.Stringify(value)
}

func lookup(a answers.Answers, field string) (any, bool) {
	return a.Resolve(field)
}
