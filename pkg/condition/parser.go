package condition

import (
	"errors"
	"fmt"
	"strings"
)

const (
	keywordAnd      = "AND"
	keywordOr       = "OR"
	keywordContains = "contains"
)

var (
	// ErrSyntax is matched by every error Parse returns.
	ErrSyntax = errors.New("condition: syntax error")
	// ErrMixedCombinators reports an expression joining clauses with both AND
	// and OR. The grammar has no precedence rules: every separator is read as
	// the first one, and Parse returns that list together with this error.
	ErrMixedCombinators = errors.New("condition: AND and OR mixed in one expression")
)

// SyntaxError describes where an expression stopped matching the grammar.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
	err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("condition: %s at offset %d in %q", e.Msg, e.Pos, e.Expr)
}

// Is lets errors.Is match ErrSyntax and, when applicable, ErrMixedCombinators.
func (e *SyntaxError) Is(target error) bool {
	if target == ErrSyntax {
		return true
	}
	return e.err != nil && target == e.err
}

// Parse turns an expression into a Condition.
//
//	expr       := clause ( " AND " clause )* | clause ( " OR " clause )*
//	clause     := IDENT ( "==" | "!=" | "contains" ) LITERAL
//	IDENT      := [A-Za-z0-9_.]+
//	LITERAL    := '"' [\w\s/.-]* '"' | "'" [\w\s/.-]* "'" | [\w\s/.-]+
//
// Unquoted literals run up to the next whitespace-delimited AND/OR keyword.
// Parentheses are syntax errors. An expression mixing AND and OR resolves to a
// single list of whichever separator appears first; the condition is returned
// with an error matching ErrMixedCombinators so callers can flag it.
func Parse(expr string) (Condition, error) {
	p := &parser{src: expr}
	p.skipSpace()
	if p.eof() {
		return nil, p.fail("empty expression", nil)
	}

	first, err := p.comparison()
	if err != nil {
		return nil, err
	}
	clauses := []Condition{first}
	separator := ""
	var mixed error

	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		keyword, err := p.keyword()
		if err != nil {
			return nil, err
		}
		switch {
		case separator == "":
			separator = keyword
		case keyword != separator && mixed == nil:
			mixed = p.fail("mixed AND/OR, read as "+separator+" list", ErrMixedCombinators)
		}
		clause, err := p.comparison()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}

	switch separator {
	case keywordAnd:
		return AllOf(clauses), mixed
	case keywordOr:
		return AnyOf(clauses), mixed
	default:
		return first, nil
	}
}

// ParseFailOpen parses expr and resolves malformed input to Always. Mixed
// AND/OR lists keep their resolved condition. The parse error is still
// returned so callers can report it.
func ParseFailOpen(expr string) (Condition, error) {
	cond, err := Parse(expr)
	if err != nil && (cond == nil || !errors.Is(err, ErrMixedCombinators)) {
		return Always{}, err
	}
	return cond, err
}

// MustParse panics when expr is malformed or mixes AND and OR. Intended for
// tests and literals.
func MustParse(expr string) Condition {
	cond, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return cond
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) fail(msg string, cause error) error {
	return &SyntaxError{Expr: p.src, Pos: p.pos, Msg: msg, err: cause}
}

func (p *parser) skipSpace() int {
	start := p.pos
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
	return p.pos - start
}

func (p *parser) comparison() (Condition, error) {
	p.skipSpace()
	ident := p.scan(isIdentChar)
	if ident == "" {
		if p.eof() {
			return nil, p.fail("missing field identifier", nil)
		}
		return nil, p.fail(fmt.Sprintf("unexpected %q, expected field identifier", p.peek()), nil)
	}

	p.skipSpace()
	op, err := p.operator()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	literal, err := p.literal()
	if err != nil {
		return nil, err
	}
	return Comparison{Field: ident, Op: op, Literal: literal}, nil
}

func (p *parser) operator() (Operator, error) {
	rest := p.src[p.pos:]
	switch {
	case strings.HasPrefix(rest, "=="):
		p.pos += 2
		return Equals, nil
	case strings.HasPrefix(rest, "!="):
		p.pos += 2
		return NotEquals, nil
	case strings.HasPrefix(rest, keywordContains):
		end := p.pos + len(keywordContains)
		if end < len(p.src) && isSpace(p.src[end]) {
			p.pos = end
			return Contains, nil
		}
	}
	if p.eof() {
		return 0, p.fail("missing operator", nil)
	}
	return 0, p.fail("expected ==, != or contains", nil)
}

func (p *parser) literal() (string, error) {
	if p.eof() {
		return "", p.fail("missing literal", nil)
	}

	if quote := p.peek(); quote == '"' || quote == '\'' {
		p.pos++
		body := p.scan(isLiteralChar)
		if p.peek() != quote {
			if p.eof() {
				return "", p.fail("unterminated string literal", nil)
			}
			return "", p.fail(fmt.Sprintf("unexpected %q in string literal", p.peek()), nil)
		}
		p.pos++
		return body, nil
	}

	start := p.pos
	run := p.scan(isLiteralChar)
	if cut := keywordBoundary(run); cut >= 0 {
		run = run[:cut]
		p.pos = start + cut
	}
	run = strings.TrimRight(run, " \t\n\r\f\v")
	if run == "" {
		return "", p.fail("missing literal", nil)
	}
	if keyword := trailingKeyword(run); keyword != "" {
		return "", p.fail("missing clause after "+keyword, nil)
	}
	return run, nil
}

// keyword consumes a whitespace-delimited AND/OR separator.
func (p *parser) keyword() (string, error) {
	start := p.pos
	if start == 0 || !isSpace(p.src[start-1]) {
		return "", p.fail(fmt.Sprintf("unexpected %q after clause", p.peek()), nil)
	}
	word := p.scan(isIdentChar)
	if word != keywordAnd && word != keywordOr {
		p.pos = start
		return "", p.fail(fmt.Sprintf("unexpected %q after clause", p.peek()), nil)
	}
	if p.eof() || !isSpace(p.peek()) {
		return "", p.fail("missing clause after "+word, nil)
	}
	return word, nil
}

func (p *parser) scan(accept func(byte) bool) string {
	start := p.pos
	for !p.eof() && accept(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// keywordBoundary returns the offset of the first " AND " or " OR " inside an
// unquoted literal run, or -1.
func keywordBoundary(run string) int {
	best := -1
	for _, keyword := range []string{keywordAnd, keywordOr} {
		from := 0
		for from < len(run) {
			idx := strings.Index(run[from:], keyword)
			if idx < 0 {
				break
			}
			idx += from
			end := idx + len(keyword)
			if idx > 0 && isSpace(run[idx-1]) && end < len(run) && isSpace(run[end]) {
				if best < 0 || idx-1 < best {
					best = idx - 1
				}
				break
			}
			from = idx + 1
		}
	}
	return best
}

// trailingKeyword returns AND or OR when run ends with that word after
// whitespace, as in the dangling `x AND`.
func trailingKeyword(run string) string {
	for _, keyword := range []string{keywordAnd, keywordOr} {
		if !strings.HasSuffix(run, keyword) {
			continue
		}
		if idx := len(run) - len(keyword); idx > 0 && isSpace(run[idx-1]) {
			return keyword
		}
	}
	return ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '.' || isAlnum(c)
}

func isLiteralChar(c byte) bool {
	return c == '_' || c == '/' || c == '.' || c == '-' || isAlnum(c) || isSpace(c)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
