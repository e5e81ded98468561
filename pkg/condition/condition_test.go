package condition

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/answers"
)

func TestParse_Shapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		expr string
		want Condition
	}{
		{
			name: "quoted equals",
			expr: `state == "CA"`,
			want: Comparison{Field: "state", Op: Equals, Literal: "CA"},
		},
		{
			name: "single quoted not equals",
			expr: `state != 'CA'`,
			want: Comparison{Field: "state", Op: NotEquals, Literal: "CA"},
		},
		{
			name: "unquoted literal with spaces",
			expr: `city == New York`,
			want: Comparison{Field: "city", Op: Equals, Literal: "New York"},
		},
		{
			name: "dotted identifier",
			expr: `demographics.dob != 01/02/1990`,
			want: Comparison{Field: "demographics.dob", Op: NotEquals, Literal: "01/02/1990"},
		},
		{
			name: "contains",
			expr: `symptoms contains "nausea"`,
			want: Comparison{Field: "symptoms", Op: Contains, Literal: "nausea"},
		},
		{
			name: "no spaces around operator",
			expr: `sex=="female"`,
			want: Comparison{Field: "sex", Op: Equals, Literal: "female"},
		},
		{
			name: "and list",
			expr: `a == "1" AND b != 2 AND c contains x-y`,
			want: AllOf{
				Comparison{Field: "a", Op: Equals, Literal: "1"},
				Comparison{Field: "b", Op: NotEquals, Literal: "2"},
				Comparison{Field: "c", Op: Contains, Literal: "x-y"},
			},
		},
		{
			name: "or list with unquoted literals",
			expr: `plan == basic OR plan == premium care`,
			want: AnyOf{
				Comparison{Field: "plan", Op: Equals, Literal: "basic"},
				Comparison{Field: "plan", Op: Equals, Literal: "premium care"},
			},
		},
		{
			name: "keyword inside word is literal text",
			expr: `state == ORegon`,
			want: Comparison{Field: "state", Op: Equals, Literal: "ORegon"},
		},
		{
			name: "lowercase and is literal text",
			expr: `reason == pain and swelling`,
			want: Comparison{Field: "reason", Op: Equals, Literal: "pain and swelling"},
		},
		{
			name: "empty quoted literal",
			expr: `notes == ""`,
			want: Comparison{Field: "notes", Op: Equals, Literal: ""},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tc.expr)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.expr, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tc.expr, diff)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"   ",
		"state",
		"state ==",
		`state = "CA"`,
		`(state == "CA")`,
		`state == "CA`,
		`state == "C"A"`,
		`state == "CA" AND`,
		`state == "CA" XOR b == c`,
		`state == "CA"AND b == c`,
		`name == O'Brien`,
		`a == x AND`,
		`a == x y OR`,
		`a == "x" OR`,
	}

	for _, expr := range cases {
		expr := expr
		t.Run(expr, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse(expr); !errors.Is(err, ErrSyntax) {
				t.Fatalf("Parse(%q) error = %v, want ErrSyntax", expr, err)
			}
		})
	}
}

func TestParse_MixedCombinatorsResolveToFirstSeparator(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		expr string
		want Condition
	}{
		{
			name: "and first",
			expr: `a == "x" AND b == "y" OR c == "z"`,
			want: AllOf{
				Comparison{Field: "a", Op: Equals, Literal: "x"},
				Comparison{Field: "b", Op: Equals, Literal: "y"},
				Comparison{Field: "c", Op: Equals, Literal: "z"},
			},
		},
		{
			name: "or first",
			expr: `a == 1 OR b == 2 AND c == 3`,
			want: AnyOf{
				Comparison{Field: "a", Op: Equals, Literal: "1"},
				Comparison{Field: "b", Op: Equals, Literal: "2"},
				Comparison{Field: "c", Op: Equals, Literal: "3"},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tc.expr)
			if !errors.Is(err, ErrMixedCombinators) {
				t.Fatalf("expected ErrMixedCombinators, got %v", err)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tc.expr, diff)
			}
		})
	}
}

func TestParseFailOpen_MixedCombinatorsKeepCondition(t *testing.T) {
	t.Parallel()

	cond, err := ParseFailOpen(`a == "x" AND b == "y" OR c == "z"`)
	if !errors.Is(err, ErrMixedCombinators) {
		t.Fatalf("expected mixed separators to be reported, got %v", err)
	}
	if _, ok := cond.(Always); ok {
		t.Fatalf("mixed separators must not fail open")
	}

	checks := []struct {
		answers answers.Answers
		want    bool
	}{
		{answers: answers.Answers{}, want: false},
		{answers: answers.Answers{"c": "z"}, want: false},
		{answers: answers.Answers{"a": "x", "b": "y"}, want: false},
		{answers: answers.Answers{"a": "x", "b": "y", "c": "z"}, want: true},
	}
	for _, check := range checks {
		if got := Evaluate(cond, check.answers); got != check.want {
			t.Errorf("Evaluate(%v) = %v, want %v", check.answers, got, check.want)
		}
	}
}

func TestParseFailOpen(t *testing.T) {
	t.Parallel()

	cond, err := ParseFailOpen(`state === "CA"`)
	if err == nil {
		t.Fatalf("expected parse error to be reported")
	}
	if _, ok := cond.(Always); !ok {
		t.Fatalf("expected Always, got %T", cond)
	}
	if !Evaluate(cond, answers.Answers{}) {
		t.Fatalf("fail-open condition must hold")
	}
}

func TestEvaluate_Equality(t *testing.T) {
	t.Parallel()

	eq := MustParse(`state == "CA"`)
	neq := MustParse(`state != "CA"`)

	cases := []struct {
		name    string
		answers answers.Answers
		want    bool
	}{
		{name: "match", answers: answers.Answers{"state": "CA"}, want: true},
		{name: "other", answers: answers.Answers{"state": "NY"}, want: false},
		{name: "absent", answers: answers.Answers{}, want: false},
		{name: "list stringifies", answers: answers.Answers{"state": []string{"CA"}}, want: true},
		{name: "list of two", answers: answers.Answers{"state": []string{"CA", "NY"}}, want: false},
	}

	for _, tc := range cases {
		if got := Evaluate(eq, tc.answers); got != tc.want {
			t.Errorf("%s: equals = %v, want %v", tc.name, got, tc.want)
		}
		if got := Evaluate(neq, tc.answers); got == tc.want {
			t.Errorf("%s: not equals must complement equals", tc.name)
		}
	}
}

func TestEvaluate_UndefinedAndScalars(t *testing.T) {
	t.Parallel()

	if !Evaluate(MustParse(`missing == undefined`), answers.Answers{}) {
		t.Fatalf("absent answers compare as the string undefined")
	}
	if !Evaluate(MustParse(`agree == true`), answers.Answers{"agree": true}) {
		t.Fatalf("booleans compare by string form")
	}
	if !Evaluate(MustParse(`age == 42`), answers.Answers{"age": 42.0}) {
		t.Fatalf("numbers compare by string form")
	}
}

func TestEvaluate_Contains(t *testing.T) {
	t.Parallel()

	cond := MustParse(`symptoms contains "nausea"`)

	if !Evaluate(cond, answers.Answers{"symptoms": []string{"headache", "nausea"}}) {
		t.Fatalf("expected []string membership")
	}
	if !Evaluate(cond, answers.Answers{"symptoms": []any{"nausea"}}) {
		t.Fatalf("expected []any membership")
	}
	if Evaluate(cond, answers.Answers{"symptoms": "nausea"}) {
		t.Fatalf("scalar answers never contain")
	}
	if Evaluate(cond, answers.Answers{"symptoms": []string{"Nausea"}}) {
		t.Fatalf("membership is verbatim")
	}
	if Evaluate(cond, answers.Answers{}) {
		t.Fatalf("absent answers never contain")
	}
}

func TestEvaluate_Combinators(t *testing.T) {
	t.Parallel()

	all := MustParse(`a == "1" AND b == "2"`)
	anyOf := MustParse(`a == "1" OR b == "2"`)

	both := answers.Answers{"a": "1", "b": "2"}
	one := answers.Answers{"a": "1", "b": "3"}
	none := answers.Answers{"a": "0"}

	if !Evaluate(all, both) || Evaluate(all, one) || Evaluate(all, none) {
		t.Fatalf("AllOf semantics broken")
	}
	if !Evaluate(anyOf, both) || !Evaluate(anyOf, one) || Evaluate(anyOf, none) {
		t.Fatalf("AnyOf semantics broken")
	}
	if !Evaluate(AllOf{}, none) {
		t.Fatalf("empty AllOf holds")
	}
	if Evaluate(AnyOf{}, none) {
		t.Fatalf("empty AnyOf does not hold")
	}
}

func TestEvaluate_NestedLookup(t *testing.T) {
	t.Parallel()

	cond := MustParse(`demographics.sex == female`)
	if !Evaluate(cond, answers.Answers{"demographics.sex": "female"}) {
		t.Fatalf("expected flat dotted key")
	}
	if !Evaluate(cond, answers.Answers{"demographics": map[string]any{"sex": "female"}}) {
		t.Fatalf("expected nested map fallback")
	}
}

func TestString_RoundTrip(t *testing.T) {
	t.Parallel()

	samples := []answers.Answers{
		{},
		{"a": "b"},
		{"a": "b", "c": "d"},
		{"a": "x", "c": "d"},
		{"tags": []string{"one"}},
	}

	for _, expr := range []string{
		`a == "b"`,
		`a == b AND c == d`,
		`a == b OR c != d`,
		`tags contains one OR a != 'b'`,
		`city == New York`,
	} {
		first := MustParse(expr)
		second, err := Parse(first.String())
		if err != nil {
			t.Fatalf("re-parse %q (from %q): %v", first.String(), expr, err)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("round trip of %q changed structure (-first +second):\n%s", expr, diff)
		}
		for _, sample := range samples {
			if Evaluate(first, sample) != Evaluate(second, sample) {
				t.Fatalf("round trip of %q changed evaluation for %v", expr, sample)
			}
		}
	}
}
