package formwizard

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/session"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/visibility"
)

// Screen aliases schema.Screen for callers that only use the root package.
type Screen = schema.Screen

// Answers aliases answers.Answers.
type Answers = answers.Answers

// ErrorMap aliases validation.ErrorMap.
type ErrorMap = validation.ErrorMap

// ErrUnknownScreen is returned when a screen id is not in the store.
var ErrUnknownScreen = errors.New("formwizard: unknown screen")

// LoadScreens loads a single screen document, or every document under a
// directory.
func LoadScreens(path string) (*schema.Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("formwizard: %w", err)
	}
	if info.IsDir() {
		return schema.LoadFS(os.DirFS(path))
	}
	return schema.LoadFile(path)
}

// LoadAnswers reads a JSON object of answers keyed by field id.
func LoadAnswers(path string) (Answers, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formwizard: read answers: %w", err)
	}
	out := Answers{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("formwizard: decode answers %s: %w", path, err)
	}
	return out, nil
}

// LookupScreen resolves id in store.
func LookupScreen(store *schema.Store, id string) (Screen, error) {
	screen, ok := store.Screen(id)
	if !ok {
		return Screen{}, fmt.Errorf("%w: %q", ErrUnknownScreen, id)
	}
	return screen, nil
}

// NewSession opens a session for screen id over the host's answer map.
func NewSession(store *schema.Store, id string, a Answers, options ...session.Option) (*session.Session, error) {
	screen, err := LookupScreen(store, id)
	if err != nil {
		return nil, err
	}
	return session.New(screen, a, options...)
}

// Result is the outcome of a one-shot Check.
type Result struct {
	Screen  string   `json:"screen"`
	Visible []string `json:"visible"`
	Errors  ErrorMap `json:"errors"`
}

// Valid reports whether the screen may be submitted.
func (r Result) Valid() bool {
	return r.Errors.Valid()
}

// Check computes the live field ids and the submit-time errors of screen for
// a without keeping any state.
func Check(screen Screen, a Answers, options ...validation.Option) Result {
	validator := validation.New(screen, options...)
	visible := visibility.Set{}
	for _, field := range validator.Resolver().Live(a) {
		visible[field.ID] = struct{}{}
	}
	return Result{
		Screen:  screen.ID,
		Visible: visible.IDs(),
		Errors:  validator.ValidateScreen(a),
	}
}
