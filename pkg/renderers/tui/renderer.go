package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/session"
	"github.com/goliatone/go-formwizard/pkg/visibility"
)

// Name is the registry name of the terminal renderer.
const Name = "tui"

// Renderer walks a screen in the terminal. Fields are asked in document order
// as they become live; a field is re-asked until its blur validation passes
// and the whole screen is re-validated before the run ends.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	logger       *slog.Logger
	sessionOpts  []session.Option
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		theme:        DefaultTheme(),
		logger:       logging.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	if _, ok := ParseOutputFormat(string(r.outputFormat)); !ok {
		return nil, fmt.Errorf("tui: unsupported output format %q", r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render runs the wizard for screen seeded with opts.Answers and serializes
// the live answers once the screen validates. opts.Answers is not modified.
func (r *Renderer) Render(ctx context.Context, screen schema.Screen, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	for _, msg := range render.MergeFormErrors(nil, opts.FormErrors...) {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
			return nil, err
		}
	}

	collected, err := r.Run(ctx, screen, opts.Answers.Clone(), opts.Errors)
	if err != nil {
		return nil, err
	}
	return r.serialize(collected)
}

// Run asks the live fields of screen, writing answers through to a, and
// returns the live subset once the screen validates. Seeded errors are shown
// next to their fields on the first pass.
func (r *Renderer) Run(ctx context.Context, screen schema.Screen, a answers.Answers, seeded map[string]string) (answers.Answers, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a == nil {
		a = answers.Answers{}
	}
	s, err := session.New(screen, a, append([]session.Option{session.WithLogger(r.logger)}, r.sessionOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	defer s.Close()

	pending := make(map[string]string, len(seeded))
	for id, msg := range seeded {
		if msg != "" {
			pending[id] = msg
		}
	}
	asked := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		field, ok := nextField(s.Live(), asked)
		if !ok {
			errs, valid := s.Submit()
			if valid {
				break
			}
			r.logger.Debug("tui: screen invalid", slog.String("screen", screen.ID), slog.Int("errors", len(errs)))
			for _, id := range errs.IDs() {
				delete(asked, id)
				pending[id] = errs[id]
			}
			continue
		}

		if msg := pending[field.ID]; msg != "" {
			delete(pending, field.ID)
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
				return nil, err
			}
		}

		value, err := r.ask(ctx, s, field)
		if err != nil {
			return nil, err
		}
		if err := s.Set(field.ID, value); err != nil {
			return nil, err
		}
		if msg := s.Blur(field.ID); msg != "" {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
				return nil, err
			}
			continue
		}
		asked[field.ID] = true
	}

	return visibility.Prune(screen.Fields, s.Answers()), nil
}

func nextField(live []schema.Field, asked map[string]bool) (schema.Field, bool) {
	for _, field := range live {
		if !asked[field.ID] {
			return field, true
		}
	}
	return schema.Field{}, false
}

func (r *Renderer) ask(ctx context.Context, s *session.Session, field schema.Field) (any, error) {
	current, _ := s.Answers().Lookup(field.ID)
	prompt := Prompt{
		Message: r.theme.PromptPrefix + displayLabel(field),
		Help:    field.Help,
		Default: defaultString(current),
	}

	switch field.Kind {
	case schema.KindMultilineText:
		return r.driver.TextArea(ctx, prompt)
	case schema.KindNumeric:
		prompt.Validate = func(raw string) error {
			if msg := s.Check(field.ID, raw); msg != "" {
				return errors.New(msg)
			}
			return nil
		}
		return r.driver.Input(ctx, prompt)
	case schema.KindSingleChoice:
		if len(field.Options) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoOptions, field.ID)
		}
		prompt.Options = optionLabels(field.Options)
		prompt.Selected = selectedIndices(field.Options, current)
		idx, err := r.driver.Select(ctx, prompt)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", nil
		}
		return field.Options[idx].Value, nil
	case schema.KindMultiChoice:
		if len(field.Options) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoOptions, field.ID)
		}
		prompt.Options = optionLabels(field.Options)
		prompt.Selected = selectedIndices(field.Options, current)
		indices, err := r.driver.MultiSelect(ctx, prompt)
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(field.Options) {
				values = append(values, field.Options[idx].Value)
			}
		}
		return values, nil
	case schema.KindCheckbox, schema.KindConsent:
		flag, _ := current.(bool)
		prompt.Default = strconv.FormatBool(flag)
		return r.driver.Confirm(ctx, prompt)
	default:
		return r.driver.Input(ctx, prompt)
	}
}

func displayLabel(field schema.Field) string {
	label := strings.TrimSpace(field.Label)
	if label == "" {
		label = field.ID
	}
	if field.Required || field.Kind == schema.KindConsent {
		label += " *"
	}
	return label
}

func defaultString(value any) string {
	if answers.IsUnanswered(value) {
		return ""
	}
	return answers.Stringify(value)
}

func optionLabels(options []schema.Option) []string {
	out := make([]string, len(options))
	for i, option := range options {
		out[i] = option.Label
		if out[i] == "" {
			out[i] = option.Value
		}
	}
	return out
}

// selectedIndices finds the options the current answer already holds: the
// scalar value of a single choice or each member of a list.
func selectedIndices(options []schema.Option, value any) []int {
	var out []int
	for i, option := range options {
		if answers.Holds(value, option.Value) {
			out = append(out, i)
		}
	}
	return out
}

func (r *Renderer) serialize(values answers.Answers) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(encodeForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		out, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("tui: encode answers: %w", err)
		}
		return out, nil
	}
}

func encodeForm(values answers.Answers) string {
	form := url.Values{}
	for id, value := range values {
		switch list := value.(type) {
		case []string:
			for _, item := range list {
				form.Add(id+"[]", item)
			}
		case []any:
			for _, item := range list {
				form.Add(id+"[]", answers.Stringify(item))
			}
		default:
			form.Set(id, answers.Stringify(value))
		}
	}
	return form.Encode()
}

func prettyPrint(values answers.Answers) string {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		value := values[id]
		switch list := value.(type) {
		case []string:
			fmt.Fprintf(&b, "%s=%s\n", id, strings.Join(list, ", "))
		default:
			fmt.Fprintf(&b, "%s=%s\n", id, answers.Stringify(list))
		}
	}
	return b.String()
}
