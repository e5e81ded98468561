package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

func intakeScreen() schema.Screen {
	return schema.Screen{
		ID:    "medical_history",
		Title: "Medical history",
		Fields: []schema.Field{
			{ID: "full_name", Kind: schema.KindShortText, Label: "Full name"},
			{ID: "state", Kind: schema.KindSingleChoice, Label: "State", Options: []schema.Option{
				{Value: "CA", Label: "California"},
				{Value: "NY", Label: "New York"},
			}},
			{ID: "ca_notice", Kind: schema.KindConsent, Label: `I have read the <a href="https://example.com/ca">CA notice</a><script>x()</script>`,
				Gate: schema.Conditional{Expression: `state == "CA"`}},
			{ID: "meds", Kind: schema.KindGroup, Label: "Medications", Children: []schema.Field{
				{ID: "symptoms", Kind: schema.KindMultiChoice, Label: "Symptoms", Options: []schema.Option{
					{Value: "nausea", Label: "Nausea"},
				}},
				{ID: "nausea_details", Kind: schema.KindMultilineText, Label: "Details",
					Gate: schema.Conditional{Expression: `symptoms contains "nausea"`}},
				{ID: "secret_hidden", Kind: schema.KindShortText, Label: "Hidden",
					Gate: schema.Conditional{Expression: `state == "TX"`}},
			}},
		},
	}
}

type stubSelector struct {
	selection *theme.Selection
	calls     [][2]string
}

func (s *stubSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, [2]string{name, variant})
	if s.selection == nil {
		return nil, errors.New("no theme")
	}
	return s.selection, nil
}

func TestRender_LiveFieldsSanitizedAndThemed(t *testing.T) {
	t.Parallel()

	selector := &stubSelector{selection: &theme.Selection{
		Theme:   "clinic",
		Variant: "dark",
		Manifest: &theme.Manifest{
			Name:   "clinic",
			Tokens: map[string]string{"brand.primary": "#0a6", "surface": "white"},
			Variants: map[string]theme.Variant{
				"dark": {Tokens: map[string]string{"surface": "#111;}</style>"}},
			},
		},
	}}

	renderer, err := New(WithThemeSelector(selector))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := renderer.Render(context.Background(), intakeScreen(), render.RenderOptions{
		Answers: answers.Answers{
			"full_name":      `Jane <script>alert(1)</script>Doe`,
			"state":          "CA",
			"ca_notice":      true,
			"symptoms":       []string{"nausea"},
			"secret_hidden":  "do not show",
			"nausea_details": "",
		},
		Errors:     validation.ErrorMap{"nausea_details": "This field is required"},
		FormErrors: []string{" Session expired "},
		Theme:      "clinic",
		Variant:    "dark",
		Action:     "/wizard/confirm",
		Hidden:     map[string]string{"_csrf": "tok"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)

	mustContain := []string{
		`<html lang="en">`,
		`<title>Medical history</title>`,
		`--fw-brand-primary: #0a6;`,
		`--fw-surface: #111/style;`,
		`data-theme="clinic"`,
		`<li>Session expired</li>`,
		`<dd data-field="full_name">Jane Doe</dd>`,
		`<dd data-field="state">California</dd>`,
		`<dd data-field="ca_notice">Agreed</dd>`,
		`href="https://example.com/ca"`,
		`<h2>Medications</h2>`,
		`<dd data-field="symptoms">Nausea</dd>`,
		`<dd data-field="nausea_details" class="fw-invalid"><em>Not answered</em> <span class="fw-error">This field is required</span></dd>`,
		`<input type="hidden" name="_csrf" value="tok">`,
		`<input type="hidden" name="_screen" value="medical_history">`,
		`<button type="submit" disabled>`,
	}
	for _, want := range mustContain {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q\n%s", want, html)
		}
	}
	for _, banned := range []string{"<script", "alert(1)", "x()", "do not show", "secret_hidden"} {
		if strings.Contains(html, banned) {
			t.Errorf("output must not contain %q\n%s", banned, html)
		}
	}

	if len(selector.calls) != 1 || selector.calls[0] != [2]string{"clinic", "dark"} {
		t.Fatalf("unexpected selector calls: %v", selector.calls)
	}
}

func TestRender_HiddenGatesAndNoForm(t *testing.T) {
	t.Parallel()

	renderer, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := renderer.Render(context.Background(), intakeScreen(), render.RenderOptions{
		Answers: answers.Answers{"state": "NY", "ca_notice": true},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "ca_notice") || strings.Contains(html, "nausea_details") {
		t.Fatalf("hidden fields rendered:\n%s", html)
	}
	if strings.Contains(html, "<form") || strings.Contains(html, "<style>") {
		t.Fatalf("form/style should be omitted:\n%s", html)
	}
	if !strings.Contains(html, `<dd data-field="full_name"><em>Not answered</em></dd>`) {
		t.Fatalf("expected placeholder for unanswered field:\n%s", html)
	}
}

func TestRender_ThemeSelectionError(t *testing.T) {
	t.Parallel()

	renderer, err := New(WithThemeSelector(&stubSelector{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := renderer.Render(context.Background(), intakeScreen(), render.RenderOptions{Theme: "missing"}); err == nil {
		t.Fatalf("expected theme selection error")
	}
}

func TestRender_CancelledContext(t *testing.T) {
	t.Parallel()

	renderer, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := renderer.Render(ctx, intakeScreen(), render.RenderOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStaticSelector(t *testing.T) {
	t.Parallel()

	selector, err := NewStaticSelector(
		&theme.Manifest{Name: "clinic", Variants: map[string]theme.Variant{"dark": {}}},
		&theme.Manifest{Name: "plain"},
	)
	if err != nil {
		t.Fatalf("NewStaticSelector: %v", err)
	}

	selection, err := selector.Select("", "")
	if err != nil || selection.Theme != "clinic" {
		t.Fatalf("default selection = %+v, %v", selection, err)
	}
	if _, err := selector.Select("clinic", "dark"); err != nil {
		t.Fatalf("variant selection: %v", err)
	}
	if _, err := selector.Select("clinic", "sepia"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
	if _, err := selector.Select("neon", ""); err == nil {
		t.Fatalf("expected unknown theme error")
	}
	if _, err := NewStaticSelector(&theme.Manifest{Name: "a"}, &theme.Manifest{Name: "a"}); err == nil {
		t.Fatalf("expected duplicate theme error")
	}
}

func TestRegistryWiring(t *testing.T) {
	t.Parallel()

	renderer, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	registry := render.NewRegistry(renderer)
	got, err := registry.Get(Name)
	if err != nil || got.ContentType() != "text/html; charset=utf-8" {
		t.Fatalf("registry lookup = %v, %v", got, err)
	}
}
