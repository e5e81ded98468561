package summary

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/render/template"
	"github.com/goliatone/go-formwizard/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/visibility"
)

// Name is the registry name of the summary renderer.
const Name = "summary"

const templateName = "summary.tpl"

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in templates so hosts can start overrides
// from them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Labels are the fixed strings the page shows.
type Labels struct {
	NotAnswered string `json:"not_answered"`
	Confirm     string `json:"confirm"`
	Yes         string `json:"yes"`
	No          string `json:"no"`
	Agreed      string `json:"agreed"`
}

// DefaultLabels returns the English labels.
func DefaultLabels() Labels {
	return Labels{
		NotAnswered: "Not answered",
		Confirm:     "Confirm and continue",
		Yes:         "Yes",
		No:          "No",
		Agreed:      "Agreed",
	}
}

// Renderer produces a "review your answers" HTML page for a screen. Only live
// fields are listed; hidden answers never reach the page.
type Renderer struct {
	templates template.TemplateRenderer
	selector  theme.ThemeSelector
	labels    Labels
}

var _ render.Renderer = (*Renderer)(nil)

// New builds a summary renderer. Without WithTemplateRenderer or
// WithTemplatesFS the embedded templates are used.
func New(options ...Option) (*Renderer, error) {
	cfg := config{labels: DefaultLabels()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	engine := cfg.renderer
	if engine == nil {
		files := cfg.templates
		if files == nil {
			files = TemplatesFS()
		}
		built, err := gotemplate.New(gotemplate.WithFS(files))
		if err != nil {
			return nil, fmt.Errorf("summary: template engine: %w", err)
		}
		engine = built
	}

	return &Renderer{templates: engine, selector: cfg.selector, labels: cfg.labels}, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string {
	return Name
}

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, screen schema.Screen, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view, err := r.buildView(screen, opts)
	if err != nil {
		return nil, err
	}
	out, err := r.templates.RenderTemplate(templateName, view)
	if err != nil {
		return nil, fmt.Errorf("summary: render screen %q: %w", screen.ID, err)
	}
	return []byte(out), nil
}

type pageView struct {
	Lang       string               `json:"lang"`
	Title      string               `json:"title"`
	ScreenID   string               `json:"screen_id"`
	Theme      string               `json:"theme,omitempty"`
	ThemeVars  []cssVar             `json:"theme_vars"`
	FormErrors []string             `json:"form_errors"`
	Sections   []sectionView        `json:"sections"`
	Action     string               `json:"action,omitempty"`
	Hidden     []render.HiddenField `json:"hidden"`
	HasErrors  bool                 `json:"has_errors"`
	Labels     Labels               `json:"labels"`
}

type sectionView struct {
	ID    string     `json:"id,omitempty"`
	Title string     `json:"title,omitempty"`
	Items []itemView `json:"items"`
}

type itemView struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Missing bool   `json:"missing"`
	Error   string `json:"error,omitempty"`
}

func (r *Renderer) buildView(screen schema.Screen, opts render.RenderOptions) (pageView, error) {
	lang := strings.TrimSpace(opts.Locale)
	if lang == "" {
		lang = "en"
	}
	title := screen.Title
	if title == "" {
		title = screen.ID
	}

	view := pageView{
		Lang:       lang,
		Title:      title,
		ScreenID:   screen.ID,
		FormErrors: render.MergeFormErrors(nil, opts.FormErrors...),
		Action:     strings.TrimSpace(opts.Action),
		Labels:     r.labels,
		HasErrors:  len(opts.Errors) > 0,
	}
	if view.Action != "" {
		view.Hidden = render.SortedHiddenFields(render.MergeHiddenFields(opts.Hidden, render.ScreenField(screen.ID)))
	}

	if r.selector != nil {
		selection, err := r.selector.Select(opts.Theme, opts.Variant)
		if err != nil {
			return pageView{}, fmt.Errorf("summary: select theme: %w", err)
		}
		view.Theme = selection.Theme
		view.ThemeVars = themeVars(selection)
	}

	visible := visibility.New(screen.Fields).VisibleFields(opts.Answers)
	view.Sections = r.sections(screen.Fields, visible, opts)
	return view, nil
}

// sections puts top-level fields into an untitled leading section and each
// group into its own section. A group's heading is shown whenever any of its
// children is live.
func (r *Renderer) sections(fields []schema.Field, visible visibility.Set, opts render.RenderOptions) []sectionView {
	var out []sectionView
	loose := sectionView{}
	flush := func() {
		if len(loose.Items) > 0 {
			out = append(out, loose)
			loose = sectionView{}
		}
	}

	for _, field := range fields {
		if field.Kind == schema.KindGroup {
			flush()
			section := sectionView{ID: field.ID, Title: sanitizeLabel(field.Label)}
			section.Items = r.items(field.Children, visible, opts)
			if len(section.Items) > 0 {
				out = append(out, section)
			}
			continue
		}
		loose.Items = append(loose.Items, r.items([]schema.Field{field}, visible, opts)...)
	}
	flush()
	return out
}

func (r *Renderer) items(fields []schema.Field, visible visibility.Set, opts render.RenderOptions) []itemView {
	var out []itemView
	for _, field := range schema.Flatten(fields) {
		if field.IsGroup() || !visible.Has(field.ID) {
			continue
		}
		value, _ := opts.Answers.Lookup(field.ID)
		label := field.Label
		if label == "" {
			label = field.ID
		}
		item := itemView{
			ID:    field.ID,
			Label: sanitizeLabel(label),
			Error: opts.Errors[field.ID],
		}
		if answers.IsUnanswered(value) {
			item.Missing = true
		} else {
			item.Value = sanitizeAnswer(r.display(field, value))
		}
		out = append(out, item)
	}
	return out
}

func (r *Renderer) display(field schema.Field, value any) string {
	switch field.Kind {
	case schema.KindConsent:
		if accepted, ok := value.(bool); ok && accepted {
			return r.labels.Agreed
		}
		return r.labels.No
	case schema.KindCheckbox:
		if flag, ok := value.(bool); ok {
			if flag {
				return r.labels.Yes
			}
			return r.labels.No
		}
	case schema.KindSingleChoice:
		return optionLabel(field.Options, answers.Stringify(value))
	case schema.KindMultiChoice:
		var parts []string
		switch list := value.(type) {
		case []string:
			for _, item := range list {
				parts = append(parts, optionLabel(field.Options, item))
			}
		case []any:
			for _, item := range list {
				parts = append(parts, optionLabel(field.Options, answers.Stringify(item)))
			}
		default:
			return optionLabel(field.Options, answers.Stringify(value))
		}
		return strings.Join(parts, ", ")
	}
	return answers.Stringify(value)
}

func optionLabel(options []schema.Option, value string) string {
	for _, option := range options {
		if option.Value == value && option.Label != "" {
			return option.Label
		}
	}
	return value
}
