package summary

import (
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwizard/pkg/render/template"
)

// Option configures the summary renderer.
type Option func(*config)

type config struct {
	renderer  template.TemplateRenderer
	templates fs.FS
	selector  theme.ThemeSelector
	labels    Labels
}

// WithTemplateRenderer supplies a ready template engine. The engine must
// provide a "summary.tpl" template.
func WithTemplateRenderer(renderer template.TemplateRenderer) Option {
	return func(cfg *config) {
		cfg.renderer = renderer
	}
}

// WithTemplatesFS overrides the embedded templates.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithThemeSelector resolves RenderOptions.Theme/Variant into CSS custom
// properties.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(cfg *config) {
		cfg.selector = selector
	}
}

// WithLabels replaces the fixed page strings. Empty entries keep the
// defaults.
func WithLabels(labels Labels) Option {
	return func(cfg *config) {
		defaults := DefaultLabels()
		pick := func(value, fallback string) string {
			if value == "" {
				return fallback
			}
			return value
		}
		cfg.labels = Labels{
			NotAnswered: pick(labels.NotAnswered, defaults.NotAnswered),
			Confirm:     pick(labels.Confirm, defaults.Confirm),
			Yes:         pick(labels.Yes, defaults.Yes),
			No:          pick(labels.No, defaults.No),
			Agreed:      pick(labels.Agreed, defaults.Agreed),
		}
	}
}
