package render

import (
	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// RenderOptions carry the per-request state a renderer shows next to the
// screen. Renderers never mutate Answers.
type RenderOptions struct {
	// Answers is the host's snapshot. Renderers only show live fields from it.
	Answers answers.Answers
	// Errors holds per-field messages from the last validation pass, merged
	// with server feedback from MapErrorPayload.
	Errors validation.ErrorMap
	// FormErrors are messages not tied to a field.
	FormErrors []string
	// Locale is a BCP 47 tag used for generated messages and the lang
	// attribute. Empty means English.
	Locale string
	// Theme and Variant select go-theme tokens for renderers that support them.
	Theme   string
	Variant string
	// Hidden fields are emitted with the confirmation form (CSRF tokens,
	// screen ids).
	Hidden map[string]string
	// Action is the confirmation form target. Empty omits the form.
	Action string
}
