package render

import (
	"context"

	"github.com/goliatone/go-formwizard/pkg/schema"
)

// Renderer turns one screen plus the current answer and error state into bytes
// (HTML, plain text, JSON).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, screen schema.Screen, options RenderOptions) ([]byte, error)
}
