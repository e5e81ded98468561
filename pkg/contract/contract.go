package contract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/visibility"
)

// NumericPattern accepts the decimal strings text inputs submit for numeric
// fields.
const NumericPattern = `^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?\s*$`

// ErrorPayloadSchema is the component name of the server error body the
// renderers map back onto fields.
const ErrorPayloadSchema = "ErrorPayload"

// AnswerSchema returns an object schema with one property per answerable
// field. Ungated required fields, and ungated consent fields, are listed as
// required.
func AnswerSchema(screen schema.Screen) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Title = screen.Title
	if out.Title == "" {
		out.Title = screen.ID
	}

	var required []string
	for _, field := range schema.Flatten(screen.Fields) {
		if field.IsGroup() {
			continue
		}
		property := fieldSchema(field)
		if field.Label != "" {
			property.Title = field.Label
		}
		if field.Help != "" {
			property.Description = field.Help
		}
		out.WithProperty(field.ID, property)

		if field.Gate == nil && (field.Required || field.Kind == schema.KindConsent) {
			required = append(required, field.ID)
		}
	}
	sort.Strings(required)
	out.Required = required
	return out
}

func fieldSchema(field schema.Field) *openapi3.Schema {
	switch field.Kind {
	case schema.KindShortText, schema.KindMultilineText:
		s := openapi3.NewStringSchema()
		if field.Validation != nil && field.Validation.Pattern != "" {
			if anchored := anchor(field.Validation.Pattern); anchored != "" {
				s.WithPattern(anchored)
			}
		}
		if field.Required {
			s.WithMinLength(1)
		}
		return s
	case schema.KindNumeric:
		number := openapi3.NewFloat64Schema()
		text := openapi3.NewStringSchema()
		minimum, maximum := field.Min, field.Max
		if field.Validation != nil {
			minimum, maximum = field.Validation.Min, field.Validation.Max
		}
		if minimum != nil {
			number.WithMin(*minimum)
		}
		if maximum != nil {
			number.WithMax(*maximum)
		}
		// Only bounded fields reject non-numeric text.
		if minimum != nil || maximum != nil {
			text.WithPattern(NumericPattern)
		}
		return openapi3.NewAnyOfSchema(text, number)
	case schema.KindSingleChoice:
		s := openapi3.NewStringSchema()
		if values := optionValues(field.Options); len(values) > 0 {
			s.WithEnum(values...)
		}
		return s
	case schema.KindMultiChoice:
		items := openapi3.NewStringSchema()
		if values := optionValues(field.Options); len(values) > 0 {
			items.WithEnum(values...)
		}
		s := openapi3.NewArraySchema().WithItems(items)
		if field.Required {
			s.WithMinItems(1)
		}
		return s
	case schema.KindCheckbox:
		return openapi3.NewBoolSchema()
	case schema.KindConsent:
		return openapi3.NewBoolSchema().WithEnum(true)
	case schema.KindGroup, schema.KindRow, schema.KindUnknown:
		return openapi3.NewSchema()
	default:
		return openapi3.NewSchema()
	}
}

// anchor mirrors the validator: the whole value must match. Patterns RE2
// rejects are left out of the schema.
func anchor(pattern string) string {
	anchored := `^(?:` + pattern + `)$`
	if _, err := regexp.Compile(anchored); err != nil {
		return ""
	}
	return anchored
}

func optionValues(options []schema.Option) []any {
	out := make([]any, 0, len(options))
	for _, option := range options {
		out = append(out, option.Value)
	}
	return out
}

// Payload returns the live answers of screen as plain JSON values, the body a
// host would submit.
func Payload(screen schema.Screen, a answers.Answers) (map[string]any, error) {
	raw, err := json.Marshal(visibility.Prune(screen.Fields, a))
	if err != nil {
		return nil, fmt.Errorf("contract: encode payload: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("contract: decode payload: %w", err)
	}
	return out, nil
}

// Validate checks the submitted payload of screen against AnswerSchema.
func Validate(screen schema.Screen, a answers.Answers) error {
	payload, err := Payload(screen, a)
	if err != nil {
		return err
	}
	if err := AnswerSchema(screen).VisitJSON(payload); err != nil {
		return fmt.Errorf("contract: screen %q: %w", screen.ID, err)
	}
	return nil
}

// Info names the generated document.
type Info struct {
	Title   string
	Version string
}

// Document assembles an OpenAPI document with one POST operation per screen
// at /screens/{id}/answers. The result is loaded and validated by kin-openapi
// before it is returned.
func Document(ctx context.Context, info Info, screens ...schema.Screen) (*openapi3.T, error) {
	if info.Title == "" {
		info.Title = "Wizard answers"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}

	schemas := map[string]any{
		ErrorPayloadSchema: openapi3.NewObjectSchema().WithAdditionalProperties(
			openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()),
		),
	}
	paths := map[string]any{}
	for _, screen := range screens {
		if _, exists := schemas[screen.ID]; exists {
			return nil, fmt.Errorf("contract: duplicate screen %q", screen.ID)
		}
		schemas[screen.ID] = AnswerSchema(screen)
		paths["/screens/"+screen.ID+"/answers"] = map[string]any{
			"post": submitOperation(screen.ID),
		}
	}

	raw, err := json.Marshal(map[string]any{
		"openapi":    "3.0.3",
		"info":       map[string]any{"title": info.Title, "version": info.Version},
		"paths":      paths,
		"components": map[string]any{"schemas": schemas},
	})
	if err != nil {
		return nil, fmt.Errorf("contract: encode document: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("contract: validate document: %w", err)
	}
	return doc, nil
}

func submitOperation(screenID string) map[string]any {
	ref := func(name string) map[string]any {
		return map[string]any{"$ref": "#/components/schemas/" + name}
	}
	return map[string]any{
		"operationId": "submit" + camel(screenID),
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{"schema": ref(screenID)},
			},
		},
		"responses": map[string]any{
			"204": map[string]any{"description": "Answers accepted"},
			"422": map[string]any{
				"description": "Validation errors keyed by field id",
				"content": map[string]any{
					"application/json": map[string]any{"schema": ref(ErrorPayloadSchema)},
				},
			},
		},
	}
}

func camel(id string) string {
	var b strings.Builder
	upper := true
	for _, r := range id {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			upper = true
		case upper:
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
