package schema

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Store holds the screens loaded from one or more documents, in load order.
type Store struct {
	order   []string
	screens map[string]Screen
}

// NewStore builds a store from already-decoded screens, applying the same
// checks LoadFS does.
func NewStore(screens ...Screen) (*Store, error) {
	store := &Store{screens: make(map[string]Screen, len(screens))}
	for _, screen := range screens {
		if err := store.add(screen, "<memory>"); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// LoadFS walks fsys and parses every JSON/YAML screen document it finds. A nil
// filesystem yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{screens: make(map[string]Screen)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		screens, err := Parse(data, path)
		if err != nil {
			return err
		}
		for _, screen := range screens {
			if err := store.add(screen, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// LoadFile parses a single screen document from disk.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	screens, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	return NewStore(screens...)
}

// Screen returns the screen registered under id.
func (s *Store) Screen(id string) (Screen, bool) {
	if s == nil {
		return Screen{}, false
	}
	screen, ok := s.screens[id]
	return screen, ok
}

// Screens returns every screen in load order.
func (s *Store) Screens() []Screen {
	if s == nil {
		return nil
	}
	out := make([]Screen, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.screens[id])
	}
	return out
}

// Empty reports whether the store holds any screens.
func (s *Store) Empty() bool {
	return s == nil || len(s.order) == 0
}

func (s *Store) add(screen Screen, source string) error {
	id := strings.TrimSpace(screen.ID)
	if id == "" {
		return fmt.Errorf("schema: file %s defines a screen without id", source)
	}
	if _, exists := s.screens[id]; exists {
		return fmt.Errorf("schema: duplicate screen %q (file %s)", id, source)
	}
	if _, err := NewIndex(screen.Fields); err != nil {
		return fmt.Errorf("schema: screen %q (file %s): %w", id, source, err)
	}
	s.screens[id] = screen
	s.order = append(s.order, id)
	return nil
}

// Parse decodes a screen document. The format follows the file extension of
// source; unknown extensions are tried as JSON and then YAML.
func Parse(data []byte, source string) ([]Screen, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("schema: file %s is empty", source)
	}

	var doc documentFile
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("schema: parse %s: %w", source, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("schema: parse %s: %w", source, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
				return nil, fmt.Errorf("schema: parse %s: invalid JSON or YAML", source)
			}
		}
	}

	screens := make([]Screen, 0, len(doc.Screens))
	for i, raw := range doc.Screens {
		screen, err := raw.screen()
		if err != nil {
			return nil, fmt.Errorf("schema: file %s screen %d: %w", source, i, err)
		}
		screens = append(screens, screen)
	}
	return screens, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

type documentFile struct {
	Screens []screenFile `json:"screens" yaml:"screens"`
}

type screenFile struct {
	ID     string          `json:"id" yaml:"id"`
	Title  string          `json:"title" yaml:"title"`
	Fields []childFile     `json:"fields" yaml:"fields"`
	Rules  []AggregateRule `json:"rules" yaml:"rules"`
}

type fieldFile struct {
	ID          string           `json:"id" yaml:"id"`
	Type        string           `json:"type" yaml:"type"`
	Label       string           `json:"label" yaml:"label"`
	Help        string           `json:"help" yaml:"help"`
	Placeholder string           `json:"placeholder" yaml:"placeholder"`
	Required    bool             `json:"required" yaml:"required"`
	Validation  *validationFile  `json:"validation" yaml:"validation"`
	Min         *float64         `json:"min" yaml:"min"`
	Max         *float64         `json:"max" yaml:"max"`
	Options     []Option         `json:"options" yaml:"options"`
	Progressive *progressiveFile `json:"progressive" yaml:"progressive"`
	Conditional string           `json:"conditional" yaml:"conditional"`
	Children    []childFile      `json:"children" yaml:"children"`
}

type validationFile struct {
	Pattern          string   `json:"pattern" yaml:"pattern"`
	Message          string   `json:"message" yaml:"message"`
	MatchesField     string   `json:"matches_field" yaml:"matches_field"`
	Min              *float64 `json:"min" yaml:"min"`
	Max              *float64 `json:"max" yaml:"max"`
	GreaterThanField string   `json:"greater_than_field" yaml:"greater_than_field"`
	LessThanField    string   `json:"less_than_field" yaml:"less_than_field"`
}

type progressiveFile struct {
	DependsOn      string `json:"depends_on" yaml:"depends_on"`
	ExtraCondition string `json:"extra_condition" yaml:"extra_condition"`
}

// childFile is either a field object or an array of field objects laid out
// side by side.
type childFile struct {
	field *fieldFile
	row   []fieldFile
}

func (c *childFile) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &c.row)
	}
	c.field = &fieldFile{}
	return json.Unmarshal(trimmed, c.field)
}

func (c *childFile) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&c.row)
	}
	c.field = &fieldFile{}
	return node.Decode(c.field)
}

func (s screenFile) screen() (Screen, error) {
	fields, err := convertChildren(s.Fields)
	if err != nil {
		return Screen{}, err
	}
	return Screen{
		ID:     strings.TrimSpace(s.ID),
		Title:  s.Title,
		Fields: fields,
		Rules:  append([]AggregateRule(nil), s.Rules...),
	}, nil
}

func convertFields(raw []fieldFile) ([]Field, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Field, 0, len(raw))
	for _, item := range raw {
		field, err := item.field()
		if err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, nil
}

func (f fieldFile) field() (Field, error) {
	id := strings.TrimSpace(f.ID)
	kind, err := ParseKind(f.Type)
	if err != nil {
		return Field{}, fmt.Errorf("field %q: %w", id, err)
	}
	if kind != KindRow && id == "" {
		return Field{}, fmt.Errorf("field of type %q has no id", f.Type)
	}
	if !kind.Container() && len(f.Children) > 0 {
		return Field{}, fmt.Errorf("field %q: type %s cannot have children", id, kind)
	}
	if f.Progressive != nil && strings.TrimSpace(f.Conditional) != "" {
		return Field{}, fmt.Errorf("field %q: progressive and conditional gates are exclusive", id)
	}

	field := Field{
		ID:          id,
		Kind:        kind,
		Label:       f.Label,
		Help:        f.Help,
		Placeholder: f.Placeholder,
		Required:    f.Required,
		Min:         f.Min,
		Max:         f.Max,
		Options:     append([]Option(nil), f.Options...),
	}
	if f.Validation != nil {
		v := Validation(*f.Validation)
		field.Validation = &v
	}
	switch {
	case f.Progressive != nil:
		field.Gate = Progressive{
			DependsOn:      strings.TrimSpace(f.Progressive.DependsOn),
			ExtraCondition: strings.TrimSpace(f.Progressive.ExtraCondition),
		}
	case strings.TrimSpace(f.Conditional) != "":
		field.Gate = Conditional{Expression: strings.TrimSpace(f.Conditional)}
	}

	children, err := convertChildren(f.Children)
	if err != nil {
		return Field{}, err
	}
	field.Children = children
	return field, nil
}

func convertChildren(raw []childFile) ([]Field, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Field, 0, len(raw))
	for _, child := range raw {
		switch {
		case child.row != nil:
			row, err := convertFields(child.row)
			if err != nil {
				return nil, err
			}
			out = append(out, Field{Kind: KindRow, Children: row})
		case child.field != nil:
			converted, err := child.field.field()
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
	}
	return out, nil
}
