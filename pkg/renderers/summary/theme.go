package summary

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// StaticSelector resolves themes from manifests held in memory, for hosts
// that ship a fixed set of themes with the binary.
type StaticSelector struct {
	DefaultTheme   string
	DefaultVariant string
	manifests      map[string]*theme.Manifest
}

var _ theme.ThemeSelector = (*StaticSelector)(nil)

// NewStaticSelector indexes manifests by name. The first manifest becomes the
// default theme.
func NewStaticSelector(manifests ...*theme.Manifest) (*StaticSelector, error) {
	s := &StaticSelector{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, manifest := range manifests {
		if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
			return nil, fmt.Errorf("summary: theme manifest without name")
		}
		if _, dup := s.manifests[manifest.Name]; dup {
			return nil, fmt.Errorf("summary: theme %q registered twice", manifest.Name)
		}
		s.manifests[manifest.Name] = manifest
		if s.DefaultTheme == "" {
			s.DefaultTheme = manifest.Name
		}
	}
	return s, nil
}

// Select implements theme.ThemeSelector. Empty names fall back to the
// defaults; unknown variants are rejected.
func (s *StaticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = s.DefaultTheme
	}
	if variant == "" {
		variant = s.DefaultVariant
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("summary: theme %q not found", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("summary: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

type cssVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// themeVars flattens the selection's tokens, variant tokens overriding base
// tokens, into CSS custom properties sorted by name.
func themeVars(selection *theme.Selection) []cssVar {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	tokens := make(map[string]string, len(selection.Manifest.Tokens))
	for key, value := range selection.Manifest.Tokens {
		tokens[key] = value
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}

	out := make([]cssVar, 0, len(tokens))
	for key, value := range tokens {
		name := cssIdent(key)
		value = cssValue(value)
		if name == "" || value == "" {
			continue
		}
		out = append(out, cssVar{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func cssIdent(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(key)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == ' ':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// cssValue drops characters that could close the declaration or the style
// element.
func cssValue(value string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '\\', '"', '\'':
			return -1
		}
		return r
	}, value))
}
