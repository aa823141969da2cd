// Package templates holds the catalog of summary templates sent to the remote
// service. Each template pairs a JSON schema with generation instructions.
package templates

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"scribe/internal/schema"
)

// Template is an immutable (schema, instructions) pair selectable by id.
type Template struct {
	ID           string
	Name         string
	Schema       *schema.Schema
	Instructions string
}

// Registry resolves templates by id. It is safe for concurrent reads because
// nothing mutates it after construction.
type Registry struct {
	templates []Template
	byID      map[string]int
}

// NewRegistry builds a registry; the first template is the fallback.
func NewRegistry(templates ...Template) (*Registry, error) {
	if len(templates) == 0 {
		return nil, errors.New("registry needs at least one template")
	}
	r := &Registry{byID: make(map[string]int, len(templates))}
	for _, t := range templates {
		if strings.TrimSpace(t.ID) == "" {
			return nil, errors.New("template id cannot be empty")
		}
		if t.Schema == nil {
			return nil, fmt.Errorf("template %q has no schema", t.ID)
		}
		if idx, ok := r.byID[t.ID]; ok {
			r.templates[idx] = t
			continue
		}
		r.byID[t.ID] = len(r.templates)
		r.templates = append(r.templates, t)
	}
	return r, nil
}

// Default returns the registry with the built-in templates.
func Default() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the template with the given id, or the first registered
// template when the id is unknown or empty.
func (r *Registry) Resolve(id string) Template {
	if idx, ok := r.byID[strings.TrimSpace(id)]; ok {
		return r.templates[idx]
	}
	return r.templates[0]
}

// List returns the templates in registration order.
func (r *Registry) List() []Template {
	return append([]Template(nil), r.templates...)
}

type fileTemplate struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Instructions string `yaml:"instructions"`
	Schema       string `yaml:"schema"`
}

type fileCategory struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

type templateFile struct {
	ProblemCategories []fileCategory `yaml:"problemCategories"`
	Templates         []fileTemplate `yaml:"templates"`
}

// LoadFile returns a registry of base overlaid with the templates in path.
// A problemCategories list rebuilds the problem-oriented note with that
// taxonomy. Entries with a known id replace the built-in; new ids are
// appended. A missing file leaves base unchanged.
func LoadFile(base *Registry, path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return base, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to read templates file %q: %w", path, err)
	}

	var parsed templateFile
	if err := yaml.Unmarshal(contents, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse templates file %q: %w", path, err)
	}

	merged := base.List()
	if len(parsed.ProblemCategories) > 0 {
		categories := make([]Category, 0, len(parsed.ProblemCategories))
		for _, c := range parsed.ProblemCategories {
			categories = append(categories, Category{Code: strings.TrimSpace(c.Code), Label: strings.TrimSpace(c.Label)})
		}
		if err := validateCategories(categories); err != nil {
			return nil, fmt.Errorf("templates file %q: %w", path, err)
		}
		merged = append(merged, ProblemOriented(categories))
	}
	for index, entry := range parsed.Templates {
		s, err := schema.Parse([]byte(entry.Schema))
		if err != nil {
			return nil, fmt.Errorf("templates file %q entry %d: %w", path, index+1, err)
		}
		name := entry.Name
		if name == "" {
			name = entry.ID
		}
		merged = append(merged, Template{
			ID:           strings.TrimSpace(entry.ID),
			Name:         name,
			Schema:       s,
			Instructions: entry.Instructions,
		})
	}
	return NewRegistry(merged...)
}
