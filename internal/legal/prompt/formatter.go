package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Param is one ordered key/value pair of a generated document.
type Param struct {
	Key   string
	Value string
}

// Entry describes where a template came from.
type Entry struct {
	Name   string
	Source string // "builtin" or the override file path
}

// Set is the resolved collection of templates used by the controllers.
type Set struct {
	templates map[string]Template
	sources   map[string]string
}

// Default returns a Set with only the built-in templates.
func Default() *Set {
	s := &Set{
		templates: make(map[string]Template, len(builtin)),
		sources:   make(map[string]string, len(builtin)),
	}
	for name, tmpl := range builtin {
		s.templates[name] = tmpl
		s.sources[name] = "builtin"
	}
	return s
}

// Resolve returns the built-in templates overridden by <dir>/<name>.toml files.
// Later directories take precedence over earlier ones.
func Resolve(promptDirs []string) (*Set, error) {
	s := Default()
	for _, name := range Names {
		var found string
		for _, promptDir := range promptDirs {
			candidatePath := filepath.Join(promptDir, name+".toml")
			if _, err := os.Stat(candidatePath); err == nil {
				found = candidatePath
			}
		}
		if found == "" {
			continue
		}

		tmpl, err := LoadTemplate(found)
		if err != nil {
			return nil, fmt.Errorf("error loading prompt file '%s': %w", found, err)
		}
		s.templates[name] = *tmpl
		s.sources[name] = found
	}
	return s, nil
}

// List returns every template with its source, in display order.
func (s *Set) List() []Entry {
	entries := make([]Entry, 0, len(Names))
	for _, name := range Names {
		entries = append(entries, Entry{Name: name, Source: s.sources[name]})
	}
	return entries
}

// Get returns the named template.
func (s *Set) Get(name string) (Template, bool) {
	tmpl, ok := s.templates[name]
	return tmpl, ok
}

// Chat returns the preamble and the query prompt for a conversation turn.
func (s *Set) Chat(query string) (string, string) {
	return s.templates[Chat].Render(map[string]string{"input": query})
}

// Analysis returns the general document analysis prompt.
func (s *Set) Analysis(document string) string {
	return s.templates[Analysis].Text(map[string]string{"document": document})
}

// Risk returns the risk assessment prompt.
func (s *Set) Risk(document string) string {
	return s.templates[Risk].Text(map[string]string{"document": document})
}

// Document returns the document generation prompt.
func (s *Set) Document(typeLabel string, params []Param) string {
	return s.templates[Generate].Text(map[string]string{
		"type":       typeLabel,
		"parameters": FormatParams(params),
	})
}

// Research returns the precedent search prompt.
func (s *Set) Research(query, jurisdiction, timeframe string) string {
	return s.templates[Research].Text(map[string]string{
		"query":        query,
		"jurisdiction": jurisdiction,
		"timeframe":    timeframe,
	})
}

// FormatParams renders params as "key: value" lines in their given order.
func FormatParams(params []Param) string {
	lines := make([]string, 0, len(params))
	for _, p := range params {
		lines = append(lines, fmt.Sprintf("%s: %s", p.Key, p.Value))
	}
	return strings.Join(lines, "\n")
}
