package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Template represents the structure of a TOML prompt file.
type Template struct {
	System string `toml:"system"`
	User   string `toml:"user"`
}

// LoadTemplate loads a prompt file and returns its contents
func LoadTemplate(filePath string) (*Template, error) {
	var tmpl Template
	if _, err := toml.DecodeFile(filePath, &tmpl); err != nil {
		return nil, fmt.Errorf("error decoding prompt file: %v", err)
	}
	if strings.TrimSpace(tmpl.User) == "" {
		return nil, fmt.Errorf("prompt file %s has an empty user section", filePath)
	}
	return &tmpl, nil
}

// Render substitutes {{key}} placeholders in both sections. Substituted values
// are never re-scanned for placeholders.
func (t Template) Render(vars map[string]string) (string, string) {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("{{%s}}", key), vars[key])
	}
	r := strings.NewReplacer(pairs...)

	return strings.TrimSpace(r.Replace(t.System)), strings.TrimSpace(r.Replace(t.User))
}

// Text renders the template into a single prompt, system section first.
func (t Template) Text(vars map[string]string) string {
	system, user := t.Render(vars)
	if system == "" {
		return user
	}
	return system + "\n\n" + user
}
