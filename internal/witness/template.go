package witness

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/sprig"
)

//go:embed templates.toml
var builtinTemplates string

// Template is one witness template.
type Template struct {
	ID          string
	Description string
	// Requires lists the facts a finding must carry.
	Requires []string
	// Stub is set for templates that never render; it is the failure reason.
	Stub   string
	Source string
	body   *template.Template
}

type templateDef struct {
	ID          string   `toml:"id"`
	Description string   `toml:"description"`
	Requires    []string `toml:"requires"`
	Body        string   `toml:"body"`
	Stub        string   `toml:"stub"`
}

type templateFile struct {
	Templates []templateDef `toml:"template"`
}

// Catalog is a set of templates keyed by id.
type Catalog struct {
	templates map[string]*Template
}

// ParseCatalog decodes a TOML template file. Unknown keys, duplicate ids and
// templates with neither a body nor a stub reason are errors.
func ParseCatalog(data string) (*Catalog, error) {
	var f templateFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode witness templates: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in witness templates: %s", strings.Join(keys, ", "))
	}

	c := &Catalog{templates: make(map[string]*Template, len(f.Templates))}
	for _, def := range f.Templates {
		if def.ID == "" {
			return nil, fmt.Errorf("witness template without id")
		}
		if _, dup := c.templates[def.ID]; dup {
			return nil, fmt.Errorf("duplicate witness template %q", def.ID)
		}
		t := &Template{
			ID:          def.ID,
			Description: def.Description,
			Requires:    def.Requires,
			Stub:        def.Stub,
			Source:      def.Body,
		}
		switch {
		case def.Stub != "" && def.Body != "":
			return nil, fmt.Errorf("witness template %q has both a body and a stub reason", def.ID)
		case def.Stub == "" && strings.TrimSpace(def.Body) == "":
			return nil, fmt.Errorf("witness template %q has no body", def.ID)
		case def.Body != "":
			body, err := template.New(def.ID).
				Option("missingkey=zero").
				Funcs(sprig.TxtFuncMap()).
				Parse(def.Body)
			if err != nil {
				return nil, fmt.Errorf("witness template %q: %w", def.ID, err)
			}
			t.body = body
		}
		c.templates[def.ID] = t
	}
	return c, nil
}

// DefaultCatalog returns the built-in templates.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(builtinTemplates)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a template by id.
func (c *Catalog) Lookup(id string) (*Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// IDs returns the template ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// missing returns the first required fact absent from facts.
func (t *Template) missing(facts map[string]string) (string, bool) {
	for _, name := range t.Requires {
		if _, ok := facts[name]; !ok {
			return name, true
		}
	}
	return "", false
}

func (t *Template) render(facts map[string]string) (string, error) {
	var sb strings.Builder
	if err := t.body.Execute(&sb, facts); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()) + "\n", nil
}
