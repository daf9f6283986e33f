package commentary

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"text/template"
	"text/template/parse"

	"gopkg.in/yaml.v3"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Template is one parameterized commentary sentence.
type Template struct {
	ID    string      `yaml:"id"`
	Kind  event.Kind  `yaml:"kind"`
	Style event.Style `yaml:"style"`
	Text  string      `yaml:"text"`

	parsed *template.Template
	fields []string
}

// Fields returns the placeholder names the template needs, sorted.
func (t *Template) Fields() []string {
	return append([]string(nil), t.fields...)
}

type catalogFile struct {
	Templates []*Template `yaml:"templates"`
}

// Catalog indexes templates by id and by (kind, style).
type Catalog struct {
	byID   map[string]*Template
	byPair map[pairKey][]*Template
}

type pairKey struct {
	kind  event.Kind
	style event.Style
}

// DefaultCatalog parses the built-in templates.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultTemplates)
}

// LoadCatalog reads a YAML template file. An empty path loads the
// built-in templates.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses YAML template data and compiles every template.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	c := &Catalog{
		byID:   make(map[string]*Template, len(f.Templates)),
		byPair: make(map[pairKey][]*Template),
	}
	for _, t := range f.Templates {
		if err := c.add(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("template without id")
	}
	if _, dup := c.byID[t.ID]; dup {
		return fmt.Errorf("duplicate template id %q", t.ID)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("template %q: unknown event kind %q", t.ID, t.Kind)
	}
	if !validStyle(t.Style) {
		return fmt.Errorf("template %q: unknown style %q", t.ID, t.Style)
	}
	parsed, err := template.New(t.ID).Option("missingkey=error").Parse(t.Text)
	if err != nil {
		return fmt.Errorf("template %q: %w", t.ID, err)
	}
	t.parsed = parsed
	t.fields = collectFields(parsed.Tree.Root)

	c.byID[t.ID] = t
	k := pairKey{t.Kind, t.Style}
	c.byPair[k] = append(c.byPair[k], t)
	return nil
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (*Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// For returns the templates for a (kind, style) pair in catalog order.
func (c *Catalog) For(kind event.Kind, style event.Style) []*Template {
	return c.byPair[pairKey{kind, style}]
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.byID)
}

func validStyle(s event.Style) bool {
	for _, st := range event.Styles {
		if st == s {
			return true
		}
	}
	return false
}

// collectFields walks a template parse tree and returns the distinct
// top-level field names it references.
func collectFields(root parse.Node) []string {
	seen := map[string]struct{}{}
	var walk func(n parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.IfNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, cmd := range n.Cmds {
				walk(cmd)
			}
		case *parse.CommandNode:
			for _, arg := range n.Args {
				walk(arg)
			}
		case *parse.FieldNode:
			if len(n.Ident) > 0 {
				seen[n.Ident[0]] = struct{}{}
			}
		}
	}
	walk(root)

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
