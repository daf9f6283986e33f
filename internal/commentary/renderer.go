package commentary

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTemplate means the template id is not in the catalog.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrMissingField means the caller did not supply a field the
	// template references.
	ErrMissingField = errors.New("missing template field")
	// ErrNoTemplate means the catalog has nothing for an event's kind.
	ErrNoTemplate = errors.New("no template for event")
)

// Renderer fills catalog templates with event fields.
type Renderer struct {
	catalog *Catalog
}

// NewRenderer returns a renderer over catalog.
func NewRenderer(catalog *Catalog) *Renderer {
	return &Renderer{catalog: catalog}
}

// Render substitutes fields into the template with the given id. Every
// field the template references must be present; the output never
// contains an unfilled placeholder.
func (r *Renderer) Render(id string, fields map[string]string) (string, error) {
	t, ok := r.catalog.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	for _, f := range t.fields {
		if _, ok := fields[f]; !ok {
			return "", fmt.Errorf("%w: template %s needs %q", ErrMissingField, id, f)
		}
	}

	var b strings.Builder
	if err := t.parsed.Execute(&b, fields); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", id, err)
	}
	return strings.TrimSpace(b.String()), nil
}
