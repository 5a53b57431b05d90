package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Template is an index template derived from an Index whose name is a
// wildcard pattern. Its body is the index configuration plus the pattern
// list and an optional ordering priority.
type Template struct {
	name  string
	index *Index
	order *int
}

// TemplateOption configures a Template.
type TemplateOption func(*Template)

// WithOrder sets the template's order, which decides precedence when
// multiple templates match the same index name.
func WithOrder(order int) TemplateOption {
	return func(t *Template) {
		t.order = &order
	}
}

// AsTemplate derives an index template named name from this index. The
// index's own name becomes the match pattern.
func (i *Index) AsTemplate(name string, opts ...TemplateOption) *Template {
	t := &Template{
		name:  name,
		index: i,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// ToMap serializes the template body.
func (t *Template) ToMap() map[string]any {
	body := t.index.ToMap()
	body["index_patterns"] = []string{t.index.Name()}
	if t.order != nil {
		body["order"] = *t.order
	}
	return body
}

// Save stores the template on the cluster.
func (t *Template) Save(ctx context.Context) error {
	client := t.index.client
	if client == nil {
		return errNoClient
	}

	payload, err := json.Marshal(t.ToMap())
	if err != nil {
		return fmt.Errorf("esindex: encoding template %q: %w", t.name, err)
	}

	res, err := client.Indices.PutTemplate(
		t.name,
		bytes.NewReader(payload),
		client.Indices.PutTemplate.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("esindex: saving template %q: %w", t.name, err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return fmt.Errorf("esindex: saving template %q: %w", t.name, err)
	}

	return nil
}
