// Package schema validates seed documents against the JSON schemas attached
// to data-type tags.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Registry holds the compiled schema of every data type that declares one.
type Registry struct {
	schemas map[string]*jsonschema.Schema
}

// Compile builds a Registry. Types without a schema are accepted unchecked.
func Compile(types map[string]domain.DataType) (*Registry, error) {
	c := jsonschema.NewCompiler()
	r := &Registry{schemas: make(map[string]*jsonschema.Schema)}

	names := make([]string, 0, len(types))
	for name, t := range types {
		if len(t.Schema) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		url := "mem://types/" + name + ".json"
		if err := c.AddResource(url, bytes.NewReader(types[name].Schema)); err != nil {
			return nil, fmt.Errorf("schema for type %q: %w", name, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schema for type %q: %w", name, err)
		}
		r.schemas[name] = s
	}
	return r, nil
}

// Has reports whether tag carries a schema.
func (r *Registry) Has(tag string) bool {
	_, ok := r.schemas[tag]
	return ok
}

// Validate checks doc against the schema of every tag that has one.
func (r *Registry) Validate(tags []string, doc json.RawMessage) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	for _, tag := range tags {
		s, ok := r.schemas[tag]
		if !ok {
			continue
		}
		if err := s.Validate(v); err != nil {
			return fmt.Errorf("type %q: %w", tag, err)
		}
	}
	return nil
}
