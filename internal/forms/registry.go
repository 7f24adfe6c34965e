// Package forms holds the built-in legal form definitions and the
// registry callers pick a form from.
package forms

import (
	"fmt"
	"sort"
	"sync"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
)

// Registry is a read-mostly collection of form schemas.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]models.FormSchema
}

// NewRegistry creates a registry preloaded with the built-in forms.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]models.FormSchema)}
	for _, schema := range builtinSchemas() {
		r.schemas[schema.ID] = schema
	}
	return r
}

// Register adds or replaces a schema.
func (r *Registry) Register(schema models.FormSchema) error {
	if schema.ID == "" {
		return fmt.Errorf("form schema has no id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[schema.ID] = schema
	return nil
}

// Get returns the schema with this id.
func (r *Registry) Get(id string) (models.FormSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[id]
	return schema, ok
}

// List returns all schemas sorted by id.
func (r *Registry) List() []models.FormSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.FormSchema, 0, len(r.schemas))
	for _, schema := range r.schemas {
		list = append(list, schema)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
