package rules

import (
	"github.com/authgraph/authgraph/internal/entities"
)

// Constructor builds a rule variant from its name and the configuration
// deserialized from the snapshot's rule data blob.
type Constructor func(name string, config map[string]interface{}) (entities.Rule, error)

// Registry maps rule type discriminators to constructors. The hosting
// application populates it before the first snapshot load; the materializer
// only reads it.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry creates a registry with the built-in rule types registered.
func NewRegistry() *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor),
	}
	r.Register(GenericTypeName, NewGeneric)
	r.Register(CELTypeName, NewCEL)
	return r
}

// Register adds or replaces the constructor for a type discriminator.
func (r *Registry) Register(typeName string, constructor Constructor) {
	r.constructors[typeName] = constructor
}

// Resolve returns the constructor for a type discriminator. Unknown
// discriminators resolve to the generic constructor, so Resolve is total
// over all inputs and never fails.
func (r *Registry) Resolve(typeName string) Constructor {
	if constructor, ok := r.constructors[typeName]; ok {
		return constructor
	}
	return NewGeneric
}
