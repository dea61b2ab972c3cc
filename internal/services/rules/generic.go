package rules

import (
	"context"

	"github.com/authgraph/authgraph/internal/entities"
)

// GenericTypeName is the discriminator of the fallback rule variant.
const GenericTypeName = "generic"

// Generic is the fallback rule variant used for unregistered type
// discriminators. It carries the deserialized configuration unchanged and has
// no specialized behavior: Execute always denies, so an unknown rule type can
// never grant access.
type Generic struct {
	name   string
	Config map[string]interface{}
}

// NewGeneric constructs a generic rule. It never fails.
func NewGeneric(name string, config map[string]interface{}) (entities.Rule, error) {
	return &Generic{name: name, Config: config}, nil
}

// Name returns the rule name.
func (g *Generic) Name() string {
	return g.name
}

// Execute denies unconditionally.
func (g *Generic) Execute(ctx context.Context, userID string, item *entities.Item, params map[string]interface{}) (bool, error) {
	return false, nil
}
