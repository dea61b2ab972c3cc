package rules

import (
	"context"
	"testing"

	"github.com/authgraph/authgraph/internal/entities"
)

func TestRegistry_Resolve_Registered(t *testing.T) {
	registry := NewRegistry()

	constructor := registry.Resolve(CELTypeName)
	rule, err := constructor("r1", map[string]interface{}{"expression": "user == 'alice'"})
	if err != nil {
		t.Fatalf("constructor() error = %v, want nil", err)
	}
	if _, ok := rule.(*CEL); !ok {
		t.Errorf("Resolve(cel) constructed %T, want *CEL", rule)
	}
}

func TestRegistry_Resolve_UnknownFallsBackToGeneric(t *testing.T) {
	registry := NewRegistry()

	tests := []string{"", "authorRule", "no-such-type", "CEL"}
	for _, typeName := range tests {
		t.Run("type "+typeName, func(t *testing.T) {
			constructor := registry.Resolve(typeName)
			if constructor == nil {
				t.Fatal("Resolve() = nil, want generic constructor")
			}

			config := map[string]interface{}{"field": "authorID"}
			rule, err := constructor("r1", config)
			if err != nil {
				t.Fatalf("constructor() error = %v, want nil", err)
			}

			generic, ok := rule.(*Generic)
			if !ok {
				t.Fatalf("Resolve(%q) constructed %T, want *Generic", typeName, rule)
			}
			if generic.Config["field"] != "authorID" {
				t.Errorf("Generic.Config[field] = %v, want authorID (config must be carried unchanged)", generic.Config["field"])
			}
		})
	}
}

func TestRegistry_Register_Custom(t *testing.T) {
	registry := NewRegistry()

	called := false
	registry.Register("custom", func(name string, config map[string]interface{}) (entities.Rule, error) {
		called = true
		return NewGeneric(name, config)
	})

	constructor := registry.Resolve("custom")
	if _, err := constructor("r1", nil); err != nil {
		t.Fatalf("constructor() error = %v, want nil", err)
	}
	if !called {
		t.Error("Resolve(custom) did not return the registered constructor")
	}
}

func TestGeneric_ExecuteDenies(t *testing.T) {
	rule, err := NewGeneric("fallback", map[string]interface{}{"anything": true})
	if err != nil {
		t.Fatalf("NewGeneric() error = %v, want nil", err)
	}

	if rule.Name() != "fallback" {
		t.Errorf("Name() = %v, want fallback", rule.Name())
	}

	allowed, err := rule.Execute(context.Background(), "alice", &entities.Item{Type: entities.ItemTypePermission, Name: "createPost"}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if allowed {
		t.Error("Execute() = true, want false (generic rule must never grant)")
	}
}
