package services

import (
	"testing"

	"github.com/authgraph/authgraph/internal/entities"
	"github.com/authgraph/authgraph/internal/services/rules"
)

func newTestMaterializer() *Materializer {
	return NewMaterializer(rules.NewRegistry())
}

func TestMaterializer_Materialize_Items(t *testing.T) {
	snapshot := &entities.Snapshot{
		Items: map[string]*entities.ItemSpec{
			"admin":      {Type: "role", Description: "Administrator"},
			"editor":     {Type: "role"},
			"createPost": {Type: "permission", RuleName: "isAuthor"},
		},
	}

	graph, err := newTestMaterializer().Materialize(snapshot)
	if err != nil {
		t.Fatalf("Materialize() error = %v, want nil", err)
	}

	if len(graph.Items) != len(snapshot.Items) {
		t.Errorf("len(Items) = %v, want %v", len(graph.Items), len(snapshot.Items))
	}

	tests := []struct {
		name            string
		wantType        entities.ItemType
		wantDescription string
		wantRuleName    string
	}{
		{"admin", entities.ItemTypeRole, "Administrator", ""},
		{"editor", entities.ItemTypeRole, "", ""},
		{"createPost", entities.ItemTypePermission, "", "isAuthor"},
	}

	for _, tt := range tests {
		item := graph.Items[tt.name]
		if item == nil {
			t.Errorf("Items[%s] = nil, want item", tt.name)
			continue
		}
		if item.Type != tt.wantType {
			t.Errorf("Items[%s].Type = %v, want %v", tt.name, item.Type, tt.wantType)
		}
		if item.Name != tt.name {
			t.Errorf("Items[%s].Name = %v, want %v", tt.name, item.Name, tt.name)
		}
		if item.Description != tt.wantDescription {
			t.Errorf("Items[%s].Description = %v, want %v", tt.name, item.Description, tt.wantDescription)
		}
		if item.RuleName != tt.wantRuleName {
			t.Errorf("Items[%s].RuleName = %v, want %v", tt.name, item.RuleName, tt.wantRuleName)
		}
	}
}

func TestMaterializer_Materialize_UnknownItemType(t *testing.T) {
	snapshot := &entities.Snapshot{
		Items: map[string]*entities.ItemSpec{
			"weird": {Type: "group"},
		},
	}

	graph, err := newTestMaterializer().Materialize(snapshot)
	if err == nil {
		t.Error("Materialize() error = nil, want error for unknown item type")
	}
	if graph != nil {
		t.Error("Materialize() graph != nil on error, want nil (no partial state)")
	}
}

func TestMaterializer_Materialize_Parents(t *testing.T) {
	snapshot := &entities.Snapshot{
		Items: map[string]*entities.ItemSpec{
			"admin":      {Type: "role", Children: []string{"editor", "missing"}},
			"editor":     {Type: "role", Children: []string{"createPost"}},
			"createPost": {Type: "permission"},
		},
	}

	graph, err := newTestMaterializer().Materialize(snapshot)
	if err != nil {
		t.Fatalf("Materialize() error = %v, want nil", err)
	}

	if len(graph.Parents["editor"]) != 1 {
		t.Errorf("len(Parents[editor]) = %v, want 1", len(graph.Parents["editor"]))
	}
	if graph.Parents["editor"]["admin"] != graph.Items["admin"] {
		t.Error("Parents[editor][admin] is not the same instance as Items[admin]")
	}
	if graph.Parents["createPost"]["editor"] != graph.Items["editor"] {
		t.Error("Parents[createPost][editor] is not the same instance as Items[editor]")
	}

	// Edges pointing at unknown children are dropped without error.
	if _, ok := graph.Parents["missing"]; ok {
		t.Error("Parents[missing] exists, want edge dropped for unknown child")
	}
}

func TestMaterializer_Materialize_SharedItemInstances(t *testing.T) {
	snapshot := &entities.Snapshot{
		Items: map[string]*entities.ItemSpec{
			"admin":  {Type: "role", Children: []string{"editor"}},
			"editor": {Type: "role"},
		},
	}

	graph, err := newTestMaterializer().Materialize(snapshot)
	if err != nil {
		t.Fatalf("Materialize() error = %v, want nil", err)
	}

	// The index holds references, not copies: a mutation through Items is
	// visible through Parents.
	graph.Items["admin"].Description = "changed"
	if graph.Parents["editor"]["admin"].Description != "changed" {
		t.Error("mutation of Items[admin] not visible through Parents[editor][admin]")
	}
}

func TestMaterializer_Materialize_Rules(t *testing.T) {
	snapshot := &entities.Snapshot{
		Rules: map[string]*entities.RuleSpec{
			"isAuthor": {Data: entities.RuleData{
				TypeName: "cel",
				RuleData: `{"expression": "params.authorID == user"}`,
			}},
			"legacy": {Data: entities.RuleData{
				TypeName: "authorRule",
				RuleData: `{"field": "authorID", "strict": true}`,
			}},
			"bare": {Data: entities.RuleData{
				TypeName: "authorRule",
			}},
		},
	}

	graph, err := newTestMaterializer().Materialize(snapshot)
	if err != nil {
		t.Fatalf("Materialize() error = %v, want nil", err)
	}

	if len(graph.Rules) != 3 {
		t.Fatalf("len(Rules) = %v, want 3", len(graph.Rules))
	}

	if _, ok := graph.Rules["isAuthor"].(*rules.CEL); !ok {
		t.Errorf("Rules[isAuthor] = %T, want *rules.CEL", graph.Rules["isAuthor"])
	}

	// Unregistered discriminators fall back to the generic variant carrying
	// the deserialized config unchanged.
	legacy, ok := graph.Rules["legacy"].(*rules.Generic)
	if !ok {
		t.Fatalf("Rules[legacy] = %T, want *rules.Generic", graph.Rules["legacy"])
	}
	if legacy.Name() != "legacy" {
		t.Errorf("Rules[legacy].Name() = %v, want legacy", legacy.Name())
	}
	if legacy.Config["field"] != "authorID" || legacy.Config["strict"] != true {
		t.Errorf("Rules[legacy].Config = %v, want config carried unchanged", legacy.Config)
	}

	bare, ok := graph.Rules["bare"].(*rules.Generic)
	if !ok {
		t.Fatalf("Rules[bare] = %T, want *rules.Generic", graph.Rules["bare"])
	}
	if len(bare.Config) != 0 {
		t.Errorf("Rules[bare].Config = %v, want empty config for empty blob", bare.Config)
	}
}

func TestMaterializer_Materialize_MalformedRuleData(t *testing.T) {
	snapshot := &entities.Snapshot{
		Rules: map[string]*entities.RuleSpec{
			"broken": {Data: entities.RuleData{
				TypeName: "generic",
				RuleData: `{"field": `,
			}},
		},
	}

	graph, err := newTestMaterializer().Materialize(snapshot)
	if err == nil {
		t.Error("Materialize() error = nil, want parse error for malformed rule data")
	}
	if graph != nil {
		t.Error("Materialize() graph != nil on error, want nil (no partial state)")
	}
}

func TestMaterializer_Materialize_Assignments(t *testing.T) {
	snapshot := &entities.Snapshot{
		Assignments: map[string][]string{
			"alice": {"admin"},
			"bob":   {"editor", "createPost", "editor"},
		},
	}

	graph, err := newTestMaterializer().Materialize(snapshot)
	if err != nil {
		t.Fatalf("Materialize() error = %v, want nil", err)
	}

	if len(graph.Assignments["alice"]) != 1 {
		t.Errorf("len(Assignments[alice]) = %v, want 1", len(graph.Assignments["alice"]))
	}

	// Duplicates overwrite; the distinct count is what remains.
	if len(graph.Assignments["bob"]) != 2 {
		t.Errorf("len(Assignments[bob]) = %v, want 2", len(graph.Assignments["bob"]))
	}

	assignment := graph.Assignments["bob"]["editor"]
	if assignment == nil {
		t.Fatal("Assignments[bob][editor] = nil, want assignment")
	}
	if assignment.UserID != "bob" || assignment.ItemName != "editor" {
		t.Errorf("Assignments[bob][editor] = %+v, want {bob editor}", assignment)
	}
}

func TestMaterializer_Materialize_NilAndEmptySnapshot(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *entities.Snapshot
	}{
		{name: "nil snapshot", snapshot: nil},
		{name: "empty snapshot", snapshot: entities.EmptySnapshot()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := newTestMaterializer().Materialize(tt.snapshot)
			if err != nil {
				t.Fatalf("Materialize() error = %v, want nil", err)
			}
			if graph.Items == nil || graph.Parents == nil || graph.Rules == nil || graph.Assignments == nil {
				t.Error("Materialize() returned graph with nil structures, want all initialized")
			}
			if len(graph.Items)+len(graph.Parents)+len(graph.Rules)+len(graph.Assignments) != 0 {
				t.Errorf("Materialize() = %+v, want empty graph", graph)
			}
		})
	}
}

// The worked example from the wire contract: admin -> editor plus one
// assignment for alice.
func TestMaterializer_Materialize_Example(t *testing.T) {
	snapshot := &entities.Snapshot{
		Items: map[string]*entities.ItemSpec{
			"admin":  {Type: "role", Children: []string{"editor"}},
			"editor": {Type: "role"},
		},
		Rules: map[string]*entities.RuleSpec{},
		Assignments: map[string][]string{
			"alice": {"editor"},
		},
	}

	graph, err := newTestMaterializer().Materialize(snapshot)
	if err != nil {
		t.Fatalf("Materialize() error = %v, want nil", err)
	}

	if len(graph.Items) != 2 {
		t.Errorf("len(Items) = %v, want 2", len(graph.Items))
	}
	if graph.Parents["editor"]["admin"] != graph.Items["admin"] {
		t.Error("Parents[editor][admin] != Items[admin]")
	}
	if graph.Assignments["alice"]["editor"].UserID != "alice" {
		t.Errorf("Assignments[alice][editor].UserID = %v, want alice", graph.Assignments["alice"]["editor"].UserID)
	}
}
