package entities

import (
	"encoding/json"
	"testing"
)

func TestSnapshot_DecodeWireDocument(t *testing.T) {
	doc := `{
		"items": {
			"admin":      {"type": "role", "description": "Administrator", "children": ["editor", "createPost"]},
			"editor":     {"type": "role"},
			"createPost": {"type": "permission", "ruleName": "isAuthor"}
		},
		"rules": {
			"isAuthor": {"data": {"typeName": "authorRule", "ruleData": "{\"field\": \"authorID\"}"}}
		},
		"assignments": {
			"alice": ["admin"],
			"bob":   ["editor", "createPost"]
		}
	}`

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(doc), &snapshot); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}

	if len(snapshot.Items) != 3 {
		t.Errorf("len(Items) = %v, want 3", len(snapshot.Items))
	}

	admin := snapshot.Items["admin"]
	if admin == nil {
		t.Fatal("Items[admin] = nil, want descriptor")
	}
	if admin.Type != "role" {
		t.Errorf("Items[admin].Type = %v, want role", admin.Type)
	}
	if admin.Description != "Administrator" {
		t.Errorf("Items[admin].Description = %v, want Administrator", admin.Description)
	}
	if len(admin.Children) != 2 || admin.Children[0] != "editor" || admin.Children[1] != "createPost" {
		t.Errorf("Items[admin].Children = %v, want [editor createPost]", admin.Children)
	}

	createPost := snapshot.Items["createPost"]
	if createPost == nil {
		t.Fatal("Items[createPost] = nil, want descriptor")
	}
	if createPost.RuleName != "isAuthor" {
		t.Errorf("Items[createPost].RuleName = %v, want isAuthor", createPost.RuleName)
	}
	if createPost.Description != "" {
		t.Errorf("Items[createPost].Description = %v, want empty", createPost.Description)
	}

	rule := snapshot.Rules["isAuthor"]
	if rule == nil {
		t.Fatal("Rules[isAuthor] = nil, want descriptor")
	}
	if rule.Data.TypeName != "authorRule" {
		t.Errorf("Rules[isAuthor].Data.TypeName = %v, want authorRule", rule.Data.TypeName)
	}
	if rule.Data.RuleData != `{"field": "authorID"}` {
		t.Errorf("Rules[isAuthor].Data.RuleData = %v, want JSON blob", rule.Data.RuleData)
	}

	if len(snapshot.Assignments["bob"]) != 2 {
		t.Errorf("len(Assignments[bob]) = %v, want 2", len(snapshot.Assignments["bob"]))
	}
}

func TestEmptySnapshot(t *testing.T) {
	snapshot := EmptySnapshot()

	if snapshot.Items == nil || len(snapshot.Items) != 0 {
		t.Errorf("EmptySnapshot().Items = %v, want empty non-nil map", snapshot.Items)
	}
	if snapshot.Rules == nil || len(snapshot.Rules) != 0 {
		t.Errorf("EmptySnapshot().Rules = %v, want empty non-nil map", snapshot.Rules)
	}
	if snapshot.Assignments == nil || len(snapshot.Assignments) != 0 {
		t.Errorf("EmptySnapshot().Assignments = %v, want empty non-nil map", snapshot.Assignments)
	}
}
