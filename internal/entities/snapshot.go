package entities

// Snapshot is the flat wire-format export of the full RBAC policy state
// produced by the authority. It is consumed, never produced, by this client.
type Snapshot struct {
	Items       map[string]*ItemSpec `json:"items"`
	Rules       map[string]*RuleSpec `json:"rules"`
	Assignments map[string][]string  `json:"assignments"`
}

// ItemSpec describes a single role or permission in the snapshot.
// Children lists the names of items directly below this one in the hierarchy.
type ItemSpec struct {
	Type        string   `json:"type"` // "role" or "permission"
	Description string   `json:"description,omitempty"`
	RuleName    string   `json:"ruleName,omitempty"`
	Children    []string `json:"children,omitempty"`
}

// RuleSpec describes a rule in the snapshot.
type RuleSpec struct {
	Data RuleData `json:"data"`
}

// RuleData carries the rule type discriminator and the rule configuration as
// a JSON-encoded string blob. The blob is deserialized during materialization
// before the typed rule variant is constructed.
type RuleData struct {
	TypeName string `json:"typeName"`
	RuleData string `json:"ruleData"`
}

// EmptySnapshot returns a snapshot with all three top-level mappings empty.
// A "not found" response from the authority materializes as this, so the
// in-memory structures reset to an empty-but-valid state rather than staying
// stale.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Items:       map[string]*ItemSpec{},
		Rules:       map[string]*RuleSpec{},
		Assignments: map[string][]string{},
	}
}
