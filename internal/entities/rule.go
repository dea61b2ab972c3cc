package entities

import "context"

// Rule is a named, typed predicate attachable to an item for conditional
// authorization. Concrete variants are produced by the rule registry while a
// snapshot is materialized; like items, rules are rebuilt fresh on every load.
type Rule interface {
	// Name returns the rule name, unique within a snapshot
	Name() string

	// Execute evaluates the rule for a user against an item.
	// params carries request-scoped values supplied by the caller of an
	// access check (e.g. the resource being acted on).
	Execute(ctx context.Context, userID string, item *Item, params map[string]interface{}) (bool, error)
}
