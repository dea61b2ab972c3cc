package entities

// ItemType distinguishes the two node kinds in the policy graph
type ItemType string

const (
	// ItemTypeRole marks an item as a role (a grouping of permissions and other roles)
	ItemTypeRole ItemType = "role"
	// ItemTypePermission marks an item as an atomic permission
	ItemTypePermission ItemType = "permission"
)

// Item represents a single node in the RBAC policy graph: a role or a permission.
// Name is the sole identity key within a snapshot. The Type is chosen at
// construction time from the snapshot descriptor and never changes afterwards;
// items are rebuilt wholesale on every load, never mutated in place.
type Item struct {
	Type        ItemType
	Name        string
	Description string
	RuleName    string // optional reference to a Rule by name, "" if none
}

// IsRole reports whether the item is a role
func (i *Item) IsRole() bool {
	return i.Type == ItemTypeRole
}

// IsPermission reports whether the item is a permission
func (i *Item) IsPermission() bool {
	return i.Type == ItemTypePermission
}
