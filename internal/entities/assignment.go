package entities

// Assignment binds one user to one item (role or permission) by name.
// The (UserID, ItemName) pair is unique within the assignment structure;
// there is no identity beyond the pair itself.
type Assignment struct {
	UserID   string
	ItemName string
}
