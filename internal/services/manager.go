package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/authgraph/authgraph/internal/entities"
	"github.com/authgraph/authgraph/internal/repositories"
	"github.com/authgraph/authgraph/internal/services/rules"
)

// ErrNotImplemented marks facade operations whose behavior must come from a
// backing implementation with real hierarchy traversal. The snapshot manager
// only materializes the graph and answers direct lookups over it.
var ErrNotImplemented = errors.New("authgraph: operation not implemented by the snapshot manager")

// AuthManager is the authorization facade contract over the materialized
// policy graph. SnapshotManager backs the load and lookup subset; the
// traversal and mutation operations are the contract a richer backend fills in.
type AuthManager interface {
	// Load fetches the snapshot from the authority and rebuilds the graph.
	Load(ctx context.Context) error

	// GetAssignment returns the assignment binding a user to an item, or nil.
	GetAssignment(userID, itemName string) *entities.Assignment

	// GetAssignments returns all assignments for a user keyed by item name.
	GetAssignments(userID string) map[string]*entities.Assignment

	// CheckAccess reports whether a user holds a permission, following the
	// item hierarchy and executing attached rules.
	CheckAccess(ctx context.Context, userID, permissionName string, params map[string]interface{}) (bool, error)

	// GetRolesByUser returns the roles assigned to a user, directly or via
	// the hierarchy.
	GetRolesByUser(userID string) ([]*entities.Item, error)

	// GetPermissionsByUser returns the permissions a user holds, directly or
	// via the hierarchy.
	GetPermissionsByUser(userID string) ([]*entities.Item, error)

	// GetChildren returns the items directly below the named item.
	GetChildren(itemName string) ([]*entities.Item, error)

	// Assign binds a user to an item on the authority.
	Assign(ctx context.Context, userID, itemName string) error

	// Revoke removes a user's binding to an item on the authority.
	Revoke(ctx context.Context, userID, itemName string) error
}

// GraphStats summarizes the size of the materialized graph.
type GraphStats struct {
	Items       int
	Rules       int
	Assignments int // total (user, item) pairs
}

// SnapshotManager materializes the policy graph fetched from a snapshot
// source and answers direct lookups over it. It implements AuthManager;
// traversal and mutation operations return ErrNotImplemented.
//
// A load builds the new graph completely in local state and swaps the graph
// pointer under a write lock, so concurrent readers observe either the old
// or the new generation, never a mix, and a failed load leaves the previous
// graph untouched.
type SnapshotManager struct {
	source       repositories.SnapshotSource
	materializer *Materializer

	mu    sync.RWMutex
	graph *Graph
}

// NewSnapshotManager creates a manager over the given source. The registry
// supplies rule constructors during materialization.
func NewSnapshotManager(source repositories.SnapshotSource, registry *rules.Registry) *SnapshotManager {
	return &SnapshotManager{
		source:       source,
		materializer: NewMaterializer(registry),
		graph:        NewGraph(),
	}
}

// Load fetches the snapshot and rebuilds all four structures. When the
// authority reports that no policy data exists yet, the graph is reset to an
// empty, valid state. Any other fetch failure or materialization failure
// returns an error (the cause stays observable through errors.Is) and leaves
// the previous graph in place.
func (m *SnapshotManager) Load(ctx context.Context) error {
	snapshot, err := m.source.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, repositories.ErrSnapshotNotFound) {
			return fmt.Errorf("failed to fetch snapshot: %w", err)
		}
		snapshot = entities.EmptySnapshot()
	}

	graph, err := m.materializer.Materialize(snapshot)
	if err != nil {
		return fmt.Errorf("failed to materialize snapshot: %w", err)
	}

	m.mu.Lock()
	m.graph = graph
	m.mu.Unlock()

	return nil
}

// GetAssignment returns the assignment binding a user to an item, or nil if
// the user does not hold the item.
func (m *SnapshotManager) GetAssignment(userID, itemName string) *entities.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.graph.Assignments[userID][itemName]
}

// GetAssignments returns all assignments for a user keyed by item name. The
// returned map is empty, never nil, when the user has no assignments; callers
// must not modify it.
func (m *SnapshotManager) GetAssignments(userID string) map[string]*entities.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assignments, ok := m.graph.Assignments[userID]
	if !ok {
		return map[string]*entities.Assignment{}
	}
	return assignments
}

// Item returns the item with the given name, or nil.
func (m *SnapshotManager) Item(name string) *entities.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.graph.Items[name]
}

// Rule returns the rule with the given name, or nil.
func (m *SnapshotManager) Rule(name string) entities.Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.graph.Rules[name]
}

// ParentsOf returns the parents of the named item keyed by parent name. The
// returned map is empty, never nil, when the item has no parents; callers
// must not modify it.
func (m *SnapshotManager) ParentsOf(childName string) map[string]*entities.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	parents, ok := m.graph.Parents[childName]
	if !ok {
		return map[string]*entities.Item{}
	}
	return parents
}

// Stats returns the size of the current graph generation.
func (m *SnapshotManager) Stats() GraphStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := GraphStats{
		Items: len(m.graph.Items),
		Rules: len(m.graph.Rules),
	}
	for _, byItem := range m.graph.Assignments {
		stats.Assignments += len(byItem)
	}
	return stats
}

// CheckAccess requires hierarchy traversal and is not implemented by the
// snapshot manager.
func (m *SnapshotManager) CheckAccess(ctx context.Context, userID, permissionName string, params map[string]interface{}) (bool, error) {
	return false, ErrNotImplemented
}

// GetRolesByUser is not implemented by the snapshot manager.
func (m *SnapshotManager) GetRolesByUser(userID string) ([]*entities.Item, error) {
	return nil, ErrNotImplemented
}

// GetPermissionsByUser is not implemented by the snapshot manager.
func (m *SnapshotManager) GetPermissionsByUser(userID string) ([]*entities.Item, error) {
	return nil, ErrNotImplemented
}

// GetChildren is not implemented by the snapshot manager; the graph keeps
// only the inverted (child to parent) hierarchy.
func (m *SnapshotManager) GetChildren(itemName string) ([]*entities.Item, error) {
	return nil, ErrNotImplemented
}

// Assign is not implemented: this client is a read-only materialization of
// the authority's policy state.
func (m *SnapshotManager) Assign(ctx context.Context, userID, itemName string) error {
	return ErrNotImplemented
}

// Revoke is not implemented: this client is a read-only materialization of
// the authority's policy state.
func (m *SnapshotManager) Revoke(ctx context.Context, userID, itemName string) error {
	return ErrNotImplemented
}
