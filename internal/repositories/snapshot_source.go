package repositories

import (
	"context"
	"errors"

	"github.com/authgraph/authgraph/internal/entities"
)

// ErrSnapshotNotFound indicates that the authority holds no policy data yet.
// This is a normal outcome, distinct from transport failures: callers
// materialize an empty snapshot instead of failing the load.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotSource defines the interface for retrieving the full RBAC policy
// snapshot from the authority.
type SnapshotSource interface {
	// Fetch retrieves the snapshot. It returns ErrSnapshotNotFound when the
	// authority has no policy data yet; any other error is terminal for the
	// load attempt and must propagate to the caller.
	Fetch(ctx context.Context) (*entities.Snapshot, error)
}
