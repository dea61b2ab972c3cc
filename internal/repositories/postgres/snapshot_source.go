package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/authgraph/authgraph/internal/entities"
)

// SnapshotSource reads the policy snapshot from a Postgres mirror of the
// authority's rbac_* tables. It produces the same wire-level Snapshot as the
// HTTP source, so the materializer does not care where a snapshot came from.
type SnapshotSource struct {
	db *sql.DB
}

// NewSnapshotSource creates a Postgres snapshot source over an open connection.
func NewSnapshotSource(db *sql.DB) *SnapshotSource {
	return &SnapshotSource{db: db}
}

// Fetch assembles a snapshot from the rbac_item, rbac_item_child, rbac_rule,
// and rbac_assignment tables. Empty tables yield a valid empty snapshot: the
// schema being present means the authority is provisioned, so this source
// never reports ErrSnapshotNotFound.
func (s *SnapshotSource) Fetch(ctx context.Context) (*entities.Snapshot, error) {
	snapshot := entities.EmptySnapshot()

	if err := s.fetchItems(ctx, snapshot); err != nil {
		return nil, err
	}
	if err := s.fetchChildren(ctx, snapshot); err != nil {
		return nil, err
	}
	if err := s.fetchRules(ctx, snapshot); err != nil {
		return nil, err
	}
	if err := s.fetchAssignments(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (s *SnapshotSource) fetchItems(ctx context.Context, snapshot *entities.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, item_type, description, rule_name
		FROM rbac_item
	`)
	if err != nil {
		return fmt.Errorf("failed to query rbac_item: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, itemType string
		var description, ruleName sql.NullString
		if err := rows.Scan(&name, &itemType, &description, &ruleName); err != nil {
			return fmt.Errorf("failed to scan rbac_item row: %w", err)
		}
		snapshot.Items[name] = &entities.ItemSpec{
			Type:        itemType,
			Description: description.String,
			RuleName:    ruleName.String,
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rbac_item rows: %w", err)
	}
	return nil
}

func (s *SnapshotSource) fetchChildren(ctx context.Context, snapshot *entities.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT parent_name, child_name
		FROM rbac_item_child
		ORDER BY parent_name, child_name
	`)
	if err != nil {
		return fmt.Errorf("failed to query rbac_item_child: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var parentName, childName string
		if err := rows.Scan(&parentName, &childName); err != nil {
			return fmt.Errorf("failed to scan rbac_item_child row: %w", err)
		}
		// Edges whose parent is unknown cannot be expressed in the wire
		// format; the materializer drops dangling child edges the same way.
		parent, ok := snapshot.Items[parentName]
		if !ok {
			continue
		}
		parent.Children = append(parent.Children, childName)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rbac_item_child rows: %w", err)
	}
	return nil
}

func (s *SnapshotSource) fetchRules(ctx context.Context, snapshot *entities.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type_name, data
		FROM rbac_rule
	`)
	if err != nil {
		return fmt.Errorf("failed to query rbac_rule: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, typeName string
		var data sql.NullString
		if err := rows.Scan(&name, &typeName, &data); err != nil {
			return fmt.Errorf("failed to scan rbac_rule row: %w", err)
		}
		snapshot.Rules[name] = &entities.RuleSpec{
			Data: entities.RuleData{
				TypeName: typeName,
				RuleData: data.String,
			},
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rbac_rule rows: %w", err)
	}
	return nil
}

func (s *SnapshotSource) fetchAssignments(ctx context.Context, snapshot *entities.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, item_name
		FROM rbac_assignment
		ORDER BY user_id, created_at
	`)
	if err != nil {
		return fmt.Errorf("failed to query rbac_assignment: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, itemName string
		if err := rows.Scan(&userID, &itemName); err != nil {
			return fmt.Errorf("failed to scan rbac_assignment row: %w", err)
		}
		snapshot.Assignments[userID] = append(snapshot.Assignments[userID], itemName)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rbac_assignment rows: %w", err)
	}
	return nil
}
