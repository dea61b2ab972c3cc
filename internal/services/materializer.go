package services

import (
	"encoding/json"
	"fmt"

	"github.com/authgraph/authgraph/internal/entities"
	"github.com/authgraph/authgraph/internal/services/rules"
)

// Graph holds the four cross-referenced structures produced by materializing
// a snapshot. A load replaces the whole graph at once; the previous
// generation is discarded wholesale, there is no incremental diffing.
type Graph struct {
	// Items maps item name to the canonical Item instance.
	Items map[string]*entities.Item

	// Parents is the inverted hierarchy: child name -> parent name -> parent
	// Item. The parent values are the same instances held in Items, not
	// copies.
	Parents map[string]map[string]*entities.Item

	// Rules maps rule name to its constructed variant.
	Rules map[string]entities.Rule

	// Assignments maps user ID -> item name -> assignment.
	Assignments map[string]map[string]*entities.Assignment
}

// NewGraph returns an empty graph with all four structures initialized.
func NewGraph() *Graph {
	return &Graph{
		Items:       make(map[string]*entities.Item),
		Parents:     make(map[string]map[string]*entities.Item),
		Rules:       make(map[string]entities.Rule),
		Assignments: make(map[string]map[string]*entities.Assignment),
	}
}

// Materializer transforms a flat snapshot into a Graph.
type Materializer struct {
	registry *rules.Registry
}

// NewMaterializer creates a materializer that constructs rule variants
// through the given registry.
func NewMaterializer(registry *rules.Registry) *Materializer {
	return &Materializer{registry: registry}
}

// Materialize builds the four structures from a snapshot. A nil snapshot is
// treated as empty. The returned graph shares no state with any previous
// generation; on error the graph is nil and nothing is partially committed.
func (m *Materializer) Materialize(snapshot *entities.Snapshot) (*Graph, error) {
	graph := NewGraph()
	if snapshot == nil {
		return graph, nil
	}

	for name, spec := range snapshot.Items {
		item, err := buildItem(name, spec)
		if err != nil {
			return nil, err
		}
		graph.Items[name] = item
	}

	// Hierarchy inversion runs over the already-built items. Edges whose
	// child or parent is unknown are dropped silently: upstream snapshots
	// may be partially consistent and that tolerance is deliberate.
	for parentName, spec := range snapshot.Items {
		if spec == nil || len(spec.Children) == 0 {
			continue
		}
		parent, ok := graph.Items[parentName]
		if !ok {
			continue
		}
		for _, childName := range spec.Children {
			if _, ok := graph.Items[childName]; !ok {
				continue
			}
			if graph.Parents[childName] == nil {
				graph.Parents[childName] = make(map[string]*entities.Item)
			}
			graph.Parents[childName][parentName] = parent
		}
	}

	for name, spec := range snapshot.Rules {
		rule, err := m.buildRule(name, spec)
		if err != nil {
			return nil, err
		}
		graph.Rules[name] = rule
	}

	// Duplicate item names for the same user overwrite the earlier
	// assignment; the pair is the whole identity, so this is idempotent.
	for userID, itemNames := range snapshot.Assignments {
		for _, itemName := range itemNames {
			if graph.Assignments[userID] == nil {
				graph.Assignments[userID] = make(map[string]*entities.Assignment)
			}
			graph.Assignments[userID][itemName] = &entities.Assignment{
				UserID:   userID,
				ItemName: itemName,
			}
		}
	}

	return graph, nil
}

// buildItem constructs an Item with the variant declared by the descriptor.
// The wire contract names exactly two type values; anything else is a load
// failure rather than a silent default.
func buildItem(name string, spec *entities.ItemSpec) (*entities.Item, error) {
	if spec == nil {
		return nil, fmt.Errorf("item %q: descriptor is required", name)
	}

	var itemType entities.ItemType
	switch spec.Type {
	case string(entities.ItemTypeRole):
		itemType = entities.ItemTypeRole
	case string(entities.ItemTypePermission):
		itemType = entities.ItemTypePermission
	default:
		return nil, fmt.Errorf("item %q: unknown item type %q", name, spec.Type)
	}

	return &entities.Item{
		Type:        itemType,
		Name:        name,
		Description: spec.Description,
		RuleName:    spec.RuleName,
	}, nil
}

// buildRule deserializes the embedded config blob and constructs the rule
// variant resolved from the registry. A malformed blob aborts the load.
func (m *Materializer) buildRule(name string, spec *entities.RuleSpec) (entities.Rule, error) {
	if spec == nil {
		return nil, fmt.Errorf("rule %q: descriptor is required", name)
	}

	config := map[string]interface{}{}
	if spec.Data.RuleData != "" {
		if err := json.Unmarshal([]byte(spec.Data.RuleData), &config); err != nil {
			return nil, fmt.Errorf("rule %q: failed to parse rule config: %w", name, err)
		}
	}

	constructor := m.registry.Resolve(spec.Data.TypeName)
	return constructor(name, config)
}
