package rules

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/authgraph/authgraph/internal/entities"
)

// CELTypeName is the discriminator of the CEL expression rule variant.
const CELTypeName = "cel"

// CEL evaluates a CEL expression against the checking user, the item the rule
// is attached to, and the caller-supplied parameters.
// Example config: {"expression": "params.authorID == user"}
type CEL struct {
	name       string
	expression string
	program    cel.Program
}

// NewCEL constructs a CEL rule from config["expression"]. The expression is
// compiled once here; a compile failure aborts the snapshot load.
func NewCEL(name string, config map[string]interface{}) (entities.Rule, error) {
	expression, ok := config["expression"].(string)
	if !ok || expression == "" {
		return nil, fmt.Errorf("rule %q: cel rule config requires a string \"expression\"", name)
	}

	env, err := cel.NewEnv(
		// Declare variables that will be available in CEL expressions
		cel.Variable("user", cel.StringType),
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("rule %q: failed to create CEL environment: %w", name, err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("rule %q: failed to compile CEL expression: %w", name, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %q: CEL expression must return boolean, got: %s", name, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("rule %q: failed to create CEL program: %w", name, err)
	}

	return &CEL{
		name:       name,
		expression: expression,
		program:    program,
	}, nil
}

// Name returns the rule name.
func (c *CEL) Name() string {
	return c.name
}

// Expression returns the raw CEL expression the rule was built from.
func (c *CEL) Expression() string {
	return c.expression
}

// Execute evaluates the compiled expression for the given user, item, and params.
func (c *CEL) Execute(ctx context.Context, userID string, item *entities.Item, params map[string]interface{}) (bool, error) {
	if params == nil {
		params = map[string]interface{}{}
	}

	itemVars := map[string]interface{}{}
	if item != nil {
		itemVars = map[string]interface{}{
			"name":        item.Name,
			"type":        string(item.Type),
			"description": item.Description,
			"ruleName":    item.RuleName,
		}
	}

	result, _, err := c.program.Eval(map[string]interface{}{
		"user":   userID,
		"item":   itemVars,
		"params": params,
	})
	if err != nil {
		return false, fmt.Errorf("rule %q: failed to evaluate CEL expression: %w", c.name, err)
	}

	allowed, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q: CEL expression did not evaluate to boolean, got: %T", c.name, result.Value())
	}

	return allowed, nil
}
