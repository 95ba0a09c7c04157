package pipeline

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/feedherald/feedherald/internal/core"
)

// RuleFilter drops candidates matching an expr-lang boolean expression, e.g.
// `title contains "sponsored"` or `len(body) < 80`.
type RuleFilter struct {
	rule    string
	program *vm.Program
}

func NewRuleFilter(rule string) (*RuleFilter, error) {
	if rule == "" {
		return nil, fmt.Errorf("filter rule is required")
	}
	program, err := expr.Compile(rule, expr.Env(ruleEnv(&core.Item{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter rule: %w", err)
	}
	return &RuleFilter{rule: rule, program: program}, nil
}

// Drop reports whether the item matches the rule. A rule evaluation error
// keeps the item and is logged.
func (f *RuleFilter) Drop(ctx context.Context, item *core.Item) bool {
	result, err := expr.Run(f.program, ruleEnv(item))
	if err != nil {
		core.LoggerFromContext(ctx).Warn("filter rule failed, keeping candidate",
			"rule", f.rule, "id", item.Identifier, "error", err)
		return false
	}
	matched, ok := result.(bool)
	if !ok {
		return false
	}
	return matched
}

func ruleEnv(item *core.Item) map[string]interface{} {
	return map[string]interface{}{
		"title":        item.Title,
		"body":         item.Body,
		"source":       item.Source,
		"link":         item.Link,
		"published_at": item.PublishedAt,
	}
}
