package expr

import (
	"fmt"
	"strings"
	"sync"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-sitecore/pkg/visibility"
)

// Evaluator runs visibility rules with github.com/expr-lang/expr.
//
// Values are exposed as top-level variables, Extras under `extras`, and the
// evaluated route as `subject`:
//
//	!draft && version == "v2"
//	subject startsWith "docs/" && extras.locale != "fr"
//
// Compiled programs are cached per rule.
type Evaluator struct {
	programs sync.Map // rule -> *exprvm.Program
}

// New constructs an Evaluator with an empty program cache.
func New() *Evaluator { return &Evaluator{} }

var _ visibility.Evaluator = (*Evaluator)(nil)

// Eval returns true for an empty rule. Rules must evaluate to a boolean.
func (e *Evaluator) Eval(subject, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}

	program, err := e.compile(trimmed)
	if err != nil {
		return false, err
	}

	out, err := exprlang.Run(program, environment(subject, ctx))
	if err != nil {
		return false, fmt.Errorf("visibility: evaluate %q: %w", trimmed, err)
	}
	visible, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("visibility: rule %q returned %T, want bool", trimmed, out)
	}
	return visible, nil
}

// Check compiles rule without running it.
func (e *Evaluator) Check(rule string) error {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil
	}
	_, err := e.compile(trimmed)
	return err
}

func (e *Evaluator) compile(rule string) (*exprvm.Program, error) {
	if cached, ok := e.programs.Load(rule); ok {
		return cached.(*exprvm.Program), nil
	}
	program, err := exprlang.Compile(rule,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("visibility: compile %q: %w", rule, err)
	}
	e.programs.Store(rule, program)
	return program, nil
}

func environment(subject string, ctx visibility.Context) map[string]any {
	env := make(map[string]any, len(ctx.Values)+2)
	for key, value := range ctx.Values {
		env[key] = value
	}
	extras := ctx.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	env["extras"] = extras
	env["subject"] = subject
	return env
}
