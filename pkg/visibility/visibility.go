// Package visibility decides whether a page appears in a navigation
// projection based on a rule string and the page's attributes.
package visibility

// Evaluator determines whether subject (a canonical route) is visible under
// rule given the supplied context.
type Evaluator interface {
	Eval(subject, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values usually holds the page
// attributes (route, title, hidden, version, ...) while Extras lets callers
// inject arbitrary context such as the active locale or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(subject, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(subject, rule string, ctx Context) (bool, error) {
	return fn(subject, rule, ctx)
}
