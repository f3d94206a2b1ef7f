package expr

import (
	"testing"

	"github.com/goliatone/go-sitecore/pkg/visibility"
)

func TestEvaluatorEmptyRuleIsVisible(t *testing.T) {
	t.Parallel()

	ok, err := New().Eval("docs", "  ", visibility.Context{})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected empty rule to be visible")
	}
}

func TestEvaluatorValuesAndExtras(t *testing.T) {
	t.Parallel()

	eval := New()
	cases := []struct {
		rule string
		want bool
	}{
		{rule: "!draft", want: true},
		{rule: `version == "v2"`, want: true},
		{rule: `subject startsWith "docs/"`, want: true},
		{rule: `extras.locale == "fr"`, want: false},
		{rule: `!draft && extras.locale == "en"`, want: true},
	}
	ctx := visibility.Context{
		Values: map[string]any{"draft": false, "version": "v2"},
		Extras: map[string]any{"locale": "en"},
	}
	for _, tc := range cases {
		got, err := eval.Eval("docs/intro", tc.rule, ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q) = %v, want %v", tc.rule, got, tc.want)
		}
	}
}

func TestEvaluatorRejectsNonBoolean(t *testing.T) {
	t.Parallel()

	if _, err := New().Eval("docs", `"yes"`, visibility.Context{}); err == nil {
		t.Fatalf("expected error for non-boolean rule")
	}
}

func TestEvaluatorCompileError(t *testing.T) {
	t.Parallel()

	if _, err := New().Eval("docs", "draft ==", visibility.Context{}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestEvaluatorCheck(t *testing.T) {
	t.Parallel()

	e := New()
	if err := e.Check("  "); err != nil {
		t.Fatalf("expected empty rule to pass, got %v", err)
	}
	if err := e.Check(`subject startsWith "docs/"`); err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}
	if err := e.Check("draft =="); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestEvaluatorFuncAdapter(t *testing.T) {
	t.Parallel()

	var fn visibility.Evaluator = visibility.EvaluatorFunc(func(subject, rule string, _ visibility.Context) (bool, error) {
		return subject == rule, nil
	})
	ok, err := fn.Eval("a", "a", visibility.Context{})
	if err != nil || !ok {
		t.Fatalf("expected adapter to delegate, got %v %v", ok, err)
	}
}
