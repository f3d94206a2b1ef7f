package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/go-cmp/cmp"
)

func TestScriptedReplaysAnswers(t *testing.T) {
	s := &Scripted{Answers: []string{"/blog", "v2"}}
	ctx := context.Background()

	path, err := s.Input(ctx, InputConfig{Message: "Path"})
	if err != nil || path != "/blog" {
		t.Fatalf("input: %q %v", path, err)
	}
	idx, err := s.Select(ctx, SelectConfig{Message: "Version", Options: []string{"v1", "v2"}})
	if err != nil || idx != 1 {
		t.Fatalf("select: %d %v", idx, err)
	}
	if diff := cmp.Diff([]string{"Path", "Version"}, s.Asked); diff != "" {
		t.Fatalf("asked mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.Input(ctx, InputConfig{Message: "More"}); !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("expected ErrNoAnswer, got %v", err)
	}
}

func TestScriptedValidatesAndRejects(t *testing.T) {
	invalid := errors.New("invalid")
	s := &Scripted{Answers: []string{"bad", "v3"}}
	ctx := context.Background()

	_, err := s.Input(ctx, InputConfig{Message: "Path", Validator: func(string) error { return invalid }})
	if !errors.Is(err, invalid) {
		t.Fatalf("expected validator error, got %v", err)
	}
	if _, err := s.Select(ctx, SelectConfig{Message: "Version", Options: []string{"v1"}}); err == nil {
		t.Fatalf("expected error for an answer that is not an option")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Input(cancelled, InputConfig{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	if err := translateSurveyErr(terminal.InterruptErr); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	other := errors.New("boom")
	if err := translateSurveyErr(other); err != other {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestIndexOf(t *testing.T) {
	if got := indexOf([]string{"a", "b"}, "b"); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := indexOf([]string{"a"}, "z"); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
}
