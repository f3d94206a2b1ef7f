package prompt

import (
	"context"
	"errors"
	"slices"
)

// ErrNoAnswer is returned by Scripted when it runs out of answers.
var ErrNoAnswer = errors.New("prompt: no scripted answer")

// Scripted replays fixed answers. Select answers are matched against the
// offered options.
type Scripted struct {
	Answers []string
	// Asked records every prompt message in order.
	Asked []string
}

func (s *Scripted) next(message string) (string, error) {
	s.Asked = append(s.Asked, message)
	if len(s.Answers) == 0 {
		return "", ErrNoAnswer
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}

// Input implements Driver.
func (s *Scripted) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer, err := s.next(cfg.Message)
	if err != nil {
		return "", err
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

// Select implements Driver.
func (s *Scripted) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	answer, err := s.next(cfg.Message)
	if err != nil {
		return 0, err
	}
	idx := slices.Index(cfg.Options, answer)
	if idx < 0 {
		return 0, errors.New("prompt: scripted answer " + answer + " is not an option")
	}
	return idx, nil
}
