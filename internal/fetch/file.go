package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// File reads path from disk.
func File(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("fetch: file path is required")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}
