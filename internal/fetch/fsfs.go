package fetch

import (
	"context"
	"errors"
	"io/fs"
)

// FS reads name from files.
func FS(ctx context.Context, files fs.FS, name string) ([]byte, error) {
	if name == "" || name == "." {
		return nil, errors.New("fetch: fs path is required")
	}
	if files == nil {
		return nil, errors.New("fetch: fs is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return fs.ReadFile(files, name)
}
