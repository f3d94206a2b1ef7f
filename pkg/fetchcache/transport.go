package fetchcache

import (
	"context"

	"github.com/goliatone/go-sitecore/pkg/datasource"
)

// Result is the settled outcome of a fetch. Transport failures are reported
// through Err; they are never returned as the Go error of Cache.Fetch. Any
// non-empty Data is cached, whether or not Err is set.
type Result struct {
	Data any
	Err  error
}

// Transport performs the I/O for one declaration.
type Transport interface {
	Fetch(ctx context.Context, decl datasource.Declaration) Result
}

// TransportFunc adapts a function into a Transport.
type TransportFunc func(ctx context.Context, decl datasource.Declaration) Result

// Fetch delegates to the underlying function.
func (fn TransportFunc) Fetch(ctx context.Context, decl datasource.Declaration) Result {
	return fn(ctx, decl)
}
