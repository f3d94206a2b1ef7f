package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/goliatone/go-sitecore/pkg/datasource"
)

var (
	// ErrNoTransport is returned when Fetch runs before Register.
	ErrNoTransport = errors.New("fetchcache: no transport registered")
	// ErrTransportRegistered is returned by a second Register call.
	ErrTransportRegistered = errors.New("fetchcache: transport already registered")
)

// Option customises a Cache.
type Option func(*Cache)

// WithTransport registers the transport at construction time.
func WithTransport(transport Transport) Option {
	return func(c *Cache) {
		c.transport = transport
	}
}

// WithLogger sets the structured logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

type pendingOp struct {
	done       chan struct{}
	result     Result
	generation uint64
}

// Cache stores non-empty fetch results keyed by signature and tracks one
// pending operation per signature.
type Cache struct {
	mu         sync.Mutex
	transport  Transport
	entries    map[datasource.Signature]any
	inflight   map[datasource.Signature]*pendingOp
	generation uint64

	logger  *slog.Logger
	metrics *Metrics
}

// New constructs an empty cache.
func New(options ...Option) *Cache {
	c := &Cache{
		entries:  make(map[datasource.Signature]any),
		inflight: make(map[datasource.Signature]*pendingOp),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Register installs the transport. It may be called once; later calls return
// ErrTransportRegistered and leave the original in place.
func (c *Cache) Register(transport Transport) error {
	if transport == nil {
		return errors.New("fetchcache: transport is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		return ErrTransportRegistered
	}
	c.transport = transport
	return nil
}

// Has reports whether sig has a cached value.
func (c *Cache) Has(sig datasource.Signature) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[sig]
	return ok
}

// Get returns the cached value for sig.
func (c *Cache) Get(sig datasource.Signature) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[sig]
	return value, ok
}

// Set stores value under sig. Empty values are ignored.
func (c *Cache) Set(sig datasource.Signature, value any) {
	if IsEmpty(value) {
		return
	}
	c.mu.Lock()
	c.entries[sig] = value
	c.mu.Unlock()
}

// Pending reports whether an operation for sig is in flight.
func (c *Cache) Pending(sig datasource.Signature) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[sig]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear flushes the cached values and the pending table. Operations already
// in flight still deliver their result to the callers waiting on them, but
// the result is not written back into the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	dropped := len(c.inflight)
	c.entries = make(map[datasource.Signature]any)
	c.inflight = make(map[datasource.Signature]*pendingOp)
	c.generation++
	c.mu.Unlock()

	c.metrics.clear()
	c.logger.Debug("fetchcache cleared", slog.Int("detached_pending", dropped))
}

// Fetch returns the cached value for decl, joins the pending operation for the
// same signature, or starts a new one. The returned error is ErrNoTransport or
// the caller's context error; transport failures are reported in Result.Err.
func (c *Cache) Fetch(ctx context.Context, decl datasource.Declaration) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("fetchcache: context is required")
	}
	sig := decl.Signature()

	c.mu.Lock()
	if c.transport == nil {
		c.mu.Unlock()
		return Result{}, ErrNoTransport
	}
	if value, ok := c.entries[sig]; ok {
		c.mu.Unlock()
		c.metrics.hit()
		return Result{Data: value}, nil
	}
	op, joined := c.inflight[sig]
	if !joined {
		// registered before the transport starts so back-to-back callers join it
		op = &pendingOp{done: make(chan struct{}), generation: c.generation}
		c.inflight[sig] = op
		go c.run(context.WithoutCancel(ctx), sig, decl, op, c.transport)
	}
	c.mu.Unlock()

	if joined {
		c.metrics.join()
		c.logger.Debug("fetch joined pending operation", slog.String("schema", decl.Schema), slog.String("address", decl.Address))
	} else {
		c.metrics.miss()
	}

	select {
	case <-op.done:
		return op.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (c *Cache) run(ctx context.Context, sig datasource.Signature, decl datasource.Declaration, op *pendingOp, transport Transport) {
	c.metrics.transportCall()
	c.logger.Debug("fetch started", slog.String("schema", decl.Schema), slog.String("address", decl.Address))

	result := invoke(ctx, transport, decl)
	if result.Err != nil {
		c.metrics.transportError()
		c.logger.Warn("fetch failed",
			slog.String("schema", decl.Schema),
			slog.String("address", decl.Address),
			slog.Any("error", result.Err),
		)
	}

	c.mu.Lock()
	if current, ok := c.inflight[sig]; ok && current == op {
		delete(c.inflight, sig)
	}
	if op.generation == c.generation && !IsEmpty(result.Data) {
		c.entries[sig] = result.Data
	}
	op.result = result
	c.mu.Unlock()

	close(op.done)
}

func invoke(ctx context.Context, transport Transport, decl datasource.Declaration) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Err: fmt.Errorf("fetchcache: transport panic: %v", r)}
		}
	}()
	return transport.Fetch(ctx, decl)
}

// IsEmpty reports whether a fetched value counts as absent: nil, an empty
// string, or an empty slice, array or map.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
