package fetchcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-sitecore/pkg/datasource"
)

var articles = datasource.Declaration{Address: "/api/articles", Schema: "articles"}

// gatedTransport blocks every call until release is closed.
type gatedTransport struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	result  Result
}

func newGatedTransport(result Result) *gatedTransport {
	return &gatedTransport{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
		result:  result,
	}
}

func (g *gatedTransport) Fetch(ctx context.Context, decl datasource.Declaration) Result {
	g.calls.Add(1)
	g.started <- struct{}{}
	<-g.release
	return g.result
}

func waitStarted(t *testing.T, g *gatedTransport) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("transport was not invoked")
	}
}

func TestFetchWithoutTransport(t *testing.T) {
	cache := New()
	if _, err := cache.Fetch(context.Background(), articles); !errors.Is(err, ErrNoTransport) {
		t.Fatalf("expected ErrNoTransport, got %v", err)
	}
}

func TestRegisterOnce(t *testing.T) {
	cache := New()
	noop := TransportFunc(func(context.Context, datasource.Declaration) Result { return Result{} })
	if err := cache.Register(noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := cache.Register(noop); !errors.Is(err, ErrTransportRegistered) {
		t.Fatalf("expected ErrTransportRegistered, got %v", err)
	}
}

func TestConcurrentFetchesShareOneTransportCall(t *testing.T) {
	data := []any{map[string]any{"slug": "hello"}}
	transport := newGatedTransport(Result{Data: data})
	cache := New(WithTransport(transport))

	const callers = 12
	results := make([]Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := cache.Fetch(context.Background(), articles)
			if err != nil {
				t.Errorf("fetch %d: %v", i, err)
			}
			results[i] = res
		}(i)
	}

	waitStarted(t, transport)
	close(transport.release)
	wg.Wait()

	if got := transport.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one transport call, got %d", got)
	}
	for i, res := range results {
		if diff := cmp.Diff(data, res.Data); diff != "" {
			t.Fatalf("caller %d observed different data (-want +got):\n%s", i, diff)
		}
	}
	if !cache.Has(articles.Signature()) {
		t.Fatalf("expected result to be cached")
	}
	if cache.Pending(articles.Signature()) {
		t.Fatalf("pending entry must be removed after settlement")
	}
}

func TestPendingRegisteredBeforeTransportReturns(t *testing.T) {
	transport := newGatedTransport(Result{Data: "payload"})
	cache := New(WithTransport(transport))

	first := make(chan Result, 1)
	go func() {
		res, _ := cache.Fetch(context.Background(), articles)
		first <- res
	}()
	waitStarted(t, transport)

	if !cache.Pending(articles.Signature()) {
		t.Fatalf("expected pending entry while transport runs")
	}

	second := make(chan Result, 1)
	go func() {
		res, _ := cache.Fetch(context.Background(), articles)
		second <- res
	}()

	close(transport.release)
	a, b := <-first, <-second
	if a.Data != "payload" || b.Data != "payload" {
		t.Fatalf("unexpected results %+v %+v", a, b)
	}
	if got := transport.calls.Load(); got != 1 {
		t.Fatalf("expected one transport call, got %d", got)
	}
}

func TestSignatureIgnoresTransformKeyOrder(t *testing.T) {
	cache := New()
	a := datasource.Declaration{Address: "/a", Schema: "items", Transform: map[string]any{"x": 1, "y": map[string]any{"b": 2, "a": 1}}}
	b := datasource.Declaration{Schema: "items", Transform: map[string]any{"y": map[string]any{"a": 1, "b": 2}, "x": 1}, Address: "/a"}

	cache.Set(a.Signature(), []any{"one"})
	if !cache.Has(b.Signature()) {
		t.Fatalf("expected entry set under one field order to be visible under another")
	}
}

func TestEmptyResultsAreNotCached(t *testing.T) {
	cases := map[string]any{
		"nil":          nil,
		"empty string": "",
		"empty slice":  []any{},
		"empty map":    map[string]any{},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			cache := New(WithTransport(TransportFunc(func(context.Context, datasource.Declaration) Result {
				calls.Add(1)
				return Result{Data: data}
			})))
			res, err := cache.Fetch(context.Background(), articles)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if !IsEmpty(res.Data) {
				t.Fatalf("expected empty data, got %v", res.Data)
			}
			if cache.Has(articles.Signature()) {
				t.Fatalf("empty result must not be cached")
			}
			_, _ = cache.Fetch(context.Background(), articles)
			if calls.Load() != 2 {
				t.Fatalf("expected a second transport call, got %d", calls.Load())
			}
		})
	}
}

func TestTransportErrorIsCarriedInResult(t *testing.T) {
	boom := errors.New("boom")
	cache := New(WithTransport(TransportFunc(func(context.Context, datasource.Declaration) Result {
		return Result{Err: boom}
	})))
	res, err := cache.Fetch(context.Background(), articles)
	if err != nil {
		t.Fatalf("transport errors must not surface as Go errors: %v", err)
	}
	if !errors.Is(res.Err, boom) {
		t.Fatalf("expected boom in result, got %v", res.Err)
	}
	if cache.Has(articles.Signature()) || cache.Pending(articles.Signature()) {
		t.Fatalf("failed fetch must leave no cache or pending entry")
	}
}

func TestPartialResultWithErrorIsCached(t *testing.T) {
	stale := errors.New("served stale copy")
	var calls atomic.Int32
	cache := New(WithTransport(TransportFunc(func(context.Context, datasource.Declaration) Result {
		calls.Add(1)
		return Result{Data: []any{"a"}, Err: stale}
	})))
	res, err := cache.Fetch(context.Background(), articles)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !errors.Is(res.Err, stale) {
		t.Fatalf("expected error carried to the first caller, got %v", res.Err)
	}
	value, ok := cache.Get(articles.Signature())
	if !ok {
		t.Fatalf("expected data to be cached despite the error")
	}
	if diff := cmp.Diff([]any{"a"}, value); diff != "" {
		t.Fatalf("cached value mismatch (-want +got):\n%s", diff)
	}
	res, _ = cache.Fetch(context.Background(), articles)
	if res.Err != nil || calls.Load() != 1 {
		t.Fatalf("expected cached hit without error, got err=%v calls=%d", res.Err, calls.Load())
	}
}

func TestTransportPanicIsCarriedInResult(t *testing.T) {
	cache := New(WithTransport(TransportFunc(func(context.Context, datasource.Declaration) Result {
		panic("kaboom")
	})))
	res, err := cache.Fetch(context.Background(), articles)
	if err != nil || res.Err == nil {
		t.Fatalf("expected panic to be reported in result, got res=%+v err=%v", res, err)
	}
}

func TestClearFlushesAndRejectsLateResults(t *testing.T) {
	transport := newGatedTransport(Result{Data: "late"})
	cache := New(WithTransport(transport))
	cache.Set(datasource.Signature("other"), "value")

	done := make(chan Result, 1)
	go func() {
		res, _ := cache.Fetch(context.Background(), articles)
		done <- res
	}()
	waitStarted(t, transport)

	cache.Clear()
	if cache.Has("other") || cache.Pending(articles.Signature()) || cache.Len() != 0 {
		t.Fatalf("expected clear to flush both tables")
	}

	close(transport.release)
	if res := <-done; res.Data != "late" {
		t.Fatalf("waiter must still receive the late result, got %+v", res)
	}
	if cache.Has(articles.Signature()) {
		t.Fatalf("late result from before the clear must not be cached")
	}
}

func TestAbandonedWaitDoesNotCancelOperation(t *testing.T) {
	transport := newGatedTransport(Result{Data: "kept"})
	cache := New(WithTransport(transport))

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(ctx, articles)
		errs <- err
	}()
	waitStarted(t, transport)
	cancel()
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(transport.release)
	res, err := cache.Fetch(context.Background(), articles)
	if err != nil || res.Data != "kept" {
		t.Fatalf("expected operation to complete for later callers, got %+v %v", res, err)
	}
	if got := transport.calls.Load(); got != 1 {
		t.Fatalf("expected single transport call, got %d", got)
	}
}

func TestMetricsCountHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	cache := New(
		WithMetrics(metrics),
		WithTransport(TransportFunc(func(context.Context, datasource.Declaration) Result {
			return Result{Data: []any{1}}
		})),
	)
	for i := 0; i < 3; i++ {
		if _, err := cache.Fetch(context.Background(), articles); err != nil {
			t.Fatalf("fetch: %v", err)
		}
	}
	if got := testutil.ToFloat64(metrics.misses); got != 1 {
		t.Fatalf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.hits); got != 2 {
		t.Fatalf("hits = %v, want 2", got)
	}

	again := NewMetrics(reg)
	if again.hits != metrics.hits {
		t.Fatalf("expected second registration to reuse existing counters")
	}
}
