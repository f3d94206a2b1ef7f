package sitecore

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-sitecore/pkg/pagetree"
	"github.com/goliatone/go-sitecore/pkg/resolver"
	"github.com/goliatone/go-sitecore/pkg/testsupport"
	"github.com/goliatone/go-sitecore/pkg/transport"
)

func newSession(t *testing.T, options ...Option) (*Session, *testsupport.StaticTransport) {
	t.Helper()
	tr := testsupport.SiteTransport()
	s, err := New(testsupport.SiteManifest(t), append([]Option{WithTransport(tr)}, options...)...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, tr
}

func TestLoadResolvesBlockData(t *testing.T) {
	s, tr := newSession(t)
	ctx := testsupport.Context()

	view, err := s.Load(ctx, "/fr/documentation/intro")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if view.Route != "docs/intro" || view.Locale != "fr" || view.SessionID != s.ID() {
		t.Fatalf("unexpected view header %+v", view)
	}
	if len(view.Blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(view.Blocks))
	}
	data := view.Blocks[0].Data
	if _, ok := data["nav"]; !ok {
		t.Fatalf("expected nav from the docs container, got %v", data)
	}
	if _, ok := data["authors"]; !ok {
		t.Fatalf("expected authors from site defaults, got %v", data)
	}

	res := s.Resolve(view.Page, view.Page.Blocks[0])
	if res.Status != resolver.StatusReady {
		t.Fatalf("expected ready after load, got %s", res.Status)
	}

	if _, err := s.Load(ctx, "/"); err != nil {
		t.Fatalf("load home: %v", err)
	}
	if tr.Calls("/data/authors.json") != 1 || tr.Calls("/data/nav.yaml") != 1 {
		t.Fatalf("expected one fetch per source, got authors=%d nav=%d",
			tr.Calls("/data/authors.json"), tr.Calls("/data/nav.yaml"))
	}
}

func TestResolveBeforeFetchIsPending(t *testing.T) {
	s, tr := newSession(t)

	page, ok := s.Page("/docs/intro")
	if !ok {
		t.Fatalf("expected page")
	}
	res := s.Resolve(page, page.Blocks[0])
	if res.Status != resolver.StatusPending {
		t.Fatalf("expected pending, got %s", res.Status)
	}
	if res := s.Resolve(page); res.Status != resolver.StatusNone {
		t.Fatalf("expected none without a node, got %s", res.Status)
	}
	if tr.Total() != 0 {
		t.Fatalf("resolve must not fetch, got %d calls", tr.Total())
	}
}

func TestLoadDynamicPageUsesDetailRequest(t *testing.T) {
	s, tr := newSession(t)

	view, err := s.Load(testsupport.Context(), "/fr/journal/hello-world")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if view.Page.Route != "blog/hello-world" || view.Params["slug"] != "hello-world" {
		t.Fatalf("unexpected match %q %v", view.Page.Route, view.Params)
	}

	article := view.Blocks[0]
	post, ok := article.Data["post"].(map[string]any)
	if !ok || post["body"] != "<p>Hi</p>" {
		t.Fatalf("expected detail record under post, got %v", article.Data)
	}
	if _, ok := article.Blocks[0].Data["authors"]; !ok {
		t.Fatalf("expected byline authors, got %v", article.Blocks[0].Data)
	}
	if tr.Calls("https://api.example.com/posts") != 0 {
		t.Fatalf("collection must not be fetched when a detail request applies")
	}
	if tr.Calls("https://api.example.com/posts/hello-world") != 1 {
		t.Fatalf("expected one detail fetch")
	}
}

func TestDynamicPageUsesCachedCollection(t *testing.T) {
	s, tr := newSession(t)
	ctx := testsupport.Context()

	if _, err := s.Load(ctx, "/blog"); err != nil {
		t.Fatalf("load blog: %v", err)
	}
	view, err := s.Load(ctx, "/blog/second")
	if err != nil {
		t.Fatalf("load post: %v", err)
	}
	post, ok := view.Blocks[0].Data["post"].(map[string]any)
	if !ok || post["title"] != "Second" {
		t.Fatalf("expected item derived from the cached collection, got %v", view.Blocks[0].Data)
	}
	if tr.Calls("https://api.example.com/posts/second") != 0 {
		t.Fatalf("detail request must not be issued when the collection is cached")
	}
	if view.Page.Dynamic.Item == nil || view.Page.Title != "Second" {
		t.Fatalf("expected materialized page to default from the cached item, got title=%q item=%v",
			view.Page.Title, view.Page.Dynamic.Item)
	}
	if len(view.Page.Dynamic.Items) != 2 {
		t.Fatalf("expected the cached collection on the dynamic context, got %d items", len(view.Page.Dynamic.Items))
	}
}

func TestLoadUnknownPath(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.Load(testsupport.Context(), "/nowhere")
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestConcurrentLoadsShareFetches(t *testing.T) {
	s, tr := newSession(t)
	ctx := testsupport.Context()

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Load(ctx, "/docs/intro"); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()

	if tr.Total() != 2 {
		t.Fatalf("expected two transport calls, got %d", tr.Total())
	}
}

func TestSessionsShareCache(t *testing.T) {
	first, tr := newSession(t)
	if _, err := first.Load(testsupport.Context(), "/docs/intro"); err != nil {
		t.Fatalf("load: %v", err)
	}

	second, err := New(testsupport.SiteManifest(t), WithCache(first.Cache()), WithTransport(testsupport.SiteTransport()))
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if second.ID() == first.ID() {
		t.Fatalf("sessions must have distinct ids")
	}
	page, _ := second.Page("/docs/intro")
	if res := second.Resolve(page, page.Blocks[0]); res.Status != resolver.StatusReady {
		t.Fatalf("expected shared cache to be ready, got %s", res.Status)
	}
	if tr.Total() != 2 {
		t.Fatalf("expected no extra fetches, got %d", tr.Total())
	}
}

func TestLoadWithoutTransportFails(t *testing.T) {
	s, err := New(testsupport.SiteManifest(t))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := s.Load(testsupport.Context(), "/docs/intro"); err == nil {
		t.Fatalf("expected configuration error without a transport")
	}
}

func TestNavigationUsesPlannerHrefs(t *testing.T) {
	s, _ := newSession(t)

	items, err := s.Navigation(pagetree.HierarchyOptions{NavType: "footer", Locale: "fr"})
	if err != nil {
		t.Fatalf("navigation: %v", err)
	}
	hrefs := make([]string, len(items))
	for i, item := range items {
		hrefs[i] = item.Href
	}
	want := []string{"/fr", "/fr/journal", "/fr/documentation", "/fr/documentation/intro", "/fr/documentation/v1/intro"}
	if diff := cmp.Diff(want, hrefs); diff != "" {
		t.Fatalf("hrefs mismatch (-want +got):\n%s", diff)
	}

	if got := s.Href("page:about-us", "fr"); got != "/fr/a-propos" {
		t.Fatalf("unexpected href %q", got)
	}
}

func TestRegistererReceivesCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, _ := newSession(t, WithRegisterer(reg))
	if _, err := s.Load(testsupport.Context(), "/docs/intro"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if n, err := testutil.GatherAndCount(reg, "sitecore_fetchcache_transport_calls_total"); err != nil || n != 1 {
		t.Fatalf("expected transport call metric, got %d %v", n, err)
	}
}

func TestOpenExample(t *testing.T) {
	s, err := OpenExample()
	if err != nil {
		t.Fatalf("open example: %v", err)
	}
	view, err := s.Load(testsupport.Context(), "/es/bitacora/routing-notes")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	post, ok := view.Blocks[0].Data["post"].(map[string]any)
	if !ok || post["author"] != "grace" {
		t.Fatalf("expected detail record from the embedded site, got %v", view.Blocks[0].Data)
	}
	if view.Page.Title != "" {
		t.Fatalf("expected no title default before the listing is loaded, got %q", view.Page.Title)
	}

	home, err := s.Load(testsupport.Context(), "/")
	if err != nil {
		t.Fatalf("load home: %v", err)
	}
	latest, ok := home.Blocks[1].Data["posts"].([]any)
	if !ok || len(latest) != 2 {
		t.Fatalf("expected two latest posts, got %v", home.Blocks[1].Data["posts"])
	}
}

func TestExampleDynamicPageDefaultsFromLoadedListing(t *testing.T) {
	s, err := OpenExample()
	if err != nil {
		t.Fatalf("open example: %v", err)
	}
	ctx := testsupport.Context()
	if _, err := s.Load(ctx, "/blog"); err != nil {
		t.Fatalf("load blog: %v", err)
	}
	view, err := s.Load(ctx, "/blog/hello-world")
	if err != nil {
		t.Fatalf("load post: %v", err)
	}
	dyn := view.Page.Dynamic
	if dyn == nil || dyn.Item == nil {
		t.Fatalf("expected matched item, got %+v", dyn)
	}
	if len(dyn.Items) != 3 {
		t.Fatalf("expected the listing collection, got %d items", len(dyn.Items))
	}
	if view.Page.Title != "Hello World" || view.Page.Description != "The first post." {
		t.Fatalf("unexpected defaults title=%q description=%q", view.Page.Title, view.Page.Description)
	}
}

func TestExampleSiteFromDisk(t *testing.T) {
	m := testsupport.LoadManifest(t, "examples/site/site.yaml")
	s, err := New(m, WithTransport(NewTransport(transport.WithRoot("examples/site"), transport.WithoutHTTP())))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	view, err := s.Load(testsupport.Context(), "/es/documentos")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if view.Route != "docs" || view.Locale != "es" {
		t.Fatalf("unexpected view header %+v", view)
	}
	if _, ok := view.Blocks[0].Data["nav"]; !ok {
		t.Fatalf("expected nav read from disk, got %v", view.Blocks[0].Data)
	}
}
