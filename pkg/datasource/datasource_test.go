package datasource

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestSingularize(t *testing.T) {
	cases := map[string]string{
		"articles":   "article",
		"categories": "category",
		"boxes":      "box",
		"people":     "person",
		"series":     "series",
		"churches":   "church",
		"addresses":  "address",
		"status":     "status",
		"news":       "news",
		"People":     "Person",
		"post":       "post",
		"":           "",
	}
	for in, want := range cases {
		if got := Singularize(in); got != want {
			t.Fatalf("Singularize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSignatureIgnoresFieldOrderAndDetail(t *testing.T) {
	var a, b Declaration
	if err := json.Unmarshal([]byte(`{"schema":"articles","address":"/api/articles","transform":{"limit":5,"select":"$.items"}}`), &a); err != nil {
		t.Fatalf("unmarshal a: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"transform":{"select":"$.items","limit":5},"detail":"rest","address":"/api/articles","schema":"articles"}`), &b); err != nil {
		t.Fatalf("unmarshal b: %v", err)
	}
	if a.Signature() != b.Signature() {
		t.Fatalf("expected equal signatures, got %q and %q", a.Signature(), b.Signature())
	}
	if b.Detail.Mode != DetailREST {
		t.Fatalf("expected rest detail, got %v", b.Detail.Mode)
	}

	c := a
	c.Schema = "posts"
	if a.Signature() == c.Signature() {
		t.Fatalf("schema must participate in the signature")
	}
}

func TestDeclarationAddressAliases(t *testing.T) {
	var decls []Declaration
	input := `
- path: /data/articles.json
  schema: articles
- url: https://example.com/api/people
  schema: people
  detail: /api/people/{id}.json
`
	if err := yaml.Unmarshal([]byte(input), &decls); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if decls[0].Address != "/data/articles.json" || decls[0].Kind() != AddressLocal {
		t.Fatalf("unexpected local declaration %+v", decls[0])
	}
	if decls[1].Kind() != AddressRemote {
		t.Fatalf("expected remote address, got %v", decls[1].Kind())
	}
	if decls[1].Detail.Mode != DetailTemplate || decls[1].Detail.Template != "/api/people/{id}.json" {
		t.Fatalf("unexpected detail %+v", decls[1].Detail)
	}
}

func TestDetailRequest(t *testing.T) {
	params := map[string]string{"slug": "hello world", "lang": "en"}
	cases := []struct {
		name   string
		decl   Declaration
		param  string
		want   string
		wantOK bool
		schema string
	}{
		{
			name:   "rest",
			decl:   Declaration{Address: "/api/articles", Schema: "articles", Detail: ParseDetail("rest")},
			param:  "slug",
			want:   "/api/articles/hello%20world",
			wantOK: true,
			schema: "article",
		},
		{
			name:   "rest keeps query",
			decl:   Declaration{Address: "/api/articles/?page=1", Schema: "articles", Detail: ParseDetail("rest")},
			param:  "slug",
			want:   "/api/articles/hello%20world?page=1",
			wantOK: true,
			schema: "article",
		},
		{
			name:   "query",
			decl:   Declaration{Address: "/api/articles", Schema: "articles", Detail: ParseDetail("query")},
			param:  "slug",
			want:   "/api/articles?slug=hello+world",
			wantOK: true,
			schema: "article",
		},
		{
			name:   "query appends",
			decl:   Declaration{Address: "/api/articles?lang=en", Schema: "articles", Detail: ParseDetail("query")},
			param:  "slug",
			want:   "/api/articles?lang=en&slug=hello+world",
			wantOK: true,
			schema: "article",
		},
		{
			name:   "template",
			decl:   Declaration{Address: "/api/articles", Schema: "categories", Detail: ParseDetail("/api/{lang}/c/{slug}/{missing}")},
			param:  "slug",
			want:   "/api/en/c/hello%20world/{missing}",
			wantOK: true,
			schema: "category",
		},
		{
			name:  "no detail",
			decl:  Declaration{Address: "/api/articles", Schema: "articles"},
			param: "slug",
		},
		{
			name:  "missing param",
			decl:  Declaration{Address: "/api/articles", Schema: "articles", Detail: ParseDetail("rest")},
			param: "id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DetailRequest(tc.decl, params, tc.param)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if !ok {
				return
			}
			if got.Address != tc.want {
				t.Fatalf("address = %q, want %q", got.Address, tc.want)
			}
			if got.Schema != tc.schema {
				t.Fatalf("schema = %q, want %q", got.Schema, tc.schema)
			}
		})
	}
}

func TestDetailRequestSpecExample(t *testing.T) {
	decl := Declaration{Address: "/api/articles", Schema: "articles", Detail: ParseDetail("rest")}
	got, ok := DetailRequest(decl, map[string]string{"slug": "hello"}, "slug")
	if !ok {
		t.Fatalf("expected detail request")
	}
	want := Declaration{Address: "/api/articles/hello", Schema: "article"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("detail request mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRequirement(t *testing.T) {
	cases := []struct {
		input string
		kind  RequirementKind
		names []string
	}{
		{input: `true`, kind: RequireAll},
		{input: `false`, kind: RequireNone},
		{input: `null`, kind: RequireNone},
		{input: `"articles"`, kind: RequireSpecific, names: []string{"articles"}},
		{input: `["articles", "people", "articles", " "]`, kind: RequireSpecific, names: []string{"articles", "people"}},
		{input: `[]`, kind: RequireNone},
	}
	for _, tc := range cases {
		var req Requirement
		if err := json.Unmarshal([]byte(tc.input), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.input, err)
		}
		if req.Kind() != tc.kind {
			t.Fatalf("%s: kind = %v, want %v", tc.input, req.Kind(), tc.kind)
		}
		if diff := cmp.Diff(tc.names, req.Schemas()); diff != "" {
			t.Fatalf("%s: schemas mismatch (-want +got):\n%s", tc.input, diff)
		}
	}

	var bad Requirement
	if err := json.Unmarshal([]byte(`[1, 2]`), &bad); err == nil {
		t.Fatalf("expected error for non-string list")
	}
}

func TestRequirementYAMLRoundTrip(t *testing.T) {
	req := Specific("articles", "people")
	out, err := yaml.Marshal(struct {
		Data Requirement `yaml:"data"`
	}{Data: req})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Data Requirement `yaml:"data"`
	}
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Data.Wants("people") || decoded.Data.Wants("tags") {
		t.Fatalf("unexpected decoded requirement %s", decoded.Data)
	}
}

func TestFindItem(t *testing.T) {
	collection := []any{
		map[string]any{"id": float64(1), "slug": "first"},
		map[string]any{"id": float64(2), "slug": "second"},
		"not a record",
	}
	item, ok := FindItem(collection, "id", "2")
	if !ok || item["slug"] != "second" {
		t.Fatalf("expected second item, got %v (%v)", item, ok)
	}
	if _, ok := FindItem(collection, "slug", "missing"); ok {
		t.Fatalf("expected no match")
	}
	if _, ok := FindItem(map[string]any{"slug": "first"}, "slug", "first"); ok {
		t.Fatalf("non-collections never match")
	}
}

func TestDynamicContextCloneIsIndependent(t *testing.T) {
	original := &DynamicContext{
		Params: map[string]string{"slug": "a"},
		Item:   map[string]any{"tags": []any{"x"}},
	}
	clone := original.Clone()
	clone.Params["slug"] = "b"
	clone.Item["tags"].([]any)[0] = "y"
	if original.Params["slug"] != "a" || original.Item["tags"].([]any)[0] != "x" {
		t.Fatalf("clone shares state with original: %+v", original)
	}
}
