package openapi

import "testing"

func TestParseSource(t *testing.T) {
	tests := []struct {
		raw     string
		kind    SourceKind
		wantErr bool
	}{
		{raw: "https://api.example.com/openapi.json", kind: SourceKindURL},
		{raw: "  HTTP://localhost:8080/spec.yaml ", kind: SourceKindURL},
		{raw: "./openapi.yaml", kind: SourceKindFile},
		{raw: "", wantErr: true},
		{raw: "http://%zz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			src, err := ParseSource(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", src)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if src.Kind() != tt.kind {
				t.Fatalf("expected %s, got %s", tt.kind, src.Kind())
			}
		})
	}
}

func TestExtractOptionsDefaults(t *testing.T) {
	opts := NewExtractOptions()
	if !opts.Validate || opts.IgnoreServers || opts.BaseURL != "" {
		t.Fatalf("unexpected defaults %+v", opts)
	}
	opts = NewExtractOptions(WithBaseURL("https://cdn.example.com"), WithoutServers(), WithValidation(false), nil)
	if opts.Validate || !opts.IgnoreServers || opts.BaseURL != "https://cdn.example.com" {
		t.Fatalf("unexpected options %+v", opts)
	}
}
