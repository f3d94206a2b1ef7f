package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-sitecore/internal/fetch"
	"github.com/goliatone/go-sitecore/pkg/datasource"
	"github.com/goliatone/go-sitecore/pkg/fetchcache"
)

const (
	defaultTimeout = 10 * time.Second
	acceptHeader   = "application/json, application/yaml;q=0.9, */*;q=0.5"
)

// Option customises a Transport.
type Option func(*Transport)

// WithFS serves local addresses from fsys. Leading slashes are ignored.
func WithFS(fsys fs.FS) Option {
	return func(t *Transport) {
		t.fs = fsys
	}
}

// WithRoot serves local addresses from the directory root on disk.
func WithRoot(root string) Option {
	return func(t *Transport) {
		t.root = root
	}
}

// WithHTTPClient injects the client used for remote addresses.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithTimeout bounds each remote request.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		t.timeout = timeout
	}
}

// WithoutHTTP rejects remote addresses.
func WithoutHTTP() Option {
	return func(t *Transport) {
		t.allowHTTP = false
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Transport implements fetchcache.Transport.
type Transport struct {
	fs        fs.FS
	root      string
	client    *http.Client
	allowHTTP bool
	timeout   time.Duration
	logger    *slog.Logger
}

var _ fetchcache.Transport = (*Transport)(nil)

// New constructs a Transport.
func New(options ...Option) *Transport {
	t := &Transport{
		allowHTTP: true,
		timeout:   defaultTimeout,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: t.timeout}
	} else if t.timeout > 0 && t.client.Timeout == 0 {
		clone := *t.client
		clone.Timeout = t.timeout
		t.client = &clone
	}
	return t
}

// Fetch loads, decodes and transforms the payload decl addresses. Failures
// are reported in the result.
func (t *Transport) Fetch(ctx context.Context, decl datasource.Declaration) fetchcache.Result {
	started := time.Now()
	data, contentType, err := t.load(ctx, decl)
	if err != nil {
		t.logger.Debug("fetch failed", slog.String("address", decl.Address), slog.Any("error", err))
		return fetchcache.Result{Err: err}
	}

	value, err := decode(data, decl.Address, contentType)
	if err != nil {
		return fetchcache.Result{Err: err}
	}
	value, err = apply(value, decl.Transform)
	if err != nil {
		return fetchcache.Result{Err: err}
	}

	t.logger.Debug("fetched",
		slog.String("address", decl.Address),
		slog.String("schema", decl.Schema),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return fetchcache.Result{Data: value}
}

func (t *Transport) load(ctx context.Context, decl datasource.Declaration) ([]byte, string, error) {
	address := strings.TrimSpace(decl.Address)
	if address == "" {
		return nil, "", errors.New("transport: address is required")
	}
	if decl.Kind() == datasource.AddressRemote {
		if !t.allowHTTP {
			return nil, "", errors.New("transport: http support disabled")
		}
		resp, err := fetch.HTTP(ctx, t.client, address, acceptHeader)
		if err != nil {
			return nil, "", fmt.Errorf("transport: %w", err)
		}
		return resp.Body, resp.ContentType, nil
	}

	if t.fs != nil {
		name := strings.TrimPrefix(path.Clean("/"+address), "/")
		data, err := fetch.FS(ctx, t.fs, name)
		if err != nil {
			return nil, "", fmt.Errorf("transport: read %s: %w", address, err)
		}
		return data, "", nil
	}

	name := address
	if t.root != "" {
		name = filepath.Join(t.root, filepath.FromSlash(path.Clean("/"+address)))
	}
	data, err := fetch.File(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("transport: read %s: %w", address, err)
	}
	return data, "", nil
}
