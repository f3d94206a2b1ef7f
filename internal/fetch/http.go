package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBody caps how much of a response is read.
const MaxBody = 32 << 20

// Response is a successful HTTP payload.
type Response struct {
	Body        []byte
	ContentType string
}

// HTTP issues a GET for url and returns the body of a 2xx response.
func HTTP(ctx context.Context, client *http.Client, url, accept string) (Response, error) {
	if client == nil {
		return Response{}, errors.New("fetch: http client is not configured")
	}
	if url == "" {
		return Response{}, errors.New("fetch: url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("fetch: build request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("fetch: get %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("fetch: get %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBody))
	if err != nil {
		return Response{}, fmt.Errorf("fetch: read %s: %w", url, err)
	}
	return Response{Body: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
