package sitecore

import (
	"github.com/goliatone/go-sitecore/pkg/transport"
)

// NewTransport constructs the default transport while keeping the concrete
// options in pkg/transport.
func NewTransport(options ...transport.Option) *transport.Transport {
	return transport.New(options...)
}
