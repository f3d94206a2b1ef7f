// Package transport is the default fetch capability. Remote addresses are
// fetched over HTTP, local addresses are read from an fs.FS or from disk.
// Payloads decode as JSON or YAML, and a declaration's transform may narrow
// the decoded value with a JSONPath `select` and a `limit`.
package transport
