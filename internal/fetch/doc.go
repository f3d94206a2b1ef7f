// Package fetch reads raw payloads from disk, an fs.FS, or HTTP. It backs the
// data transport and the OpenAPI loader.
package fetch
