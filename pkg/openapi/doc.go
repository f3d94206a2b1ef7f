// Package openapi derives data source declarations from OpenAPI 3 documents.
// Collection endpoints become declarations and sibling item endpoints mark
// them with a REST detail convention. Implementations live under
// internal/openapi; construction helpers are exposed by the root package.
package openapi
