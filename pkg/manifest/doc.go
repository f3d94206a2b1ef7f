// Package manifest loads the declared site structure produced by the build
// step: locale and version tables, site-wide data sources, and the page list.
// Manifests are JSON or YAML documents.
package manifest
