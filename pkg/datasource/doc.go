// Package datasource holds the declarations content nodes use to describe the
// data they need: where to fetch it (address), the name it is exposed under
// (schema), an opaque transform, and an optional detail convention for
// deriving single-record requests on dynamic routes.
//
// Declarations are decoded once from the site manifest. Loosely typed inputs
// (a requirement written as a boolean or a list, a detail written as a
// keyword or a template) are converted into closed types at decode time and
// never re-inferred afterwards.
package datasource
