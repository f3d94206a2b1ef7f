// Package routing resolves incoming paths to canonical pages.
//
// A path may carry a locale prefix, locale-specific display segments, a
// version segment, or values for a parameterized template route. The Planner
// strips and translates those back to the canonical route, then matches
// exact routes, index navigation routes and finally templates. Pages matched
// through a template are materialized once per concrete route and cached.
//
// The Planner also runs the opposite direction: canonical routes are turned
// into display hrefs for a locale, version switches rewrite the version
// segment within a scope, and internal `page:<id>` references resolve
// through a page-id index.
package routing
