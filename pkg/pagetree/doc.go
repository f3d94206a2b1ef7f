// Package pagetree builds the parent/child page hierarchy from the declared
// page structure and exposes filtered projections of it for navigation.
//
// Pages are stored in an arena indexed by canonical route. Parent links come
// from each page's declared parent route, never from route prefixes, so the
// tree shape is exactly what the site declares.
package pagetree
