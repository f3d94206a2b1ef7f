// Package fetchcache caches resolved data by request signature and collapses
// concurrent requests for the same signature into a single transport call.
//
// The transport that performs the actual I/O is injected once per cache. Every
// caller waiting on a shared operation observes the same Result, and a caller
// that stops waiting never cancels the operation for the others.
package fetchcache
