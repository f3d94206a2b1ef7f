// Package resolver decides which data sources satisfy a content node's data
// requirement and produces the merged data bag for it.
//
// Sources are discovered along the node's ancestor chain: the node itself,
// then its containers from nearest to farthest, then the site defaults. The
// first declaration found for a schema wins. Resolve answers from the cache
// only; Fetch issues the missing requests through a shared fetchcache.Cache.
package resolver
