package resolver

import (
	"maps"

	"github.com/goliatone/go-sitecore/pkg/datasource"
)

// Status is the readiness verdict returned by Resolve.
type Status string

const (
	StatusNone    Status = "none"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
)

// Bag maps schema names to a collection or a single record.
type Bag map[string]any

// Clone returns a shallow copy of the bag.
func (b Bag) Clone() Bag {
	if b == nil {
		return nil
	}
	return maps.Clone(b)
}

// Target is the node being resolved together with its ancestor chain.
type Target struct {
	// Sources are declared on the node itself.
	Sources []datasource.Declaration
	// Ancestors lists the declarations of each container level, nearest first.
	Ancestors [][]datasource.Declaration
	// Dynamic is set when the node renders one item of a parameterized route.
	Dynamic *datasource.DynamicContext
}

// Resolution is the outcome of a cache-only Resolve.
type Resolution struct {
	Status Status
	Data   Bag
}

// request is one discovered declaration plus the detail request that stands
// in for it on dynamic routes.
type request struct {
	decl   datasource.Declaration
	detail *datasource.Declaration
}
