package navigation

import (
	"github.com/lixenwraith/gridnav/gridmap"
)

// RangeCache memoizes the last movement range until its inputs or the map change
type RangeCache struct {
	Field *RangeField

	// PendingUpdate latches true on MarkDirty, cleared after compute
	// Needed when a moveability predicate changes without any cell mutation
	PendingUpdate bool

	// Computes counts recomputations, for diagnostics
	Computes int

	stepCost float64
	diagonal gridmap.DiagonalPolicy
}

// NewRangeCache creates an empty cache
func NewRangeCache() *RangeCache {
	return &RangeCache{PendingUpdate: true}
}

// Get returns a field for origin and budget, recomputing only when needed
func (c *RangeCache) Get(m *gridmap.Map, origin gridmap.Point, budget float64, opts Options) *RangeField {
	if c.Field != nil && !c.PendingUpdate &&
		c.Field.Origin == origin && c.Field.Budget == budget &&
		c.stepCost == opts.StepCost && c.diagonal == opts.Diagonal &&
		!c.Field.Stale(m) {
		return c.Field
	}

	c.Field = ComputeRange(m, origin, budget, opts)
	c.stepCost = opts.StepCost
	c.diagonal = opts.Diagonal
	c.PendingUpdate = false
	c.Computes++
	return c.Field
}

// MarkDirty forces recomputation on the next Get
func (c *RangeCache) MarkDirty() {
	c.PendingUpdate = true
}

// Invalidate drops the cached field
func (c *RangeCache) Invalidate() {
	c.Field = nil
	c.PendingUpdate = true
}
