package navigation

import (
	"math"

	"github.com/zyedidia/generic/mapset"

	"github.com/lixenwraith/gridnav/gridmap"
	"github.com/lixenwraith/gridnav/parameter"
)

// rangeEpsilon absorbs float drift when diagonal costs are summed against a budget
const rangeEpsilon = 1e-9

// --- Min-heap for Dijkstra ---

type heapEntry struct {
	idx  int     // Flat grid index (y*width + x)
	dist float64 // Cost from origin
	seq  uint64  // Push order, breaks distance ties deterministically
}

type minHeap []heapEntry

func (a heapEntry) less(b heapEntry) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.seq < b.seq
}

func (h *minHeap) push(e heapEntry) {
	*h = append(*h, e)
	// Sift up
	i := len(*h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !(*h)[i].less((*h)[parent]) {
			break
		}
		(*h)[parent], (*h)[i] = (*h)[i], (*h)[parent]
		i = parent
	}
}

func (h *minHeap) pop() heapEntry {
	old := *h
	n := len(old)
	e := old[0]
	old[0] = old[n-1]
	*h = old[:n-1]

	// Sift down
	i := 0
	for {
		left := 2*i + 1
		if left >= len(*h) {
			break
		}
		smallest := left
		if right := left + 1; right < len(*h) && (*h)[right].less((*h)[left]) {
			smallest = right
		}
		if !(*h)[smallest].less((*h)[i]) {
			break
		}
		(*h)[i], (*h)[smallest] = (*h)[smallest], (*h)[i]
		i = smallest
	}
	return e
}

// Options configures a range computation
type Options struct {
	StepCost float64                // Per orthogonal step; <= 0 selects parameter.NavStepCost
	Diagonal gridmap.DiagonalPolicy // Same policies as path search
	CanMove  gridmap.MoveFunc       // Overrides the map's predicate when non-nil
}

// DefaultOptions matches map-level path requests: unit step cost, no corner cutting
func DefaultOptions() Options {
	return Options{StepCost: parameter.NavStepCost, Diagonal: gridmap.DiagonalNoCornerCut}
}

// RangeField stores every cell a unit can reach from Origin within Budget
// Neighbor and cost rules are the ones used by gridmap.PathFinder, so the cost of any cell
// equals the cost of the A* path to it
type RangeField struct {
	Width, Height int
	Origin        gridmap.Point
	Budget        float64
	Revision      uint64 // Map revision the field was computed against

	costs     []float64 // Per-cell cost from origin, +Inf if out of range
	parents   []int     // Flat index of predecessor, -1 for origin and unreached cells
	reachable mapset.Set[gridmap.Point]
}

// ComputeRange runs a budgeted Dijkstra from origin
// An origin that is not walkable yields an empty field
func ComputeRange(m *gridmap.Map, origin gridmap.Point, budget float64, opts Options) *RangeField {
	w, h := m.Cols(), m.Rows()
	size := w * h
	f := &RangeField{
		Width:     w,
		Height:    h,
		Origin:    origin,
		Budget:    budget,
		Revision:  m.Revision(),
		costs:     make([]float64, size),
		parents:   make([]int, size),
		reachable: mapset.New[gridmap.Point](),
	}
	for i := 0; i < size; i++ {
		f.costs[i] = math.Inf(1)
		f.parents[i] = -1
	}

	stepCost := opts.StepCost
	if !(stepCost > 0) {
		stepCost = parameter.NavStepCost
	}
	pf := gridmap.NewPathFinder(m, stepCost, opts.Diagonal)
	if opts.CanMove != nil {
		pf = pf.WithMoveability(opts.CanMove)
	}

	if budget < 0 || !pf.Walkable(origin.X, origin.Y) {
		return f
	}

	originIdx := origin.Y*w + origin.X
	f.costs[originIdx] = 0

	var seq uint64
	heap := make(minHeap, 0, size/4+1)
	heap.push(heapEntry{idx: originIdx, dist: 0, seq: seq})

	for len(heap) > 0 {
		entry := heap.pop()
		if entry.dist > f.costs[entry.idx] {
			continue // Stale entry
		}

		cur := gridmap.Point{X: entry.idx % w, Y: entry.idx / w}
		f.reachable.Put(cur)

		for _, nb := range pf.Neighbors(cur) {
			newDist := entry.dist + nb.Cost
			if newDist > budget+rangeEpsilon {
				continue
			}
			nIdx := nb.ID.Y*w + nb.ID.X
			if newDist < f.costs[nIdx] {
				f.costs[nIdx] = newDist
				f.parents[nIdx] = entry.idx
				seq++
				heap.push(heapEntry{idx: nIdx, dist: newDist, seq: seq})
			}
		}
	}

	return f
}

func (f *RangeField) inBounds(p gridmap.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < f.Width && p.Y < f.Height
}

// Contains reports whether p is reachable within the budget
func (f *RangeField) Contains(p gridmap.Point) bool {
	return f.reachable.Has(p)
}

// Size returns the number of reachable cells, origin included
func (f *RangeField) Size() int {
	return f.reachable.Size()
}

// Cost returns the movement cost to p, false if out of range
func (f *RangeField) Cost(p gridmap.Point) (float64, bool) {
	if !f.inBounds(p) || !f.Contains(p) {
		return 0, false
	}
	return f.costs[p.Y*f.Width+p.X], true
}

// Cells returns the reachable cells in row-major order
func (f *RangeField) Cells() []gridmap.Point {
	out := make([]gridmap.Point, 0, f.reachable.Size())
	for i, c := range f.costs {
		if !math.IsInf(c, 1) {
			out = append(out, gridmap.Point{X: i % f.Width, Y: i / f.Width})
		}
	}
	return out
}

// PathTo walks predecessors back from p and returns origin..p, nil if p is out of range
func (f *RangeField) PathTo(p gridmap.Point) []gridmap.Point {
	if !f.inBounds(p) || !f.Contains(p) {
		return nil
	}
	var rev []gridmap.Point
	for idx := p.Y*f.Width + p.X; idx >= 0; idx = f.parents[idx] {
		rev = append(rev, gridmap.Point{X: idx % f.Width, Y: idx / f.Width})
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// Stale reports whether m changed since the field was computed
func (f *RangeField) Stale(m *gridmap.Map) bool {
	return f.Revision != m.Revision() || f.Width != m.Cols() || f.Height != m.Rows()
}

// MarkRange sets mask on every reachable cell
// This mutates cell state and therefore advances the map revision
func MarkRange(m *gridmap.Map, f *RangeField, mask gridmap.CellState) {
	for _, p := range f.Cells() {
		m.AddState(p.X, p.Y, mask)
	}
}

// ClearRange removes mask from every cell of the map
func ClearRange(m *gridmap.Map, mask gridmap.CellState) {
	m.Each(func(p gridmap.Point, c gridmap.Cell) {
		if c.State.Has(mask) {
			m.RemoveState(p.X, p.Y, mask)
		}
	})
}
