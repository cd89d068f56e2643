package gridmap

import (
	"math"

	"github.com/lixenwraith/gridnav/astar"
)

// DiagonalPolicy selects which diagonal moves a search may take
type DiagonalPolicy uint8

const (
	// DiagonalNoCornerCut allows diagonals unless both flanking orthogonal cells are blocked
	DiagonalNoCornerCut DiagonalPolicy = iota
	// DiagonalAlways allows diagonals even when squeezed between two blocked cells
	DiagonalAlways
	// DiagonalNone restricts movement to the four orthogonal directions
	DiagonalNone
)

// CornerPolicy maps the map-level ignoreCorners flag to a diagonal policy
func CornerPolicy(ignoreCorners bool) DiagonalPolicy {
	if ignoreCorners {
		return DiagonalAlways
	}
	return DiagonalNoCornerCut
}

// Neighbor offsets: orthogonal first, then diagonal
// The fixed order keeps discovery sequence, and therefore tie-breaking, reproducible
var neighborOffsets = [8]Point{
	{1, 0}, {0, 1}, {-1, 0}, {0, -1},
	{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
}

// PathFinder adapts a Map to the generic A* engine
// It is a small value holding no search state; every search starts fresh
type PathFinder struct {
	grid     *Map
	stepCost float64
	diagonal DiagonalPolicy
	canMove  MoveFunc
}

// NewPathFinder binds a search configuration to a map
// The map's moveability predicate is used until WithMoveability overrides it
// Panics if stepCost is not positive
func NewPathFinder(grid *Map, stepCost float64, diagonal DiagonalPolicy) *PathFinder {
	if !(stepCost > 0) {
		panic("gridmap: step cost must be positive")
	}
	return &PathFinder{
		grid:     grid,
		stepCost: stepCost,
		diagonal: diagonal,
		canMove:  grid.canMove,
	}
}

// WithMoveability returns a copy of the finder that consults fn instead of the map's predicate
// A nil fn treats every cell as moveable
func (pf *PathFinder) WithMoveability(fn MoveFunc) *PathFinder {
	c := *pf
	c.canMove = fn
	return &c
}

func (pf *PathFinder) StepCost() float64        { return pf.stepCost }
func (pf *PathFinder) Diagonal() DiagonalPolicy { return pf.diagonal }

// Walkable applies the finder's passability rule to (x, y)
func (pf *PathFinder) Walkable(x, y int) bool {
	return walkable(pf.grid, pf.canMove, x, y)
}

// Neighbors implements astar.Graph
func (pf *PathFinder) Neighbors(p Point) []astar.Neighbor[Point] {
	count := 8
	if pf.diagonal == DiagonalNone {
		count = 4
	}
	out := make([]astar.Neighbor[Point], 0, count)
	diagonalCost := pf.stepCost * math.Sqrt2

	for i := 0; i < count; i++ {
		d := neighborOffsets[i]
		nx, ny := p.X+d.X, p.Y+d.Y
		if !pf.Walkable(nx, ny) {
			continue
		}
		if d.X == 0 || d.Y == 0 {
			out = append(out, astar.Neighbor[Point]{ID: Point{nx, ny}, Cost: pf.stepCost})
			continue
		}
		// Corner cutting prevention: both flanking cells blocked closes the diagonal
		if pf.diagonal == DiagonalNoCornerCut && !pf.Walkable(p.X+d.X, p.Y) && !pf.Walkable(p.X, p.Y+d.Y) {
			continue
		}
		out = append(out, astar.Neighbor[Point]{ID: Point{nx, ny}, Cost: diagonalCost})
	}
	return out
}

// Heuristic estimates the remaining cost: octile distance with diagonals, Manhattan without
func (pf *PathFinder) Heuristic(from, to Point) float64 {
	dx := abs(from.X - to.X)
	dy := abs(from.Y - to.Y)
	if pf.diagonal == DiagonalNone {
		return float64(dx+dy) * pf.stepCost
	}
	lo, hi := min(dx, dy), max(dx, dy)
	return (float64(hi-lo) + float64(lo)*math.Sqrt2) * pf.stepCost
}

// Search runs A* between two cells
// Unavailable or blocked endpoints produce a not-found result
func (pf *PathFinder) Search(from, to Point) astar.Result[Point] {
	if !pf.Walkable(from.X, from.Y) || !pf.Walkable(to.X, to.Y) {
		return astar.Result[Point]{}
	}
	return astar.Search[Point](pf, from, to, pf.Heuristic)
}

// FindPath returns the cells from start to goal inclusive, nil if unreachable
func (pf *PathFinder) FindPath(from, to Point) []Point {
	return pf.Search(from, to).Path
}

// Stepper prepares a step-wise search, false if either endpoint is not walkable
func (pf *PathFinder) Stepper(from, to Point) (*astar.Stepper[Point], bool) {
	if !pf.Walkable(from.X, from.Y) || !pf.Walkable(to.X, to.Y) {
		return nil, false
	}
	return astar.NewStepper[Point](pf, from, to, pf.Heuristic), true
}

// PathCost sums the step costs along path under the finder's cost model
// Non-adjacent consecutive cells yield +Inf
func (pf *PathFinder) PathCost(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		dx := abs(path[i].X - path[i-1].X)
		dy := abs(path[i].Y - path[i-1].Y)
		switch {
		case dx+dy == 1:
			total += pf.stepCost
		case dx == 1 && dy == 1 && pf.diagonal != DiagonalNone:
			total += pf.stepCost * math.Sqrt2
		default:
			return math.Inf(1)
		}
	}
	return total
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
