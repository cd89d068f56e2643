package maze

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/gridnav/gridmap"
	"github.com/lixenwraith/gridnav/parameter"
)

// Cell tags written by Apply
const (
	TagStart = "start"
	TagEnd   = "end"
)

var ErrSizeMismatch = errors.New("maze: map dimensions differ from maze")

type Config struct {
	Width, Height int

	// Braiding: 0.0 (Perfect Maze/Tree) to 1.0 (No dead ends/Graph).
	// Higher values add cycles. Constraints (No Plazas/Pillars) take precedence.
	Braiding float64

	// If true, the outer boundary is set to Passage.
	RemoveBorders bool

	StartPos *gridmap.Point // Optional (nil = Automatic)
	EndPos   *gridmap.Point // Optional (nil = Automatic)
	Seed     int64          // Optional (0 = Random)
}

// Result is a generated wall layout, row-major like gridmap cells
type Result struct {
	Width, Height int
	Walls         []bool
	Start, End    gridmap.Point
	Seed          int64 // Seed actually used, for reproduction
}

// IsWall reports whether (x, y) is a wall; out of range counts as wall
func (r Result) IsWall(x, y int) bool {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return true
	}
	return r.Walls[y*r.Width+x]
}

// Layout returns a map layout sized to the maze
func (r Result) Layout(cellWidth, cellHeight float64) gridmap.Layout {
	return gridmap.Layout{Rows: r.Height, Cols: r.Width, CellWidth: cellWidth, CellHeight: cellHeight}
}

// Apply writes the walls into m as obstacle cells and tags the endpoints
// Passage cells lose the obstacle bit; other type bits are preserved
func (r Result) Apply(m *gridmap.Map) error {
	if m.Cols() != r.Width || m.Rows() != r.Height {
		return errors.Wrapf(ErrSizeMismatch, "map %dx%d, maze %dx%d", m.Cols(), m.Rows(), r.Width, r.Height)
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			t := m.Type(x, y)
			if r.Walls[y*r.Width+x] {
				m.SetType(x, y, t.With(gridmap.TypeObstacle))
			} else {
				m.SetType(x, y, t.Without(gridmap.TypeObstacle))
			}
		}
	}
	m.SetTag(r.Start.X, r.Start.Y, TagStart)
	m.SetTag(r.End.X, r.End.Y, TagEnd)
	return nil
}

// Build creates a map sized to the maze and applies it
func (r Result) Build(cellWidth, cellHeight float64) (*gridmap.Map, error) {
	m, err := gridmap.New(r.Layout(cellWidth, cellHeight))
	if err != nil {
		return nil, errors.Wrap(err, "maze: build map")
	}
	if err := r.Apply(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Solve returns the 4-directional route from the maze start to its end on m, nil if isolated
func (r Result) Solve(m *gridmap.Map) []gridmap.Point {
	return gridmap.NewPathFinder(m, parameter.NavStepCost, gridmap.DiagonalNone).FindPath(r.Start, r.End)
}

// carver is the mutable wall grid used during generation
type carver struct {
	rows, cols int
	walls      []bool
}

func (c *carver) in(x, y int) bool      { return x >= 0 && x < c.cols && y >= 0 && y < c.rows }
func (c *carver) wall(x, y int) bool    { return c.walls[y*c.cols+x] }
func (c *carver) open(x, y int)         { c.walls[y*c.cols+x] = false }
func (c *carver) passage(x, y int) bool { return c.in(x, y) && !c.wall(x, y) }

var (
	orthoDirs = []gridmap.Point{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}
	jumpDirs  = []gridmap.Point{{X: 0, Y: -2}, {X: 0, Y: 2}, {X: -2, Y: 0}, {X: 2, Y: 0}}
)

// Generate creates a stochastic topological maze.
func Generate(cfg Config) Result {
	// Round DOWN to the nearest odd size to stay within requested bounds
	rows := ensureOdd(cfg.Height)
	cols := ensureOdd(cfg.Width)

	c := &carver{rows: rows, cols: cols, walls: make([]bool, rows*cols)}
	for i := range c.walls {
		c.walls[i] = true
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	startDefX, startDefY := 1, 1
	endDefX, endDefY := cols-2, rows-2
	if cfg.RemoveBorders {
		// Jailbreak: start center, end on the right edge
		startDefX, startDefY = (cols/2)|1, (rows/2)|1
		endDefX, endDefY = cols-1, (rows/2)|1
	}

	start := resolvePoint(rows, cols, cfg.StartPos, startDefX, startDefY)
	end := resolvePoint(rows, cols, cfg.EndPos, endDefX, endDefY)

	// Uniform spanning tree over odd cells
	c.recursiveBacktracker(start, rng)

	// Strip before braiding so edge rooms count their external connections
	if cfg.RemoveBorders {
		c.stripBorders()
	}

	if cfg.Braiding > 0 {
		c.applySmartBraiding(cfg.Braiding, rng)
	}

	if cfg.RemoveBorders {
		c.open(start.X, start.Y)
		c.open(end.X, end.Y)
	} else {
		c.forceOpen(start)
		c.forceOpen(end)
	}

	return Result{
		Width:  cols,
		Height: rows,
		Walls:  c.walls,
		Start:  start,
		End:    end,
		Seed:   seed,
	}
}

// --- Core Algorithms ---

func (c *carver) recursiveBacktracker(start gridmap.Point, rng *rand.Rand) {
	if !c.in(start.X, start.Y) {
		start = gridmap.Point{X: 1, Y: 1}
	}

	stack := []gridmap.Point{start}
	c.open(start.X, start.Y)

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		candidates := make([]gridmap.Point, 0, 4)

		for _, d := range jumpDirs {
			nx, ny := curr.X+d.X, curr.Y+d.Y
			// Leave a one-cell wall border
			if nx > 0 && nx < c.cols-1 && ny > 0 && ny < c.rows-1 && c.wall(nx, ny) {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		d := candidates[rng.Intn(len(candidates))]
		c.open(curr.X+d.X/2, curr.Y+d.Y/2)
		next := curr.Add(d)
		c.open(next.X, next.Y)
		stack = append(stack, next)
	}
}

// applySmartBraiding opens walls at dead ends to introduce cycles
func (c *carver) applySmartBraiding(probability float64, rng *rand.Rand) {
	for y := 1; y < c.rows-1; y += 2 {
		for x := 1; x < c.cols-1; x += 2 {
			if c.wall(x, y) {
				continue
			}

			exits := 0
			for _, d := range orthoDirs {
				if c.passage(x+d.X, y+d.Y) {
					exits++
				}
			}
			if exits != 1 || rng.Float64() >= probability {
				continue
			}

			candidates := make([]gridmap.Point, 0, 4)
			for _, jd := range jumpDirs {
				nx, ny := x+jd.X, y+jd.Y
				wx, wy := x+jd.X/2, y+jd.Y/2
				if c.passage(nx, ny) && c.in(wx, wy) && c.wall(wx, wy) && c.canSafelyRemoveWall(wx, wy) {
					candidates = append(candidates, gridmap.Point{X: wx, Y: wy})
				}
			}

			if len(candidates) > 0 {
				w := candidates[rng.Intn(len(candidates))]
				c.open(w.X, w.Y)
			}
		}
	}
}

// canSafelyRemoveWall rejects removals that create a 2x2 plaza or an isolated pillar
func (c *carver) canSafelyRemoveWall(x, y int) bool {
	// Plazas: any 2x2 quadrant around (x, y) already open on its other three cells
	quadrants := [4][3]gridmap.Point{
		{{X: -1, Y: -1}, {X: 0, Y: -1}, {X: -1, Y: 0}},
		{{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}},
		{{X: -1, Y: 0}, {X: -1, Y: 1}, {X: 0, Y: 1}},
		{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
	}
	for _, q := range quadrants {
		if c.passage(x+q[0].X, y+q[0].Y) && c.passage(x+q[1].X, y+q[1].Y) && c.passage(x+q[2].X, y+q[2].Y) {
			return false
		}
	}

	// Pillars: an adjacent wall left without any other wall neighbor
	for _, d := range orthoDirs {
		nx, ny := x+d.X, y+d.Y
		if !c.in(nx, ny) || !c.wall(nx, ny) {
			continue
		}
		connections := 0
		for _, d2 := range orthoDirs {
			nnx, nny := nx+d2.X, ny+d2.Y
			if nnx == x && nny == y {
				continue
			}
			if c.in(nnx, nny) && c.wall(nnx, nny) {
				connections++
			}
		}
		if connections == 0 {
			return false
		}
	}

	return true
}

func (c *carver) stripBorders() {
	for x := 0; x < c.cols; x++ {
		c.open(x, 0)
		c.open(x, c.rows-1)
	}
	for y := 0; y < c.rows; y++ {
		c.open(0, y)
		c.open(c.cols-1, y)
	}
}

// forceOpen opens p and, if it has no open neighbor, one interior neighbor
func (c *carver) forceOpen(p gridmap.Point) {
	if !c.in(p.X, p.Y) {
		return
	}
	c.open(p.X, p.Y)

	for _, d := range orthoDirs {
		if c.passage(p.X+d.X, p.Y+d.Y) {
			return
		}
	}
	for _, d := range orthoDirs {
		nx, ny := p.X+d.X, p.Y+d.Y
		if nx > 0 && nx < c.cols-1 && ny > 0 && ny < c.rows-1 {
			c.open(nx, ny)
			return
		}
	}
}

// --- Helpers ---

func ensureOdd(n int) int {
	if n < 3 {
		return 3
	}
	if n%2 == 0 {
		return n - 1
	}
	return n
}

func resolvePoint(h, w int, p *gridmap.Point, defX, defY int) gridmap.Point {
	if p == nil {
		return gridmap.Point{X: defX, Y: defY}
	}
	return gridmap.Point{
		X: max(0, min(p.X, w-1)),
		Y: max(0, min(p.Y, h-1)),
	}
}
