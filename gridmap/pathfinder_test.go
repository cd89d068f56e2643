package gridmap

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/lixenwraith/gridnav/vmath"
)

const costEpsilon = 1e-9

// parseMap builds a map from rows of '.' (open) and '#' (obstacle); row 0 is y=0
func parseMap(t *testing.T, rows ...string) *Map {
	t.Helper()
	m := newTestMap(t, len(rows[0]), len(rows))
	for y, row := range rows {
		for x, ch := range row {
			if ch == '#' {
				m.SetType(x, y, TypeObstacle)
			}
		}
	}
	return m
}

// bruteForceCosts relaxes every edge until nothing changes and returns per-cell minimum costs
func bruteForceCosts(pf *PathFinder, m *Map, from Point) []float64 {
	dist := make([]float64, m.Rows()*m.Cols())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	if !pf.Walkable(from.X, from.Y) {
		return dist
	}
	dist[m.index(from.X, from.Y)] = 0

	for changed := true; changed; {
		changed = false
		for y := 0; y < m.Rows(); y++ {
			for x := 0; x < m.Cols(); x++ {
				d := dist[m.index(x, y)]
				if math.IsInf(d, 1) {
					continue
				}
				for _, nb := range pf.Neighbors(Point{x, y}) {
					ni := m.index(nb.ID.X, nb.ID.Y)
					if d+nb.Cost < dist[ni]-costEpsilon {
						dist[ni] = d + nb.Cost
						changed = true
					}
				}
			}
		}
	}
	return dist
}

// assertValidPath checks endpoints, adjacency under the policy and walkability of every cell
func assertValidPath(t *testing.T, pf *PathFinder, path []Point, from, to Point) {
	t.Helper()
	if len(path) == 0 {
		t.Fatal("Expected a path, got none")
	}
	if path[0] != from || path[len(path)-1] != to {
		t.Fatalf("Expected path %v -> %v, got %v", from, to, path)
	}
	for i, p := range path {
		if !pf.Walkable(p.X, p.Y) {
			t.Errorf("Path cell %v at %d is not walkable", p, i)
		}
		if i == 0 {
			continue
		}
		dx := abs(p.X - path[i-1].X)
		dy := abs(p.Y - path[i-1].Y)
		if dx > 1 || dy > 1 || dx+dy == 0 {
			t.Errorf("Cells %v and %v are not adjacent", path[i-1], p)
		}
		if pf.Diagonal() == DiagonalNone && dx+dy != 1 {
			t.Errorf("Diagonal step %v -> %v under 4-directional policy", path[i-1], p)
		}
	}
}

func TestFindPathSameCell(t *testing.T) {
	m := newTestMap(t, 4, 4)
	p := Point{2, 1}

	path := m.FindPath(p, p, false)
	if !reflect.DeepEqual(path, []Point{p}) {
		t.Errorf("Expected [%v], got %v", p, path)
	}
}

func TestFindPathStraightLine(t *testing.T) {
	m := newTestMap(t, 6, 1)

	path := m.FindPath(Point{0, 0}, Point{5, 0}, false)
	want := []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("Expected %v, got %v", want, path)
	}
}

func TestFindPathCornerCutting(t *testing.T) {
	m := parseMap(t,
		".#.",
		"#..",
		"...",
	)
	from, to := Point{0, 0}, Point{1, 1}

	if path := m.FindPath(from, to, false); len(path) != 0 {
		t.Errorf("Expected no path through blocked corner, got %v", path)
	}

	path := m.FindPath(from, to, true)
	want := []Point{from, to}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("Expected direct diagonal %v with ignoreCorners, got %v", want, path)
	}
}

func TestFindPathSingleFlankAllowsDiagonal(t *testing.T) {
	m := parseMap(t,
		".#.",
		"...",
		"...",
	)

	path := m.FindPath(Point{0, 0}, Point{1, 1}, false)
	want := []Point{{0, 0}, {1, 1}}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("Expected diagonal with one open flank, got %v", path)
	}
}

func TestFindPathRoutesAroundCorner(t *testing.T) {
	m := parseMap(t,
		"...",
		".#.",
		"..#",
		"...",
	)
	// (1,1) and (2,2) block the flanks of the (1,2)-(2,1) diagonal
	pf := NewPathFinder(m, 1, DiagonalNoCornerCut)
	path := pf.FindPath(Point{1, 2}, Point{2, 1})
	assertValidPath(t, pf, path, Point{1, 2}, Point{2, 1})
	for i := 1; i < len(path); i++ {
		if path[i-1] == (Point{1, 2}) && path[i] == (Point{2, 1}) {
			t.Errorf("Expected route around the blocked corner, got %v", path)
		}
	}

	direct := NewPathFinder(m, 1, DiagonalAlways).FindPath(Point{1, 2}, Point{2, 1})
	if len(direct) != 2 {
		t.Errorf("Expected direct diagonal when corners ignored, got %v", direct)
	}
}

func TestFindPathUnreachable(t *testing.T) {
	m := parseMap(t,
		".....",
		".###.",
		".#.#.",
		".###.",
		".....",
	)

	for _, ignore := range []bool{false, true} {
		if path := m.FindPath(Point{0, 0}, Point{2, 2}, ignore); len(path) != 0 {
			t.Errorf("ignoreCorners=%v: expected enclosed goal to be unreachable, got %v", ignore, path)
		}
	}
}

func TestFindPathInvalidEndpoints(t *testing.T) {
	m := parseMap(t,
		"...",
		".#.",
		"...",
	)

	cases := []struct {
		name     string
		from, to Point
	}{
		{"start out of range", Point{-1, 0}, Point{2, 2}},
		{"goal out of range", Point{0, 0}, Point{3, 0}},
		{"start obstacle", Point{1, 1}, Point{0, 0}},
		{"goal obstacle", Point{0, 0}, Point{1, 1}},
		{"same invalid cell", Point{5, 5}, Point{5, 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if path := m.FindPath(tc.from, tc.to, false); len(path) != 0 {
				t.Errorf("Expected empty path, got %v", path)
			}
			if _, ok := NewPathFinder(m, 1, DiagonalNoCornerCut).Stepper(tc.from, tc.to); ok {
				t.Error("Expected stepper to refuse invalid endpoints")
			}
		})
	}
}

func TestFindPathMoveability(t *testing.T) {
	m := newTestMap(t, 3, 3)
	const occupied CellState = 1

	// Occupying the whole middle column splits the grid
	for y := 0; y < 3; y++ {
		m.AddState(1, y, occupied)
	}
	var queried []Point
	m.SetMoveability(func(x, y int) bool {
		queried = append(queried, Point{x, y})
		return !m.HasState(x, y, occupied)
	})

	if path := m.FindPath(Point{0, 1}, Point{2, 1}, true); len(path) != 0 {
		t.Errorf("Expected occupied column to block, got %v", path)
	}
	for _, p := range queried {
		if !m.IsAvailablePoint(p) {
			t.Errorf("Predicate queried with unavailable coordinate %v", p)
		}
	}

	// A per-search override replaces the map predicate
	pf := NewPathFinder(m, 1, DiagonalNoCornerCut).WithMoveability(nil)
	if path := pf.FindPath(Point{0, 1}, Point{2, 1}); len(path) != 3 {
		t.Errorf("Expected override to open the column, got %v", path)
	}

	// Start cell failing the predicate reports no path
	m.RemoveState(1, 0, occupied)
	if path := m.FindPath(Point{1, 1}, Point{1, 0}, false); len(path) != 0 {
		t.Errorf("Expected blocked start to report no path, got %v", path)
	}
}

func TestFindPathWorld(t *testing.T) {
	m, err := New(Layout{Rows: 4, Cols: 4, CellWidth: 2, CellHeight: 2, Offset: vmath.Vec3F{X: 100, Z: 50}})
	if err != nil {
		t.Fatalf("Failed to create map: %v", err)
	}

	from := m.CellToWorld(0, 0)
	to := m.CellToWorld(3, 0)
	path := m.FindPathWorld(from, to, false)
	want := []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("Expected %v, got %v", want, path)
	}

	outside := vmath.Vec3F{X: 0, Z: 0}
	if path := m.FindPathWorld(outside, to, false); len(path) != 0 {
		t.Errorf("Expected world position outside the grid to yield no path, got %v", path)
	}
}

func TestFindPathDeterministic(t *testing.T) {
	// Open field: many equal-cost paths exist, the chosen one must be stable
	m := newTestMap(t, 12, 9)
	m.SetType(5, 4, TypeObstacle)
	m.SetType(6, 4, TypeObstacle)

	first := m.FindPath(Point{0, 0}, Point{11, 8}, false)
	if len(first) == 0 {
		t.Fatal("Expected a path")
	}
	for i := 0; i < 20; i++ {
		if got := m.FindPath(Point{0, 0}, Point{11, 8}, false); !reflect.DeepEqual(got, first) {
			t.Fatalf("Run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestSearchCost(t *testing.T) {
	m := newTestMap(t, 5, 5)
	pf := NewPathFinder(m, 2.5, DiagonalNoCornerCut)

	res := pf.Search(Point{0, 0}, Point{4, 2})
	if !res.Found {
		t.Fatal("Expected path to be found")
	}
	// Two diagonals plus two straight steps
	want := 2.5 * (2 + 2*math.Sqrt2)
	if math.Abs(res.TotalCost-want) > costEpsilon {
		t.Errorf("Expected cost %f, got %f", want, res.TotalCost)
	}
	if math.Abs(pf.PathCost(res.Path)-res.TotalCost) > costEpsilon {
		t.Errorf("Expected path cost %f to match search cost %f", pf.PathCost(res.Path), res.TotalCost)
	}
	if res.ExpandedNodes == 0 {
		t.Error("Expected expanded node count")
	}
}

func TestSearchFourDirectional(t *testing.T) {
	m := newTestMap(t, 4, 4)
	pf := NewPathFinder(m, 1, DiagonalNone)

	res := pf.Search(Point{0, 0}, Point{3, 3})
	if !res.Found {
		t.Fatal("Expected path to be found")
	}
	assertValidPath(t, pf, res.Path, Point{0, 0}, Point{3, 3})
	if res.TotalCost != 6 {
		t.Errorf("Expected Manhattan cost 6, got %f", res.TotalCost)
	}
}

func TestNewPathFinderRejectsBadStepCost(t *testing.T) {
	m := newTestMap(t, 2, 2)
	for _, cost := range []float64{0, -1, math.NaN()} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for step cost %v", cost)
				}
			}()
			NewPathFinder(m, cost, DiagonalNoCornerCut)
		}()
	}
}

func TestFindPathOptimalAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	policies := []DiagonalPolicy{DiagonalNoCornerCut, DiagonalAlways, DiagonalNone}

	for trial := 0; trial < 60; trial++ {
		cols, rows := 3+rng.Intn(6), 3+rng.Intn(6)
		m := newTestMap(t, cols, rows)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if rng.Float64() < 0.3 {
					m.SetType(x, y, TypeObstacle)
				}
			}
		}
		from := Point{rng.Intn(cols), rng.Intn(rows)}
		to := Point{rng.Intn(cols), rng.Intn(rows)}
		stepCost := 0.5 + rng.Float64()*2

		for _, policy := range policies {
			pf := NewPathFinder(m, stepCost, policy)
			res := pf.Search(from, to)
			ref := bruteForceCosts(pf, m, from)[m.index(to.X, to.Y)]

			if math.IsInf(ref, 1) || !pf.Walkable(to.X, to.Y) {
				if res.Found {
					t.Errorf("trial %d policy %d: expected no path %v->%v, got %v", trial, policy, from, to, res.Path)
				}
				continue
			}
			if !res.Found {
				t.Errorf("trial %d policy %d: expected path %v->%v with cost %f", trial, policy, from, to, ref)
				continue
			}
			assertValidPath(t, pf, res.Path, from, to)
			if math.Abs(res.TotalCost-ref) > 1e-6 {
				t.Errorf("trial %d policy %d: expected optimal cost %f, got %f", trial, policy, ref, res.TotalCost)
			}
			if math.Abs(pf.PathCost(res.Path)-res.TotalCost) > 1e-6 {
				t.Errorf("trial %d policy %d: path cost %f disagrees with reported %f", trial, policy, pf.PathCost(res.Path), res.TotalCost)
			}
		}
	}
}

func TestStepperMatchesSearch(t *testing.T) {
	m := parseMap(t,
		"......",
		".####.",
		"......",
		"##.###",
		"......",
	)
	pf := NewPathFinder(m, 1, DiagonalNoCornerCut)
	from, to := Point{0, 0}, Point{5, 4}

	stepper, ok := pf.Stepper(from, to)
	if !ok {
		t.Fatal("Expected stepper for valid endpoints")
	}
	steps := 0
	for !stepper.Done() {
		stepper.Step()
		steps++
		if steps > m.Rows()*m.Cols()+1 {
			t.Fatal("Stepper did not terminate")
		}
	}

	want := pf.Search(from, to)
	got := stepper.Result()
	if !reflect.DeepEqual(got.Path, want.Path) {
		t.Errorf("Expected stepper path %v, got %v", want.Path, got.Path)
	}
	if got.ExpandedNodes != want.ExpandedNodes {
		t.Errorf("Expected %d expansions, got %d", want.ExpandedNodes, got.ExpandedNodes)
	}
}
