package navigation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/gridnav/gridmap"
	"github.com/lixenwraith/gridnav/parameter"
)

func newGrid(t *testing.T, rows ...string) *gridmap.Map {
	t.Helper()
	m, err := gridmap.New(gridmap.Layout{Rows: len(rows), Cols: len(rows[0]), CellWidth: 1, CellHeight: 1})
	require.NoError(t, err)
	for y, row := range rows {
		for x, ch := range row {
			if ch == '#' {
				m.SetType(x, y, gridmap.TypeObstacle)
			}
		}
	}
	return m
}

func TestComputeRangeFourDirectional(t *testing.T) {
	m := newGrid(t,
		".....",
		".....",
		".....",
		".....",
		".....",
	)
	opts := Options{StepCost: 1, Diagonal: gridmap.DiagonalNone}
	f := ComputeRange(m, gridmap.Point{X: 2, Y: 2}, 2, opts)

	// Manhattan diamond of radius 2: 1 + 4 + 8
	assert.Equal(t, 13, f.Size())
	assert.True(t, f.Contains(gridmap.Point{X: 2, Y: 0}))
	assert.True(t, f.Contains(gridmap.Point{X: 1, Y: 1}))
	assert.False(t, f.Contains(gridmap.Point{X: 0, Y: 0}))

	cost, ok := f.Cost(gridmap.Point{X: 2, Y: 2})
	require.True(t, ok)
	assert.Zero(t, cost)

	cost, ok = f.Cost(gridmap.Point{X: 4, Y: 2})
	require.True(t, ok)
	assert.Equal(t, 2.0, cost)

	_, ok = f.Cost(gridmap.Point{X: -1, Y: 2})
	assert.False(t, ok)
}

func TestComputeRangeRespectsObstaclesAndBudget(t *testing.T) {
	m := newGrid(t,
		"..#..",
		"..#..",
		"..#..",
		".....",
	)
	f := ComputeRange(m, gridmap.Point{X: 0, Y: 0}, 4, DefaultOptions())

	for _, p := range f.Cells() {
		cost, ok := f.Cost(p)
		require.True(t, ok)
		assert.LessOrEqual(t, cost, 4+rangeEpsilon, "cell %v over budget", p)
		assert.True(t, m.IsWalkable(p.X, p.Y), "cell %v not walkable", p)
	}
	assert.False(t, f.Contains(gridmap.Point{X: 2, Y: 0}), "obstacle inside range")
	assert.False(t, f.Contains(gridmap.Point{X: 3, Y: 0}), "wall should force a detour beyond budget")
}

func TestComputeRangeAgreesWithAStar(t *testing.T) {
	m := newGrid(t,
		"......",
		".##...",
		"...#..",
		"#.....",
		"...##.",
	)
	origin := gridmap.Point{X: 0, Y: 0}
	f := ComputeRange(m, origin, 100, DefaultOptions())
	pf := gridmap.NewPathFinder(m, parameter.NavStepCost, gridmap.DiagonalNoCornerCut)

	for y := 0; y < m.Rows(); y++ {
		for x := 0; x < m.Cols(); x++ {
			p := gridmap.Point{X: x, Y: y}
			res := pf.Search(origin, p)
			cost, ok := f.Cost(p)
			require.Equal(t, res.Found, ok, "reachability mismatch at %v", p)
			if !ok {
				continue
			}
			assert.InDelta(t, res.TotalCost, cost, 1e-9, "cost mismatch at %v", p)

			path := f.PathTo(p)
			require.NotEmpty(t, path)
			assert.Equal(t, origin, path[0])
			assert.Equal(t, p, path[len(path)-1])
			assert.InDelta(t, cost, pf.PathCost(path), 1e-9)
		}
	}
}

func TestComputeRangeCellsRowMajor(t *testing.T) {
	m := newGrid(t,
		"...",
		"...",
	)
	f := ComputeRange(m, gridmap.Point{X: 1, Y: 1}, 1, Options{StepCost: 1, Diagonal: gridmap.DiagonalNone})

	assert.Equal(t, []gridmap.Point{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}}, f.Cells())
}

func TestComputeRangeBlockedOrigin(t *testing.T) {
	m := newGrid(t,
		"#..",
		"...",
	)

	f := ComputeRange(m, gridmap.Point{X: 0, Y: 0}, 5, DefaultOptions())
	assert.Zero(t, f.Size())
	assert.Empty(t, f.Cells())
	assert.Nil(t, f.PathTo(gridmap.Point{X: 1, Y: 0}))

	f = ComputeRange(m, gridmap.Point{X: 9, Y: 9}, 5, DefaultOptions())
	assert.Zero(t, f.Size())

	f = ComputeRange(m, gridmap.Point{X: 1, Y: 1}, -1, DefaultOptions())
	assert.Zero(t, f.Size())
}

func TestComputeRangeZeroBudget(t *testing.T) {
	m := newGrid(t, "...")
	f := ComputeRange(m, gridmap.Point{X: 1, Y: 0}, 0, DefaultOptions())

	assert.Equal(t, []gridmap.Point{{X: 1, Y: 0}}, f.Cells())
	assert.Equal(t, []gridmap.Point{{X: 1, Y: 0}}, f.PathTo(gridmap.Point{X: 1, Y: 0}))
}

func TestComputeRangeMoveabilityOverride(t *testing.T) {
	m := newGrid(t, ".....")
	occupied := gridmap.CellState(parameter.CellStateCharacter)
	m.AddState(2, 0, occupied)
	m.SetMoveability(func(x, y int) bool { return !m.HasState(x, y, occupied) })

	f := ComputeRange(m, gridmap.Point{X: 0, Y: 0}, 10, DefaultOptions())
	assert.Equal(t, 2, f.Size())

	opts := DefaultOptions()
	opts.CanMove = func(x, y int) bool { return true }
	f = ComputeRange(m, gridmap.Point{X: 0, Y: 0}, 10, opts)
	assert.Equal(t, 5, f.Size())
}

func TestComputeRangeDiagonalBudget(t *testing.T) {
	m := newGrid(t,
		"...",
		"...",
		"...",
	)
	f := ComputeRange(m, gridmap.Point{X: 0, Y: 0}, math.Sqrt2, DefaultOptions())

	// One diagonal fits exactly; two orthogonal steps (cost 2) do not
	assert.True(t, f.Contains(gridmap.Point{X: 1, Y: 1}))
	assert.False(t, f.Contains(gridmap.Point{X: 2, Y: 0}))
}

func TestMarkAndClearRange(t *testing.T) {
	m := newGrid(t,
		"...",
		"...",
	)
	mask := gridmap.CellState(parameter.CellStateRange)
	highlight := gridmap.CellState(parameter.CellStateHighlight)
	m.AddState(2, 1, highlight)

	f := ComputeRange(m, gridmap.Point{X: 0, Y: 0}, 1, Options{StepCost: 1, Diagonal: gridmap.DiagonalNone})
	MarkRange(m, f, mask)

	assert.True(t, m.HasState(0, 0, mask))
	assert.True(t, m.HasState(1, 0, mask))
	assert.True(t, m.HasState(0, 1, mask))
	assert.False(t, m.HasState(2, 1, mask))

	ClearRange(m, mask)
	m.Each(func(p gridmap.Point, c gridmap.Cell) {
		assert.False(t, c.State.Has(mask), "range bit left at %v", p)
	})
	assert.True(t, m.HasState(2, 1, highlight), "unrelated state cleared")
}
