package gridmap

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/gridnav/parameter"
	"github.com/lixenwraith/gridnav/vmath"
)

// MoveFunc reports whether the cell at (x, y) is currently enterable beyond its static type
// Only called with coordinates that already passed IsAvailable
type MoveFunc func(x, y int) bool

// Map is a rectangular grid on the world X-Z plane
// Its forward direction runs from (-x, -z) to (+x, +z); grid (0, 0) is the (-x, -z) corner
//
// Map does no locking: grid mutation and searches must be serialized by the caller
type Map struct {
	offset     vmath.Vec3F
	rows, cols int
	cellWidth  float64
	cellHeight float64

	cells []Cell // 1D array: index = y*cols + x

	canMove  MoveFunc
	revision uint64
}

// New creates a map from a validated layout with default cells
func New(layout Layout) (*Map, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	m := &Map{
		offset:     layout.Offset,
		cellWidth:  layout.CellWidth,
		cellHeight: layout.CellHeight,
	}
	if err := m.Fit(layout.Rows, layout.Cols); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Map) Rows() int               { return m.rows }
func (m *Map) Cols() int               { return m.cols }
func (m *Map) CellWidth() float64      { return m.cellWidth }
func (m *Map) CellHeight() float64     { return m.cellHeight }
func (m *Map) Offset() vmath.Vec3F     { return m.offset }
func (m *Map) SetOffset(o vmath.Vec3F) { m.offset = o }

// Length is the world-space extent along X
func (m *Map) Length() float64 { return m.cellWidth * float64(m.cols) }

// Height is the world-space extent along Z
func (m *Map) Height() float64 { return m.cellHeight * float64(m.rows) }

// Revision increases on every cell mutation and resize
// Derived data such as movement range fields compare it to detect staleness
func (m *Map) Revision() uint64 { return m.revision }

// Layout returns the map's current authored geometry
func (m *Map) Layout() Layout {
	return Layout{
		Rows:       m.rows,
		Cols:       m.cols,
		CellWidth:  m.cellWidth,
		CellHeight: m.cellHeight,
		Offset:     m.offset,
	}
}

// SetCellSize changes the world size of every cell
func (m *Map) SetCellSize(width, height float64) error {
	if !(width > 0) || !(height > 0) {
		return errors.Wrapf(ErrInvalidCellSize, "cell %gx%g", width, height)
	}
	m.cellWidth = width
	m.cellHeight = height
	return nil
}

// Fit resizes the cell array to rows*cols
// Existing cells keep their flat index, new slots get default cells and surplus cells are
// dropped from the tail. Cells are not remapped by coordinate, so shrinking the column count
// shifts surviving cells to different (x, y) positions.
func (m *Map) Fit(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return errors.Wrapf(ErrInvalidDimensions, "fit %dx%d", cols, rows)
	}
	count := rows * cols
	if len(m.cells) < count {
		m.cells = append(m.cells, make([]Cell, count-len(m.cells))...)
	} else if len(m.cells) > count {
		clear(m.cells[count:])
		m.cells = m.cells[:count]
	}
	m.rows = rows
	m.cols = cols
	m.revision++
	return nil
}

// IsAvailable is the single authority on coordinate validity
func (m *Map) IsAvailable(x, y int) bool {
	return x >= 0 && x < m.cols && y >= 0 && y < m.rows
}

func (m *Map) IsAvailablePoint(p Point) bool {
	return m.IsAvailable(p.X, p.Y)
}

// ClampX clamps x into [0, cols-1]
func (m *Map) ClampX(x int) int {
	return max(0, min(x, m.cols-1))
}

// ClampY clamps y into [0, rows-1]
func (m *Map) ClampY(y int) int {
	return max(0, min(y, m.rows-1))
}

func (m *Map) ClampPoint(p Point) Point {
	return Point{X: m.ClampX(p.X), Y: m.ClampY(p.Y)}
}

// Move offsets p by delta and clamps the result into the grid
func (m *Map) Move(p Point, delta Point) Point {
	return m.ClampPoint(p.Add(delta))
}

func (m *Map) index(x, y int) int {
	return y*m.cols + x
}

// Cell returns a copy of the cell at (x, y)
func (m *Map) Cell(x, y int) (Cell, bool) {
	if !m.IsAvailable(x, y) {
		return Cell{}, false
	}
	return m.cells[m.index(x, y)], true
}

// Each visits every cell in row-major order
func (m *Map) Each(fn func(p Point, c Cell)) {
	for i, c := range m.cells {
		fn(Point{X: i % m.cols, Y: i / m.cols}, c)
	}
}

// --- Type ---

// Type returns the cell type, TypeInvalid if out of range
func (m *Map) Type(x, y int) CellType {
	if !m.IsAvailable(x, y) {
		return TypeInvalid
	}
	return m.cells[m.index(x, y)].Type
}

func (m *Map) HasType(x, y int, mask CellType) bool {
	if !m.IsAvailable(x, y) {
		return false
	}
	return m.cells[m.index(x, y)].Type.Has(mask)
}

// SetType overwrites the cell type
func (m *Map) SetType(x, y int, t CellType) {
	if !m.IsAvailable(x, y) {
		return
	}
	m.cells[m.index(x, y)].Type = t
	m.revision++
}

// --- Tag ---

func (m *Map) Tag(x, y int) (string, bool) {
	if !m.IsAvailable(x, y) {
		return "", false
	}
	return m.cells[m.index(x, y)].Tag, true
}

func (m *Map) SetTag(x, y int, tag string) {
	if !m.IsAvailable(x, y) {
		return
	}
	m.cells[m.index(x, y)].Tag = tag
	m.revision++
}

// --- State ---

func (m *Map) AddState(x, y int, mask CellState) {
	if !m.IsAvailable(x, y) {
		return
	}
	c := &m.cells[m.index(x, y)]
	c.State = c.State.With(mask)
	m.revision++
}

func (m *Map) RemoveState(x, y int, mask CellState) {
	if !m.IsAvailable(x, y) {
		return
	}
	c := &m.cells[m.index(x, y)]
	c.State = c.State.Without(mask)
	m.revision++
}

func (m *Map) HasState(x, y int, mask CellState) bool {
	if !m.IsAvailable(x, y) {
		return false
	}
	return m.cells[m.index(x, y)].State.Has(mask)
}

func (m *Map) ClearState(x, y int) {
	if !m.IsAvailable(x, y) {
		return
	}
	m.cells[m.index(x, y)].State = 0
	m.revision++
}

// ClearAllCellState zeroes the state of every cell
func (m *Map) ClearAllCellState() {
	for i := range m.cells {
		m.cells[i].State = 0
	}
	m.revision++
}

// --- Moveability ---

// SetMoveability installs the default state predicate; nil treats every cell as moveable
// The predicate does not affect the revision counter: callers that change what it
// reports must mark their own derived data dirty
func (m *Map) SetMoveability(fn MoveFunc) {
	m.canMove = fn
}

// IsStateMoveable evaluates the moveability predicate without range checks
func (m *Map) IsStateMoveable(x, y int) bool {
	if m.canMove == nil {
		return true
	}
	return m.canMove(x, y)
}

// IsWalkable reports whether a unit may stand on (x, y) right now
func (m *Map) IsWalkable(x, y int) bool {
	return walkable(m, m.canMove, x, y)
}

// walkable applies the passability rule with an explicit predicate
func walkable(m *Map, canMove MoveFunc, x, y int) bool {
	if !m.IsAvailable(x, y) {
		return false
	}
	if m.cells[m.index(x, y)].Type.Has(TypeObstacle) {
		return false
	}
	if canMove == nil {
		return true
	}
	return canMove(x, y)
}

// --- Coordinate transforms ---

// CellToWorld returns the world-space center of cell (x, y)
func (m *Map) CellToWorld(x, y int) vmath.Vec3F {
	return vmath.Vec3F{
		X: float64(x)*m.cellWidth + m.cellWidth*0.5 - m.Length()*0.5 + m.offset.X,
		Y: m.offset.Y,
		Z: float64(y)*m.cellHeight + m.cellHeight*0.5 - m.Height()*0.5 + m.offset.Z,
	}
}

// WorldToCell maps a world position to the containing grid coordinate
// The result is truncated toward zero and not range-checked: positions outside the grid's
// footprint yield coordinates that fail IsAvailable
func (m *Map) WorldToCell(pos vmath.Vec3F) Point {
	local := vmath.V3FSub(pos, m.offset)
	x := (local.X + m.Length()*0.5) / m.cellWidth
	y := (local.Z + m.Height()*0.5) / m.cellHeight
	return Point{X: int(x), Y: int(y)}
}

// WorldBounds returns the planar world-space rectangle covered by the grid
func (m *Map) WorldBounds() vmath.Rect {
	lb := m.CellToWorld(0, 0)
	rt := m.CellToWorld(m.cols-1, m.rows-1)
	return vmath.Rect{
		MinX: lb.X - m.cellWidth*0.5,
		MaxX: rt.X + m.cellWidth*0.5,
		MinY: lb.Z - m.cellHeight*0.5,
		MaxY: rt.Z + m.cellHeight*0.5,
	}
}

// PathToWorld converts a grid path to the world-space centers of its cells
func (m *Map) PathToWorld(path []Point) []vmath.Vec3F {
	out := make([]vmath.Vec3F, len(path))
	for i, p := range path {
		out[i] = m.CellToWorld(p.X, p.Y)
	}
	return out
}

// WorldLength is the planar distance along a grid path between consecutive cell centers
func (m *Map) WorldLength(path []Point) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += vmath.V3FPlanarDist(m.CellToWorld(path[i-1].X, path[i-1].Y), m.CellToWorld(path[i].X, path[i].Y))
	}
	return total
}

// --- Path search ---

// FindPath searches between two grid cells with a unit step cost
// ignoreCorners allows diagonal moves squeezed between two blocked cells
func (m *Map) FindPath(from, to Point, ignoreCorners bool) []Point {
	return NewPathFinder(m, parameter.NavStepCost, CornerPolicy(ignoreCorners)).FindPath(from, to)
}

// FindPathWorld converts both world positions to cells and searches between them
func (m *Map) FindPathWorld(from, to vmath.Vec3F, ignoreCorners bool) []Point {
	return m.FindPath(m.WorldToCell(from), m.WorldToCell(to), ignoreCorners)
}
