package gridmap

// Point is an integer grid coordinate
// Validity is decided by Map.IsAvailable, never by the point itself
type Point struct {
	X, Y int
}

func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Direction deltas for cursor movement
// The grid's forward axis is world +Z, which maps to grid +Y
var (
	DirUp    = Point{X: 0, Y: 1}
	DirDown  = Point{X: 0, Y: -1}
	DirLeft  = Point{X: -1, Y: 0}
	DirRight = Point{X: 1, Y: 0}
)
