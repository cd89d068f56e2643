package gridmap

// CellType is a static classification bitmask
// Combine with OR, test with AND
type CellType int32

const (
	TypeEmpty    CellType = 0x0
	TypeObstacle CellType = 0x1

	// TypeInvalid is returned by Map.Type for coordinates outside the grid
	TypeInvalid CellType = -1
)

// Has reports whether any bit of mask is set
func (t CellType) Has(mask CellType) bool { return t&mask != 0 }

// With returns t with the bits of mask set
func (t CellType) With(mask CellType) CellType { return t | mask }

// Without returns t with the bits of mask cleared
func (t CellType) Without(mask CellType) CellType { return t &^ mask }

// CellState is a transient runtime bitmask, independent of CellType
// Bit meanings are assigned by game logic (see parameter.CellState*)
type CellState uint32

func (s CellState) Has(mask CellState) bool          { return s&mask != 0 }
func (s CellState) With(mask CellState) CellState    { return s | mask }
func (s CellState) Without(mask CellState) CellState { return s &^ mask }

// Cell is a single grid unit
// Its position is implicit from its index in Map.cells
type Cell struct {
	Type  CellType
	Tag   string
	State CellState
}
