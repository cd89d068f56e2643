package parameter

// Navigation - Path search
const (
	// NavStepCost is the cost charged per orthogonal move by map-level path requests
	NavStepCost = 1.0

	// NavDefaultMoveBudget is the movement range budget used when a unit has no explicit stat
	NavDefaultMoveBudget = 5.0
)

// Grid - Cell state flags
// Bit assignments used by game logic; the grid itself attaches no meaning to them
const (
	CellStateCharacter = 1 << 0 // Occupied by a character
	CellStateHighlight = 1 << 1 // UI highlight
	CellStateRange     = 1 << 2 // Inside the selected unit's movement range
	CellStateCursor    = 1 << 3 // Under the selection cursor
)

// Grid - Authoring defaults
const (
	GridDefaultRows       = 19
	GridDefaultCols       = 35
	GridDefaultCellWidth  = 1.0
	GridDefaultCellHeight = 1.0
)
