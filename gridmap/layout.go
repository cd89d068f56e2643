package gridmap

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/gridnav/parameter"
	"github.com/lixenwraith/gridnav/vmath"
)

var (
	ErrInvalidDimensions = errors.New("gridmap: row and column counts must be positive")
	ErrInvalidCellSize   = errors.New("gridmap: cell width and height must be positive")
)

// Layout is the authored geometry of a map
type Layout struct {
	Rows, Cols            int
	CellWidth, CellHeight float64
	Offset                vmath.Vec3F
}

// DefaultLayout returns the authoring defaults centered on the world origin
func DefaultLayout() Layout {
	return Layout{
		Rows:       parameter.GridDefaultRows,
		Cols:       parameter.GridDefaultCols,
		CellWidth:  parameter.GridDefaultCellWidth,
		CellHeight: parameter.GridDefaultCellHeight,
	}
}

// Validate reports the first contract violation in the layout
func (l Layout) Validate() error {
	if l.Rows <= 0 || l.Cols <= 0 {
		return errors.Wrapf(ErrInvalidDimensions, "layout %dx%d", l.Cols, l.Rows)
	}
	if !(l.CellWidth > 0) || !(l.CellHeight > 0) {
		return errors.Wrapf(ErrInvalidCellSize, "cell %gx%g", l.CellWidth, l.CellHeight)
	}
	return nil
}
