// FILE: main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/zyedidia/generic/mapset"

	"github.com/lixenwraith/gridnav/gridmap"
	"github.com/lixenwraith/gridnav/maze"
	"github.com/lixenwraith/gridnav/navigation"
	"github.com/lixenwraith/gridnav/parameter"
)

var (
	debugFlag = flag.String("debug", "", "Write diagnostics to this log file")
	seedFlag  = flag.Int64("seed", 0, "Maze seed (0 = random)")
	rowsFlag  = flag.Int("rows", parameter.GridDefaultRows, "Grid rows")
	colsFlag  = flag.Int("cols", parameter.GridDefaultCols, "Grid columns")
)

const (
	stateUnit   = gridmap.CellState(parameter.CellStateCharacter)
	stateCursor = gridmap.CellState(parameter.CellStateCursor)
)

// Sandbox is an interactive grid for exercising path and range queries
// Grid row 0 is drawn at the bottom of the screen so DirUp moves the cursor up
type Sandbox struct {
	screen tcell.Screen
	grid   *gridmap.Map

	cursor        gridmap.Point
	start, goal   gridmap.Point
	hasStart      bool
	hasGoal       bool
	ignoreCorners bool
	showRange     bool

	path       []gridmap.Point
	onPath     mapset.Set[gridmap.Point]
	ranges     *navigation.RangeCache
	rangeField *navigation.RangeField
	budget     float64
	status     string
	seed       int64
	mazeGen    int

	// Cursor state
	cursorVisible   bool
	cursorError     bool
	cursorErrorTime time.Time
	cursorBlinkTime time.Time

	// Audio
	audioInit bool
}

func NewSandbox(rows, cols int, seed int64) (*Sandbox, error) {
	s, err := newSandboxState(rows, cols, seed)
	if err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	s.screen = screen

	if err := s.initAudio(); err != nil {
		// Non-fatal, sandbox runs without sound
		log.Printf("Audio initialization failed: %v", err)
	}

	s.status = "arrows:move  space:wall  u:unit  s:start  g:goal  c:corners  r:range  m:maze  x:clear  esc:quit"
	return s, nil
}

// newSandboxState builds the grid side of the sandbox without a screen or audio
func newSandboxState(rows, cols int, seed int64) (*Sandbox, error) {
	layout := gridmap.DefaultLayout()
	layout.Rows, layout.Cols = rows, cols
	grid, err := gridmap.New(layout)
	if err != nil {
		return nil, err
	}

	s := &Sandbox{
		grid:            grid,
		onPath:          mapset.New[gridmap.Point](),
		ranges:          navigation.NewRangeCache(),
		budget:          parameter.NavDefaultMoveBudget,
		seed:            seed,
		cursorVisible:   true,
		cursorBlinkTime: time.Now(),
	}
	s.cursor = gridmap.Point{X: cols / 2, Y: rows / 2}
	s.grid.AddState(s.cursor.X, s.cursor.Y, stateCursor)

	// Units other than the selected one block movement
	grid.SetMoveability(func(x, y int) bool {
		if s.hasStart && x == s.start.X && y == s.start.Y {
			return true
		}
		return !grid.HasState(x, y, stateUnit)
	})
	return s, nil
}

func (s *Sandbox) initAudio() error {
	sampleRate := beep.SampleRate(parameter.SandboxSampleRate)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		s.audioInit = true
	}
	return err
}

func (s *Sandbox) playTone(freq float64) {
	if !s.audioInit {
		return
	}

	sampleRate := beep.SampleRate(parameter.SandboxSampleRate)
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		log.Printf("tone %.0fHz: %v", freq, err)
		return
	}
	speaker.Play(beep.Take(sampleRate.N(parameter.SandboxToneDuration), sine))
}

func (s *Sandbox) flashError() {
	s.cursorError = true
	s.cursorErrorTime = time.Now()
}

func (s *Sandbox) moveCursor(dir gridmap.Point) {
	s.grid.RemoveState(s.cursor.X, s.cursor.Y, stateCursor)
	s.cursor = s.grid.Move(s.cursor, dir)
	s.grid.AddState(s.cursor.X, s.cursor.Y, stateCursor)

	s.cursorVisible = true
	s.cursorBlinkTime = time.Now()
}

// recompute refreshes the path overlay and range view after any change
func (s *Sandbox) recompute() {
	s.path = nil
	s.onPath = mapset.New[gridmap.Point]()
	s.rangeField = nil

	if s.hasStart && s.hasGoal {
		s.path = s.grid.FindPath(s.start, s.goal, s.ignoreCorners)
		for _, p := range s.path {
			s.onPath.Put(p)
		}
		log.Printf("path %v -> %v corners=%v: %d cells (rev %d)", s.start, s.goal, s.ignoreCorners, len(s.path), s.grid.Revision())
	}

	if s.showRange && s.hasStart {
		opts := navigation.DefaultOptions()
		opts.Diagonal = gridmap.CornerPolicy(s.ignoreCorners)
		// Overlay only: marking cell state would advance the revision on every redraw
		s.rangeField = s.ranges.Get(s.grid, s.start, s.budget, opts)
		log.Printf("range from %v budget %.1f: %d cells (computes %d)", s.start, s.budget, s.rangeField.Size(), s.ranges.Computes)
	}
}

func (s *Sandbox) setGoal() {
	s.goal, s.hasGoal = s.cursor, true
	if !s.hasStart {
		s.flashError()
		return
	}
	s.recompute()
	if s.path == nil {
		s.playTone(parameter.SandboxToneUnreachable)
		s.flashError()
		s.status = fmt.Sprintf("no path %v -> %v", s.start, s.goal)
		return
	}
	s.playTone(parameter.SandboxToneFound)
	s.status = fmt.Sprintf("path %v -> %v: %d steps, corners ignored=%v", s.start, s.goal, len(s.path)-1, s.ignoreCorners)
}

func (s *Sandbox) generateMaze() {
	seed := s.seed
	if seed != 0 {
		seed += int64(s.mazeGen)
	}
	s.mazeGen++

	res := maze.Generate(maze.Config{
		Width:    s.grid.Cols(),
		Height:   s.grid.Rows(),
		Braiding: parameter.SandboxMazeBraiding,
		Seed:     seed,
	})
	// Maze sizes round down to odd; reshape the grid to match
	if err := s.grid.Fit(res.Height, res.Width); err != nil {
		log.Printf("fit %dx%d: %v", res.Width, res.Height, err)
		s.flashError()
		return
	}
	s.grid.ClearAllCellState()
	for y := 0; y < s.grid.Rows(); y++ {
		for x := 0; x < s.grid.Cols(); x++ {
			s.grid.SetTag(x, y, "")
		}
	}
	if err := res.Apply(s.grid); err != nil {
		log.Printf("apply maze: %v", err)
		s.flashError()
		return
	}

	s.cursor = s.grid.ClampPoint(s.cursor)
	s.grid.AddState(s.cursor.X, s.cursor.Y, stateCursor)
	s.start, s.hasStart = res.Start, true
	s.goal, s.hasGoal = res.End, true
	s.ranges.Invalidate()
	s.recompute()
	s.status = fmt.Sprintf("maze seed %d: %d steps", res.Seed, max(len(s.path)-1, 0))
}

func (s *Sandbox) draw() {
	s.screen.Clear()

	styleStatus := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	for i, r := range s.status {
		s.screen.SetContent(i, 0, r, nil, styleStatus)
	}

	now := time.Now()

	// Handle error blink
	if s.cursorError && now.Sub(s.cursorErrorTime) > parameter.SandboxErrorBlink {
		s.cursorError = false
	}

	// Handle cursor blink
	if now.Sub(s.cursorBlinkTime) > parameter.SandboxCursorBlink {
		s.cursorVisible = !s.cursorVisible
		s.cursorBlinkTime = now
	}

	rows := s.grid.Rows()
	s.grid.Each(func(p gridmap.Point, c gridmap.Cell) {
		r, style := ' ', tcell.StyleDefault
		inRange := s.rangeField != nil && s.rangeField.Contains(p)
		switch {
		case c.Type.Has(gridmap.TypeObstacle):
			r, style = '█', style.Foreground(tcell.ColorGray)
		case s.hasStart && p == s.start:
			r, style = 'S', style.Foreground(tcell.ColorGreen).Bold(true)
		case s.hasGoal && p == s.goal:
			r, style = 'G', style.Foreground(tcell.ColorYellow).Bold(true)
		case c.State.Has(stateUnit):
			r, style = '@', style.Foreground(tcell.ColorPurple)
		case s.onPath.Has(p):
			r, style = '•', style.Foreground(tcell.ColorAqua)
		case inRange:
			r, style = '·', style.Foreground(tcell.ColorBlue)
		}
		if inRange {
			style = style.Background(tcell.ColorNavy)
		}
		if c.State.Has(stateCursor) && s.cursorVisible {
			if s.cursorError {
				style = style.Foreground(tcell.ColorRed).Reverse(true)
			} else {
				style = style.Foreground(tcell.ColorWhite).Reverse(true)
			}
		}
		s.screen.SetContent(p.X, 1+rows-1-p.Y, r, nil, style)
	})

	s.screen.Show()
}

func (s *Sandbox) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			s.moveCursor(gridmap.DirUp)
		case tcell.KeyDown:
			s.moveCursor(gridmap.DirDown)
		case tcell.KeyLeft:
			s.moveCursor(gridmap.DirLeft)
		case tcell.KeyRight:
			s.moveCursor(gridmap.DirRight)
		case tcell.KeyEnter:
			s.setGoal()
		case tcell.KeyRune:
			s.handleRune(ev.Rune())
		}

	case *tcell.EventResize:
		s.screen.Sync()
	}

	return true
}

func (s *Sandbox) handleRune(r rune) {
	c := s.cursor
	switch r {
	case 'k':
		s.moveCursor(gridmap.DirUp)
	case 'j':
		s.moveCursor(gridmap.DirDown)
	case 'h':
		s.moveCursor(gridmap.DirLeft)
	case 'l':
		s.moveCursor(gridmap.DirRight)
	case ' ':
		s.grid.SetType(c.X, c.Y, s.grid.Type(c.X, c.Y)^gridmap.TypeObstacle)
		s.recompute()
	case 'u':
		if s.grid.HasState(c.X, c.Y, stateUnit) {
			s.grid.RemoveState(c.X, c.Y, stateUnit)
		} else {
			s.grid.AddState(c.X, c.Y, stateUnit)
		}
		s.recompute()
	case 's':
		// Units are selectable; only the static map decides
		if !s.grid.IsAvailable(c.X, c.Y) || s.grid.HasType(c.X, c.Y, gridmap.TypeObstacle) {
			s.flashError()
			return
		}
		s.start, s.hasStart = c, true
		// Moveability depends on the selected unit
		s.ranges.MarkDirty()
		s.recompute()
	case 'g':
		s.setGoal()
	case 'c':
		s.ignoreCorners = !s.ignoreCorners
		s.recompute()
	case 'r':
		s.showRange = !s.showRange
		s.recompute()
	case '+':
		s.budget++
		s.recompute()
	case '-':
		s.budget = max(0, s.budget-1)
		s.recompute()
	case 'm':
		s.generateMaze()
	case 'x':
		s.grid.ClearAllCellState()
		s.grid.AddState(c.X, c.Y, stateCursor)
		s.hasStart, s.hasGoal, s.showRange = false, false, false
		s.recompute()
	default:
		s.flashError()
	}
}

func (s *Sandbox) run() {
	ticker := time.NewTicker(parameter.SandboxFrameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- s.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}

		case <-ticker.C:
			s.draw()
		}
	}
}

func (s *Sandbox) cleanup() {
	if s.audioInit {
		speaker.Close()
	}
	s.screen.Fini()
}

func main() {
	flag.Parse()

	// Log lines would corrupt the screen; only write them to a file when asked
	log.SetOutput(io.Discard)
	if *debugFlag != "" {
		f, err := os.OpenFile(*debugFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	sandbox, err := NewSandbox(*rowsFlag, *colsFlag, *seedFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	// Panic Recovery: cleanup below runs first and restores the terminal
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\nSANDBOX CRASHED: %v\nStack Trace:\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()
	defer sandbox.cleanup()

	sandbox.run()
}
