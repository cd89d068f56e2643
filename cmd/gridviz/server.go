package main

import (
	"embed"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/lixenwraith/gridnav/astar"
	"github.com/lixenwraith/gridnav/gridmap"
	"github.com/lixenwraith/gridnav/maze"
	"github.com/lixenwraith/gridnav/navigation"
	"github.com/lixenwraith/gridnav/parameter"
)

//go:embed static/index.html
var static embed.FS

var ErrGridTooLarge = errors.New("gridviz: grid too large")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Local visualizer; any origin may connect
		return true
	},
}

// Config holds the visualizer's initial session and stream pacing
type Config struct {
	Rows, Cols int
	Braiding   float64
	Seed       int64
	StepDelay  time.Duration // Pause between streamed snapshots; 0 streams as fast as possible
}

// Server owns a single shared grid session
// The grid packages do no locking, so every access goes through mu
type Server struct {
	cfg Config

	mu     sync.Mutex
	grid   *gridmap.Map
	maze   maze.Result
	ranges *navigation.RangeCache
}

func NewServer(cfg Config) (*Server, error) {
	if err := checkGridSize(cfg.Cols, cfg.Rows); err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, ranges: navigation.NewRangeCache()}
	if err := s.reset(cfg.Cols, cfg.Rows, cfg.Braiding, cfg.Seed); err != nil {
		return nil, err
	}
	return s, nil
}

// checkGridSize bounds session grids so a request cannot force an unbounded allocation
func checkGridSize(w, h int) error {
	if w > parameter.VizMaxGridDim || h > parameter.VizMaxGridDim {
		return errors.Wrapf(ErrGridTooLarge, "%dx%d exceeds %d per side", w, h, parameter.VizMaxGridDim)
	}
	return nil
}

// reset replaces the session grid with a fresh maze; caller holds mu or owns s exclusively
func (s *Server) reset(w, h int, braiding float64, seed int64) error {
	res := maze.Generate(maze.Config{Width: w, Height: h, Braiding: braiding, Seed: seed})
	grid, err := res.Build(parameter.GridDefaultCellWidth, parameter.GridDefaultCellHeight)
	if err != nil {
		return err
	}
	s.grid, s.maze = grid, res
	s.ranges.Invalidate()
	return nil
}

// Routes configures all routes and returns the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.NewSession)
		r.Get("/grid", s.GetGrid)
		r.Get("/path", s.GetPath)
		r.Get("/range", s.GetRange)
	})
	r.Get("/ws/step", s.StreamSteps)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "static/index.html")
	})

	return r
}

type gridResponse struct {
	W        int      `json:"w"`
	H        int      `json:"h"`
	Walls    [][2]int `json:"walls"`
	Start    [2]int   `json:"start"`
	End      [2]int   `json:"end"`
	Seed     int64    `json:"seed"`
	Revision uint64   `json:"revision"`
}

type pathResponse struct {
	Found    bool     `json:"found"`
	Path     [][2]int `json:"path"`
	Cost     float64  `json:"cost"`
	Expanded int      `json:"expanded"`
}

type rangeResponse struct {
	Origin [2]int    `json:"origin"`
	Budget float64   `json:"budget"`
	Cells  [][2]int  `json:"cells"`
	Costs  []float64 `json:"costs"`
}

// stepMessage carries one expansion as a delta; clients accumulate open and closed sets
type stepMessage struct {
	Step     int      `json:"step"`
	Current  [2]int   `json:"current"`
	Expanded bool     `json:"expanded"`
	Opened   [][2]int `json:"opened,omitempty"`
	Done     bool     `json:"done"`
	Found    bool     `json:"found"`
	Path     [][2]int `json:"path,omitempty"`
}

// NewSession handles POST /api/session - generates a new maze grid
func (s *Server) NewSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, height := s.cfg.Cols, s.cfg.Rows
	braiding := s.cfg.Braiding
	var seed int64

	if v, err := strconv.Atoi(q.Get("w")); err == nil && v > 0 {
		width = v
	}
	if v, err := strconv.Atoi(q.Get("h")); err == nil && v > 0 {
		height = v
	}
	if v, err := strconv.ParseFloat(q.Get("braiding"), 64); err == nil && v >= 0 && v <= 1 {
		braiding = v
	}
	if v, err := strconv.ParseInt(q.Get("seed"), 10, 64); err == nil {
		seed = v
	}

	if err := checkGridSize(width, height); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reset(width, height, braiding, seed); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, s.gridLocked())
}

// GetGrid handles GET /api/grid - returns the current walls and maze endpoints
func (s *Server) GetGrid(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondJSON(w, http.StatusOK, s.gridLocked())
}

func (s *Server) gridLocked() gridResponse {
	resp := gridResponse{
		W:        s.grid.Cols(),
		H:        s.grid.Rows(),
		Walls:    [][2]int{},
		Start:    pair(s.maze.Start),
		End:      pair(s.maze.End),
		Seed:     s.maze.Seed,
		Revision: s.grid.Revision(),
	}
	s.grid.Each(func(p gridmap.Point, c gridmap.Cell) {
		if c.Type.Has(gridmap.TypeObstacle) {
			resp.Walls = append(resp.Walls, pair(p))
		}
	})
	return resp
}

// GetPath handles GET /api/path?fx&fy&tx&ty&corners - runs a full search
func (s *Server) GetPath(w http.ResponseWriter, r *http.Request) {
	from, to, ignoreCorners, ok := parseEndpoints(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	pf := gridmap.NewPathFinder(s.grid, parameter.NavStepCost, gridmap.CornerPolicy(ignoreCorners))
	res := pf.Search(from, to)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, pathResponse{
		Found:    res.Found,
		Path:     pairs(res.Path),
		Cost:     res.TotalCost,
		Expanded: res.ExpandedNodes,
	})
}

// GetRange handles GET /api/range?x&y&budget - returns the movement range from a cell
func (s *Server) GetRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := strconv.Atoi(q.Get("x"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	y, err := strconv.Atoi(q.Get("y"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	budget := parameter.NavDefaultMoveBudget
	if b := q.Get("budget"); b != "" {
		if budget, err = strconv.ParseFloat(b, 64); err != nil || budget < 0 {
			respondError(w, http.StatusBadRequest, "Invalid budget")
			return
		}
	}

	origin := gridmap.Point{X: x, Y: y}
	s.mu.Lock()
	field := s.ranges.Get(s.grid, origin, budget, navigation.DefaultOptions())
	cells := field.Cells()
	resp := rangeResponse{
		Origin: pair(origin),
		Budget: budget,
		Cells:  pairs(cells),
		Costs:  make([]float64, 0, len(cells)),
	}
	for _, p := range cells {
		c, _ := field.Cost(p)
		resp.Costs = append(resp.Costs, c)
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

// StreamSteps handles GET /ws/step?fx&fy&tx&ty&corners - streams one delta per expansion
func (s *Server) StreamSteps(w http.ResponseWriter, r *http.Request) {
	from, to, ignoreCorners, ok := parseEndpoints(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	pf := gridmap.NewPathFinder(s.grid, parameter.NavStepCost, gridmap.CornerPolicy(ignoreCorners))
	stepper, valid := pf.Stepper(from, to)
	s.mu.Unlock()
	if !valid {
		respondError(w, http.StatusBadRequest, "Start or goal not walkable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	// Reader detects client disconnects
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("Error reading message: %v", err)
				}
				return
			}
		}
	}()

	for {
		s.mu.Lock()
		delta := stepper.Advance()
		s.mu.Unlock()

		if err := conn.WriteJSON(toStepMessage(delta)); err != nil {
			return
		}
		if delta.Done {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "search complete"))
			return
		}

		if s.cfg.StepDelay > 0 {
			select {
			case <-closed:
				return
			case <-time.After(s.cfg.StepDelay):
			}
			continue
		}
		select {
		case <-closed:
			return
		default:
		}
	}
}

func toStepMessage(d astar.StepDelta[gridmap.Point]) stepMessage {
	return stepMessage{
		Step:     d.StepIndex,
		Current:  pair(d.Current),
		Expanded: d.Expanded,
		Opened:   pairs(d.Opened),
		Done:     d.Done,
		Found:    d.Found,
		Path:     pairs(d.Path),
	}
}

func parseEndpoints(w http.ResponseWriter, r *http.Request) (from, to gridmap.Point, ignoreCorners bool, ok bool) {
	q := r.URL.Query()
	var coords [4]int
	for i, key := range []string{"fx", "fy", "tx", "ty"} {
		v, err := strconv.Atoi(q.Get(key))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid "+key)
			return from, to, false, false
		}
		coords[i] = v
	}
	if c := q.Get("corners"); c != "" {
		b, err := strconv.ParseBool(c)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid corners")
			return from, to, false, false
		}
		ignoreCorners = b
	}
	from = gridmap.Point{X: coords[0], Y: coords[1]}
	to = gridmap.Point{X: coords[2], Y: coords[3]}
	return from, to, ignoreCorners, true
}

func pair(p gridmap.Point) [2]int { return [2]int{p.X, p.Y} }

func pairs(ps []gridmap.Point) [][2]int {
	out := make([][2]int, 0, len(ps))
	for _, p := range ps {
		out = append(out, pair(p))
	}
	return out
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
