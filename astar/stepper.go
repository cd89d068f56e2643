package astar

// StepSnapshot exposes the per-iteration state of the search
type StepSnapshot[NodeType comparable] struct {
	Current   NodeType
	Open      map[NodeType]bool
	Closed    map[NodeType]bool
	Done      bool
	Found     bool
	Path      []NodeType
	StepIndex int
}

// StepDelta is the change made by one expansion
// Applying deltas in order rebuilds the open and closed sets of the matching StepSnapshot:
// Current leaves open and joins closed when Expanded is set, Opened joins open
type StepDelta[NodeType comparable] struct {
	Current   NodeType
	Expanded  bool
	Opened    []NodeType
	Done      bool
	Found     bool
	Path      []NodeType
	StepIndex int
}

// Stepper advances a search one node expansion at a time
// Ordering is identical to Search, so the final path matches Search for the same inputs
type Stepper[NodeType comparable] struct {
	e         *engine[NodeType]
	stepCount int
}

// NewStepper prepares a search without expanding any node
func NewStepper[NodeType comparable](
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
) *Stepper[NodeType] {
	return &Stepper[NodeType]{e: newEngine(graph, startNode, goalNode, heuristic)}
}

// Done reports whether the search has finished
func (s *Stepper[NodeType]) Done() bool {
	return s.e.done
}

// Result returns the outcome so far; Found is false until the goal is expanded
func (s *Stepper[NodeType]) Result() Result[NodeType] {
	return s.e.result()
}

// Step advances the search by one node expansion and returns a snapshot
// Calling Step after completion returns the final snapshot again
func (s *Stepper[NodeType]) Step() StepSnapshot[NodeType] {
	if !s.e.done {
		s.stepCount++
		s.e.step()
	}

	snap := StepSnapshot[NodeType]{
		Current:   s.e.current,
		Open:      s.openSetToBoolMap(),
		Closed:    copyBoolMap(s.e.closedSet),
		Done:      s.e.done,
		Found:     s.e.found,
		StepIndex: s.stepCount,
	}
	if s.e.found {
		snap.Path = reconstructPath(s.e.cameFrom, s.e.goal, s.e.start)
	}
	return snap
}

// Advance is Step without the set copies; cost is proportional to the nodes touched
// Calling Advance after completion returns an empty delta with the final status
func (s *Stepper[NodeType]) Advance() StepDelta[NodeType] {
	if s.e.done {
		d := StepDelta[NodeType]{Current: s.e.current, Done: true, Found: s.e.found, StepIndex: s.stepCount}
		if s.e.found {
			d.Path = reconstructPath(s.e.cameFrom, s.e.goal, s.e.start)
		}
		return d
	}

	s.stepCount++
	s.e.step()

	d := StepDelta[NodeType]{
		Current:   s.e.current,
		Expanded:  s.e.advanced,
		Opened:    append([]NodeType(nil), s.e.opened...),
		Done:      s.e.done,
		Found:     s.e.found,
		StepIndex: s.stepCount,
	}
	if s.e.found {
		d.Path = reconstructPath(s.e.cameFrom, s.e.goal, s.e.start)
	}
	return d
}

func (s *Stepper[NodeType]) openSetToBoolMap() map[NodeType]bool {
	m := make(map[NodeType]bool, len(s.e.openSetMap))
	for k := range s.e.openSetMap {
		m[k] = true
	}
	return m
}

func copyBoolMap[T comparable](m map[T]bool) map[T]bool {
	c := make(map[T]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
