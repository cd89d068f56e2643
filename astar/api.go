package astar

import (
	"container/heap"
)

// Graph is generic over node type N.
// N must be comparable so it can be used in maps.
type Graph[NodeType comparable] interface {
	Neighbors(node NodeType) []Neighbor[NodeType]
}

// Neighbor represents a reachable node with a positive step cost.
type Neighbor[NodeType comparable] struct {
	ID   NodeType
	Cost float64
}

// Heuristic returns the estimated cost from node a to node b.
// It must be admissible and consistent with the graph's step costs.
type Heuristic[NodeType comparable] func(from NodeType, to NodeType) float64

// Result contains the outcome of a search
type Result[NodeType comparable] struct {
	Path          []NodeType
	TotalCost     float64
	ExpandedNodes int
	Found         bool
}

// Search runs A* from startNode to goalNode to completion.
// An unreachable goal is reported through Result.Found, never as an error.
func Search[NodeType comparable](
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
) Result[NodeType] {
	e := newEngine(graph, startNode, goalNode, heuristic)
	for !e.done {
		e.step()
	}
	return e.result()
}

// engine owns the open/closed bookkeeping of one search
type engine[NodeType comparable] struct {
	graph     Graph[NodeType]
	start     NodeType
	goal      NodeType
	heuristic Heuristic[NodeType]

	openSet    PriorityQueue[NodeType]
	openSetMap map[NodeType]*PriorityQueueItem[NodeType]
	closedSet  map[NodeType]bool
	cameFrom   map[NodeType]NodeType
	gScore     map[NodeType]float64

	nextSeq   uint64
	expanded  int
	current   NodeType
	opened    []NodeType // Nodes first pushed during the latest step
	advanced  bool       // Latest step expanded a node
	totalCost float64
	done      bool
	found     bool
}

func newEngine[NodeType comparable](
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
) *engine[NodeType] {
	e := &engine[NodeType]{
		graph:      graph,
		start:      startNode,
		goal:       goalNode,
		heuristic:  heuristic,
		openSet:    make(PriorityQueue[NodeType], 0, 64),
		openSetMap: make(map[NodeType]*PriorityQueueItem[NodeType]),
		closedSet:  make(map[NodeType]bool),
		cameFrom:   make(map[NodeType]NodeType),
		gScore:     map[NodeType]float64{startNode: 0},
	}
	heap.Init(&e.openSet)
	e.push(startNode, 0, heuristic(startNode, goalNode))
	return e
}

func (e *engine[NodeType]) push(node NodeType, g, f float64) {
	item := &PriorityQueueItem[NodeType]{
		Node:   node,
		GScore: g,
		FCost:  f,
		Seq:    e.nextSeq,
	}
	e.nextSeq++
	heap.Push(&e.openSet, item)
	e.openSetMap[node] = item
	e.opened = append(e.opened, node)
}

// step expands exactly one node, or marks the search done when the frontier is exhausted
func (e *engine[NodeType]) step() {
	if e.done {
		return
	}
	e.opened = nil
	e.advanced = false
	if e.openSet.Len() == 0 {
		e.done = true
		return
	}

	currentItem := heap.Pop(&e.openSet).(*PriorityQueueItem[NodeType])
	currentNode := currentItem.Node
	delete(e.openSetMap, currentNode)

	e.closedSet[currentNode] = true
	e.expanded++
	e.current = currentNode
	e.advanced = true

	if currentNode == e.goal {
		e.done = true
		e.found = true
		e.totalCost = currentItem.GScore
		return
	}

	for _, neighbor := range e.graph.Neighbors(currentNode) {
		if e.closedSet[neighbor.ID] {
			continue
		}
		tentativeG := currentItem.GScore + neighbor.Cost
		if previousG, exists := e.gScore[neighbor.ID]; exists && tentativeG >= previousG {
			continue
		}
		e.gScore[neighbor.ID] = tentativeG
		e.cameFrom[neighbor.ID] = currentNode
		f := tentativeG + e.heuristic(neighbor.ID, e.goal)

		if item, inOpen := e.openSetMap[neighbor.ID]; inOpen {
			item.GScore = tentativeG
			item.FCost = f
			heap.Fix(&e.openSet, item.IndexInQueue)
		} else {
			e.push(neighbor.ID, tentativeG, f)
		}
	}
}

func (e *engine[NodeType]) result() Result[NodeType] {
	if !e.found {
		return Result[NodeType]{ExpandedNodes: e.expanded}
	}
	return Result[NodeType]{
		Path:          reconstructPath(e.cameFrom, e.goal, e.start),
		TotalCost:     e.totalCost,
		ExpandedNodes: e.expanded,
		Found:         true,
	}
}

// reconstructPath walks cameFrom back from current to start and returns start..current
func reconstructPath[NodeType comparable](
	cameFrom map[NodeType]NodeType,
	current NodeType,
	start NodeType,
) []NodeType {
	path := []NodeType{current}
	for current != start {
		previousNode, exists := cameFrom[current]
		if !exists {
			break
		}
		path = append(path, previousNode)
		current = previousNode
	}
	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
