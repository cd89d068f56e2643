package astar

// PriorityQueueItem is a frontier entry
// Seq is the discovery order and never changes once assigned, so decrease-key keeps a node's place among equals
type PriorityQueueItem[NodeType comparable] struct {
	Node         NodeType
	GScore       float64
	FCost        float64
	Seq          uint64
	IndexInQueue int
}

// PriorityQueue implements heap.Interface ordered by (FCost, GScore, Seq)
type PriorityQueue[NodeType comparable] []*PriorityQueueItem[NodeType]

func (queue PriorityQueue[NodeType]) Len() int { return len(queue) }

func (queue PriorityQueue[NodeType]) Less(i, j int) bool {
	a, b := queue[i], queue[j]
	if a.FCost != b.FCost {
		return a.FCost < b.FCost
	}
	if a.GScore != b.GScore {
		return a.GScore < b.GScore
	}
	return a.Seq < b.Seq
}

func (queue PriorityQueue[NodeType]) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
	queue[i].IndexInQueue = i
	queue[j].IndexInQueue = j
}

func (queue *PriorityQueue[NodeType]) Push(x any) {
	item := x.(*PriorityQueueItem[NodeType])
	item.IndexInQueue = len(*queue)
	*queue = append(*queue, item)
}

func (queue *PriorityQueue[NodeType]) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	oldQueue[n-1] = nil
	item.IndexInQueue = -1
	*queue = oldQueue[:n-1]
	return item
}
