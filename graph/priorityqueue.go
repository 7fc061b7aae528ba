package graph

// PriorityQueue is a keyed decrease-priority queue over int-identified
// nodes, used by the Dijkstra fastest-path pass in preprocess. Ported from
// the distilled spec's PriorityQueue.py: unseen nodes are lazily added at
// +Inf priority on first lookup, and Replace only lowers a node's priority.
type PriorityQueue struct {
	priority map[int]int64
	index    map[int]int // node -> index in heap slice
	heap     []int       // node ids, ordered as a binary min-heap by priority
}

// NewPriorityQueue returns an empty queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{
		priority: map[int]int64{},
		index:    map[int]int{},
	}
}

const infinitePriority = int64(1) << 60

// AddNode inserts a node with an explicit priority (if not already present).
func (q *PriorityQueue) AddNode(node int, priority int64) {
	if _, ok := q.priority[node]; ok {
		return
	}
	q.priority[node] = priority
	q.index[node] = len(q.heap)
	q.heap = append(q.heap, node)
	q.siftUp(len(q.heap) - 1)
}

// Priority returns a node's current priority, lazily adding it at +Inf if
// never seen before (mirrors get_priority's lazy-add behavior).
func (q *PriorityQueue) Priority(node int) int64 {
	p, ok := q.priority[node]
	if !ok {
		q.AddNode(node, infinitePriority)
		return infinitePriority
	}
	return p
}

// Replace lowers node's priority to newPriority if it is currently higher
// (a true decrease-key; raising priority is never requested by Dijkstra).
func (q *PriorityQueue) Replace(node int, newPriority int64) {
	cur := q.Priority(node)
	if newPriority >= cur {
		return
	}
	q.priority[node] = newPriority
	q.siftUp(q.index[node])
}

// IsEmpty reports whether every node has been popped.
func (q *PriorityQueue) IsEmpty() bool { return len(q.heap) == 0 }

// Pop removes and returns the node with the lowest priority.
func (q *PriorityQueue) Pop() (node int, priority int64, ok bool) {
	if len(q.heap) == 0 {
		return 0, 0, false
	}
	top := q.heap[0]
	topPriority := q.priority[top]
	last := len(q.heap) - 1
	q.swap(0, last)
	q.heap = q.heap[:last]
	delete(q.index, top)
	if len(q.heap) > 0 {
		q.siftDown(0)
	}
	return top, topPriority, true
}

func (q *PriorityQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.index[q.heap[i]] = i
	q.index[q.heap[j]] = j
}

func (q *PriorityQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.priority[q.heap[parent]] <= q.priority[q.heap[i]] {
			break
		}
		q.swap(parent, i)
		i = parent
	}
}

func (q *PriorityQueue) siftDown(i int) {
	n := len(q.heap)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && q.priority[q.heap[left]] < q.priority[q.heap[smallest]] {
			smallest = left
		}
		if right < n && q.priority[q.heap[right]] < q.priority[q.heap[smallest]] {
			smallest = right
		}
		if smallest == i {
			return
		}
		q.swap(i, smallest)
		i = smallest
	}
}
