package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// Action is a unit of work executed on the scheduler thread.
type Action func()

// Task is a scheduled action. A Task is owned by at most one owner, which is
// used to cancel every pending task of a subscription at once.
type Task struct {
	due    time.Time
	seq    uint64
	owner  any
	action Action
	index  int
	q      *queue
}

// Cancel removes the task from its queue. It returns false when the task
// already ran or was cancelled before.
func (t *Task) Cancel() bool {
	if t == nil || t.q == nil {
		return false
	}
	return t.q.remove(t)
}

// taskHeap orders tasks by due time, then by insertion sequence so equal due
// times stay FIFO.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// queue is the due-time ordered action queue shared by every scheduler
// implementation.
type queue struct {
	mu     sync.Mutex
	items  taskHeap
	seq    uint64
	owners map[any]map[*Task]struct{}
}

func newQueue() *queue {
	return &queue{
		items:  make(taskHeap, 0, 64),
		owners: make(map[any]map[*Task]struct{}),
	}
}

func (q *queue) push(owner any, due time.Time, action Action) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	t := &Task{
		due:    due,
		seq:    q.seq,
		owner:  owner,
		action: action,
		q:      q,
	}
	heap.Push(&q.items, t)
	if owner != nil {
		set, ok := q.owners[owner]
		if !ok {
			set = make(map[*Task]struct{})
			q.owners[owner] = set
		}
		set[t] = struct{}{}
	}
	return t
}

// popDue removes and returns the head task if it is due at or before limit.
func (q *queue) popDue(limit time.Time) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || q.items[0].due.After(limit) {
		return nil
	}
	t := heap.Pop(&q.items).(*Task)
	q.forget(t)
	return t
}

// next returns the due time of the head task.
func (q *queue) next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].due, true
}

func (q *queue) remove(t *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t.index < 0 || t.index >= len(q.items) || q.items[t.index] != t {
		return false
	}
	heap.Remove(&q.items, t.index)
	q.forget(t)
	return true
}

func (q *queue) removeOwner(owner any) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	set, ok := q.owners[owner]
	if !ok {
		return 0
	}
	n := 0
	for t := range set {
		if t.index >= 0 && t.index < len(q.items) && q.items[t.index] == t {
			heap.Remove(&q.items, t.index)
			n++
		}
	}
	delete(q.owners, owner)
	return n
}

// forget drops the owner bookkeeping of a task that left the heap. Callers
// hold q.mu.
func (q *queue) forget(t *Task) {
	if t.owner == nil {
		return
	}
	if set, ok := q.owners[t.owner]; ok {
		delete(set, t)
		if len(set) == 0 {
			delete(q.owners, t.owner)
		}
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
