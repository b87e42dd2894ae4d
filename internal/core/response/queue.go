package response

import "sync"

// Queue is an unbounded FIFO of records with many producers and one
// consumer.
type Queue struct {
	mu      sync.Mutex
	records []InputRecord
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(rec InputRecord) {
	q.mu.Lock()
	q.records = append(q.records, rec)
	q.mu.Unlock()
}

// DrainAll removes and returns every queued record in arrival order.
// Records pushed while the drain runs land in the next drain.
func (q *Queue) DrainAll() []InputRecord {
	q.mu.Lock()
	out := q.records
	q.records = nil
	q.mu.Unlock()
	return out
}

// Len is advisory; the value may be stale by the time it is used.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Clear discards everything queued so far.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.records = nil
	q.mu.Unlock()
}
