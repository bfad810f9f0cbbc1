package engine

// taskQueue is a FIFO of WorkUnits. It carries no locking of its own — all
// three operations are linearizable only because every caller holds the
// owning Engine's mutex (spec.md §4.1, §5).
type taskQueue struct {
	units []WorkUnit
}

func newTaskQueue() *taskQueue {
	return &taskQueue{units: make([]WorkUnit, 0)}
}

// enqueue appends a unit to the tail.
func (q *taskQueue) enqueue(u WorkUnit) {
	q.units = append(q.units, u)
}

// claim pops the head unit, or reports ok=false if the queue is empty.
func (q *taskQueue) claim() (WorkUnit, bool) {
	if len(q.units) == 0 {
		return WorkUnit{}, false
	}
	u := q.units[0]
	q.units = q.units[1:]
	return u, true
}

// drop removes every unit whose CustomerID matches, preserving the
// relative order of the rest.
func (q *taskQueue) drop(customerID string) {
	kept := q.units[:0]
	for _, u := range q.units {
		if u.CustomerID != customerID {
			kept = append(kept, u)
		}
	}
	q.units = kept
}

// len reports the number of queued units, for tests.
func (q *taskQueue) len() int {
	return len(q.units)
}

// countFor reports how many queued units belong to customerID.
func (q *taskQueue) countFor(customerID string) int {
	n := 0
	for _, u := range q.units {
		if u.CustomerID == customerID {
			n++
		}
	}
	return n
}
