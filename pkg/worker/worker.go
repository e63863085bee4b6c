package worker

import (
	"fmt"
	"sync/atomic"
)

// Range is a half-open span of work-item ids [Start, End)
type Range struct {
	Start int
	End   int
}

// Len returns the number of work-items in the range
func (r Range) Len() int {
	return r.End - r.Start
}

// Func executes a single work-item
type Func func(gid int)

// Worker executes contiguous ranges of work-items for one device lane
type Worker struct {
	id       int
	executed *int64
}

// NewWorker creates a new worker instance. executed is shared across the
// device's workers and counts completed work-items.
func NewWorker(id int, executed *int64) *Worker {
	return &Worker{
		id:       id,
		executed: executed,
	}
}

// ID returns the worker's lane id
func (w *Worker) ID() int {
	return w.id
}

// Run executes fn for every work-item in r. Work-items are independent, so
// there is no cancellation once a range has started. A panic inside fn is
// recovered and returned as an error.
func (w *Worker) Run(r Range, fn Func) (err error) {
	gid := r.Start
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker %d: work-item %d panicked: %v", w.id, gid, p)
		}
	}()

	for ; gid < r.End; gid++ {
		fn(gid)
	}
	atomic.AddInt64(w.executed, int64(r.Len()))
	return nil
}

// Split divides n work-items into ranges of at most size items, in order
func Split(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	ranges := make([]Range, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		ranges = append(ranges, Range{Start: start, End: min(start+size, n)})
	}
	return ranges
}
