package types

import (
	"sync"
	"time"
)

// State is the driver's search state
type State int

const (
	StateRunning State = iota
	StateFound
	StateExhausted
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFound:
		return "found"
	case StateExhausted:
		return "exhausted"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further batches may be dispatched in s
func (s State) Terminal() bool {
	return s != StateRunning
}

// Result represents the outcome of one crack operation
type Result struct {
	State     State
	Candidate []byte // set only when State is StateFound
	DigestHex string // set only when State is StateFound
	Index     int64  // global position of the matching candidate
	Attempts  int64  // candidates hashed
	Batches   int64  // batches dispatched
	Skipped   int64  // wordlist lines dropped for exceeding the block limit
	Duration  time.Duration
}

// Found reports whether the search ended with a match
func (r *Result) Found() bool {
	return r != nil && r.State == StateFound
}

// Batch is an ordered group of candidates dispatched together.
// Candidate i occupies Data[Offsets[i]:Offsets[i+1]].
type Batch struct {
	Index   int64 // zero-based batch sequence number
	Start   int64 // number of candidates before this batch
	Data    []byte
	Offsets []int
}

// NewBatch creates an empty batch with room for capacity candidates
func NewBatch(capacity int) *Batch {
	return &Batch{
		Data:    make([]byte, 0, capacity*8),
		Offsets: append(make([]int, 0, capacity+1), 0),
	}
}

// Len returns the number of candidates in the batch
func (b *Batch) Len() int {
	return len(b.Offsets) - 1
}

// Append copies c into the batch
func (b *Batch) Append(c []byte) {
	b.Data = append(b.Data, c...)
	b.Offsets = append(b.Offsets, len(b.Data))
}

// Candidate returns the i-th candidate. The slice aliases batch storage.
func (b *Batch) Candidate(i int) []byte {
	return b.Data[b.Offsets[i]:b.Offsets[i+1]:b.Offsets[i+1]]
}

// CandidateLen returns the byte length of the i-th candidate
func (b *Batch) CandidateLen(i int) int {
	return b.Offsets[i+1] - b.Offsets[i]
}

// Last returns the final candidate, or nil for an empty batch
func (b *Batch) Last() []byte {
	if b.Len() == 0 {
		return nil
	}
	return b.Candidate(b.Len() - 1)
}

// SearchState is the one-way stop flag shared by the driver and the chunker.
// It is safe for concurrent use.
type SearchState struct {
	once sync.Once
	done chan struct{}
}

// NewSearchState returns a running search state
func NewSearchState() *SearchState {
	return &SearchState{done: make(chan struct{})}
}

// Stop marks the search stopped. Subsequent calls are no-ops.
func (s *SearchState) Stop() {
	s.once.Do(func() { close(s.done) })
}

// Stopped reports whether Stop has been called
func (s *SearchState) Stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the search is stopped
func (s *SearchState) Done() <-chan struct{} {
	return s.done
}
