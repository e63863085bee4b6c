package generator

import (
	"github.com/screa/sha256-cracker/pkg/types"
)

// DefaultChunkSize is the number of candidates per batch
const DefaultChunkSize = 5000

// Chunker groups a source into fixed-size batches. It stops pulling from the
// source as soon as the shared search state is stopped.
type Chunker struct {
	src   Source
	size  int
	state *types.SearchState

	index  int64
	pulled int64
	done   bool
}

// NewChunker creates a chunker emitting batches of at most size candidates.
// A non-positive size falls back to DefaultChunkSize.
func NewChunker(src Source, size int, state *types.SearchState) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if state == nil {
		state = types.NewSearchState()
	}
	return &Chunker{
		src:   src,
		size:  size,
		state: state,
	}
}

// Next returns the next batch. Every batch holds size candidates except
// possibly the last one; an empty batch is never returned.
func (c *Chunker) Next() (*types.Batch, bool) {
	if c.done || c.state.Stopped() {
		return nil, false
	}

	batch := types.NewBatch(c.size)
	batch.Index = c.index
	batch.Start = c.pulled

	for batch.Len() < c.size {
		if c.state.Stopped() {
			c.done = true
			return nil, false
		}
		candidate, ok := c.src.Next()
		if !ok {
			c.done = true
			break
		}
		batch.Append(candidate)
	}

	if batch.Len() == 0 {
		return nil, false
	}

	c.index++
	c.pulled += int64(batch.Len())
	return batch, true
}

// Pulled returns the number of candidates emitted so far
func (c *Chunker) Pulled() int64 {
	return c.pulled
}
