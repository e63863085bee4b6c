// Package engine hashes batches of candidates on a compute device.
//
// Each candidate is copied into a fixed-stride 64-byte input slot with its
// length alongside; the SHA-256 kernel runs one work-item per slot and writes
// eight digest words per slot. Only single-block messages are supported:
// candidates longer than crypto.MaxMessageLen are rejected, never truncated.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/screa/sha256-cracker/internal/crypto"
	"github.com/screa/sha256-cracker/internal/logger"
	"github.com/screa/sha256-cracker/pkg/device"
	crackerr "github.com/screa/sha256-cracker/pkg/errors"
	"github.com/screa/sha256-cracker/pkg/types"
)

const (
	// SlotSize is the input stride per candidate
	SlotSize = crypto.BlockSize
	// DefaultCapacity is the default number of candidates per dispatch
	DefaultCapacity = 5000
)

// Engine owns a device, the SHA-256 program built on it and the buffers it
// dispatches through. It is not safe for concurrent use.
type Engine struct {
	dev      device.Device
	prog     device.Program
	args     *device.Args
	capacity int
	logger   *logger.Logger

	closeOnce sync.Once
}

// Open builds the SHA-256 kernel on dev and allocates buffers for capacity
// candidates. The engine takes ownership of dev and closes it on Close or on
// failure.
func Open(ctx context.Context, dev device.Device, capacity int, log *logger.Logger) (*Engine, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = logger.NewNop()
	}

	prog, err := dev.Build(ctx, NewKernel())
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	args, err := prog.Alloc(capacity, SlotSize)
	if err != nil {
		prog.Release()
		_ = dev.Close()
		return nil, err
	}

	e := &Engine{
		dev:      dev,
		prog:     prog,
		args:     args,
		capacity: capacity,
		logger:   log.WithComponent("engine"),
	}
	e.logger.Debugw("engine ready",
		"device", dev.Name(),
		"kernel", KernelVersion,
		"capacity", capacity)
	return e, nil
}

// Capacity returns the maximum batch size
func (e *Engine) Capacity() int {
	return e.capacity
}

// HashBatch returns the SHA-256 digest of every candidate in b, in order.
// An empty batch is not dispatched.
func (e *Engine) HashBatch(ctx context.Context, b *types.Batch) ([]crypto.Digest, error) {
	if e.args == nil {
		return nil, crackerr.New(crackerr.KindDeviceDispatch, "hash batch", "engine is closed")
	}
	n := b.Len()
	if n == 0 {
		return nil, nil
	}
	if n > e.capacity {
		return nil, crackerr.New(crackerr.KindDeviceDispatch, "hash batch",
			fmt.Sprintf("batch of %d exceeds engine capacity %d", n, e.capacity)).
			WithContext("batch", b.Index)
	}

	for i := 0; i < n; i++ {
		if l := b.CandidateLen(i); l > crypto.MaxMessageLen {
			return nil, crackerr.New(crackerr.KindCandidateTooLong, "hash batch",
				fmt.Sprintf("candidate is %d bytes, single-block limit is %d", l, crypto.MaxMessageLen)).
				WithContext("batch", b.Index).
				WithContext("index", b.Start+int64(i))
		}
	}

	for i := 0; i < n; i++ {
		copy(e.args.Input[i*SlotSize:], b.Candidate(i))
		e.args.Sizes[i] = uint32(b.CandidateLen(i))
	}

	if err := e.prog.Enqueue(ctx, n, e.args); err != nil {
		return nil, err
	}

	out := make([]crypto.Digest, n)
	for i := range out {
		copy(out[i][:], e.args.Output[i*crypto.DigestWords:])
	}
	return out, nil
}

// Close releases the program, its buffers and the device
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.prog.Release()
		e.args = nil
		err = e.dev.Close()
	})
	return err
}
