// Package device models a data-parallel compute device: a kernel is built
// once, buffers are allocated for it, and it is enqueued over a range of
// work-items with the call blocking until every result is written back.
//
// The CPU implementation runs work-items on goroutine lanes so the rest of
// the pipeline is identical whether or not an accelerator backs it.
package device

import (
	"context"
)

// Args holds the device buffers a kernel operates on. Work-item gid reads
// Input[gid*SlotSize : (gid+1)*SlotSize] and Sizes[gid], and writes
// Output[gid*OutputWords : (gid+1)*OutputWords].
type Args struct {
	SlotSize    int
	OutputWords int
	Input       []byte
	Sizes       []uint32
	Output      []uint32
}

// Slots returns the number of work-items the buffers can hold
func (a *Args) Slots() int {
	return len(a.Sizes)
}

// Kernel is a fixed compute routine executed once per work-item.
// Work-items must not share mutable state.
type Kernel interface {
	// Name identifies the kernel in logs
	Name() string
	// Source identifies the kernel revision built on the device
	Source() string
	// OutputWords is the number of uint32 result words per work-item
	OutputWords() int
	// Run executes work-item gid
	Run(gid int, args *Args)
	// Verify runs the kernel's known-answer test. A failure means the
	// kernel cannot be trusted on this device.
	Verify() error
}

// Program is a kernel built for a device
type Program interface {
	Kernel() Kernel
	// Alloc allocates buffers for slots work-items of slotSize input bytes
	Alloc(slots, slotSize int) (*Args, error)
	// Enqueue runs workItems work-items over args and blocks until all of
	// them have completed. Cancellation is only observed before dispatch.
	Enqueue(ctx context.Context, workItems int, args *Args) error
	// Release frees the program; later calls fail
	Release()
}

// Device is a compute context with its queue
type Device interface {
	Name() string
	// Build compiles k for this device. Failures are not retryable.
	Build(ctx context.Context, k Kernel) (Program, error)
	// Close releases the device and every program built on it
	Close() error
}
