package device

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/screa/sha256-cracker/internal/logger"
	crackerr "github.com/screa/sha256-cracker/pkg/errors"
	"github.com/screa/sha256-cracker/pkg/worker"
)

// DefaultLocalSize is the number of work-items a lane takes at a time
const DefaultLocalSize = 256

// CPU is a Device whose lanes are goroutines
type CPU struct {
	lanes     int
	localSize int
	logger    *logger.Logger

	executed int64
	closed   atomic.Bool
}

// CPUOption configures a CPU device
type CPUOption func(*CPU)

// WithLocalSize sets how many work-items a lane processes per range
func WithLocalSize(n int) CPUOption {
	return func(c *CPU) {
		if n > 0 {
			c.localSize = n
		}
	}
}

// NewCPU creates a CPU device with the given number of lanes.
// A non-positive lane count uses every available CPU.
func NewCPU(lanes int, log *logger.Logger, opts ...CPUOption) *CPU {
	if lanes <= 0 {
		lanes = runtime.NumCPU()
	}
	if log == nil {
		log = logger.NewNop()
	}
	c := &CPU{
		lanes:     lanes,
		localSize: DefaultLocalSize,
		logger:    log.WithComponent("device"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the device name
func (c *CPU) Name() string {
	return fmt.Sprintf("cpu/%d", c.lanes)
}

// Lanes returns the number of parallel lanes
func (c *CPU) Lanes() int {
	return c.lanes
}

// Executed returns the number of work-items completed on this device
func (c *CPU) Executed() int64 {
	return atomic.LoadInt64(&c.executed)
}

// Build verifies the kernel against its known answers before accepting it
func (c *CPU) Build(ctx context.Context, k Kernel) (Program, error) {
	if c.closed.Load() {
		return nil, crackerr.New(crackerr.KindKernelBuild, "build", "device is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, crackerr.Wrap(err, crackerr.KindCanceled, "build", "canceled before build")
	}

	start := time.Now()
	if err := k.Verify(); err != nil {
		return nil, crackerr.Wrap(err, crackerr.KindKernelBuild, "build",
			fmt.Sprintf("kernel %s %s failed verification on %s", k.Name(), k.Source(), c.Name())).
			WithContext("kernel", k.Name())
	}
	if k.OutputWords() <= 0 {
		return nil, crackerr.New(crackerr.KindKernelBuild, "build",
			fmt.Sprintf("kernel %s declares %d output words", k.Name(), k.OutputWords()))
	}

	c.logger.Debugw("kernel built",
		"kernel", k.Name(),
		"source", k.Source(),
		"lanes", c.lanes,
		"elapsed", time.Since(start))

	return &cpuProgram{dev: c, kernel: k}, nil
}

// Close releases the device. It is safe to call more than once.
func (c *CPU) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.logger.Debugw("device closed", "work_items", c.Executed())
	}
	return nil
}

type cpuProgram struct {
	dev      *CPU
	kernel   Kernel
	released atomic.Bool
}

func (p *cpuProgram) Kernel() Kernel {
	return p.kernel
}

func (p *cpuProgram) Alloc(slots, slotSize int) (*Args, error) {
	if err := p.usable("alloc"); err != nil {
		return nil, err
	}
	if slots <= 0 || slotSize <= 0 {
		return nil, crackerr.New(crackerr.KindDeviceDispatch, "alloc",
			fmt.Sprintf("invalid buffer geometry %d x %d", slots, slotSize))
	}

	words := p.kernel.OutputWords()
	return &Args{
		SlotSize:    slotSize,
		OutputWords: words,
		Input:       make([]byte, slots*slotSize),
		Sizes:       make([]uint32, slots),
		Output:      make([]uint32, slots*words),
	}, nil
}

func (p *cpuProgram) Enqueue(ctx context.Context, workItems int, args *Args) error {
	if err := p.usable("enqueue"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return crackerr.Wrap(err, crackerr.KindCanceled, "enqueue", "canceled before dispatch")
	}
	if err := p.checkGeometry(workItems, args); err != nil {
		return err
	}
	if workItems == 0 {
		return nil
	}

	// Ranges already handed to a lane always run to completion.
	g := new(errgroup.Group)
	g.SetLimit(p.dev.lanes)
	for i, r := range worker.Split(workItems, p.dev.localSize) {
		r := r
		w := worker.NewWorker(i%p.dev.lanes, &p.dev.executed)
		g.Go(func() error {
			return w.Run(r, func(gid int) {
				p.kernel.Run(gid, args)
			})
		})
	}

	if err := g.Wait(); err != nil {
		return crackerr.Wrap(err, crackerr.KindDeviceDispatch, "enqueue",
			fmt.Sprintf("kernel %s failed", p.kernel.Name())).
			WithContext("work_items", workItems)
	}
	return nil
}

func (p *cpuProgram) Release() {
	p.released.Store(true)
}

func (p *cpuProgram) usable(op string) error {
	if p.dev.closed.Load() {
		return crackerr.New(crackerr.KindDeviceDispatch, op, "device is closed")
	}
	if p.released.Load() {
		return crackerr.New(crackerr.KindDeviceDispatch, op, "program is released")
	}
	return nil
}

func (p *cpuProgram) checkGeometry(workItems int, args *Args) error {
	if args == nil {
		return crackerr.New(crackerr.KindDeviceDispatch, "enqueue", "no buffers bound")
	}
	if workItems < 0 || workItems > args.Slots() {
		return crackerr.New(crackerr.KindDeviceDispatch, "enqueue",
			fmt.Sprintf("%d work-items exceed %d allocated slots", workItems, args.Slots()))
	}
	if args.SlotSize <= 0 || len(args.Input) < args.Slots()*args.SlotSize {
		return crackerr.New(crackerr.KindDeviceDispatch, "enqueue",
			fmt.Sprintf("input buffer of %d bytes is short for %d slots of %d", len(args.Input), args.Slots(), args.SlotSize))
	}
	if args.OutputWords != p.kernel.OutputWords() || len(args.Output) < args.Slots()*args.OutputWords {
		return crackerr.New(crackerr.KindDeviceDispatch, "enqueue",
			fmt.Sprintf("output buffer of %d words is short for %d slots of %d", len(args.Output), args.Slots(), p.kernel.OutputWords()))
	}
	return nil
}
