// Package cracker drives the candidate pipeline: it pulls batches from a
// generator, hashes them on the engine, compares every digest with the
// target and stops as soon as one matches or the candidates run out.
package cracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/screa/sha256-cracker/internal/config"
	"github.com/screa/sha256-cracker/internal/crypto"
	"github.com/screa/sha256-cracker/internal/logger"
	"github.com/screa/sha256-cracker/internal/metrics"
	"github.com/screa/sha256-cracker/pkg/device"
	"github.com/screa/sha256-cracker/pkg/engine"
	crackerr "github.com/screa/sha256-cracker/pkg/errors"
	"github.com/screa/sha256-cracker/pkg/generator"
	"github.com/screa/sha256-cracker/pkg/types"
)

// HashEngine hashes one batch at a time, returning digests in input order
type HashEngine interface {
	HashBatch(ctx context.Context, b *types.Batch) ([]crypto.Digest, error)
	Close() error
}

// EngineFactory opens the engine for a single crack operation
type EngineFactory func(ctx context.Context) (HashEngine, error)

// Option configures a Cracker
type Option func(*Cracker)

// WithEngineFactory replaces the default CPU-backed engine
func WithEngineFactory(f EngineFactory) Option {
	return func(c *Cracker) {
		c.openEngine = f
	}
}

// WithMetrics records pipeline metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cracker) {
		c.metrics = m
	}
}

// ErrBusy is returned when Crack is called while another operation is running
var ErrBusy = errors.New("cracker: operation already running")

// Cracker coordinates crack operations. It runs one operation at a time;
// Stop, Attempts and Current refer to that operation.
type Cracker struct {
	config     *config.Config
	logger     *logger.Logger
	metrics    *metrics.Metrics
	openEngine EngineFactory

	attempts int64
	mu       sync.RWMutex
	state    *types.SearchState
	current  string
}

// New creates a new cracker instance
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *Cracker {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Cracker{
		config: cfg,
		logger: log.WithComponent("cracker"),
	}
	c.openEngine = c.cpuEngine
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.New(nil)
	}
	return c
}

func (c *Cracker) cpuEngine(ctx context.Context) (HashEngine, error) {
	dev := device.NewCPU(c.config.Workers, c.logger, device.WithLocalSize(c.config.LocalSize))
	return engine.Open(ctx, dev, c.config.BatchSize, c.logger)
}

// Crack searches src for a candidate whose SHA-256 digest equals target.
//
// The engine is opened for this call only and closed on every return path.
// The result state is StateFound, StateExhausted or, when ctx is done or Stop
// is called, StateCanceled. Any error is fatal and no result is returned.
func (c *Cracker) Crack(ctx context.Context, target crypto.Digest, src generator.Source) (*types.Result, error) {
	start := time.Now()
	state, ok := c.begin()
	if !ok {
		return nil, ErrBusy
	}
	defer c.end()

	stopOnCancel := context.AfterFunc(ctx, state.Stop)
	defer stopOnCancel()

	eng, err := c.openEngine(ctx)
	if err != nil {
		if crackerr.IsKind(err, crackerr.KindCanceled) {
			c.metrics.ObserveRun(types.StateCanceled.String())
			return &types.Result{State: types.StateCanceled, Duration: time.Since(start)}, nil
		}
		c.metrics.ObserveRun("error")
		return nil, err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			c.logger.Warnw("failed to release engine", "error", err)
		}
	}()

	if c.config.Verbose {
		logDone := make(chan struct{})
		defer close(logDone)
		go c.periodicLogger(c.config.GetLogInterval(), logDone, start)
	}

	result := &types.Result{State: types.StateRunning}
	chunker := generator.NewChunker(src, c.config.BatchSize, state)

	for !result.State.Terminal() {
		batch, ok := chunker.Next()
		if !ok {
			break
		}
		if ctx.Err() != nil {
			state.Stop()
		}
		if state.Stopped() {
			break
		}

		batchStart := time.Now()
		digests, err := eng.HashBatch(ctx, batch)
		if err != nil {
			if crackerr.IsKind(err, crackerr.KindCanceled) {
				state.Stop()
				break
			}
			c.metrics.ObserveRun("error")
			return nil, err
		}

		result.Batches++
		atomic.AddInt64(&c.attempts, int64(len(digests)))
		c.metrics.ObserveBatch(len(digests), time.Since(batchStart))
		c.setCurrent(batch.Last())
		c.logger.Debugw("batch hashed",
			"batch", batch.Index,
			"size", batch.Len(),
			"current_word", string(batch.Last()))

		if i := matchIndex(digests, target); i >= 0 {
			result.State = types.StateFound
			result.Candidate = append([]byte(nil), batch.Candidate(i)...)
			result.DigestHex = digests[i].Hex()
			result.Index = batch.Start + int64(i)
			state.Stop()
		}
	}

	if result.State == types.StateRunning {
		if state.Stopped() || ctx.Err() != nil {
			result.State = types.StateCanceled
		} else {
			result.State = types.StateExhausted
		}
	}

	if r, ok := src.(interface{ Err() error }); ok && result.State == types.StateExhausted {
		if err := r.Err(); err != nil {
			c.metrics.ObserveRun("error")
			return nil, fmt.Errorf("read candidates: %w", err)
		}
	}
	if s, ok := src.(generator.Skipper); ok {
		result.Skipped = s.Skipped()
		c.metrics.AddSkipped(result.Skipped)
		if result.Skipped > 0 {
			c.logger.Warnw("skipped candidates longer than the single-block limit",
				"skipped", result.Skipped,
				"limit", crypto.MaxMessageLen)
		}
	}

	result.Attempts = c.Attempts()
	result.Duration = time.Since(start)
	c.metrics.ObserveRun(result.State.String())
	return result, nil
}

// matchIndex returns the position of target in digests, or -1
func matchIndex(digests []crypto.Digest, target crypto.Digest) int {
	for i := range digests {
		if digests[i] == target {
			return i
		}
	}
	return -1
}

// Stop stops the running crack operation after its in-flight batch
func (c *Cracker) Stop() {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()
	if state != nil {
		state.Stop()
	}
}

// Attempts returns the number of candidates hashed by the current or last operation
func (c *Cracker) Attempts() int64 {
	return atomic.LoadInt64(&c.attempts)
}

// Current returns the last candidate of the most recent batch
func (c *Cracker) Current() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Cracker) begin() (*types.SearchState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != nil {
		return nil, false
	}
	state := types.NewSearchState()
	c.state = state
	c.current = ""
	atomic.StoreInt64(&c.attempts, 0)
	return state, true
}

func (c *Cracker) end() {
	c.mu.Lock()
	c.state = nil
	c.mu.Unlock()
}

func (c *Cracker) setCurrent(candidate []byte) {
	c.mu.Lock()
	c.current = string(candidate)
	c.mu.Unlock()
}

// periodicLogger logs cracking progress at regular intervals
func (c *Cracker) periodicLogger(interval time.Duration, done chan struct{}, start time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			attempts := c.Attempts()
			elapsed := time.Since(start)

			// Calculate rate safely
			rate := 0.0
			if elapsed.Seconds() > 0 {
				rate = float64(attempts) / elapsed.Seconds()
			}

			c.logger.Infof("Progress: %d attempts, %.2f hashes/sec, current word: %q",
				attempts, rate, c.Current())
		case <-done:
			return
		}
	}
}
