package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/screa/sha256-cracker/internal/crypto"
	"github.com/screa/sha256-cracker/pkg/device"
	crackerr "github.com/screa/sha256-cracker/pkg/errors"
	"github.com/screa/sha256-cracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEngine(t *testing.T, capacity int) *Engine {
	t.Helper()
	e, err := Open(context.Background(), device.NewCPU(4, nil, device.WithLocalSize(7)), capacity, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func batchOf(candidates ...string) *types.Batch {
	b := types.NewBatch(len(candidates))
	for _, c := range candidates {
		b.Append([]byte(c))
	}
	return b
}

func reference(s string) crypto.Digest {
	return crypto.DigestFromBytes(sha256.Sum256([]byte(s)))
}

func TestKernelVerify(t *testing.T) {
	require.NoError(t, NewKernel().Verify())
}

func TestKernelIdentity(t *testing.T) {
	k := NewKernel()
	assert.Equal(t, "sha256", k.Name())
	assert.Equal(t, KernelVersion, k.Source())
	assert.Equal(t, crypto.DigestWords, k.OutputWords())
}

func TestHashBatchMatchesReference(t *testing.T) {
	e := openEngine(t, 64)

	var candidates []string
	for n := 0; n <= crypto.MaxMessageLen; n++ {
		candidates = append(candidates, strings.Repeat(string(rune('a'+n%26)), n))
	}

	digests, err := e.HashBatch(context.Background(), batchOf(candidates...))
	require.NoError(t, err)
	require.Len(t, digests, len(candidates))
	for i, c := range candidates {
		assert.Equal(t, reference(c), digests[i], "candidate of length %d", len(c))
	}
}

func TestHashBatchOrder(t *testing.T) {
	e := openEngine(t, 8)
	c0, c1, c2 := "password", "hunter2", "qwerty"

	first, err := e.HashBatch(context.Background(), batchOf(c0, c1, c2))
	require.NoError(t, err)
	second, err := e.HashBatch(context.Background(), batchOf(c2, c0, c1))
	require.NoError(t, err)

	assert.Equal(t, []crypto.Digest{first[2], first[0], first[1]}, second)
	assert.Equal(t, reference(c1), first[1])
}

func TestHashBatchShorterAfterLonger(t *testing.T) {
	e := openEngine(t, 4)

	_, err := e.HashBatch(context.Background(), batchOf(strings.Repeat("x", 55), strings.Repeat("y", 40)))
	require.NoError(t, err)

	// Stale slot bytes from the previous dispatch must not leak in.
	digests, err := e.HashBatch(context.Background(), batchOf("a", ""))
	require.NoError(t, err)
	assert.Equal(t, []crypto.Digest{reference("a"), reference("")}, digests)
}

func TestHashBatchEmpty(t *testing.T) {
	e := openEngine(t, 4)
	digests, err := e.HashBatch(context.Background(), types.NewBatch(0))
	require.NoError(t, err)
	assert.Empty(t, digests)
}

func TestHashBatchCandidateTooLong(t *testing.T) {
	e := openEngine(t, 4)
	b := batchOf("ok", strings.Repeat("L", 56), "fine")
	b.Start = 100

	_, err := e.HashBatch(context.Background(), b)
	require.Error(t, err)
	assert.True(t, crackerr.IsKind(err, crackerr.KindCandidateTooLong))
	assert.Equal(t, int64(101), crackerr.GetContext(err)["index"])
}

func TestHashBatchOverCapacity(t *testing.T) {
	e := openEngine(t, 2)
	_, err := e.HashBatch(context.Background(), batchOf("a", "b", "c"))
	require.Error(t, err)
	assert.True(t, crackerr.IsKind(err, crackerr.KindDeviceDispatch))
}

func TestHashBatchAfterClose(t *testing.T) {
	e := openEngine(t, 2)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err := e.HashBatch(context.Background(), batchOf("a"))
	assert.True(t, crackerr.IsKind(err, crackerr.KindDeviceDispatch))
}

// brokenDevice builds nothing
type brokenDevice struct {
	closed bool
}

func (d *brokenDevice) Name() string { return "broken" }
func (d *brokenDevice) Close() error {
	d.closed = true
	return nil
}
func (d *brokenDevice) Build(context.Context, device.Kernel) (device.Program, error) {
	return nil, crackerr.Wrap(errors.New("no compiler"), crackerr.KindKernelBuild, "build", "unsupported device")
}

func TestOpenBuildFailureClosesDevice(t *testing.T) {
	dev := &brokenDevice{}
	_, err := Open(context.Background(), dev, 16, nil)
	require.Error(t, err)
	assert.True(t, crackerr.IsKind(err, crackerr.KindKernelBuild))
	assert.True(t, dev.closed)
}

func BenchmarkHashBatch(b *testing.B) {
	e, err := Open(context.Background(), device.NewCPU(0, nil), DefaultCapacity, nil)
	require.NoError(b, err)
	defer e.Close()

	batch := types.NewBatch(DefaultCapacity)
	for i := 0; i < DefaultCapacity; i++ {
		batch.Append([]byte(fmt.Sprintf("candidate-%d", i)))
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.HashBatch(context.Background(), batch); err != nil {
			b.Fatal(err)
		}
	}
}
