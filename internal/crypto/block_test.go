package crypto

import (
	"crypto/sha256"
	"strings"
	"testing"

	crackerr "github.com/screa/sha256-cracker/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumBlockMatchesReference(t *testing.T) {
	msg := make([]byte, 0, MaxMessageLen)
	for n := 0; n <= MaxMessageLen; n++ {
		got, err := SumBlock(msg)
		require.NoError(t, err)
		assert.Equal(t, DigestFromBytes(sha256.Sum256(msg)), got, "length %d", n)
		msg = append(msg, byte('A'+n%26))
	}
}

func TestSumBlockBinary(t *testing.T) {
	msg := []byte{0x00, 0xff, 0x80, 0x7f, 0x01, 0xfe}
	got, err := SumBlock(msg)
	require.NoError(t, err)
	assert.Equal(t, DigestFromBytes(sha256.Sum256(msg)), got)
}

func TestSumBlockTooLong(t *testing.T) {
	_, err := SumBlock([]byte(strings.Repeat("x", MaxMessageLen+1)))
	require.Error(t, err)
	assert.True(t, crackerr.IsKind(err, crackerr.KindCandidateTooLong))
}

func TestPackBlock(t *testing.T) {
	var w [16]uint32
	w[3] = 0xdeadbeef // stale data must be cleared

	PackBlock(&w, []byte("abc"))
	assert.Equal(t, uint32(0x61626380), w[0])
	for i := 1; i < 15; i++ {
		assert.Zero(t, w[i], "word %d", i)
	}
	assert.Equal(t, uint32(24), w[15])

	PackBlock(&w, nil)
	assert.Equal(t, uint32(0x80000000), w[0])
	assert.Zero(t, w[15])
}

func BenchmarkSumBlock(b *testing.B) {
	msg := []byte("hunter2")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = SumBlock(msg)
	}
}
