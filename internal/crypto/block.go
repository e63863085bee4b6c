package crypto

import (
	"fmt"
	"math/bits"

	crackerr "github.com/screa/sha256-cracker/pkg/errors"
)

const (
	// BlockSize is the SHA-256 block size in bytes
	BlockSize = 64
	// MaxMessageLen is the longest message that fits one padded block:
	// 55 bytes + 0x80 + 8-byte bit length = 64.
	MaxMessageLen = BlockSize - 1 - 8
)

// Initial hash words
var iv = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// Round constants
var _K = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// PackBlock loads msg into the first 16 schedule words as a single padded
// SHA-256 block: message bytes big-endian, 0x80 terminator, zero fill and
// the bit length in the last word. len(msg) must not exceed MaxMessageLen.
func PackBlock(w *[16]uint32, msg []byte) {
	*w = [16]uint32{}
	for i, b := range msg {
		w[i/4] |= uint32(b) << (8 * (3 - i%4))
	}
	n := len(msg)
	w[n/4] |= 0x80 << (8 * (3 - n%4))
	// w[14] holds the high half of the 64-bit length and stays zero.
	w[15] = uint32(n) << 3
}

// Compress runs the message schedule expansion and the 64 compression
// rounds over one packed block, starting from the standard initial hash.
func Compress(block *[16]uint32) Digest {
	var w [64]uint32
	copy(w[:16], block[:])

	for i := 16; i < 64; i++ {
		v1 := w[i-2]
		s1 := bits.RotateLeft32(v1, -17) ^ bits.RotateLeft32(v1, -19) ^ (v1 >> 10)
		v2 := w[i-15]
		s0 := bits.RotateLeft32(v2, -7) ^ bits.RotateLeft32(v2, -18) ^ (v2 >> 3)
		w[i] = s1 + w[i-7] + s0 + w[i-16]
	}

	a, b, c, d, e, f, g, h := iv[0], iv[1], iv[2], iv[3], iv[4], iv[5], iv[6], iv[7]

	for i := 0; i < 64; i++ {
		S1 := bits.RotateLeft32(e, -6) ^ bits.RotateLeft32(e, -11) ^ bits.RotateLeft32(e, -25)
		ch := (e & f) ^ (^e & g)
		t1 := h + S1 + ch + _K[i] + w[i]

		S0 := bits.RotateLeft32(a, -2) ^ bits.RotateLeft32(a, -13) ^ bits.RotateLeft32(a, -22)
		maj := (a & b) ^ (a & c) ^ (b & c)
		t2 := S0 + maj

		h = g
		g = f
		f = e
		e = d + t1
		d = c
		c = b
		b = a
		a = t1 + t2
	}

	return Digest{
		iv[0] + a, iv[1] + b, iv[2] + c, iv[3] + d,
		iv[4] + e, iv[5] + f, iv[6] + g, iv[7] + h,
	}
}

// SumBlock hashes a message that fits a single block.
// Longer messages fail with KindCandidateTooLong rather than being truncated.
func SumBlock(msg []byte) (Digest, error) {
	if len(msg) > MaxMessageLen {
		return Digest{}, crackerr.New(crackerr.KindCandidateTooLong, "sum block",
			fmt.Sprintf("message is %d bytes, single-block limit is %d", len(msg), MaxMessageLen))
	}
	var w [16]uint32
	PackBlock(&w, msg)
	return Compress(&w), nil
}
