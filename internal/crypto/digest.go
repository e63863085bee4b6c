package crypto

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	crackerr "github.com/screa/sha256-cracker/pkg/errors"
)

const (
	// DigestSize is the SHA-256 digest length in bytes
	DigestSize = 32
	// DigestWords is the SHA-256 digest length in 32-bit words
	DigestWords = 8
	// DigestHexLen is the length of the canonical hex form
	DigestHexLen = 2 * DigestSize
)

// Digest is a SHA-256 digest as eight big-endian words, the layout the
// compression function produces. Equality is word-for-word.
type Digest [DigestWords]uint32

// DecodeDigest parses a 64-character hex string into digest words.
// Upper-case hex is accepted; Hex always returns lower case.
func DecodeDigest(s string) (Digest, error) {
	var d Digest
	if len(s) != DigestHexLen {
		return d, crackerr.New(crackerr.KindInvalidDigestFormat, "decode digest",
			fmt.Sprintf("got %d characters, want %d", len(s), DigestHexLen))
	}

	var raw [DigestSize]byte
	if _, err := hex.Decode(raw[:], []byte(s)); err != nil {
		return d, crackerr.Wrap(err, crackerr.KindInvalidDigestFormat, "decode digest", "invalid hex")
	}
	return DigestFromBytes(raw), nil
}

// EncodeDigest returns the lowercase hex form of d
func EncodeDigest(d Digest) string {
	raw := d.Bytes()
	return hex.EncodeToString(raw[:])
}

// DigestFromBytes reinterprets 32 bytes as big-endian words
func DigestFromBytes(raw [DigestSize]byte) Digest {
	var d Digest
	for i := range d {
		d[i] = binary.BigEndian.Uint32(raw[4*i:])
	}
	return d
}

// Bytes returns the 32-byte big-endian form of d
func (d Digest) Bytes() [DigestSize]byte {
	var raw [DigestSize]byte
	for i, w := range d {
		binary.BigEndian.PutUint32(raw[4*i:], w)
	}
	return raw
}

// Hex returns the lowercase hex form of d
func (d Digest) Hex() string {
	return EncodeDigest(d)
}

// String implements fmt.Stringer
func (d Digest) String() string {
	return d.Hex()
}
