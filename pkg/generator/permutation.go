package generator

import (
	"github.com/screa/sha256-cracker/internal/crypto"
)

// Alphanumeric is the default permutation alphabet, in enumeration order
const Alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Permutation enumerates every string over an alphabet by increasing length,
// repetition allowed, using an odometer of per-position alphabet indices.
// The rightmost position turns fastest. Without a maximum length the sequence
// only ends at crypto.MaxMessageLen, which is unreachable in practice.
type Permutation struct {
	alphabet []byte
	minLen   int
	maxLen   int

	idx     []int
	buf     []byte
	started bool
	done    bool
}

// PermutationOption configures a Permutation
type PermutationOption func(*Permutation)

// WithAlphabet replaces the alphabet. Repeated symbols are dropped.
func WithAlphabet(alphabet string) PermutationOption {
	return func(p *Permutation) {
		seen := make(map[byte]bool, len(alphabet))
		p.alphabet = p.alphabet[:0]
		for i := 0; i < len(alphabet); i++ {
			if !seen[alphabet[i]] {
				seen[alphabet[i]] = true
				p.alphabet = append(p.alphabet, alphabet[i])
			}
		}
	}
}

// WithMinLength sets the first length enumerated (default 1)
func WithMinLength(n int) PermutationOption {
	return func(p *Permutation) {
		p.minLen = n
	}
}

// WithMaxLength sets the last length enumerated. Zero means no bound below
// the single-block limit.
func WithMaxLength(n int) PermutationOption {
	return func(p *Permutation) {
		p.maxLen = n
	}
}

// NewPermutation creates a permutation source starting at its minimum length
func NewPermutation(opts ...PermutationOption) *Permutation {
	p := &Permutation{
		alphabet: []byte(Alphanumeric),
		minLen:   1,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.minLen < 1 {
		p.minLen = 1
	}
	if p.maxLen <= 0 || p.maxLen > crypto.MaxMessageLen {
		p.maxLen = crypto.MaxMessageLen
	}

	p.Reset()
	return p
}

// Reset restarts the enumeration from the first string of minimum length
func (p *Permutation) Reset() {
	p.started = false
	p.done = len(p.alphabet) == 0 || p.minLen > p.maxLen
	if !p.done {
		p.setLength(p.minLen)
	}
}

// Next returns the next string in enumeration order
func (p *Permutation) Next() ([]byte, bool) {
	if p.done {
		return nil, false
	}
	if !p.started {
		p.started = true
		return p.buf, true
	}

	for i := len(p.idx) - 1; i >= 0; i-- {
		p.idx[i]++
		if p.idx[i] < len(p.alphabet) {
			p.buf[i] = p.alphabet[p.idx[i]]
			return p.buf, true
		}
		p.idx[i] = 0
		p.buf[i] = p.alphabet[0]
	}

	// Every position wrapped: move on to the next length.
	if len(p.idx) >= p.maxLen {
		p.done = true
		return nil, false
	}
	p.setLength(len(p.idx) + 1)
	return p.buf, true
}

// At returns the string at position within the strings of the given length,
// in the same order Next produces them. It returns nil when position is out
// of range.
func (p *Permutation) At(length int, position uint64) []byte {
	if length < 1 || len(p.alphabet) == 0 {
		return nil
	}
	base := uint64(len(p.alphabet))

	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = p.alphabet[position%base]
		position /= base
	}
	if position != 0 {
		return nil
	}
	return out
}

// Alphabet returns the symbols in enumeration order
func (p *Permutation) Alphabet() string {
	return string(p.alphabet)
}

func (p *Permutation) setLength(n int) {
	p.idx = make([]int, n)
	p.buf = make([]byte, n)
	for i := range p.buf {
		p.buf[i] = p.alphabet[0]
	}
}
