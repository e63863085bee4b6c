package generator

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/screa/sha256-cracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, src Source, limit int) []string {
	t.Helper()
	var out []string
	for len(out) < limit {
		c, ok := src.Next()
		if !ok {
			break
		}
		out = append(out, string(c))
	}
	return out
}

func TestWordlistSkipsOverlongLines(t *testing.T) {
	long := "a-very-long-line-of-60-plus-characters" + strings.Repeat("-", 30)
	w := NewWordlist(strings.NewReader("abc\n" + long + "\nxyz"))

	assert.Equal(t, []string{"abc", "xyz"}, collect(t, w, 10))
	assert.Equal(t, int64(1), w.Skipped())
	assert.NoError(t, w.Err())
}

func TestWordlistLineEndings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"unix", "one\ntwo\n", []string{"one", "two"}},
		{"windows", "one\r\ntwo\r\n", []string{"one", "two"}},
		{"no trailing newline", "one\ntwo", []string{"one", "two"}},
		{"empty lines are candidates", "\n\nx\n", []string{"", "", "x"}},
		{"empty input", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWordlist(strings.NewReader(tt.input))
			assert.Equal(t, tt.want, collect(t, w, 10))
		})
	}
}

func TestWordlistLengthBoundary(t *testing.T) {
	ok55 := strings.Repeat("p", 55)
	bad56 := strings.Repeat("q", 56)
	w := NewWordlist(strings.NewReader(ok55 + "\r\n" + bad56 + "\n"))

	assert.Equal(t, []string{ok55}, collect(t, w, 10))
	assert.Equal(t, int64(1), w.Skipped())
}

func TestWordlistHugeLine(t *testing.T) {
	huge := strings.Repeat("h", 3*4096+17)
	w := NewWordlist(strings.NewReader("first\n" + huge + "\nlast\n" + huge))

	assert.Equal(t, []string{"first", "last"}, collect(t, w, 10))
	assert.Equal(t, int64(2), w.Skipped())
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestWordlistReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	w := NewWordlist(io.MultiReader(strings.NewReader("a\nb\n"), failingReader{boom}))

	assert.Equal(t, []string{"a", "b"}, collect(t, w, 10))
	assert.ErrorIs(t, w.Err(), boom)
}

func TestWordlistReset(t *testing.T) {
	w := NewWordlist(bytes.NewReader([]byte("a\nb\n")))
	first := collect(t, w, 10)
	require.NoError(t, w.Reset())
	assert.Equal(t, first, collect(t, w, 10))

	nonSeekable := NewWordlist(io.MultiReader(strings.NewReader("a\n")))
	assert.ErrorIs(t, nonSeekable.Reset(), ErrNotSeekable)
}

func TestPermutationLengthOneFirst(t *testing.T) {
	p := NewPermutation()
	first := collect(t, p, len(Alphanumeric))

	require.Len(t, first, 62)
	assert.Equal(t, Alphanumeric, strings.Join(first, ""))

	next, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "aa", string(next))
}

func TestPermutationNoDuplicatesWithinLength(t *testing.T) {
	p := NewPermutation(WithMinLength(2), WithMaxLength(2))
	all := collect(t, p, 62*62+10)

	require.Len(t, all, 62*62)
	seen := make(map[string]bool, len(all))
	for _, s := range all {
		assert.Len(t, s, 2)
		assert.False(t, seen[s], "duplicate %q", s)
		seen[s] = true
	}
	assert.True(t, seen["ab"])
	assert.True(t, seen["ba"])
	assert.Equal(t, "aa", all[0])
	assert.Equal(t, "ab", all[1])
	assert.Equal(t, "99", all[len(all)-1])
}

func TestPermutationSmallAlphabet(t *testing.T) {
	p := NewPermutation(WithAlphabet("abba"), WithMaxLength(3))
	assert.Equal(t, "ab", p.Alphabet())

	want := []string{
		"a", "b",
		"aa", "ab", "ba", "bb",
		"aaa", "aab", "aba", "abb", "baa", "bab", "bba", "bbb",
	}
	assert.Equal(t, want, collect(t, p, 100))

	p.Reset()
	assert.Equal(t, want, collect(t, p, 100))
}

func TestPermutationAtAgreesWithNext(t *testing.T) {
	p := NewPermutation(WithAlphabet("xyz"), WithMinLength(3), WithMaxLength(3))
	all := collect(t, p, 100)
	require.Len(t, all, 27)

	for i, s := range all {
		assert.Equal(t, s, string(p.At(3, uint64(i))))
	}
	assert.Nil(t, p.At(3, 27))
	assert.Nil(t, p.At(0, 0))
}

func TestPermutationEmptyAlphabet(t *testing.T) {
	p := NewPermutation(WithAlphabet(""))
	_, ok := p.Next()
	assert.False(t, ok)
}

func TestChunkerSizes(t *testing.T) {
	tests := []struct {
		name  string
		lines int
		size  int
		want  []int
	}{
		{"exact multiple", 6, 3, []int{3, 3}},
		{"short tail", 7, 3, []int{3, 3, 1}},
		{"single short batch", 2, 5, []int{2}},
		{"empty source", 0, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			for i := 0; i < tt.lines; i++ {
				sb.WriteString("w\n")
			}
			c := NewChunker(NewWordlist(strings.NewReader(sb.String())), tt.size, nil)

			var got []int
			var start int64
			for i := int64(0); ; i++ {
				b, ok := c.Next()
				if !ok {
					break
				}
				assert.Equal(t, i, b.Index)
				assert.Equal(t, start, b.Start)
				start += int64(b.Len())
				got = append(got, b.Len())
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(tt.lines), c.Pulled())

			_, ok := c.Next()
			assert.False(t, ok)
		})
	}
}

func TestChunkerPreservesOrder(t *testing.T) {
	p := NewPermutation(WithAlphabet("ab"), WithMaxLength(2))
	c := NewChunker(p, 4, nil)

	b1, ok := c.Next()
	require.True(t, ok)
	b2, ok := c.Next()
	require.True(t, ok)

	var got []string
	for _, b := range []*types.Batch{b1, b2} {
		for i := 0; i < b.Len(); i++ {
			got = append(got, string(b.Candidate(i)))
		}
	}
	assert.Equal(t, []string{"a", "b", "aa", "ab", "ba", "bb"}, got)
}

type countingSource struct {
	Source
	pulls int
}

func (c *countingSource) Next() ([]byte, bool) {
	c.pulls++
	return c.Source.Next()
}

func TestChunkerStopsPulling(t *testing.T) {
	state := types.NewSearchState()
	src := &countingSource{Source: NewPermutation()}
	c := NewChunker(src, 10, state)

	_, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, 10, src.pulls)

	state.Stop()
	_, ok = c.Next()
	assert.False(t, ok)
	assert.Equal(t, 10, src.pulls)
}
