package generator

import (
	"bufio"
	"errors"
	"io"

	"github.com/screa/sha256-cracker/internal/crypto"
)

// ErrNotSeekable is returned by Wordlist.Reset for readers that cannot rewind
var ErrNotSeekable = errors.New("wordlist reader is not seekable")

// Wordlist streams candidates from a line-oriented reader.
// Lines longer than crypto.MaxMessageLen after stripping the line ending are
// skipped and counted. The reader is owned by the caller.
type Wordlist struct {
	r       io.Reader
	br      *bufio.Reader
	skipped int64
	done    bool
	err     error
}

// NewWordlist creates a wordlist source reading from r
func NewWordlist(r io.Reader) *Wordlist {
	return &Wordlist{
		r:  r,
		br: bufio.NewReader(r),
	}
}

// Next returns the next line that fits a single block
func (w *Wordlist) Next() ([]byte, bool) {
	for !w.done {
		line, overlong, ok := w.readLine()
		if !ok {
			w.done = true
			break
		}
		if overlong || len(line) > crypto.MaxMessageLen {
			w.skipped++
			continue
		}
		return line, true
	}
	return nil, false
}

// readLine returns the next line without its line ending. Lines that do not
// fit the read buffer are drained and reported as overlong.
func (w *Wordlist) readLine() (line []byte, overlong bool, ok bool) {
	for {
		chunk, err := w.br.ReadSlice('\n')
		switch {
		case err == nil:
			if overlong {
				return nil, true, true
			}
			return trimLineEnding(chunk), false, true
		case errors.Is(err, bufio.ErrBufferFull):
			overlong = true
		default:
			if !errors.Is(err, io.EOF) {
				w.err = err
			}
			if overlong {
				return nil, true, true
			}
			if len(chunk) == 0 {
				return nil, false, false
			}
			return trimLineEnding(chunk), false, true
		}
	}
}

// Skipped returns the number of lines dropped for exceeding the block limit
func (w *Wordlist) Skipped() int64 {
	return w.skipped
}

// Err returns the first non-EOF read error, if any
func (w *Wordlist) Err() error {
	return w.err
}

// Reset rewinds the wordlist to its first line
func (w *Wordlist) Reset() error {
	seeker, ok := w.r.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return err
	}
	w.br.Reset(w.r)
	w.skipped = 0
	w.done = false
	w.err = nil
	return nil
}

func trimLineEnding(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
