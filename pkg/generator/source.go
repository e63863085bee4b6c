// Package generator produces candidate passwords lazily and groups them into
// batches for the hash engine.
package generator

// Source is a lazy, ordered sequence of candidate passwords.
//
// Next returns the next candidate, or ok == false once the sequence is
// exhausted. The returned slice is only valid until the following call.
type Source interface {
	Next() (candidate []byte, ok bool)
}

// Skipper is implemented by sources that drop input they cannot hash.
type Skipper interface {
	Skipped() int64
}
