package sample

import (
	"errors"
	"sync"
)

// ErrSealed is returned by Append once the stream has been finalized.
var ErrSealed = errors.New("sample stream is sealed")

// Stream is an append-only record of completed samples, ordered by completion.
// Workers append concurrently behind a single mutex; appends are infrequent
// relative to network wait, so contention stays low. Once sealed the stream is
// read-only.
type Stream struct {
	mu      sync.Mutex
	samples []Sample
	sealed  bool
}

// NewStream creates a stream. A positive hint pre-sizes the backing array for
// count-bounded runs.
func NewStream(hint int) *Stream {
	if hint < 0 {
		hint = 0
	}
	return &Stream{samples: make([]Sample, 0, hint)}
}

// Append records a completed sample. It fails with ErrSealed after Seal, which
// can happen when a forcibly drained request completes late; such samples are
// intentionally dropped so the finalized stream never changes.
func (st *Stream) Append(s Sample) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.sealed {
		return ErrSealed
	}
	st.samples = append(st.samples, s)
	return nil
}

// Len returns the number of samples recorded so far.
func (st *Stream) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.samples)
}

// Snapshot returns a copy of the samples recorded so far. Safe to call while
// workers are still appending.
func (st *Stream) Snapshot() []Sample {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Sample, len(st.samples))
	copy(out, st.samples)
	return out
}

// Seal finalizes the stream and returns the full sample slice. The returned
// slice is owned by the caller; further appends are rejected.
func (st *Stream) Seal() []Sample {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sealed = true
	return st.samples
}

// Sealed reports whether the stream has been finalized.
func (st *Stream) Sealed() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sealed
}
