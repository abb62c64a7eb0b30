package sample

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStreamAppendAndSnapshot(t *testing.T) {
	st := NewStream(4)
	for i := int64(1); i <= 3; i++ {
		if err := st.Append(Sample{Seq: i}); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	snap := st.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snap))
	}

	// Snapshot is a copy: mutating it must not affect the stream.
	snap[0].Seq = 99
	if got := st.Snapshot()[0].Seq; got != 1 {
		t.Errorf("stream mutated through snapshot, seq = %d", got)
	}
}

func TestStreamPreservesCompletionOrder(t *testing.T) {
	st := NewStream(0)
	order := []int64{3, 1, 2}
	for _, seq := range order {
		if err := st.Append(Sample{Seq: seq}); err != nil {
			t.Fatalf("Append error = %v", err)
		}
	}
	for i, s := range st.Snapshot() {
		if s.Seq != order[i] {
			t.Errorf("position %d has seq %d, want %d", i, s.Seq, order[i])
		}
	}
}

func TestStreamSealRejectsLateAppends(t *testing.T) {
	st := NewStream(0)
	if err := st.Append(Sample{Seq: 1}); err != nil {
		t.Fatalf("Append error = %v", err)
	}

	samples := st.Seal()
	if len(samples) != 1 {
		t.Fatalf("Seal() returned %d samples, want 1", len(samples))
	}
	if !st.Sealed() {
		t.Error("Sealed() = false after Seal")
	}

	err := st.Append(Sample{Seq: 2})
	if !errors.Is(err, ErrSealed) {
		t.Errorf("Append after Seal error = %v, want ErrSealed", err)
	}
	if st.Len() != 1 {
		t.Errorf("sealed stream length = %d, want 1", st.Len())
	}
}

func TestStreamConcurrentAppends(t *testing.T) {
	st := NewStream(0)
	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < perWorker; i++ {
				_ = st.Append(Sample{Seq: base*perWorker + i, Done: time.Now()})
			}
		}(int64(w))
	}
	wg.Wait()

	if got := st.Len(); got != workers*perWorker {
		t.Errorf("length = %d, want %d", got, workers*perWorker)
	}
}

func TestNewStreamNegativeHint(t *testing.T) {
	st := NewStream(-5)
	if err := st.Append(Sample{Seq: 1}); err != nil {
		t.Fatalf("Append error = %v", err)
	}
	if st.Len() != 1 {
		t.Errorf("length = %d, want 1", st.Len())
	}
}
