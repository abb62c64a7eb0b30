package sample

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// RunMeta is the header record of a raw-results file. Together with the sample
// records it is sufficient to recompute the final report offline.
type RunMeta struct {
	RunID   string        `json:"run_id"`
	Target  string        `json:"target"`
	Started time.Time     `json:"started"`
	Wall    time.Duration `json:"wall_ns"`
}

// WriteFile exports a finalized run as JSON Lines: one RunMeta header record
// followed by one record per sample, in stream (completion) order. The file is
// guarded with an advisory lock so two concurrent runs pointed at the same
// path cannot interleave records.
func WriteFile(path string, meta RunMeta, samples []Sample) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock export file: %w", err)
	}
	if !locked {
		return fmt.Errorf("export file %s is locked by another run", path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(path + ".lock")
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("write run header: %w", err)
	}
	for i := range samples {
		if err := enc.Encode(samples[i]); err != nil {
			return fmt.Errorf("write sample %d: %w", samples[i].Seq, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush export file: %w", err)
	}
	return f.Close()
}

// ReadFile loads a raw-results file written by WriteFile.
func ReadFile(path string) (RunMeta, []Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return RunMeta{}, nil, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a raw-results stream: a RunMeta line followed by sample lines.
func Read(r io.Reader) (RunMeta, []Sample, error) {
	dec := json.NewDecoder(r)

	var meta RunMeta
	if err := dec.Decode(&meta); err != nil {
		return RunMeta{}, nil, fmt.Errorf("read run header: %w", err)
	}

	var samples []Sample
	for {
		var s Sample
		if err := dec.Decode(&s); err != nil {
			if err == io.EOF {
				break
			}
			return RunMeta{}, nil, fmt.Errorf("read sample %d: %w", len(samples), err)
		}
		samples = append(samples, s)
	}
	return meta, samples, nil
}
