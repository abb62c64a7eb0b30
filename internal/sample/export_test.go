package sample

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func exportFixture() (RunMeta, []Sample) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	meta := RunMeta{
		RunID:   "01HTESTRUN0000000000000000",
		Target:  "http://localhost:8080/api",
		Started: start,
		Wall:    2 * time.Second,
	}
	samples := []Sample{
		{
			Seq:          1,
			Start:        start,
			DNSStart:     start.Add(1 * time.Millisecond),
			DNSDone:      start.Add(3 * time.Millisecond),
			ConnectStart: start.Add(3 * time.Millisecond),
			ConnectDone:  start.Add(8 * time.Millisecond),
			FirstByte:    start.Add(20 * time.Millisecond),
			Done:         start.Add(25 * time.Millisecond),
			StatusCode:   200,
			Bytes:        512,
		},
		{
			Seq:       2,
			Start:     start.Add(10 * time.Millisecond),
			Done:      start.Add(110 * time.Millisecond),
			Failure:   KindConnect,
			ErrorType: "net.OpError",
		},
	}
	return meta, samples
}

func TestWriteReadRoundTrip(t *testing.T) {
	meta, samples := exportFixture()
	path := filepath.Join(t.TempDir(), "run.jsonl")

	if err := WriteFile(path, meta, samples); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	gotMeta, gotSamples, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !reflect.DeepEqual(gotMeta, meta) {
		t.Errorf("meta mismatch:\n got %+v\nwant %+v", gotMeta, meta)
	}
	if !reflect.DeepEqual(gotSamples, samples) {
		t.Errorf("samples mismatch:\n got %+v\nwant %+v", gotSamples, samples)
	}
}

func TestWriteFileRemovesLock(t *testing.T) {
	meta, samples := exportFixture()
	path := filepath.Join(t.TempDir(), "run.jsonl")

	if err := WriteFile(path, meta, samples); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file still present after export: %v", err)
	}
}

func TestWriteFileRefusesHeldLock(t *testing.T) {
	meta, samples := exportFixture()
	path := filepath.Join(t.TempDir(), "run.jsonl")

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take lock for test: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	if err := WriteFile(path, meta, samples); err == nil {
		t.Fatal("WriteFile() should fail while the lock is held")
	}
}

func TestReadRejectsMissingHeader(t *testing.T) {
	_, _, err := Read(strings.NewReader(""))
	if err == nil {
		t.Fatal("Read() should fail on an empty stream")
	}
	if !strings.Contains(err.Error(), "run header") {
		t.Errorf("error = %v, want run header mention", err)
	}
}

func TestReadHeaderOnly(t *testing.T) {
	meta, _ := exportFixture()
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := WriteFile(path, meta, nil); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	gotMeta, gotSamples, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if gotMeta.RunID != meta.RunID {
		t.Errorf("RunID = %q, want %q", gotMeta.RunID, meta.RunID)
	}
	if len(gotSamples) != 0 {
		t.Errorf("got %d samples, want 0", len(gotSamples))
	}
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err == nil {
		t.Fatal("ReadFile() should fail for a missing file")
	}
}
