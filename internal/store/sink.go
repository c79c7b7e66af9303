package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ironsheep/droplet-freeze/internal/nm"
	"github.com/ironsheep/droplet-freeze/internal/sequence"
)

// RecordSink streams step records to droplets_<experiment>.csv in Dir.
// Every row is flushed to disk as soon as it is recorded, so an interrupted
// run keeps what was classified so far.
type RecordSink struct {
	Dir string

	mu sync.Mutex
}

// NewRecordSink returns a sink writing into dir.
func NewRecordSink(dir string) *RecordSink {
	return &RecordSink{Dir: dir}
}

// Path returns the record file of exp.
func (s *RecordSink) Path(exp sequence.Experiment) string {
	return filepath.Join(s.Dir, RecordFileName(exp.Name))
}

// Begin truncates the record file and writes the header.
func (s *RecordSink) Begin(exp sequence.Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.Path(exp))
	if err != nil {
		return fmt.Errorf("failed to create record file: %w", err)
	}
	if err := WriteRecords(f, nil); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Record appends one row.
func (s *RecordSink) Record(exp sequence.Experiment, rec nm.FrameStepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(exp), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open record file: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(recordRow(rec)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Complete does nothing; every row is already on disk.
func (s *RecordSink) Complete(sequence.Experiment, []nm.FrameStepRecord) error {
	return nil
}
