package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ironsheep/droplet-freeze/internal/nm"
)

// RecordHeader is the header row of a record file.
var RecordHeader = []string{"temperature", "number of frozen droplets", "radius frozen droplets"}

// TableHeader is the header row of an evaluation file.
var TableHeader = append(append([]string{}, RecordHeader...), "Already_frozen", "frozen_fraction", "Nm")

// RecordFileName returns the record file name of an experiment.
func RecordFileName(experiment string) string {
	return "droplets_" + experiment + ".csv"
}

// EvaluationFileName returns the per-experiment table file name.
func EvaluationFileName(experiment string) string {
	return "evaluation_" + experiment + ".csv"
}

// OverallFileName returns the table file name for a whole folder.
func OverallFileName(root string) string {
	return "overall_evaluation_" + filepath.Base(filepath.Clean(root)) + ".csv"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func recordRow(r nm.FrameStepRecord) []string {
	return []string{formatFloat(r.Temperature), strconv.Itoa(r.Frozen), nm.FormatRadiusList(r.Radii)}
}

// WriteRecords writes the header and one row per record.
func WriteRecords(w io.Writer, records []nm.FrameStepRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadResult is what ReadRecords found in a record file.
type ReadResult struct {
	Records []nm.FrameStepRecord

	// BadRadii counts radius entries that were not numbers and were read
	// as 0.
	BadRadii int
}

// ReadRecords parses a record file. Rows with an unreadable temperature or
// count are errors; malformed radius entries are not.
func ReadRecords(r io.Reader) (*ReadResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	res := &ReadResult{Records: []nm.FrameStepRecord{}}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), RecordHeader[0]) {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: want at least 2 fields, got %d", i+1, len(row))
		}

		temp, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid temperature %q", i+1, row[0])
		}
		frozen, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid frozen count %q", i+1, row[1])
		}

		rec := nm.FrameStepRecord{Temperature: temp, Frozen: frozen, Radii: []int{}}
		if len(row) > 2 {
			radii, bad := nm.ParseRadiusList(row[2])
			rec.Radii = radii
			res.BadRadii += bad
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// ReadRecordFile parses the record file at path.
func ReadRecordFile(path string) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// FolderRecords is the content of every record file in a folder.
type FolderRecords struct {
	Files    []string
	Records  []nm.FrameStepRecord
	BadRadii int
}

// LoadFolder reads every droplets_*.csv in dir, in name order.
func LoadFolder(dir string) (*FolderRecords, error) {
	files, err := filepath.Glob(filepath.Join(dir, RecordFileName("*")))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s: %w", RecordFileName("*"), dir, os.ErrNotExist)
	}
	sort.Strings(files)

	out := &FolderRecords{Files: files}
	sets := make([][]nm.FrameStepRecord, 0, len(files))
	for _, path := range files {
		res, err := ReadRecordFile(path)
		if err != nil {
			return nil, err
		}
		sets = append(sets, res.Records)
		out.BadRadii += res.BadRadii
	}
	out.Records = nm.Concat(sets...)
	return out, nil
}

// WriteTable writes an evaluation table.
func WriteTable(w io.Writer, table *nm.ExperimentTable) error {
	if table == nil {
		return errors.New("nil table")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(TableHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range table.Rows {
		line := append(recordRow(row.FrameStepRecord),
			strconv.Itoa(row.Cumulative), formatFloat(row.FrozenFraction), formatFloat(row.Nm))
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveTable writes table to path, replacing any existing file.
func SaveTable(path string, table *nm.ExperimentTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteTable(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
