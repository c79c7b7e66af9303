package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/droplet-freeze/internal/nm"
	"github.com/ironsheep/droplet-freeze/internal/sequence"
)

func TestRecordSink_StreamAndReadBack(t *testing.T) {
	dir := t.TempDir()
	sink := NewRecordSink(dir)
	exp := sequence.Experiment{Name: "exp1"}

	records := []nm.FrameStepRecord{
		{Temperature: 12.5, Frozen: 2, Radii: []int{50, 52}},
		{Temperature: 13.25, Frozen: 1, Radii: []int{61}},
	}

	if err := sink.Begin(exp); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for _, r := range records {
		if err := sink.Record(exp, r); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := sink.Complete(exp, records); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "droplets_exp1.csv"))
	if err != nil {
		t.Fatal(err)
	}
	wantText := "temperature,number of frozen droplets,radius frozen droplets\n" +
		"12.5,2,[50 52]\n" +
		"13.25,1,[61]\n"
	if string(raw) != wantText {
		t.Errorf("file content:\n%s\nwant:\n%s", raw, wantText)
	}

	res, err := ReadRecordFile(sink.Path(exp))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 2 || res.BadRadii != 0 {
		t.Fatalf("read back %+v", res)
	}
	if res.Records[1].Temperature != 13.25 || res.Records[0].Radii[1] != 52 {
		t.Errorf("read back %+v", res.Records)
	}
}

func TestRecordSink_BeginTruncates(t *testing.T) {
	dir := t.TempDir()
	sink := NewRecordSink(dir)
	exp := sequence.Experiment{Name: "exp1"}

	if err := sink.Begin(exp); err != nil {
		t.Fatal(err)
	}
	if err := sink.Record(exp, nm.FrameStepRecord{Temperature: 1.5, Frozen: 9, Radii: []int{1}}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Begin(exp); err != nil {
		t.Fatal(err)
	}

	res, err := ReadRecordFile(sink.Path(exp))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 0 {
		t.Errorf("restart kept %d records", len(res.Records))
	}
}

func TestReadRecords_MalformedRadii(t *testing.T) {
	in := "temperature, number of frozen droplets, radius frozen droplets\n" +
		"10.5, 2, [40 oops]\n" +
		"11.0, 1\n"

	res, err := ReadRecords(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if res.BadRadii != 1 {
		t.Errorf("BadRadii = %d, want 1", res.BadRadii)
	}
	if len(res.Records) != 2 || res.Records[0].Radii[1] != 0 || len(res.Records[1].Radii) != 0 {
		t.Errorf("records = %+v", res.Records)
	}
}

func TestReadRecords_Errors(t *testing.T) {
	tests := []string{
		"temperature,number of frozen droplets,radius frozen droplets\nwarm,1,[40]\n",
		"temperature,number of frozen droplets,radius frozen droplets\n1.0,many,[40]\n",
		"temperature,number of frozen droplets,radius frozen droplets\n1.0\n",
	}
	for _, in := range tests {
		if _, err := ReadRecords(strings.NewReader(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestLoadFolder(t *testing.T) {
	dir := t.TempDir()
	sink := NewRecordSink(dir)

	for name, recs := range map[string][]nm.FrameStepRecord{
		"b": {{Temperature: 3, Frozen: 1, Radii: []int{50}}},
		"a": {{Temperature: 2, Frozen: 2, Radii: []int{49, 51}}, {Temperature: 4, Frozen: 1, Radii: []int{55}}},
	} {
		exp := sequence.Experiment{Name: name}
		if err := sink.Begin(exp); err != nil {
			t.Fatal(err)
		}
		for _, r := range recs {
			if err := sink.Record(exp, r); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "evaluation_a.csv"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFolder(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Files) != 2 || filepath.Base(got.Files[0]) != "droplets_a.csv" {
		t.Errorf("files = %v", got.Files)
	}
	if len(got.Records) != 3 || got.Records[2].Temperature != 3 {
		t.Errorf("records = %+v", got.Records)
	}
}

func TestLoadFolder_Empty(t *testing.T) {
	_, err := LoadFolder(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestWriteTable(t *testing.T) {
	table, err := nm.Aggregate([]nm.FrameStepRecord{
		{Temperature: 5, Frozen: 2, Radii: []int{40, 42}},
		{Temperature: 8, Frozen: 3, Radii: []int{38, 41, 39}},
	}, nm.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, table); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "temperature,number of frozen droplets,radius frozen droplets,Already_frozen,frozen_fraction,Nm" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "5,2,[40 42],2,0.4,") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "8,3,[38 41 39],5,1,0" {
		t.Errorf("row 2 = %q", lines[2])
	}

	if err := WriteTable(&buf, nil); err == nil {
		t.Error("expected error for nil table")
	}
}

func TestFileNames(t *testing.T) {
	if got := OverallFileName("/data/run_2024/"); got != "overall_evaluation_run_2024.csv" {
		t.Errorf("OverallFileName = %q", got)
	}
	if got := EvaluationFileName("exp1"); got != "evaluation_exp1.csv" {
		t.Errorf("EvaluationFileName = %q", got)
	}
}
