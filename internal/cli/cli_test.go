package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ironsheep/droplet-freeze/internal/archive"
	"github.com/ironsheep/droplet-freeze/internal/config"
	"github.com/ironsheep/droplet-freeze/internal/droplet"
	"github.com/ironsheep/droplet-freeze/internal/imaging"
	"github.com/ironsheep/droplet-freeze/internal/nm"
	"github.com/ironsheep/droplet-freeze/internal/plot"
	"github.com/ironsheep/droplet-freeze/internal/sequence"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestApplyDetectionFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantP2  float64
		wantMin int
		wantMax int
	}{
		{"none", nil, 25, 49, 140},
		{"param2", []string{"--param2", "30"}, 30, 49, 140},
		{"both radii", []string{"--min-radius", "30", "--max-radius", "60"}, 25, 98, 196},
		{"min only", []string{"--min-radius", "15"}, 25, 49, 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := pflag.NewFlagSet(tt.name, pflag.ContinueOnError)
			addDetectionFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}

			cfg := config.Default()
			applyDetectionFlags(fs, &cfg)

			if cfg.Detection.Param2 != tt.wantP2 {
				t.Errorf("param2 = %v, want %v", cfg.Detection.Param2, tt.wantP2)
			}
			if cfg.Detection.MinRadius != tt.wantMin || cfg.Detection.MaxRadius != tt.wantMax {
				t.Errorf("radii = %d..%d, want %d..%d",
					cfg.Detection.MinRadius, cfg.Detection.MaxRadius, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestApplyAggregationFlags(t *testing.T) {
	fs := pflag.NewFlagSet("agg", pflag.ContinueOnError)
	addAggregationFlags(fs)
	if err := fs.Parse([]string{"--policy", "individually", "--archive", "file:x.db"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	if err := applyAggregationFlags(fs, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Aggregation.Policy != nm.PolicyIndividual || cfg.Archive != "file:x.db" {
		t.Errorf("policy = %q, archive = %q", cfg.Aggregation.Policy, cfg.Archive)
	}

	bad := pflag.NewFlagSet("bad", pflag.ContinueOnError)
	addAggregationFlags(bad)
	if err := bad.Parse([]string{"--policy", "median"}); err != nil {
		t.Fatal(err)
	}
	if err := applyAggregationFlags(bad, &cfg); err == nil {
		t.Error("unknown policy should be rejected")
	}
}

func TestNewReviewer(t *testing.T) {
	ctx := context.Background()

	r, err := newReviewer("go-on", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := r.Review(ctx, sequence.Anomaly{}); d != sequence.Continue {
		t.Errorf("go-on reviewer answered %v", d)
	}

	r, err = newReviewer("exit", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := r.Review(ctx, sequence.Anomaly{}); d != sequence.Exit {
		t.Errorf("exit reviewer answered %v", d)
	}

	var out bytes.Buffer
	r, err = newReviewer("ask", strings.NewReader("retry\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if d, err := r.Review(ctx, sequence.Anomaly{Experiment: "e1", Limit: 6, Frozen: []int{1, 2, 3, 4, 5, 6, 7}}); err != nil || d != sequence.Retry {
		t.Errorf("ask reviewer = %v, %v; want retry", d, err)
	}

	if _, err := newReviewer("maybe", nil, nil); err == nil {
		t.Error("unknown mode should be rejected")
	}
}

func TestExperimentName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/droplets_exp1.csv", "exp1"},
		{"droplets_run_2024-01-05.csv", "run_2024-01-05"},
		{filepath.Join("a", "droplets_.csv"), ""},
	}
	for _, tt := range tests {
		if got := experimentName(tt.path); got != tt.want {
			t.Errorf("experimentName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func writeRecordFile(t *testing.T, dir, name, content string) {
	t.Helper()
	header := "temperature,number of frozen droplets,radius frozen droplets\n"
	if err := os.WriteFile(filepath.Join(dir, "droplets_"+name+".csv"), []byte(header+content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEvaluator_Folder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "assay")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeRecordFile(t, dir, "e1", "5,2,[40 42]\n8,3,[38 41 39]\n")
	writeRecordFile(t, dir, "e2", "6.5,1,[45]\n")

	arch, err := archive.Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("archive.Open failed: %v", err)
	}
	defer arch.Close()
	runID, err := arch.StartRun(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	ev := &evaluator{
		dir:     dir,
		opts:    nm.DefaultOptions(),
		plot:    plot.DefaultOptions(),
		archive: arch,
		runID:   runID,
		log:     quietLogger(),
	}
	table, err := ev.folder(context.Background(), true)
	if err != nil {
		t.Fatalf("folder failed: %v", err)
	}
	if table.Total() != 6 || len(table.Rows) != 3 {
		t.Errorf("overall table: total %d, rows %d", table.Total(), len(table.Rows))
	}

	for _, name := range []string{
		"evaluation_e1.csv", "evaluation_e2.csv", "overall_evaluation_assay.csv",
		"Nm_e1.png", "Nm_assay.png",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	stored, err := arch.Table(context.Background(), runID, archive.OverallScope)
	if err != nil {
		t.Fatalf("archived table: %v", err)
	}
	if len(stored.Rows) != 3 {
		t.Errorf("archived %d rows, want 3", len(stored.Rows))
	}
	if _, err := arch.Table(context.Background(), runID, "e1"); err != nil {
		t.Errorf("experiment table not archived: %v", err)
	}
}

func TestEvaluator_FolderWithoutRecords(t *testing.T) {
	ev := &evaluator{dir: t.TempDir(), opts: nm.DefaultOptions(), plot: plot.DefaultOptions(), log: quietLogger()}
	_, err := ev.folder(context.Background(), false)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestEvaluationSink_Complete(t *testing.T) {
	dir := t.TempDir()
	ev := &evaluator{dir: dir, opts: nm.DefaultOptions(), plot: plot.DefaultOptions(), log: quietLogger()}
	sink := &evaluationSink{ctx: context.Background(), ev: ev}

	exp := sequence.Experiment{Name: "exp7", Dir: filepath.Join(dir, "exp7")}
	records := []nm.FrameStepRecord{{Temperature: 4, Frozen: 1, Radii: []int{50}}}
	if err := sink.Begin(exp); err != nil {
		t.Fatal(err)
	}
	if err := sink.Record(exp, records[0]); err != nil {
		t.Fatal(err)
	}
	if err := sink.Complete(exp, records); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "evaluation_exp7.csv")); err != nil {
		t.Errorf("evaluation not written: %v", err)
	}
	// A single step freezes everything: Nm is 0 and there is nothing to plot.
	if _, err := os.Stat(filepath.Join(dir, "Nm_exp7.png")); !os.IsNotExist(err) {
		t.Errorf("plot should be skipped without positive Nm, stat err = %v", err)
	}
}

func TestPrintResults(t *testing.T) {
	var out bytes.Buffer
	printResults(&out, nil)
	if !strings.Contains(out.String(), "No experiments found") {
		t.Errorf("empty output = %q", out.String())
	}

	out.Reset()
	printResults(&out, []*sequence.Result{
		{Experiment: sequence.Experiment{Name: "e1"}, State: sequence.Done, Droplets: 12, Frozen: 9, Steps: 20, EndReason: "last frame"},
		{Experiment: sequence.Experiment{Name: "e2"}, State: sequence.Done, Err: errors.New("no droplets detected")},
	})
	text := out.String()
	for _, want := range []string{"EXPERIMENT", "e1", "last frame", "e2", "no droplets detected"} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q:\n%s", want, text)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	build = BuildInfo{Version: "1.0.0", BuildTime: "today", GitCommit: "abc123"}
	defer func() { build = BuildInfo{Version: "dev", BuildTime: "unknown", GitCommit: "unknown"} }()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "droplet-freeze 1.0.0") || !strings.Contains(out.String(), "abc123") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestConfigCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Parse(out.Bytes())
	if err != nil {
		t.Fatalf("printed config does not parse: %v\n%s", err, out.String())
	}
	if cfg.Freeze.Threshold != config.Default().Freeze.Threshold {
		t.Errorf("threshold = %v", cfg.Freeze.Threshold)
	}
}

func TestPreviewWriter(t *testing.T) {
	dir := t.TempDir()
	ref := image.NewRGBA(image.Rect(0, 0, 120, 80))
	droplets := droplet.NewSet([]droplet.Circle{
		{Center: droplet.Point{X: 40, Y: 40}, Radius: 10},
	}).All()

	p := &previewWriter{dir: dir, opts: imaging.DefaultOverlayOptions(), log: quietLogger()}
	if err := p.WritePreview(sequence.Experiment{Name: "exp3", Dir: dir}, ref, droplets); err != nil {
		t.Fatalf("WritePreview failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "detected_exp3.png"))
	if err != nil {
		t.Fatalf("preview not written: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if img.Bounds() != ref.Bounds() {
		t.Errorf("preview bounds %v, want %v", img.Bounds(), ref.Bounds())
	}
}

func TestPreviewWriter_MissingDir(t *testing.T) {
	p := &previewWriter{dir: filepath.Join(t.TempDir(), "missing"), opts: imaging.DefaultOverlayOptions(), log: quietLogger()}
	if err := p.WritePreview(sequence.Experiment{Name: "exp3"}, image.NewRGBA(image.Rect(0, 0, 10, 10)), nil); err == nil {
		t.Error("expected error for a missing directory")
	}
}
