package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/droplet-freeze/internal/archive"
	"github.com/ironsheep/droplet-freeze/internal/nm"
	"github.com/ironsheep/droplet-freeze/internal/plot"
	"github.com/ironsheep/droplet-freeze/internal/sequence"
	"github.com/ironsheep/droplet-freeze/internal/store"
)

// evaluator turns records into evaluation tables and Nm plots inside dir,
// optionally archiving each table.
type evaluator struct {
	dir     string
	opts    nm.Options
	plot    plot.Options
	archive *archive.Archive
	runID   string
	log     logrus.FieldLogger
}

// write aggregates records and stores the table as tableFile and the plot
// as Nm_<name>.png. scope names the table in the archive.
func (e *evaluator) write(ctx context.Context, name, scope, tableFile string, records []nm.FrameStepRecord) (*nm.ExperimentTable, error) {
	log := e.log.WithField("experiment", name)

	table, err := nm.Aggregate(records, e.opts)
	if err != nil {
		return nil, err
	}
	for _, w := range table.Warnings {
		log.Warn(w)
	}

	if err := store.SaveTable(filepath.Join(e.dir, tableFile), table); err != nil {
		return nil, err
	}

	opts := e.plot
	if opts.Title == "" {
		opts.Title = name
	}
	switch err := plot.SaveNm(filepath.Join(e.dir, plot.FileName(name)), table, opts); {
	case errors.Is(err, plot.ErrNoData):
		log.Info("no positive Nm to plot")
	case err != nil:
		return nil, err
	}

	if e.archive != nil {
		if err := e.archive.SaveTable(ctx, e.runID, scope, table); err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{"rows": len(table.Rows), "frozen": table.Total()}).Info("evaluation written")
	return table, nil
}

// experiment evaluates the records of one experiment.
func (e *evaluator) experiment(ctx context.Context, name string, records []nm.FrameStepRecord) (*nm.ExperimentTable, error) {
	return e.write(ctx, name, name, store.EvaluationFileName(name), records)
}

// folder pools every record file in dir. With perExperiment set, each file
// is also evaluated on its own.
func (e *evaluator) folder(ctx context.Context, perExperiment bool) (*nm.ExperimentTable, error) {
	folder, err := store.LoadFolder(e.dir)
	if err != nil {
		return nil, err
	}
	if folder.BadRadii > 0 {
		e.log.WithField("entries", folder.BadRadii).Warn("malformed radius entries read as 0")
	}

	if perExperiment {
		for _, path := range folder.Files {
			res, err := store.ReadRecordFile(path)
			if err != nil {
				return nil, err
			}
			if _, err := e.experiment(ctx, experimentName(path), res.Records); err != nil {
				return nil, err
			}
		}
	}

	name := filepath.Base(filepath.Clean(e.dir))
	return e.write(ctx, name, archive.OverallScope, store.OverallFileName(e.dir), folder.Records)
}

// experimentName recovers the experiment from a record file path.
func experimentName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, "droplets_")
	return strings.TrimSuffix(base, ".csv")
}

// evaluationSink evaluates each experiment as soon as its sequence ends.
type evaluationSink struct {
	ctx context.Context
	ev  *evaluator
}

func (s *evaluationSink) Begin(sequence.Experiment) error {
	return nil
}

func (s *evaluationSink) Record(sequence.Experiment, nm.FrameStepRecord) error {
	return nil
}

func (s *evaluationSink) Complete(exp sequence.Experiment, records []nm.FrameStepRecord) error {
	_, err := s.ev.experiment(s.ctx, exp.Name, records)
	return err
}
