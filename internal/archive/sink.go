package archive

import (
	"context"

	"github.com/ironsheep/droplet-freeze/internal/nm"
	"github.com/ironsheep/droplet-freeze/internal/sequence"
)

// Sink returns a sequence.Sink that stores step records under runID.
func (a *Archive) Sink(ctx context.Context, runID string) sequence.Sink {
	return &runSink{ctx: ctx, archive: a, runID: runID}
}

type runSink struct {
	ctx     context.Context
	archive *Archive
	runID   string
}

func (s *runSink) Begin(exp sequence.Experiment) error {
	return s.archive.ClearSteps(s.ctx, s.runID, exp.Name)
}

func (s *runSink) Record(exp sequence.Experiment, rec nm.FrameStepRecord) error {
	return s.archive.AddStep(s.ctx, s.runID, exp.Name, rec)
}

func (s *runSink) Complete(sequence.Experiment, []nm.FrameStepRecord) error {
	return nil
}
