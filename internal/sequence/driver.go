package sequence

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
	"github.com/ironsheep/droplet-freeze/internal/freeze"
	"github.com/ironsheep/droplet-freeze/internal/imaging"
	"github.com/ironsheep/droplet-freeze/internal/nm"
	"github.com/ironsheep/droplet-freeze/internal/temperature"
)

// ErrAborted is returned when a reviewer answers Exit.
var ErrAborted = errors.New("run aborted by reviewer")

// State is the phase of the driver within one experiment.
type State int

const (
	Processing State = iota
	AnomalyReview
	Restart
	Abort
	Done
)

func (s State) String() string {
	switch s {
	case Processing:
		return "processing"
	case AnomalyReview:
		return "anomaly_review"
	case Restart:
		return "restart"
	case Abort:
		return "abort"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Detector finds droplets in a reference frame.
type Detector interface {
	Detect(img image.Image) ([]droplet.Circle, error)
}

// LabelReader reads the temperature printed on a frame. It is consulted
// only for frames whose name carries no temperature.
type LabelReader interface {
	ReadTemperature(img image.Image) (float64, error)
}

// PreviewWriter receives the reference frame and the droplets found on it.
// It is called after every detection, so a restarted experiment writes its
// preview again.
type PreviewWriter interface {
	WritePreview(exp Experiment, ref image.Image, droplets []droplet.Droplet) error
}

// Sink receives the records of an experiment as they are produced.
type Sink interface {
	// Begin is called before the first step of every attempt and discards
	// whatever an earlier attempt wrote.
	Begin(exp Experiment) error

	// Record is called for every step in which a droplet froze.
	Record(exp Experiment, rec nm.FrameStepRecord) error

	// Complete is called once the experiment reached Done.
	Complete(exp Experiment, records []nm.FrameStepRecord) error
}

// Options tunes the driver.
type Options struct {
	// ReferenceIndex selects the frame droplets are detected on. An index
	// past the end falls back to the first frame.
	ReferenceIndex int `yaml:"reference_index" json:"reference_index"`

	// MaxRestarts bounds the number of Retry answers per experiment.
	// Zero means unlimited.
	MaxRestarts int `yaml:"max_restarts" json:"max_restarts"`
}

// DefaultOptions detects on the second frame, the first one usually being
// taken before the stage settled.
func DefaultOptions() Options {
	return Options{ReferenceIndex: 1}
}

// Result summarizes one experiment.
type Result struct {
	Experiment Experiment           `json:"experiment"`
	State      State                `json:"state"`
	Records    []nm.FrameStepRecord `json:"records"`

	// Droplets is the number of droplets detected on the reference frame.
	Droplets int `json:"droplets"`
	Frozen   int `json:"frozen"`
	Ignored  int `json:"ignored"`

	// Steps is the number of frame pairs classified in the final attempt.
	Steps    int `json:"steps"`
	Restarts int `json:"restarts"`

	// EndReason says why the sequence stopped.
	EndReason string `json:"end_reason,omitempty"`

	// Err holds the first non-fatal problem of the experiment: detection,
	// frame loading or the sink.
	Err error `json:"-"`
}

func (r *Result) fail(err error) {
	if r.Err == nil {
		r.Err = err
	}
}

// Driver runs experiments.
type Driver struct {
	source     Source
	detector   Detector
	classifier *freeze.Classifier
	reviewer   Reviewer
	sink       Sink
	labels     LabelReader
	preview    PreviewWriter
	opts       Options
	log        logrus.FieldLogger
}

// NewDriver wires a driver. sink may be nil.
func NewDriver(source Source, detector Detector, classifier *freeze.Classifier, reviewer Reviewer, sink Sink, opts Options) *Driver {
	if sink == nil {
		sink = nopSink{}
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return &Driver{
		source:     source,
		detector:   detector,
		classifier: classifier,
		reviewer:   reviewer,
		sink:       sink,
		opts:       opts,
		log:        discard,
	}
}

// WithLogger sets the logger and returns d.
func (d *Driver) WithLogger(log logrus.FieldLogger) *Driver {
	if log != nil {
		d.log = log
	}
	return d
}

// WithLabelReader enables the label fallback for frames without a
// temperature in their name.
func (d *Driver) WithLabelReader(r LabelReader) *Driver {
	d.labels = r
	return d
}

// WithPreview sets the writer that records each detection result.
func (d *Driver) WithPreview(p PreviewWriter) *Driver {
	d.preview = p
	return d
}

// RunAll runs every experiment of the source.
func (d *Driver) RunAll(ctx context.Context) ([]*Result, error) {
	exps, err := d.source.Experiments()
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, exps)
}

// Run processes experiments in order. It stops early only on ErrAborted or
// when the reviewer can no longer answer; the results gathered so far are
// returned with the error.
func (d *Driver) Run(ctx context.Context, exps []Experiment) ([]*Result, error) {
	results := make([]*Result, 0, len(exps))
	for _, exp := range exps {
		res, err := d.RunExperiment(ctx, exp)
		results = append(results, res)
		if err != nil {
			return results, err
		}
		if res.Err != nil {
			d.log.WithField("experiment", exp.Name).WithError(res.Err).Warn("experiment finished with errors")
		}
	}
	return results, nil
}

// RunExperiment processes one experiment until Done, restarting it as often
// as the reviewer asks. The returned error is ErrAborted, a reviewer
// failure, or ctx's error; every other problem is reported in Result.Err.
func (d *Driver) RunExperiment(ctx context.Context, exp Experiment) (*Result, error) {
	log := d.log.WithField("experiment", exp.Name)

	for restarts := 0; ; restarts++ {
		res, err := d.attempt(ctx, exp, log)
		res.Restarts = restarts
		if err != nil {
			return res, err
		}

		switch res.State {
		case Restart:
			if d.opts.MaxRestarts > 0 && restarts+1 > d.opts.MaxRestarts {
				res.State = Done
				res.fail(fmt.Errorf("gave up after %d restarts", restarts))
				return res, nil
			}
			log.WithField("restart", restarts+1).Info("restarting experiment")
			continue
		case Abort:
			log.Warn("run aborted")
			return res, ErrAborted
		}

		log.WithFields(logrus.Fields{
			"droplets": res.Droplets,
			"frozen":   res.Frozen,
			"records":  len(res.Records),
			"reason":   res.EndReason,
		}).Info("experiment done")
		return res, nil
	}
}

// attempt runs the experiment once from detection on. It returns with
// State Done, Restart or Abort.
func (d *Driver) attempt(ctx context.Context, exp Experiment, log logrus.FieldLogger) (*Result, error) {
	res := &Result{Experiment: exp, State: Processing}

	frames, err := d.source.Frames(exp)
	if err != nil {
		res.State = Done
		res.fail(err)
		return res, nil
	}
	if len(frames) == 0 {
		res.State = Done
		res.EndReason = "no frames"
		return res, nil
	}

	window := imaging.NewFrameWindow(imaging.DefaultWindowSize)
	set := d.detect(exp, window, frames, res, log)
	res.Droplets = set.Len()

	if err := d.sink.Begin(exp); err != nil {
		res.State = Done
		res.fail(fmt.Errorf("failed to start output: %w", err))
		return res, nil
	}

	res.EndReason = "frames exhausted"
	var prevTemp float64
	for i := 1; i < len(frames); i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		frame := frames[i]

		temp, ok := d.temperature(window, frame, log)
		if !ok {
			res.EndReason = "no temperature in " + frame.Name
			break
		}
		if temp < prevTemp {
			res.EndReason = fmt.Sprintf("temperature %v after %v", temp, prevTemp)
			break
		}
		prevTemp = temp

		prev, err := window.Load(frames[i-1].Path)
		if err != nil {
			res.fail(err)
			res.EndReason = "unreadable frame"
			break
		}
		curr, err := window.Load(frame.Path)
		if err != nil {
			res.fail(err)
			res.EndReason = "unreadable frame"
			break
		}

		step, err := d.classifier.Classify(prev, curr, set, temp)
		if err != nil {
			res.fail(err)
			res.EndReason = "classification failed"
			break
		}
		res.Steps++

		if step.Anomalous {
			res.State = AnomalyReview
			decision, err := d.reviewer.Review(ctx, Anomaly{
				Experiment:  exp.Name,
				Frame:       frame.Name,
				Temperature: temp,
				Frozen:      step.Frozen,
				Limit:       d.classifier.Params().AnomalyCount,
			})
			if err != nil {
				return res, fmt.Errorf("anomaly review failed: %w", err)
			}
			log.WithFields(logrus.Fields{
				"temperature": temp,
				"frozen":      step.Count(),
				"decision":    decision.String(),
			}).Info("anomaly reviewed")

			switch decision {
			case Retry:
				res.State = Restart
				return res, nil
			case Exit:
				res.State = Abort
				return res, nil
			}
			res.State = Processing
		}

		if step.Count() == 0 {
			continue
		}
		rec := nm.FrameStepRecord{Temperature: temp, Frozen: step.Count(), Radii: step.Radii}
		res.Records = append(res.Records, rec)
		if err := d.sink.Record(exp, rec); err != nil {
			res.fail(fmt.Errorf("failed to write record: %w", err))
		}
	}

	res.State = Done
	res.Frozen = set.Count(droplet.Frozen)
	res.Ignored = set.Count(droplet.Ignored)
	if err := d.sink.Complete(exp, res.Records); err != nil {
		res.fail(fmt.Errorf("failed to complete output: %w", err))
	}
	return res, nil
}

// detect builds the droplet set from the reference frame. Failures leave
// the set empty so the experiment still completes.
func (d *Driver) detect(exp Experiment, window *imaging.FrameWindow, frames []Frame, res *Result, log logrus.FieldLogger) *droplet.Set {
	ref := d.opts.ReferenceIndex
	if ref < 0 || ref >= len(frames) {
		ref = 0
	}

	img, err := window.Load(frames[ref].Path)
	if err != nil {
		res.fail(err)
		log.WithError(err).Error("reference frame unreadable")
		return droplet.NewSet(nil)
	}

	circles, err := d.detector.Detect(img)
	if err != nil {
		res.fail(fmt.Errorf("detection failed: %w", err))
		log.WithError(err).Error("droplet detection failed")
		return droplet.NewSet(nil)
	}

	log.WithFields(logrus.Fields{"reference": frames[ref].Name, "droplets": len(circles)}).Info("droplets detected")
	set := droplet.NewSet(circles)
	if d.preview != nil {
		if err := d.preview.WritePreview(exp, img, set.All()); err != nil {
			log.WithError(err).Warn("failed to write detection preview")
		}
	}
	return set
}

// temperature returns the magnitude of frame's temperature from its name,
// falling back to the label reader.
func (d *Driver) temperature(window *imaging.FrameWindow, frame Frame, log logrus.FieldLogger) (float64, bool) {
	if t, ok := temperature.Parse(frame.Name); ok {
		return t, true
	}
	if d.labels == nil {
		return 0, false
	}

	img, err := window.Load(frame.Path)
	if err != nil {
		return 0, false
	}
	t, err := d.labels.ReadTemperature(img)
	if err != nil {
		log.WithField("frame", frame.Name).WithError(err).Debug("no temperature on label")
		return 0, false
	}
	return math.Abs(t), true
}

// MultiSink fans every call out to each sink in order and stops at the
// first error.
type MultiSink []Sink

func (m MultiSink) Begin(exp Experiment) error {
	for _, s := range m {
		if err := s.Begin(exp); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Record(exp Experiment, rec nm.FrameStepRecord) error {
	for _, s := range m {
		if err := s.Record(exp, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Complete(exp Experiment, records []nm.FrameStepRecord) error {
	for _, s := range m {
		if err := s.Complete(exp, records); err != nil {
			return err
		}
	}
	return nil
}

type nopSink struct{}

func (nopSink) Begin(Experiment) error { return nil }

func (nopSink) Record(Experiment, nm.FrameStepRecord) error { return nil }

func (nopSink) Complete(Experiment, []nm.FrameStepRecord) error { return nil }
