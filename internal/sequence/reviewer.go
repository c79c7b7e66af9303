package sequence

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Decision is the answer to an anomaly review.
type Decision int

const (
	// Continue accepts the step and goes on with the sequence.
	Continue Decision = iota

	// Retry discards the experiment's progress and starts it over.
	Retry

	// Exit stops the whole run.
	Exit
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "go on"
	case Retry:
		return "retry"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// ParseDecision accepts "go on", "retry" and "exit", ignoring case and
// surrounding space.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "go on":
		return Continue, nil
	case "retry":
		return Retry, nil
	case "exit":
		return Exit, nil
	}
	return 0, fmt.Errorf("unknown decision %q", s)
}

// Anomaly describes a step in which more droplets froze than allowed.
type Anomaly struct {
	Experiment  string  `json:"experiment"`
	Frame       string  `json:"frame"`
	Temperature float64 `json:"temperature"`

	// Frozen lists the droplet IDs that froze in the step.
	Frozen []int `json:"frozen"`

	// Limit is the largest count that does not need review.
	Limit int `json:"limit"`
}

// Reviewer resolves anomalies. Review blocks until a decision is made or
// ctx is done.
type Reviewer interface {
	Review(ctx context.Context, a Anomaly) (Decision, error)
}

// ReviewFunc adapts a function to Reviewer.
type ReviewFunc func(ctx context.Context, a Anomaly) (Decision, error)

// Review calls f.
func (f ReviewFunc) Review(ctx context.Context, a Anomaly) (Decision, error) {
	return f(ctx, a)
}

// StaticReviewer answers every anomaly with the same decision.
type StaticReviewer struct {
	decision Decision
}

// NewStaticReviewer returns a reviewer that always answers d. Retry is
// rejected: repeating the same input would ask again forever.
func NewStaticReviewer(d Decision) (*StaticReviewer, error) {
	if d != Continue && d != Exit {
		return nil, fmt.Errorf("static reviewer cannot answer %q", d)
	}
	return &StaticReviewer{decision: d}, nil
}

// Review returns the configured decision.
func (r *StaticReviewer) Review(ctx context.Context, _ Anomaly) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.decision, nil
}

// ConsoleReviewer asks on out and reads the answer from in, one line per
// answer. Unrecognized answers are asked again.
type ConsoleReviewer struct {
	out io.Writer

	once      sync.Once
	closeOnce sync.Once
	in        io.Reader
	lines     chan string
	done      chan struct{}
	err       error
}

// ErrReviewerClosed is returned by Review after Close.
var ErrReviewerClosed = errors.New("reviewer closed")

// NewConsoleReviewer creates a reviewer prompting on out and reading in.
// Close it when the run is over.
func NewConsoleReviewer(in io.Reader, out io.Writer) *ConsoleReviewer {
	return &ConsoleReviewer{in: in, out: out, done: make(chan struct{})}
}

// start reads in on a goroutine so a pending Review can observe ctx.
func (r *ConsoleReviewer) start() {
	r.lines = make(chan string)
	go func() {
		defer close(r.lines)

		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case r.lines <- scanner.Text():
			case <-r.done:
				r.err = ErrReviewerClosed
				return
			}
		}
		r.err = scanner.Err()
		if r.err == nil {
			r.err = io.ErrUnexpectedEOF
		}
	}()
}

// Close stops the reader goroutine. A read already blocked on in ends with
// the next line or EOF.
func (r *ConsoleReviewer) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return nil
}

// Review prints the anomaly and waits for "go on", "retry" or "exit".
func (r *ConsoleReviewer) Review(ctx context.Context, a Anomaly) (Decision, error) {
	select {
	case <-r.done:
		return 0, ErrReviewerClosed
	default:
	}
	r.once.Do(r.start)

	fmt.Fprintf(r.out, "\n%s: %d droplets froze at %v (%s), more than %d.\n",
		a.Experiment, len(a.Frozen), a.Temperature, a.Frame, a.Limit)

	for {
		fmt.Fprint(r.out, "Type 'go on' to accept, 'retry' to start the experiment over, or 'exit' to stop: ")

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case line, ok := <-r.lines:
			if !ok {
				return 0, fmt.Errorf("no decision: %w", r.err)
			}
			d, err := ParseDecision(line)
			if err != nil {
				fmt.Fprintf(r.out, "%v\n", err)
				continue
			}
			return d, nil
		}
	}
}

// ChanReviewer hands anomalies to another goroutine, e.g. a UI or a tool
// server, and waits for its decision.
type ChanReviewer struct {
	Anomalies chan<- Anomaly
	Decisions <-chan Decision
}

// Review sends a on Anomalies and returns the next value from Decisions.
func (r *ChanReviewer) Review(ctx context.Context, a Anomaly) (Decision, error) {
	select {
	case r.Anomalies <- a:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case d, ok := <-r.Decisions:
		if !ok {
			return 0, errors.New("decision channel closed")
		}
		return d, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
