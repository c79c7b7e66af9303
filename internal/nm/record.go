package nm

// FrameStepRecord is one temperature step in which at least one droplet
// froze.
type FrameStepRecord struct {
	// Temperature is the step's temperature as read from the frame.
	Temperature float64 `json:"temperature"`

	// Frozen is the number of droplets that froze in this step.
	Frozen int `json:"frozen"`

	// Radii are the pixel radii of the droplets that froze, in
	// classification order.
	Radii []int `json:"radii"`
}

// Row is a FrameStepRecord extended with the aggregated values.
type Row struct {
	FrameStepRecord

	// Cumulative is the number of droplets frozen up to and including
	// this step.
	Cumulative int `json:"already_frozen"`

	FrozenFraction float64 `json:"frozen_fraction"`
	Nm             float64 `json:"nm"`
}

// ExperimentTable is the aggregated result for one experiment or for a
// whole folder.
type ExperimentTable struct {
	Rows []Row `json:"rows"`

	// Warnings lists rows whose Nm was forced to 0 because no usable
	// volume could be computed.
	Warnings []string `json:"warnings,omitempty"`
}

// Total returns the number of droplets frozen over the whole table.
func (t *ExperimentTable) Total() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return t.Rows[len(t.Rows)-1].Cumulative
}

// Concat merges the records of several experiments. Ordering is left to
// Aggregate.
func Concat(sets ...[]FrameStepRecord) []FrameStepRecord {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make([]FrameStepRecord, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
