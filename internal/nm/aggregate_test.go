package nm

import (
	"math"
	"testing"
)

func twoStepRecords() []FrameStepRecord {
	return []FrameStepRecord{
		{Temperature: -5.0, Frozen: 2, Radii: []int{40, 42}},
		{Temperature: -8.0, Frozen: 3, Radii: []int{38, 41, 39}},
	}
}

func closeTo(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
}

func TestAggregate_TwoSteps(t *testing.T) {
	table, err := Aggregate(twoStepRecords(), DefaultOptions())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}

	r0, r1 := table.Rows[0], table.Rows[1]
	if r0.Temperature != -5.0 || r1.Temperature != -8.0 {
		t.Errorf("order: got %v, %v", r0.Temperature, r1.Temperature)
	}
	if r0.Cumulative != 2 || r1.Cumulative != 5 {
		t.Errorf("cumulative: got %d, %d, want 2, 5", r0.Cumulative, r1.Cumulative)
	}
	if r0.FrozenFraction != 0.4 || r1.FrozenFraction != 1.0 {
		t.Errorf("frozen fraction: got %v, %v, want 0.4, 1", r0.FrozenFraction, r1.FrozenFraction)
	}

	// Pooled mean radius is 40 px.
	v := DefaultCalibration().Volume(40)
	want := RoundSig(-math.Log(0.6)/v, 4)
	if !closeTo(r0.Nm, want) {
		t.Errorf("Nm[0] = %v, want %v", r0.Nm, want)
	}
	if r1.Nm != 0 {
		t.Errorf("Nm[1] = %v, want 0", r1.Nm)
	}
	if len(table.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", table.Warnings)
	}
	if table.Total() != 5 {
		t.Errorf("Total() = %d, want 5", table.Total())
	}
}

func TestAggregate_IndividualVolume(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = PolicyIndividual

	table, err := Aggregate(twoStepRecords(), opts)
	if err != nil {
		t.Fatal(err)
	}

	v := DefaultCalibration().Volume(41)
	want := RoundSig(-math.Log(0.6)/v, 4)
	if !closeTo(table.Rows[0].Nm, want) {
		t.Errorf("Nm[0] = %v, want %v", table.Rows[0].Nm, want)
	}
}

func TestAggregate_Constants(t *testing.T) {
	opts := DefaultOptions()
	opts.Constants = Constants{D: 2, A: 3, B: 4}

	table, err := Aggregate(twoStepRecords(), opts)
	if err != nil {
		t.Fatal(err)
	}

	v := DefaultCalibration().Volume(40)
	want := RoundSig(-math.Log(0.6)*(2*3)/(v*4), 4)
	if !closeTo(table.Rows[0].Nm, want) {
		t.Errorf("Nm[0] = %v, want %v", table.Rows[0].Nm, want)
	}
}

func TestAggregate_Properties(t *testing.T) {
	records := []FrameStepRecord{
		{Temperature: 14.2, Frozen: 1, Radii: []int{60}},
		{Temperature: 10.1, Frozen: 4, Radii: []int{55, 58, 61, 49}},
		{Temperature: 22.8, Frozen: 2, Radii: []int{52, 50}},
		{Temperature: 18.0, Frozen: 7, Radii: []int{50, 51, 52, 53, 54, 55, 56}},
		{Temperature: 25.5, Frozen: 1, Radii: []int{70}},
	}

	for _, policy := range []VolumePolicy{PolicyMean, PolicyIndividual} {
		opts := DefaultOptions()
		opts.Policy = policy

		table, err := Aggregate(records, opts)
		if err != nil {
			t.Fatal(err)
		}

		sum := 0
		for _, r := range records {
			sum += r.Frozen
		}
		if table.Total() != sum {
			t.Errorf("%s: final cumulative %d, want %d", policy, table.Total(), sum)
		}

		prev := table.Rows[0]
		for i, row := range table.Rows {
			if row.FrozenFraction < 0 || row.FrozenFraction > 1 {
				t.Errorf("%s row %d: frozen fraction %v out of range", policy, i, row.FrozenFraction)
			}
			if row.Nm < 0 {
				t.Errorf("%s row %d: negative Nm %v", policy, i, row.Nm)
			}
			if row.FrozenFraction == 1 && row.Nm != 0 {
				t.Errorf("%s row %d: Nm %v at frozen fraction 1", policy, i, row.Nm)
			}
			if i > 0 {
				if row.Cumulative < prev.Cumulative {
					t.Errorf("%s row %d: cumulative decreased", policy, i)
				}
				if row.FrozenFraction < prev.FrozenFraction {
					t.Errorf("%s row %d: frozen fraction decreased", policy, i)
				}
				if math.Abs(row.Temperature) < math.Abs(prev.Temperature) {
					t.Errorf("%s row %d: rows not ordered by temperature", policy, i)
				}
			}
			prev = row
		}
		if last := table.Rows[len(table.Rows)-1]; last.FrozenFraction != 1 {
			t.Errorf("%s: last frozen fraction %v, want 1", policy, last.FrozenFraction)
		}
	}
}

func TestAggregate_StableOrder(t *testing.T) {
	records := []FrameStepRecord{
		{Temperature: 5.5, Frozen: 1, Radii: []int{50}},
		{Temperature: 3.2, Frozen: 1, Radii: []int{51}},
		{Temperature: -5.5, Frozen: 1, Radii: []int{52}},
	}

	table, err := Aggregate(records, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	want := []int{51, 50, 52}
	for i, w := range want {
		if table.Rows[i].Radii[0] != w {
			t.Errorf("row %d: radius %d, want %d", i, table.Rows[i].Radii[0], w)
		}
	}
	if records[0].Temperature != 5.5 {
		t.Error("input records reordered")
	}
}

func TestAggregate_Empty(t *testing.T) {
	table, err := Aggregate(nil, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 0 || table.Total() != 0 {
		t.Errorf("expected empty table, got %+v", table)
	}
}

func TestAggregate_MissingVolume(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = PolicyIndividual

	records := []FrameStepRecord{
		{Temperature: 3, Frozen: 1, Radii: nil},
		{Temperature: 4, Frozen: 1, Radii: []int{50}},
	}

	table, err := Aggregate(records, opts)
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows[0].Nm != 0 {
		t.Errorf("Nm without radii: got %v, want 0", table.Rows[0].Nm)
	}
	if len(table.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(table.Warnings))
	}
}

func TestAggregate_ZeroRadiiFromBadEntries(t *testing.T) {
	radii, bad := ParseRadiusList("[x y]")
	if bad != 2 {
		t.Fatalf("bad = %d, want 2", bad)
	}

	records := []FrameStepRecord{
		{Temperature: 3, Frozen: 2, Radii: radii},
		{Temperature: 4, Frozen: 1, Radii: []int{0}},
	}
	table, err := Aggregate(records, DefaultOptions())
	if err != nil {
		t.Fatalf("bad radius entries must not fail aggregation: %v", err)
	}
	if table.Rows[0].Nm != 0 || len(table.Warnings) != 1 {
		t.Errorf("zero pooled volume: Nm %v, warnings %v", table.Rows[0].Nm, table.Warnings)
	}
}

func TestAggregate_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"unknown policy", func(o *Options) { o.Policy = "median" }},
		{"zero b", func(o *Options) { o.Constants.B = 0 }},
		{"zero calibration", func(o *Options) { o.Calibration.MicronsPerPixel = 0 }},
		{"zero sig figs", func(o *Options) { o.SigFigs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if _, err := Aggregate(twoStepRecords(), opts); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Aggregate([]FrameStepRecord{{Frozen: -1}}, DefaultOptions()); err == nil {
		t.Error("expected error for negative frozen count")
	}
}

func TestConcat(t *testing.T) {
	a := twoStepRecords()
	b := []FrameStepRecord{{Temperature: -6, Frozen: 1, Radii: []int{45}}}

	all := Concat(a, nil, b)
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}

	table, err := Aggregate(all, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows[1].Temperature != -6 || table.Total() != 6 {
		t.Errorf("global table: %+v", table.Rows)
	}
}
