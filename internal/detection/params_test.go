package detection

import (
	"testing"
)

func TestDefaultParams_Valid(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	if p.Param1 != 12 || p.Param2 != 25 || p.MinRadius != 49 || p.MaxRadius != 140 {
		t.Errorf("unexpected search defaults: %+v", p)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"even gaussian kernel", func(p *Params) { p.GaussianKernels = []int{21, 30} }},
		{"zero gaussian kernel", func(p *Params) { p.GaussianKernels = []int{0} }},
		{"even median kernel", func(p *Params) { p.MedianKernel = 8 }},
		{"block size too small", func(p *Params) { p.ThresholdBlockSize = 1 }},
		{"even block size", func(p *Params) { p.ThresholdBlockSize = 100 }},
		{"zero bilateral diameter", func(p *Params) { p.BilateralDiameter = 0 }},
		{"zero dp", func(p *Params) { p.HoughDP = 0 }},
		{"zero min dist", func(p *Params) { p.HoughMinDist = 0 }},
		{"zero param2", func(p *Params) { p.Param2 = 0 }},
		{"min above max", func(p *Params) { p.MinRadius, p.MaxRadius = 150, 140 }},
		{"negative radius", func(p *Params) { p.MinRadius = -1 }},
		{"negative contrast", func(p *Params) { p.Contrast = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParams_WithMicronRadii(t *testing.T) {
	const micronsPerPixel = 15.0 / 49.0

	tests := []struct {
		minUm, maxUm float64
		wantMin      int
		wantMax      int
	}{
		{15, 45, 49, 147},
		{30, 60, 98, 196},
		{0, 1, 0, 3},
	}

	for _, tt := range tests {
		p := DefaultParams().WithMicronRadii(tt.minUm, tt.maxUm, micronsPerPixel)
		if p.MinRadius != tt.wantMin || p.MaxRadius != tt.wantMax {
			t.Errorf("WithMicronRadii(%v, %v): got %d..%d, want %d..%d",
				tt.minUm, tt.maxUm, p.MinRadius, p.MaxRadius, tt.wantMin, tt.wantMax)
		}
	}
}

func TestParams_WithMicronRadiiKeepsOriginal(t *testing.T) {
	base := DefaultParams()
	_ = base.WithMicronRadii(30, 60, 15.0/49.0)
	if base.MinRadius != 49 {
		t.Errorf("receiver modified: MinRadius = %d", base.MinRadius)
	}

	same := base.WithMicronRadii(30, 60, 0)
	if same.MinRadius != base.MinRadius || same.MaxRadius != base.MaxRadius {
		t.Error("non-positive scale should leave radii unchanged")
	}
}
