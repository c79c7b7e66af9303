package droplet

import (
	"errors"
	"image"
	"testing"
)

func testCircles() []Circle {
	return []Circle{
		{Center: Point{X: 100, Y: 100}, Radius: 50},
		{Center: Point{X: 300, Y: 100}, Radius: 60},
		{Center: Point{X: 500, Y: 100}, Radius: 55},
	}
}

func TestNewSet(t *testing.T) {
	s := NewSet(testCircles())

	if s.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", s.Len())
	}
	for i, d := range s.All() {
		if d.ID != i {
			t.Errorf("droplet %d: ID = %d", i, d.ID)
		}
		if !d.Active() {
			t.Errorf("droplet %d: expected liquid, got %s", i, d.State)
		}
	}
}

func TestSet_FreezeIsOneWay(t *testing.T) {
	s := NewSet(testCircles())

	if err := s.Freeze(1); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	d, _ := s.Get(1)
	if d.State != Frozen {
		t.Fatalf("state: got %s, want frozen", d.State)
	}

	if err := s.Freeze(1); !errors.Is(err, ErrNotLiquid) {
		t.Errorf("second Freeze: got %v, want ErrNotLiquid", err)
	}
	if err := s.Ignore(1); !errors.Is(err, ErrNotLiquid) {
		t.Errorf("Ignore after Freeze: got %v, want ErrNotLiquid", err)
	}

	d, _ = s.Get(1)
	if d.State != Frozen {
		t.Errorf("state changed after rejected transition: %s", d.State)
	}
}

func TestSet_IgnoreIsTerminal(t *testing.T) {
	s := NewSet(testCircles())

	if err := s.Ignore(0); err != nil {
		t.Fatalf("Ignore: %v", err)
	}
	if err := s.Freeze(0); !errors.Is(err, ErrNotLiquid) {
		t.Errorf("Freeze after Ignore: got %v, want ErrNotLiquid", err)
	}
	if got := s.Count(Ignored); got != 1 {
		t.Errorf("Count(Ignored): got %d, want 1", got)
	}
}

func TestSet_UnknownDroplet(t *testing.T) {
	s := NewSet(testCircles())

	for _, id := range []int{-1, 3, 100} {
		if err := s.Freeze(id); !errors.Is(err, ErrUnknownDroplet) {
			t.Errorf("Freeze(%d): got %v, want ErrUnknownDroplet", id, err)
		}
	}
}

func TestSet_AccessorsReturnCopies(t *testing.T) {
	s := NewSet(testCircles())

	all := s.All()
	all[0].State = Frozen
	all[0].Circle.Radius = 1

	d, _ := s.Get(0)
	if d.State != Liquid || d.Circle.Radius != 50 {
		t.Errorf("mutating All() leaked into set: %+v", d)
	}

	active := s.Active()
	active[1].State = Frozen
	if got := s.Count(Liquid); got != 3 {
		t.Errorf("mutating Active() leaked into set: %d liquid", got)
	}
}

func TestSet_Active(t *testing.T) {
	s := NewSet(testCircles())
	_ = s.Freeze(0)
	_ = s.Ignore(2)

	active := s.Active()
	if len(active) != 1 || active[0].ID != 1 {
		t.Errorf("Active: got %+v, want only droplet 1", active)
	}
}

func TestCircle_Box(t *testing.T) {
	c := Circle{Center: Point{X: 10, Y: 20}, Radius: 5}
	want := image.Rect(5, 15, 15, 25)
	if got := c.Box(); got != want {
		t.Errorf("Box: got %v, want %v", got, want)
	}
}

func TestInLabelZone(t *testing.T) {
	bounds := image.Rect(0, 0, 2000, 1600)
	corner := image.Pt(1648, 1445)

	tests := []struct {
		name   string
		circle Circle
		want   bool
	}{
		{"fully inside corner", Circle{Center: Point{X: 1800, Y: 1520}, Radius: 50}, true},
		{"inside after clamping to bounds", Circle{Center: Point{X: 1990, Y: 1590}, Radius: 60}, true},
		{"straddles left edge of zone", Circle{Center: Point{X: 1660, Y: 1520}, Radius: 50}, false},
		{"straddles top edge of zone", Circle{Center: Point{X: 1800, Y: 1450}, Radius: 50}, false},
		{"far from zone", Circle{Center: Point{X: 200, Y: 200}, Radius: 50}, false},
		{"outside image entirely", Circle{Center: Point{X: 5000, Y: 5000}, Radius: 50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InLabelZone(tt.circle, bounds, corner); got != tt.want {
				t.Errorf("InLabelZone(%+v) = %v, want %v", tt.circle, got, tt.want)
			}
		})
	}
}

func TestLabelZone_CornerOutsideImage(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)
	zone := LabelZone(bounds, image.Pt(1648, 1445))
	if !zone.Empty() {
		t.Errorf("expected empty zone, got %v", zone)
	}

	c := Circle{Center: Point{X: 600, Y: 450}, Radius: 20}
	if InLabelZone(c, bounds, image.Pt(1648, 1445)) {
		t.Error("no circle can be inside an empty zone")
	}
}
