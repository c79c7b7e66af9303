// Package droplet holds the per-droplet state threaded through an experiment.
//
// A Set is created once from the circles found in the reference image. Each
// droplet starts Liquid and leaves that state exactly once: to Frozen when
// the classifier sees it freeze, or to Ignored when it turns out to be a
// detector artifact. Neither transition can be undone.
package droplet

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrNotLiquid is returned when a state change is requested for a
	// droplet that already left the Liquid state.
	ErrNotLiquid = errors.New("droplet is not liquid")

	// ErrUnknownDroplet is returned for an ID outside the set.
	ErrUnknownDroplet = errors.New("unknown droplet")
)

// Point is a pixel position, (0,0) at the top-left corner.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Circle is a detected droplet outline in integer pixels.
type Circle struct {
	Center Point `json:"center"`
	Radius int   `json:"radius"`
}

// Box returns the square bounding box [x-r, x+r) × [y-r, y+r).
func (c Circle) Box() image.Rectangle {
	return image.Rect(c.Center.X-c.Radius, c.Center.Y-c.Radius, c.Center.X+c.Radius, c.Center.Y+c.Radius)
}

// State is the phase of a droplet.
type State int

const (
	Liquid State = iota
	Frozen
	Ignored
)

func (s State) String() string {
	switch s {
	case Liquid:
		return "liquid"
	case Frozen:
		return "frozen"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Droplet is one entry of a Set.
type Droplet struct {
	ID     int    `json:"id"`
	Circle Circle `json:"circle"`
	State  State  `json:"state"`
}

// Active reports whether the droplet is still liquid.
func (d Droplet) Active() bool {
	return d.State == Liquid
}

// Set is an ordered collection of droplets indexed by ID.
//
// Droplets are stored by value; every accessor returns copies, and state
// changes go through Freeze and Ignore only.
type Set struct {
	droplets []Droplet
}

// NewSet creates a set with one Liquid droplet per circle. IDs follow the
// order of circles.
func NewSet(circles []Circle) *Set {
	droplets := make([]Droplet, len(circles))
	for i, c := range circles {
		droplets[i] = Droplet{ID: i, Circle: c, State: Liquid}
	}
	return &Set{droplets: droplets}
}

// Len returns the number of droplets in the set.
func (s *Set) Len() int {
	return len(s.droplets)
}

// Get returns the droplet with the given ID.
func (s *Set) Get(id int) (Droplet, error) {
	if id < 0 || id >= len(s.droplets) {
		return Droplet{}, fmt.Errorf("%w: %d", ErrUnknownDroplet, id)
	}
	return s.droplets[id], nil
}

// All returns a copy of every droplet in ID order.
func (s *Set) All() []Droplet {
	out := make([]Droplet, len(s.droplets))
	copy(out, s.droplets)
	return out
}

// Active returns a copy of the droplets that are still liquid, in ID order.
func (s *Set) Active() []Droplet {
	out := make([]Droplet, 0, len(s.droplets))
	for _, d := range s.droplets {
		if d.Active() {
			out = append(out, d)
		}
	}
	return out
}

// Count returns how many droplets are in the given state.
func (s *Set) Count(state State) int {
	n := 0
	for _, d := range s.droplets {
		if d.State == state {
			n++
		}
	}
	return n
}

// Freeze marks a liquid droplet as frozen.
func (s *Set) Freeze(id int) error {
	return s.transition(id, Frozen)
}

// Ignore permanently removes a liquid droplet from classification.
func (s *Set) Ignore(id int) error {
	return s.transition(id, Ignored)
}

func (s *Set) transition(id int, to State) error {
	d, err := s.Get(id)
	if err != nil {
		return err
	}
	if !d.Active() {
		return fmt.Errorf("%w: droplet %d is %s", ErrNotLiquid, id, d.State)
	}
	d.State = to
	s.droplets[id] = d
	return nil
}
