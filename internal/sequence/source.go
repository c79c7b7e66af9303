package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/droplet-freeze/internal/temperature"
)

// Experiment is one folder of frames.
type Experiment struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

// Frame is one image of an experiment.
type Frame struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Source enumerates experiments and their frames.
type Source interface {
	Experiments() ([]Experiment, error)
	Frames(exp Experiment) ([]Frame, error)
}

// frameExtensions lists the image types picked up as frames.
var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// FolderSource treats every subdirectory of Root as an experiment.
type FolderSource struct {
	Root string
}

// Experiments returns the subdirectories of Root sorted by name.
func (s FolderSource) Experiments() ([]Experiment, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments in %s: %w", s.Root, err)
	}

	var exps []Experiment
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		exps = append(exps, Experiment{Name: e.Name(), Dir: filepath.Join(s.Root, e.Name())})
	}
	sort.Slice(exps, func(i, j int) bool { return exps[i].Name < exps[j].Name })
	return exps, nil
}

// Frames returns the JPEG and PNG files of exp in temperature order.
func (s FolderSource) Frames(exp Experiment) ([]Frame, error) {
	return ListFrames(exp.Dir)
}

// ListFrames returns the JPEG and PNG files in dir ordered by the
// temperature in their names, coldest last. Frames without a temperature
// follow in name order, so the driver stops there unless a label reader
// supplies one.
func ListFrames(dir string) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames in %s: %w", dir, err)
	}

	var frames []Frame
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		frames = append(frames, Frame{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
	}
	sortFrames(frames)
	return frames, nil
}

func sortFrames(frames []Frame) {
	type key struct {
		temp float64
		ok   bool
	}
	keys := make(map[string]key, len(frames))
	for _, f := range frames {
		t, ok := temperature.Parse(f.Name)
		keys[f.Name] = key{temp: t, ok: ok}
	}

	sort.SliceStable(frames, func(i, j int) bool {
		a, b := keys[frames[i].Name], keys[frames[j].Name]
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok && a.temp != b.temp {
			return a.temp < b.temp
		}
		return frames[i].Name < frames[j].Name
	})
}
