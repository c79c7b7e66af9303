// Package config loads the analysis settings from a YAML file.
//
// Every section starts from the package defaults, so a file only needs the
// values it changes. Unknown keys are rejected to catch typos in parameter
// names.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/droplet-freeze/internal/detection"
	"github.com/ironsheep/droplet-freeze/internal/droplet"
	"github.com/ironsheep/droplet-freeze/internal/freeze"
	"github.com/ironsheep/droplet-freeze/internal/imaging"
	"github.com/ironsheep/droplet-freeze/internal/nm"
	"github.com/ironsheep/droplet-freeze/internal/ocr"
	"github.com/ironsheep/droplet-freeze/internal/plot"
	"github.com/ironsheep/droplet-freeze/internal/sequence"
)

// Config holds every tunable of an analysis run.
type Config struct {
	Detection   detection.Params       `yaml:"detection"`
	Freeze      freeze.Params          `yaml:"freeze"`
	Sequence    sequence.Options       `yaml:"sequence"`
	Aggregation nm.Options             `yaml:"aggregation"`
	Overlay     imaging.OverlayOptions `yaml:"overlay"`
	OCR         ocr.Options            `yaml:"ocr"`
	Plot        plot.Options           `yaml:"plot"`

	// LabelCorner is the top-left corner of the label zone. Detection, the
	// classifier and OCR all use this one value.
	LabelCorner image.Point `yaml:"label_corner"`

	// Archive is the libsql DSN results are archived to. Empty disables
	// the archive.
	Archive string `yaml:"archive"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	cfg := Config{
		Detection:   detection.DefaultParams(),
		Freeze:      freeze.DefaultParams(),
		Sequence:    sequence.DefaultOptions(),
		Aggregation: nm.DefaultOptions(),
		Overlay:     imaging.DefaultOverlayOptions(),
		OCR:         ocr.DefaultOptions(),
		Plot:        plot.DefaultOptions(),
		LabelCorner: droplet.DefaultLabelCorner,
	}
	cfg.shareLabelCorner()
	return cfg
}

// shareLabelCorner copies LabelCorner into every section that uses it.
func (c *Config) shareLabelCorner() {
	c.Detection.LabelCorner = c.LabelCorner
	c.Freeze.LabelCorner = c.LabelCorner
	c.OCR.LabelCorner = c.LabelCorner
}

// Load reads path on top of Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.shareLabelCorner()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := c.Freeze.Validate(); err != nil {
		return fmt.Errorf("freeze: %w", err)
	}
	if c.Sequence.ReferenceIndex < 0 {
		return fmt.Errorf("sequence: reference_index must be >= 0, got %d", c.Sequence.ReferenceIndex)
	}
	if c.Sequence.MaxRestarts < 0 {
		return fmt.Errorf("sequence: max_restarts must be >= 0, got %d", c.Sequence.MaxRestarts)
	}
	if err := c.Aggregation.Validate(); err != nil {
		return fmt.Errorf("aggregation: %w", err)
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("plot: size must be positive, got %dx%d", c.Plot.Width, c.Plot.Height)
	}
	return nil
}

// Marshal renders c as YAML, as written by "droplet-freeze config".
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
