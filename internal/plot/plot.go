// Package plot renders the Nm curve of an evaluation table as a PNG.
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ironsheep/droplet-freeze/internal/nm"
)

// ErrNoData is returned when a table has no row with a positive Nm.
var ErrNoData = errors.New("no positive Nm values to plot")

// Options sets the chart size and title.
type Options struct {
	Title  string `yaml:"title" json:"title"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// DefaultOptions returns a 800x600 chart without title.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600}
}

// FileName returns the plot file name for an experiment or folder.
func FileName(name string) string {
	return "Nm_" + name + ".png"
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    5,
		DotColor:    col,
	}
}

// points returns -T and log10(Nm) for every row with Nm > 0.
func points(table *nm.ExperimentTable) (xs, ys []float64) {
	for _, row := range table.Rows {
		if row.Nm <= 0 || math.IsNaN(row.Nm) || math.IsInf(row.Nm, 0) {
			continue
		}
		xs = append(xs, -row.Temperature)
		ys = append(ys, math.Log10(row.Nm))
	}
	return xs, ys
}

// decadeTicks labels every power of ten between lo and hi, in log10 units.
func decadeTicks(lo, hi int) []chart.Tick {
	ticks := make([]chart.Tick, 0, hi-lo+1)
	for e := lo; e <= hi; e++ {
		ticks = append(ticks, chart.Tick{Value: float64(e), Label: fmt.Sprintf("1e%d", e)})
	}
	return ticks
}

func bounds(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// RenderNm draws Nm against negated temperature on a logarithmic Nm axis.
// Rows with Nm <= 0 have no place on that axis and are left out.
func RenderNm(w io.Writer, table *nm.ExperimentTable, opts Options) error {
	if table == nil {
		return ErrNoData
	}
	xs, ys := points(table)
	if len(xs) == 0 {
		return ErrNoData
	}

	xlo, xhi := bounds(xs)
	ylo, yhi := bounds(ys)
	ymin, ymax := int(math.Floor(ylo)), int(math.Ceil(yhi))
	if ymin == ymax {
		ymin--
		ymax++
	}

	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 10}},
		XAxis: chart.XAxis{
			Name:  "temperature in °C",
			Range: &chart.ContinuousRange{Min: xlo - 1, Max: xhi + 1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:  "Nm",
			Range: &chart.ContinuousRange{Min: float64(ymin), Max: float64(ymax)},
			Ticks: decadeTicks(ymin, ymax),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Nm",
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(chart.ColorBlue),
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("failed to render Nm chart: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// SaveNm renders the chart into path.
func SaveNm(path string, table *nm.ExperimentTable, opts Options) error {
	var buf bytes.Buffer
	if err := RenderNm(&buf, table, opts); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
