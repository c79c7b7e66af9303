package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
	"github.com/ironsheep/droplet-freeze/internal/temperature"
)

// ErrNoTemperature is returned when the label holds no readable number.
var ErrNoTemperature = errors.New("ocr: no temperature on label")

// labelCharset restricts recognition to what the stage prints.
const labelCharset = "0123456789.,-"

// labelPattern captures an optional minus sign before a decimal number.
var labelPattern = regexp.MustCompile(`(-)?\s*(\d+[.,]\d+)`)

// Options configures label reading.
type Options struct {
	// Language is the Tesseract language code.
	Language string `yaml:"language" json:"language"`

	// TessdataPrefix overrides the location of the language data.
	// Empty uses the Tesseract default.
	TessdataPrefix string `yaml:"tessdata_prefix" json:"tessdata_prefix"`

	// LabelCorner is the top-left corner of the label zone.
	LabelCorner image.Point `yaml:"-" json:"label_corner"`

	// Scale upsamples the label crop before recognition. Values below 2
	// leave the crop untouched.
	Scale int `yaml:"scale" json:"scale"`
}

// DefaultOptions returns the settings for the stage camera.
func DefaultOptions() Options {
	return Options{
		Language:    "eng",
		LabelCorner: droplet.DefaultLabelCorner,
		Scale:       3,
	}
}

// Reader recognises label temperatures. It is safe for concurrent use:
// every call runs its own Tesseract client.
type Reader struct {
	opts Options
}

// NewReader returns a Reader. An empty language falls back to "eng".
func NewReader(opts Options) *Reader {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &Reader{opts: opts}
}

// ReadTemperature returns the signed temperature printed on img.
func (r *Reader) ReadTemperature(img image.Image) (float64, error) {
	text, err := r.ReadLabel(img)
	if err != nil {
		return 0, err
	}
	return ParseLabel(text)
}

// ReadLabel returns the raw text recognised in the label zone of img.
func (r *Reader) ReadLabel(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("ocr: nil image")
	}
	zone := droplet.LabelZone(img.Bounds(), r.opts.LabelCorner)
	if zone.Empty() {
		return "", fmt.Errorf("ocr: label corner %v outside frame %v", r.opts.LabelCorner, img.Bounds())
	}

	crop := imaging.Grayscale(imaging.Crop(img, zone))
	if r.opts.Scale > 1 {
		crop = imaging.Resize(crop, zone.Dx()*r.opts.Scale, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return "", fmt.Errorf("failed to encode label: %w", err)
	}
	return r.recognise(buf.Bytes())
}

func (r *Reader) recognise(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if r.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.opts.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(r.opts.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetWhitelist(labelCharset); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set page mode: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// ParseLabel extracts the first decimal number in text, keeping a leading
// minus sign.
func ParseLabel(text string) (float64, error) {
	m := labelPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrNoTemperature
	}
	v, ok := temperature.Parse(m[2])
	if !ok {
		return 0, ErrNoTemperature
	}
	if m[1] != "" {
		v = -v
	}
	return v, nil
}
