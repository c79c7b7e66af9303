package cli

import (
	"image"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
	"github.com/ironsheep/droplet-freeze/internal/imaging"
	"github.com/ironsheep/droplet-freeze/internal/sequence"
)

// previewWriter saves the annotated reference frame of every experiment as
// detected_<experiment>.png in dir.
type previewWriter struct {
	dir  string
	opts imaging.OverlayOptions
	log  logrus.FieldLogger
}

func previewFileName(experiment string) string {
	return "detected_" + experiment + ".png"
}

func (p *previewWriter) WritePreview(exp sequence.Experiment, ref image.Image, droplets []droplet.Droplet) error {
	path := filepath.Join(p.dir, previewFileName(exp.Name))
	if err := imaging.SavePNG(path, imaging.Annotate(ref, droplets, p.opts)); err != nil {
		return err
	}
	p.log.WithFields(logrus.Fields{"experiment": exp.Name, "path": path}).Debug("detection preview written")
	return nil
}
