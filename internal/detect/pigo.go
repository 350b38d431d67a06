// Package detect provides in-process face detection for the
// compositing pipeline.
package detect

import (
	"context"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/ashureev/faceswap-bot/internal/domain"
)

// minQuality filters out low-confidence detections.
const minQuality = 5.0

// PigoDetector implements swap.Detector with the pigo cascade
// classifier. Detection stays in-process, no cgo involved.
type PigoDetector struct {
	classifier *pigo.Pigo
}

// NewPigoDetector loads a binary cascade file (the pigo "facefinder"
// model) and prepares the classifier.
func NewPigoDetector(cascadePath string) (*PigoDetector, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	return &PigoDetector{classifier: classifier}, nil
}

// Detect returns the face regions found on img, in the image's own
// coordinate space.
func (d *PigoDetector) Detect(ctx context.Context, img image.Image) ([]domain.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols := src.Bounds().Dx()
	rows := src.Bounds().Dy()

	params := pigo.CascadeParams{
		MinSize:     20,
		MaxSize:     max(cols, rows),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	regions := make([]domain.Region, 0, len(dets))
	for _, det := range dets {
		if det.Q < minQuality {
			continue
		}
		// pigo reports the detection center and its side length.
		regions = append(regions, domain.Region{
			X: det.Col - det.Scale/2,
			Y: det.Row - det.Scale/2,
			W: det.Scale,
			H: det.Scale,
		})
	}
	return regions, nil
}
