// Package swap implements the retrieval and compositing pipeline: it
// resolves a background image, runs face detection on it, and overlays
// stored face images onto the detected regions.
package swap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"

	"github.com/disintegration/imaging"

	"github.com/ashureev/faceswap-bot/internal/domain"
	"github.com/ashureev/faceswap-bot/internal/facestore"
)

// maxDimension bounds the longest side of the composited image; larger
// backgrounds are scaled down proportionally.
const maxDimension = 1000

// Detector finds face regions on a background image, in the image's
// own coordinate space.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]domain.Region, error)
}

// Fetcher retrieves raw image bytes from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Searcher returns a ranked list of candidate image URLs for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Request describes one composite. Exactly one of URL or Query must be
// set. Empty FaceNames means "a random ordering of every face stored
// for the chat".
type Request struct {
	URL       string
	Query     string
	FaceNames []string
	ChatID    int64
}

// Swapper runs the pipeline against injected capabilities.
type Swapper struct {
	store         facestore.Store
	detector      Detector
	fetcher       Fetcher
	searcher      Searcher
	maxCandidates int
}

// NewSwapper wires the pipeline. maxCandidates caps how many search
// results are attempted per composite.
func NewSwapper(store facestore.Store, detector Detector, fetcher Fetcher, searcher Searcher, maxCandidates int) *Swapper {
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	return &Swapper{
		store:         store,
		detector:      detector,
		fetcher:       fetcher,
		searcher:      searcher,
		maxCandidates: maxCandidates,
	}
}

// Composite produces PNG bytes for the request, or a descriptive error
// if no usable background was found.
func (s *Swapper) Composite(ctx context.Context, req Request) ([]byte, error) {
	faces, err := s.resolveFaces(req)
	if err != nil {
		return nil, err
	}

	switch {
	case req.URL != "":
		return s.tryCandidates(ctx, []string{req.URL}, req.URL, faces)
	case req.Query != "":
		urls, err := s.searcher.Search(ctx, req.Query)
		if err != nil {
			return nil, fmt.Errorf("search images for %q: %w", req.Query, err)
		}
		if len(urls) == 0 {
			return nil, &NoImagesError{Query: req.Query}
		}
		// Shuffling avoids always composing onto the top result.
		urls = shuffled(urls)
		if len(urls) > s.maxCandidates {
			urls = urls[:s.maxCandidates]
		}
		return s.tryCandidates(ctx, urls, req.Query, faces)
	default:
		return nil, &MissingParameterError{Hint: "an image URL or search query is required"}
	}
}

// resolveFaces loads the requested face images, or a shuffled ordering
// of every stored face when none were named.
func (s *Swapper) resolveFaces(req Request) ([]image.Image, error) {
	names := req.FaceNames
	if len(names) == 0 {
		all, err := s.store.List(req.ChatID)
		if err != nil {
			return nil, fmt.Errorf("list faces: %w", err)
		}
		if len(all) == 0 {
			return nil, errors.New("no faces stored for this chat yet, use /add first")
		}
		names = shuffled(all)
	}

	faces := make([]image.Image, 0, len(names))
	for _, name := range names {
		data, err := s.store.Read(req.ChatID, name)
		if err != nil {
			return nil, err
		}
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode face %q: %w", name, err)
		}
		faces = append(faces, img)
	}
	return faces, nil
}

// tryCandidates walks the candidate URLs in order and returns the
// first successful composite. Individual candidate failures are
// logged, never surfaced to the user.
func (s *Swapper) tryCandidates(ctx context.Context, urls []string, source string, faces []image.Image) ([]byte, error) {
	for _, url := range urls {
		png, err := s.compositeOne(ctx, url, faces)
		if err != nil {
			slog.Info("candidate image rejected", "url", url, "error", err)
			continue
		}
		return png, nil
	}
	return nil, &NoFacesError{Source: source}
}

func (s *Swapper) compositeOne(ctx context.Context, url string, faces []image.Image) ([]byte, error) {
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch background: %w", err)
	}
	background, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}

	regions, err := s.detector.Detect(ctx, background)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(regions) == 0 {
		return nil, errors.New("no face detected")
	}

	return renderComposite(background, regions, faces)
}

// renderComposite draws one face per detected region, cycling through
// the faces in order. Each face is stretched to the region box; its
// own aspect ratio is not preserved.
func renderComposite(background image.Image, regions []domain.Region, faces []image.Image) ([]byte, error) {
	bounds := background.Bounds()
	scale := proportionalScale(bounds.Dx(), bounds.Dy())

	canvas := imaging.Clone(background)
	if scale != 1 {
		width := int(float64(bounds.Dx()) * scale)
		height := int(float64(bounds.Dy()) * scale)
		canvas = imaging.Resize(background, width, height, imaging.Lanczos)
	}

	for i, region := range regions {
		region = region.Scale(scale)
		face := imaging.Resize(faces[i%len(faces)], region.W, region.H, imaging.Lanczos)
		canvas = imaging.Overlay(canvas, face, image.Pt(region.X, region.Y), 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// proportionalScale keeps images within maxDimension on the longest
// side while preserving aspect ratio.
func proportionalScale(width, height int) float64 {
	if width <= maxDimension && height <= maxDimension {
		return 1
	}
	if width > height {
		return float64(maxDimension) / float64(width)
	}
	return float64(maxDimension) / float64(height)
}

// shuffled returns a Fisher-Yates shuffled copy of items.
func shuffled(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
