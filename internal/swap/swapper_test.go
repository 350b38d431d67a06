package swap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ashureev/faceswap-bot/internal/domain"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func pngBytes(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(width, height, c), imaging.PNG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode composite: %v", err)
	}
	return img
}

func sameColor(img image.Image, x, y int, want color.NRGBA) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r>>8) == want.R && uint8(g>>8) == want.G && uint8(b>>8) == want.B
}

type fakeStore struct {
	faces map[string][]byte
}

func (f *fakeStore) EnsureChatDir(int64) error { return nil }

func (f *fakeStore) Exists(_ int64, name string) bool {
	_, ok := f.faces[name]
	return ok
}

func (f *fakeStore) Write(_ int64, name string, data []byte) error {
	f.faces[name] = data
	return nil
}

func (f *fakeStore) Read(_ int64, name string) ([]byte, error) {
	data, ok := f.faces[name]
	if !ok {
		return nil, fmt.Errorf("face %q not found", name)
	}
	return data, nil
}

func (f *fakeStore) List(int64) ([]string, error) {
	var names []string
	for name := range f.faces {
		names = append(names, name)
	}
	return names, nil
}

// fakeDetector returns regions keyed by background width.
type fakeDetector struct {
	regions map[int][]domain.Region
}

func (f *fakeDetector) Detect(_ context.Context, img image.Image) ([]domain.Region, error) {
	return f.regions[img.Bounds().Dx()], nil
}

type fakeFetcher struct {
	images map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	data, ok := f.images[url]
	if !ok {
		return nil, fmt.Errorf("unknown url %q", url)
	}
	return data, nil
}

type fakeSearcher struct {
	urls []string
}

func (f *fakeSearcher) Search(context.Context, string) ([]string, error) {
	return f.urls, nil
}

func newTestSwapper(t *testing.T, det *fakeDetector, fetch *fakeFetcher, search *fakeSearcher) *Swapper {
	t.Helper()
	store := &fakeStore{faces: map[string][]byte{"bob": pngBytes(t, 10, 10, red)}}
	return NewSwapper(store, det, fetch, search, 5)
}

func TestCompositeSmallBackgroundUnscaled(t *testing.T) {
	det := &fakeDetector{regions: map[int][]domain.Region{
		500: {{X: 10, Y: 10, W: 100, H: 100}},
	}}
	fetch := &fakeFetcher{images: map[string][]byte{
		"http://x/bg.png": pngBytes(t, 500, 400, white),
	}}
	s := newTestSwapper(t, det, fetch, &fakeSearcher{})

	png, err := s.Composite(context.Background(), Request{URL: "http://x/bg.png", FaceNames: []string{"bob"}})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	img := decodePNG(t, png)
	if img.Bounds().Dx() != 500 || img.Bounds().Dy() != 400 {
		t.Fatalf("output size = %dx%d, want 500x400", img.Bounds().Dx(), img.Bounds().Dy())
	}
	// Overlay drawn unscaled at (10,10) sized 100x100.
	if !sameColor(img, 60, 60, red) {
		t.Error("expected overlay color inside the region")
	}
	if !sameColor(img, 5, 5, white) {
		t.Error("expected background color outside the region")
	}
	if !sameColor(img, 150, 150, white) {
		t.Error("expected background color past the region")
	}
}

func TestCompositeLargeBackgroundScaledDown(t *testing.T) {
	det := &fakeDetector{regions: map[int][]domain.Region{
		2000: {{X: 100, Y: 100, W: 50, H: 50}},
	}}
	fetch := &fakeFetcher{images: map[string][]byte{
		"http://x/big.png": pngBytes(t, 2000, 1000, white),
	}}
	s := newTestSwapper(t, det, fetch, &fakeSearcher{})

	png, err := s.Composite(context.Background(), Request{URL: "http://x/big.png", FaceNames: []string{"bob"}})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	img := decodePNG(t, png)
	if img.Bounds().Dx() != 1000 || img.Bounds().Dy() != 500 {
		t.Fatalf("output size = %dx%d, want 1000x500", img.Bounds().Dx(), img.Bounds().Dy())
	}
	// Region (100,100,50,50) lands at (50,50,25,25) after the 0.5 scale.
	if !sameColor(img, 60, 60, red) {
		t.Error("expected overlay color inside the scaled region")
	}
	if !sameColor(img, 40, 40, white) {
		t.Error("expected background color before the scaled region")
	}
	if !sameColor(img, 90, 90, white) {
		t.Error("expected background color past the scaled region")
	}
}

func TestCompositeCyclesFacesAcrossRegions(t *testing.T) {
	det := &fakeDetector{regions: map[int][]domain.Region{
		600: {
			{X: 0, Y: 0, W: 50, H: 50},
			{X: 100, Y: 0, W: 50, H: 50},
			{X: 200, Y: 0, W: 50, H: 50},
		},
	}}
	fetch := &fakeFetcher{images: map[string][]byte{
		"http://x/bg.png": pngBytes(t, 600, 300, white),
	}}
	store := &fakeStore{faces: map[string][]byte{
		"bob":   pngBytes(t, 10, 10, red),
		"alice": pngBytes(t, 10, 10, blue),
	}}
	s := NewSwapper(store, det, fetch, &fakeSearcher{}, 5)

	png, err := s.Composite(context.Background(), Request{
		URL:       "http://x/bg.png",
		FaceNames: []string{"bob", "alice"},
	})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	img := decodePNG(t, png)
	if !sameColor(img, 25, 25, red) {
		t.Error("region 0 should carry the first face")
	}
	if !sameColor(img, 125, 25, blue) {
		t.Error("region 1 should carry the second face")
	}
	if !sameColor(img, 225, 25, red) {
		t.Error("region 2 should cycle back to the first face")
	}
}

func TestCompositeFallsThroughToUsableCandidate(t *testing.T) {
	// Only the third candidate has a detectable face.
	det := &fakeDetector{regions: map[int][]domain.Region{
		400: {{X: 10, Y: 10, W: 50, H: 50}},
	}}
	fetch := &fakeFetcher{images: map[string][]byte{
		"http://x/1.png": pngBytes(t, 300, 300, white),
		"http://x/2.png": pngBytes(t, 300, 300, white),
		"http://x/3.png": pngBytes(t, 400, 400, white),
	}}
	search := &fakeSearcher{urls: []string{"http://x/1.png", "http://x/2.png", "http://x/3.png"}}
	s := newTestSwapper(t, det, fetch, search)

	png, err := s.Composite(context.Background(), Request{Query: "cats", FaceNames: []string{"bob"}})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	img := decodePNG(t, png)
	if img.Bounds().Dx() != 400 {
		t.Errorf("output width = %d, want the 400px candidate", img.Bounds().Dx())
	}
}

func TestCompositeNoImagesFound(t *testing.T) {
	s := newTestSwapper(t, &fakeDetector{}, &fakeFetcher{}, &fakeSearcher{})

	_, err := s.Composite(context.Background(), Request{Query: "nothing", FaceNames: []string{"bob"}})
	var noImages *NoImagesError
	if !errors.As(err, &noImages) {
		t.Fatalf("error = %v, want NoImagesError", err)
	}
	if noImages.Query != "nothing" {
		t.Errorf("Query = %q, want %q", noImages.Query, "nothing")
	}
}

func TestCompositeNoFacesOnAnyCandidate(t *testing.T) {
	fetch := &fakeFetcher{images: map[string][]byte{
		"http://x/1.png": pngBytes(t, 300, 300, white),
	}}
	search := &fakeSearcher{urls: []string{"http://x/1.png", "http://x/broken.png"}}
	s := newTestSwapper(t, &fakeDetector{}, fetch, search)

	_, err := s.Composite(context.Background(), Request{Query: "cats", FaceNames: []string{"bob"}})
	var noFaces *NoFacesError
	if !errors.As(err, &noFaces) {
		t.Fatalf("error = %v, want NoFacesError", err)
	}
	if noFaces.Source != "cats" {
		t.Errorf("Source = %q, want the original query", noFaces.Source)
	}
}

func TestCompositeMissingParameter(t *testing.T) {
	s := newTestSwapper(t, &fakeDetector{}, &fakeFetcher{}, &fakeSearcher{})

	_, err := s.Composite(context.Background(), Request{FaceNames: []string{"bob"}})
	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingParameterError", err)
	}
}

func TestCompositePicksRandomFaceWhenNoneNamed(t *testing.T) {
	det := &fakeDetector{regions: map[int][]domain.Region{
		200: {{X: 0, Y: 0, W: 50, H: 50}},
	}}
	fetch := &fakeFetcher{images: map[string][]byte{
		"http://x/bg.png": pngBytes(t, 200, 200, white),
	}}
	s := newTestSwapper(t, det, fetch, &fakeSearcher{})

	png, err := s.Composite(context.Background(), Request{URL: "http://x/bg.png"})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if !sameColor(decodePNG(t, png), 25, 25, red) {
		t.Error("expected the stored face to be drawn")
	}
}

func TestProportionalScale(t *testing.T) {
	tests := []struct {
		width, height int
		want          float64
	}{
		{500, 400, 1},
		{1000, 1000, 1},
		{2000, 1000, 0.5},
		{1000, 2000, 0.5},
		{4000, 100, 0.25},
	}

	for _, tt := range tests {
		if got := proportionalScale(tt.width, tt.height); got != tt.want {
			t.Errorf("proportionalScale(%d, %d) = %v, want %v", tt.width, tt.height, got, tt.want)
		}
	}
}

func TestShuffledPreservesElements(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}
	out := shuffled(in)

	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	seen := make(map[string]bool, len(out))
	for _, v := range out {
		seen[v] = true
	}
	for _, v := range in {
		if !seen[v] {
			t.Errorf("element %q missing after shuffle", v)
		}
	}
}
