package skyplot

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

func TestRaster_GoodFixDotAtCenter(t *testing.T) {
	g := NewGeometry(800, 600)
	r := NewRaster(800, 600)
	fix := &gnss.LocationFix{AccuracyMeters: 1.5, HasAccuracy: true}
	RenderFrame(r, g, nil, fix, DefaultViewConfig())

	// offset from the axes so the ring stroke does not cover the sample
	c := g.Center()
	got := r.Image().At(int(c.X)+4, int(c.Y)-4)
	if !sameColor(got, colorGreen) {
		t.Errorf("pixel near zenith = %v, want green", got)
	}

	corner := r.Image().At(1, 599)
	if !sameColor(corner, colorBlack) {
		t.Errorf("corner pixel = %v, want black background", corner)
	}
}

func TestRaster_EncodePNG(t *testing.T) {
	r := NewRaster(64, 48)
	RenderFrame(r, NewGeometry(64, 48), gpsSnapshot(true, false), nil, DefaultViewConfig())

	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("bounds = %v, want 64x48", b)
	}
}
