package skyplot

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// parsedGoRegular is parsed once per process and shared by all rasters.
var parsedGoRegular = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// Raster is a Surface backed by an RGBA image.
type Raster struct {
	dc    *gg.Context
	faces map[float64]font.Face
}

// NewRaster creates a width x height raster surface.
func NewRaster(width, height int) *Raster {
	return &Raster{
		dc:    gg.NewContext(width, height),
		faces: make(map[float64]font.Face),
	}
}

// Image returns the rendered image.
func (r *Raster) Image() image.Image {
	return r.dc.Image()
}

// EncodePNG writes the rendered image as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	return r.dc.EncodePNG(w)
}

// SavePNG writes the rendered image to a PNG file.
func (r *Raster) SavePNG(path string) error {
	return r.dc.SavePNG(path)
}

func (r *Raster) Clear(c color.Color) {
	r.dc.SetColor(c)
	r.dc.Clear()
}

func (r *Raster) Circle(center Point, radius float64, p Paint) {
	r.dc.DrawCircle(center.X, center.Y, radius)
	r.finish(p)
}

func (r *Raster) Line(from, to Point, p Paint) {
	r.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	p.Fill = false
	r.finish(p)
}

func (r *Raster) Polygon(pts []Point, p Paint) {
	if len(pts) == 0 {
		return
	}
	r.dc.NewSubPath()
	r.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		r.dc.LineTo(pt.X, pt.Y)
	}
	r.dc.ClosePath()
	r.finish(p)
}

func (r *Raster) Text(s string, at Point, style TextStyle) {
	r.dc.SetFontFace(r.face(style.Size))
	r.dc.SetColor(style.Color)
	// gg anchors y at the baseline: ay=0 puts the bottom of the text at y
	r.dc.DrawStringAnchored(s, at.X, at.Y, style.AnchorX, 1-style.AnchorY)
}

// finish fills or strokes the current path with p and clears it.
func (r *Raster) finish(p Paint) {
	r.dc.SetColor(p.Color)
	if p.Fill {
		r.dc.Fill()
		return
	}
	w := p.Width
	if w <= 0 {
		w = 1
	}
	r.dc.SetLineWidth(w)
	r.dc.Stroke()
}

// face returns a Go Regular face of the given pixel size, falling back to
// the fixed 7x13 bitmap face.
func (r *Raster) face(size float64) font.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}

	var f font.Face = basicfont.Face7x13
	if ttf, err := parsedGoRegular(); err == nil && size > 0 {
		f = truetype.NewFace(ttf, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	r.faces[size] = f
	return f
}
