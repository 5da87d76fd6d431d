package skyplot

import "image/color"

// Paint fully describes how a primitive is drawn. Every call carries its
// own Paint; surfaces keep no drawing state between calls.
type Paint struct {
	Color color.Color
	Fill  bool    // fill the shape instead of stroking its outline
	Width float64 // stroke width in pixels, ignored when filling
}

// TextStyle describes a text label. The anchor is a fraction of the text
// box placed at the label position: (0,0) puts the box's top-left corner
// there, (0.5,0.5) centers it, (1,1) puts the bottom-right corner there.
type TextStyle struct {
	Color            color.Color
	Size             float64 // pixels
	AnchorX, AnchorY float64
}

// Surface is the 2D drawing target of a frame. Coordinates are pixels with
// y pointing down; anything outside the surface is clipped.
type Surface interface {
	Clear(c color.Color)
	Circle(center Point, radius float64, p Paint)
	Line(from, to Point, p Paint)
	// Polygon draws the closed path through pts.
	Polygon(pts []Point, p Paint)
	Text(s string, at Point, style TextStyle)
}

// Discard is a Surface that draws nothing. Rendering onto it still yields
// the frame counters.
var Discard Surface = discard{}

type discard struct{}

func (discard) Clear(color.Color) {}
func (discard) Circle(Point, float64, Paint) {}
func (discard) Line(Point, Point, Paint) {}
func (discard) Polygon([]Point, Paint) {}
func (discard) Text(string, Point, TextStyle) {}
