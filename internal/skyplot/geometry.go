package skyplot

import "math"

// Point is a position on the drawing surface, in pixels, y pointing down.
type Point struct {
	X, Y float64
}

// Geometry describes the drawing surface and the horizon ring radius
// derived from it.
type Geometry struct {
	Width, Height float64
	Radius        float64 // horizon ring, pixels
}

// horizonFill is the share of the shorter half-side used by the horizon
// ring; the rest is room for the N/S/E/W labels.
const horizonFill = 0.9

// NewGeometry computes the plot geometry for a surface of the given size.
func NewGeometry(width, height int) Geometry {
	w, h := float64(width), float64(height)
	return Geometry{
		Width:  w,
		Height: h,
		Radius: horizonFill * math.Min(w, h) / 2,
	}
}

// Empty reports whether there is nothing to draw on.
func (g Geometry) Empty() bool {
	return g.Width <= 0 || g.Height <= 0 || g.Radius <= 0
}

// Size returns the surface dimensions in whole pixels.
func (g Geometry) Size() (width, height int) {
	return int(g.Width), int(g.Height)
}

// Center is the surface position of the zenith.
func (g Geometry) Center() Point {
	x, y := ToSurface(0, 0, g)
	return Point{x, y}
}

// Project maps a look angle onto the plot plane using an azimuthal
// equidistant projection: the plotted distance from the center grows
// linearly with the angular distance from the zenith, the horizon lands on
// radius and north points along +dy.
//
// Elevations outside [0,90] are extrapolated, not clamped, so a satellite
// reported below the horizon plots outside the horizon ring.
func Project(azimuthDeg, elevationDeg, radius float64) (dx, dy float64) {
	dz := 90 - elevationDeg
	rho := radius * dz / 90
	az := azimuthDeg * math.Pi / 180
	return rho * math.Sin(az), rho * math.Cos(az)
}

// ToSurface translates a plane offset to surface pixels, flipping y so
// that north is up.
func ToSurface(dx, dy float64, g Geometry) (px, py float64) {
	return dx + g.Width/2, g.Height/2 - dy
}

// surfacePosition projects a look angle all the way to surface pixels.
func surfacePosition(azimuthDeg, elevationDeg float64, g Geometry) Point {
	dx, dy := Project(azimuthDeg, elevationDeg, g.Radius)
	px, py := ToSurface(dx, dy, g)
	return Point{px, py}
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
