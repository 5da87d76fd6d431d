package skyplot

import "math"

// star has five points; its outline alternates outer and inner vertices.
const starPoints = 5

// StarPath returns the ten vertices of a five-point star centered on c,
// alternating outer and inner vertices and starting with the top point.
// Outer vertices sit at i*72-90 degrees and inner ones at i*72+36-90
// degrees, measured in surface coordinates (y down).
func StarPath(c Point, outer, inner float64) []Point {
	pts := make([]Point, 0, 2*starPoints)
	for i := 0; i < starPoints; i++ {
		a := float64(i*72-90) * math.Pi / 180
		b := float64(i*72+36-90) * math.Pi / 180
		pts = append(pts,
			Point{c.X + outer*math.Cos(a), c.Y + outer*math.Sin(a)},
			Point{c.X + inner*math.Cos(b), c.Y + inner*math.Sin(b)},
		)
	}
	return pts
}

// DrawZenithMarker draws the fix quality glyph at the plot center.
func DrawZenithMarker(s Surface, center Point, tier Tier, style ZenithStyle, th *Theme) {
	col := th.tierColor(tier)

	switch style {
	case ZenithCross:
		p := Paint{Color: col, Width: th.ZenithCrossWidth}
		h := th.ZenithCrossHalf
		s.Line(Point{center.X - h, center.Y}, Point{center.X + h, center.Y}, p)
		s.Line(Point{center.X, center.Y - h}, Point{center.X, center.Y + h}, p)
	case ZenithCircle:
		s.Circle(center, th.ZenithDotRadius, Paint{Color: col, Width: th.ZenithCircleWidth})
	case ZenithStar:
		s.Polygon(StarPath(center, th.StarOuterRadius, th.StarInnerRadius), Paint{Color: col, Fill: true})
	default:
		s.Circle(center, th.ZenithDotRadius, Paint{Color: col, Fill: true})
	}
}
