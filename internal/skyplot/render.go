package skyplot

import (
	"fmt"
	"log"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

// FrameCounters are recomputed from scratch by every frame.
type FrameCounters struct {
	Visible int `json:"visible"`
	Used    int `json:"used"`
}

// Renderer draws complete sky plot frames. The zero value is not usable;
// use NewRenderer.
type Renderer struct {
	Theme  Theme
	Marker SatelliteMarker
	// Logf reports satellites that could not be drawn. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// NewRenderer returns a Renderer drawing plain shape markers with th.
func NewRenderer(th Theme) *Renderer {
	return &Renderer{
		Theme:  th,
		Marker: ShapeMarker{},
		Logf:   log.Printf,
	}
}

var defaultRenderer = NewRenderer(DefaultTheme())

// RenderFrame draws a frame with the default theme and shape markers.
func RenderFrame(s Surface, g Geometry, snap *gnss.Snapshot, fix *gnss.LocationFix, cfg ViewConfig) FrameCounters {
	return defaultRenderer.RenderFrame(s, g, snap, fix, cfg)
}

// RenderFrame draws background, zenith marker, the visible satellites in
// feed order and finally the status text. A nil snapshot draws no
// satellites and a nil fix shows the unknown accuracy tier; neither is an
// error.
func (r *Renderer) RenderFrame(s Surface, g Geometry, snap *gnss.Snapshot, fix *gnss.LocationFix, cfg ViewConfig) FrameCounters {
	th := &r.Theme
	center := g.Center()

	s.Clear(th.Background)
	r.drawBackground(s, center, g.Radius)
	DrawZenithMarker(s, center, Classify(fix), cfg.ZenithStyle, th)

	var counters FrameCounters
	if snap != nil {
		for _, obs := range snap.Satellites {
			if !IsVisible(obs, cfg) {
				continue
			}
			counters.Visible++
			if obs.UsedInFix {
				counters.Used++
			}

			at := surfacePosition(obs.AzimuthDeg, obs.ElevationDeg, g)
			if !at.finite() {
				r.logf("skyplot: %s %d has non-finite position (az=%v el=%v), not drawn",
					obs.Constellation, obs.ID, obs.AzimuthDeg, obs.ElevationDeg)
				continue
			}
			r.marker().DrawSatellite(s, at, obs, th)
		}
	}

	// last, so markers never cover it
	s.Text(fmt.Sprintf(th.StatusFormat[0], counters.Visible), th.StatusOrigin, th.Status)
	second := Point{th.StatusOrigin.X, th.StatusOrigin.Y + th.StatusLine}
	s.Text(fmt.Sprintf(th.StatusFormat[1], counters.Used), second, th.Status)

	return counters
}

// drawBackground draws the 0/30/60 degree elevation rings, the N-S and E-W
// axes and the cardinal labels just outside the horizon.
func (r *Renderer) drawBackground(s Surface, c Point, radius float64) {
	th := &r.Theme

	s.Circle(c, radius, th.Ring)
	s.Circle(c, radius*2/3, th.Ring)
	s.Circle(c, radius/3, th.Ring)

	s.Line(Point{c.X, c.Y - radius}, Point{c.X, c.Y + radius}, th.Ring)
	s.Line(Point{c.X - radius, c.Y}, Point{c.X + radius, c.Y}, th.Ring)

	off := radius + th.LabelGap
	labels := []struct {
		at     Point
		ax, ay float64
	}{
		{Point{c.X, c.Y - off}, 0.5, 1}, // N
		{Point{c.X, c.Y + off}, 0.5, 0}, // S
		{Point{c.X + off, c.Y}, 0, 0.5}, // E
		{Point{c.X - off, c.Y}, 1, 0.5}, // W
	}
	for i, l := range labels {
		style := th.Cardinal
		style.AnchorX, style.AnchorY = l.ax, l.ay
		s.Text(th.Cardinals[i], l.at, style)
	}
}

func (r *Renderer) marker() SatelliteMarker {
	if r.Marker == nil {
		return ShapeMarker{}
	}
	return r.Marker
}

func (r *Renderer) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}
