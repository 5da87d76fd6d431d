package skyplot

import (
	"strconv"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

// SatelliteMarker draws one satellite at its surface position. The two
// signals a marker encodes, constellation and fix usage, must stay
// distinguishable in every implementation.
type SatelliteMarker interface {
	DrawSatellite(s Surface, at Point, obs gnss.SatelliteObservation, th *Theme)
}

// ShapeMarker colors the marker by constellation and draws a filled disc
// for satellites used in the fix, a hollow ring otherwise.
type ShapeMarker struct{}

func (ShapeMarker) DrawSatellite(s Surface, at Point, obs gnss.SatelliteObservation, th *Theme) {
	col := th.ConstellationColor(obs.Constellation)
	if obs.UsedInFix {
		s.Circle(at, th.MarkerRadius, Paint{Color: col, Fill: true})
	} else {
		s.Circle(at, th.MarkerRadius, Paint{Color: col, Width: th.MarkerRingWidth})
	}
	drawSatLabel(s, at, obs.ID, th)
}

// BadgeMarker draws a per-constellation letter on a colored disc. Unused
// satellites get an outline ring behind a neutral disc instead of a filled
// colored one.
type BadgeMarker struct{}

var badgeGlyphs = map[gnss.Constellation]string{
	gnss.GPS:     "G",
	gnss.GLONASS: "R",
	gnss.Galileo: "E",
	gnss.BeiDou:  "C",
	gnss.QZSS:    "J",
	gnss.SBAS:    "S",
}

func (BadgeMarker) DrawSatellite(s Surface, at Point, obs gnss.SatelliteObservation, th *Theme) {
	col := th.ConstellationColor(obs.Constellation)
	r := th.MarkerRadius
	if obs.UsedInFix {
		s.Circle(at, r, Paint{Color: col, Fill: true})
	} else {
		s.Circle(at, r+th.MarkerRingWidth, Paint{Color: col, Width: th.MarkerRingWidth})
		s.Circle(at, r, Paint{Color: th.FallbackColor, Fill: true})
	}

	glyph, ok := badgeGlyphs[obs.Constellation]
	if !ok {
		glyph = "?"
	}
	s.Text(glyph, at, th.Glyph)
	drawSatLabel(s, at, obs.ID, th)
}

func drawSatLabel(s Surface, at Point, id int, th *Theme) {
	pos := Point{at.X + th.MarkerRadius + th.SatLabelGap, at.Y}
	s.Text(strconv.Itoa(id), pos, th.SatLabel)
}
