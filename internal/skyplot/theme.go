package skyplot

import (
	"image/color"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

// Named colors used by the themes.
var (
	colorBlack     = color.RGBA{0x00, 0x00, 0x00, 0xff}
	colorWhite     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorBlue      = color.RGBA{0x00, 0x00, 0xff, 0xff}
	colorGreen     = color.RGBA{0x00, 0xff, 0x00, 0xff}
	colorYellow    = color.RGBA{0xff, 0xff, 0x00, 0xff}
	colorRed       = color.RGBA{0xff, 0x00, 0x00, 0xff}
	colorCyan      = color.RGBA{0x00, 0xff, 0xff, 0xff}
	colorMagenta   = color.RGBA{0xff, 0x00, 0xff, 0xff}
	colorDarkGray  = color.RGBA{0x44, 0x44, 0x44, 0xff}
	colorLightGray = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
	colorDarkGreen = color.RGBA{0x01, 0x32, 0x20, 0xff} // #013220
)

// Theme holds every size and color a frame is drawn with.
type Theme struct {
	Background color.Color

	Ring      Paint // elevation rings and axes
	Cardinal  TextStyle
	LabelGap  float64 // distance between the horizon ring and N/S/E/W
	Cardinals [4]string

	TierColors map[Tier]color.Color

	ZenithDotRadius   float64
	ZenithCircleWidth float64
	ZenithCrossHalf   float64
	ZenithCrossWidth  float64
	StarOuterRadius   float64
	StarInnerRadius   float64

	ConstellationColors map[gnss.Constellation]color.Color
	FallbackColor       color.Color
	MarkerRadius        float64
	MarkerRingWidth     float64
	SatLabel            TextStyle
	SatLabelGap         float64 // between marker edge and the ID label
	// Glyph is the text color used by BadgeMarker on top of the disc.
	Glyph TextStyle

	Status       TextStyle
	StatusOrigin Point
	StatusLine   float64 // vertical distance between the two status lines
	StatusFormat [2]string
}

// DefaultTheme is sized for phone- and browser-sized surfaces.
func DefaultTheme() Theme {
	return Theme{
		Background: colorBlack,
		Ring:       Paint{Color: colorBlue, Width: 5},
		Cardinal:   TextStyle{Color: colorWhite, Size: 30},
		LabelGap:   10,
		Cardinals:  [4]string{"N", "S", "E", "W"},

		TierColors: map[Tier]color.Color{
			TierGood:    colorGreen,
			TierMedium:  colorYellow,
			TierPoor:    colorRed,
			TierUnknown: colorDarkGray,
		},

		ZenithDotRadius:   10,
		ZenithCircleWidth: 3,
		ZenithCrossHalf:   10,
		ZenithCrossWidth:  8,
		StarOuterRadius:   12,
		StarInnerRadius:   5,

		ConstellationColors: map[gnss.Constellation]color.Color{
			gnss.GPS:     colorDarkGreen,
			gnss.GLONASS: colorYellow,
			gnss.Galileo: colorCyan,
			gnss.BeiDou:  colorMagenta,
		},
		FallbackColor:   colorLightGray,
		MarkerRadius:    12,
		MarkerRingWidth: 3,
		SatLabel:        TextStyle{Color: colorWhite, Size: 25, AnchorY: 0.5},
		SatLabelGap:     5,
		Glyph:           TextStyle{Color: colorBlack, Size: 16, AnchorX: 0.5, AnchorY: 0.5},

		Status:       TextStyle{Color: colorWhite, Size: 40, AnchorY: 1},
		StatusOrigin: Point{10, 50},
		StatusLine:   50,
		StatusFormat: [2]string{"Visible satellites: %d", "Used in fix: %d"},
	}
}

// CompactTheme scales everything down for small monochrome panels such as
// a 128x64 OLED. Colors are kept; the panel thresholds them.
func CompactTheme() Theme {
	t := DefaultTheme()
	t.Ring.Width = 1
	t.Cardinal.Size = 9
	t.LabelGap = 2

	t.ZenithDotRadius = 2
	t.ZenithCircleWidth = 1
	t.ZenithCrossHalf = 3
	t.ZenithCrossWidth = 1
	t.StarOuterRadius = 4
	t.StarInnerRadius = 2

	// the dark GPS green would vanish on a thresholded panel
	t.ConstellationColors = map[gnss.Constellation]color.Color{
		gnss.GPS:     colorWhite,
		gnss.GLONASS: colorYellow,
		gnss.Galileo: colorCyan,
		gnss.BeiDou:  colorMagenta,
	}
	t.MarkerRadius = 2
	t.MarkerRingWidth = 1
	t.SatLabel.Size = 8
	t.SatLabelGap = 1
	t.Glyph.Size = 6

	t.Status.Size = 9
	t.StatusOrigin = Point{0, 9}
	t.StatusLine = 10
	t.StatusFormat = [2]string{"V%d", "U%d"}
	return t
}

func (t *Theme) tierColor(tier Tier) color.Color {
	if c, ok := t.TierColors[tier]; ok {
		return c
	}
	return t.TierColors[TierUnknown]
}

// ConstellationColor returns the marker color for c.
func (t *Theme) ConstellationColor(c gnss.Constellation) color.Color {
	if col, ok := t.ConstellationColors[c]; ok {
		return col
	}
	return t.FallbackColor
}
