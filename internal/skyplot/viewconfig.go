package skyplot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when a ViewConfig fails validation.
var ErrInvalidConfig = errors.New("invalid view configuration")

// ZenithStyle selects the glyph drawn at the plot center.
type ZenithStyle int

const (
	ZenithDot    ZenithStyle = iota // filled disc
	ZenithCross                     // two perpendicular strokes
	ZenithCircle                    // hollow ring
	ZenithStar                      // filled five-point star
)

var zenithStyleNames = []string{"DOT", "CROSS", "CIRCLE", "STAR"}

func (z ZenithStyle) String() string {
	if z.valid() {
		return zenithStyleNames[z]
	}
	return fmt.Sprintf("ZenithStyle(%d)", int(z))
}

func (z ZenithStyle) valid() bool {
	return z >= 0 && int(z) < len(zenithStyleNames)
}

// ParseZenithStyle accepts the style names case-insensitively.
func ParseZenithStyle(s string) (ZenithStyle, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range zenithStyleNames {
		if name == s {
			return ZenithStyle(i), nil
		}
	}
	return ZenithDot, fmt.Errorf("%w: unknown zenith style %q", ErrInvalidConfig, s)
}

func (z ZenithStyle) MarshalText() ([]byte, error) {
	if !z.valid() {
		return nil, fmt.Errorf("%w: zenith style %d", ErrInvalidConfig, int(z))
	}
	return []byte(z.String()), nil
}

func (z *ZenithStyle) UnmarshalText(text []byte) error {
	style, err := ParseZenithStyle(string(text))
	if err != nil {
		return err
	}
	*z = style
	return nil
}

// ViewConfig holds the user filters and the zenith marker style. It is
// only changed through View.ApplyConfiguration.
type ViewConfig struct {
	ShowGPS     bool        `json:"gps"`
	ShowGLONASS bool        `json:"glonass"`
	ShowGALILEO bool        `json:"galileo"`
	ShowBEIDOU  bool        `json:"beidou"`
	ShowUnused  bool        `json:"show_unused"`
	ZenithStyle ZenithStyle `json:"zenith_style"`
}

// DefaultViewConfig shows everything and uses the first zenith style.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		ShowGPS:     true,
		ShowGLONASS: true,
		ShowGALILEO: true,
		ShowBEIDOU:  true,
		ShowUnused:  true,
		ZenithStyle: ZenithDot,
	}
}

// Validate checks the fields that can hold out-of-range values.
func (c ViewConfig) Validate() error {
	if !c.ZenithStyle.valid() {
		return fmt.Errorf("%w: zenith style %d", ErrInvalidConfig, int(c.ZenithStyle))
	}
	return nil
}
