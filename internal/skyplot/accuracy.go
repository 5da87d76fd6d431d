package skyplot

import "github.com/relabs-tech/gnss_skyplot/internal/gnss"

// Tier is the quality class of the current position fix.
type Tier int

const (
	TierUnknown Tier = iota
	TierGood
	TierMedium
	TierPoor
)

// Horizontal accuracy bounds, meters. Intervals are half open:
// [0,5) good, [5,20) medium, [20,inf) poor.
const (
	goodAccuracy   = 5.0
	mediumAccuracy = 20.0
)

func (t Tier) String() string {
	switch t {
	case TierGood:
		return "GOOD"
	case TierMedium:
		return "MEDIUM"
	case TierPoor:
		return "POOR"
	default:
		return "UNKNOWN"
	}
}

// MarshalText makes tiers readable in JSON payloads.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Classify maps a fix to its quality tier. A nil fix or one without an
// accuracy estimate is TierUnknown.
func Classify(fix *gnss.LocationFix) Tier {
	if fix == nil || !fix.HasAccuracy {
		return TierUnknown
	}
	switch {
	case fix.AccuracyMeters < goodAccuracy:
		return TierGood
	case fix.AccuracyMeters < mediumAccuracy:
		return TierMedium
	default:
		return TierPoor
	}
}
