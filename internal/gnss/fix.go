package gnss

import "time"

// LocationFix carries the horizontal accuracy of the latest position
// solution. A nil *LocationFix means no fix has been reported (or the feed
// was stopped).
type LocationFix struct {
	Time           time.Time `json:"time"`
	AccuracyMeters float64   `json:"accuracy_m"`   // horizontal, 1-sigma-ish
	HasAccuracy    bool      `json:"has_accuracy"` // false when the receiver has no usable fix
}
