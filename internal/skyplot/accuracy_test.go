package skyplot

import (
	"testing"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		fix  *gnss.LocationFix
		want Tier
	}{
		{"absent", nil, TierUnknown},
		{"no accuracy", &gnss.LocationFix{AccuracyMeters: 1}, TierUnknown},
		{"0m", &gnss.LocationFix{AccuracyMeters: 0, HasAccuracy: true}, TierGood},
		{"4.99m", &gnss.LocationFix{AccuracyMeters: 4.99, HasAccuracy: true}, TierGood},
		{"5m", &gnss.LocationFix{AccuracyMeters: 5, HasAccuracy: true}, TierMedium},
		{"19.9m", &gnss.LocationFix{AccuracyMeters: 19.9, HasAccuracy: true}, TierMedium},
		{"20m", &gnss.LocationFix{AccuracyMeters: 20, HasAccuracy: true}, TierPoor},
		{"500m", &gnss.LocationFix{AccuracyMeters: 500, HasAccuracy: true}, TierPoor},
	}
	for _, tc := range tests {
		if got := Classify(tc.fix); got != tc.want {
			t.Errorf("%s: Classify = %v, want %v", tc.name, got, tc.want)
		}
	}
}
