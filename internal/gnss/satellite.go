package gnss

import (
	"strings"
	"time"
)

// Constellation identifies the navigation system a satellite belongs to.
type Constellation int

const (
	Unknown Constellation = iota
	GPS
	GLONASS
	Galileo
	BeiDou
	QZSS
	SBAS
)

var constellationNames = map[Constellation]string{
	Unknown: "UNKNOWN",
	GPS:     "GPS",
	GLONASS: "GLONASS",
	Galileo: "GALILEO",
	BeiDou:  "BEIDOU",
	QZSS:    "QZSS",
	SBAS:    "SBAS",
}

func (c Constellation) String() string {
	if name, ok := constellationNames[c]; ok {
		return name
	}
	return constellationNames[Unknown]
}

// MarshalText encodes the constellation as its upper-case name.
func (c Constellation) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText never fails: names it does not recognize decode to Unknown.
func (c *Constellation) UnmarshalText(text []byte) error {
	*c = ParseConstellation(string(text))
	return nil
}

// ParseConstellation maps a case-insensitive name to a Constellation.
func ParseConstellation(name string) Constellation {
	name = strings.ToUpper(strings.TrimSpace(name))
	for c, n := range constellationNames {
		if n == name {
			return c
		}
	}
	return Unknown
}

// SatelliteObservation is one satellite as reported by the feed in a
// single status update.
type SatelliteObservation struct {
	ID            int           `json:"id"` // PRN / SVID
	Constellation Constellation `json:"constellation"`
	AzimuthDeg    float64       `json:"az_deg"` // [0,360), clockwise from north
	ElevationDeg  float64       `json:"el_deg"` // [-90,90], 90 = zenith
	UsedInFix     bool          `json:"used"`
}

// Snapshot is a complete satellite status update in feed order. It is
// replaced wholesale on every update; a nil *Snapshot means absent.
type Snapshot struct {
	Time       time.Time              `json:"time"`
	Satellites []SatelliteObservation `json:"satellites"`
}

// Source is anything that can produce status snapshots over time: the
// mock constellation, a replay file, etc.
type Source interface {
	Next() (Snapshot, error)
}
