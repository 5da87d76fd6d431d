// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gnss

import (
	"math"
	"time"
)

type mockSat struct {
	id            int
	constellation Constellation
	az0, el0      float64 // position at start
	azRate        float64 // deg/s
	elAmp         float64 // deg
	used          bool
}

// MockSource generates a slowly rotating constellation so the rest of the
// pipeline can run without a receiver attached.
type MockSource struct {
	start time.Time
	now   func() time.Time
	sats  []mockSat
}

// NewMockSource creates a mock status source with a fixed mix of
// constellations, including one SBAS and one QZSS satellite.
func NewMockSource() *MockSource {
	return newMockSource(time.Now)
}

func newMockSource(now func() time.Time) *MockSource {
	return &MockSource{
		start: now(),
		now:   now,
		sats: []mockSat{
			{id: 3, constellation: GPS, az0: 40, el0: 62, azRate: 0.20, elAmp: 6, used: true},
			{id: 8, constellation: GPS, az0: 135, el0: 25, azRate: 0.15, elAmp: 8, used: true},
			{id: 17, constellation: GPS, az0: 290, el0: 10, azRate: 0.10, elAmp: 9, used: false},
			{id: 71, constellation: GLONASS, az0: 200, el0: 48, azRate: 0.25, elAmp: 5, used: true},
			{id: 84, constellation: GLONASS, az0: 330, el0: 18, azRate: 0.20, elAmp: 6, used: false},
			{id: 11, constellation: Galileo, az0: 80, el0: 75, azRate: 0.12, elAmp: 4, used: true},
			{id: 26, constellation: Galileo, az0: 250, el0: 35, azRate: 0.18, elAmp: 7, used: false},
			{id: 19, constellation: BeiDou, az0: 170, el0: 55, azRate: 0.22, elAmp: 5, used: true},
			{id: 133, constellation: SBAS, az0: 160, el0: 30, azRate: 0, elAmp: 0, used: false},
			{id: 194, constellation: QZSS, az0: 10, el0: 15, azRate: 0.05, elAmp: 3, used: false},
		},
	}
}

// Next returns the constellation as seen at the current time.
func (m *MockSource) Next() (Snapshot, error) {
	t := m.now()
	elapsed := t.Sub(m.start).Seconds()

	snap := Snapshot{Time: t, Satellites: make([]SatelliteObservation, 0, len(m.sats))}
	for _, s := range m.sats {
		snap.Satellites = append(snap.Satellites, SatelliteObservation{
			ID:            s.id,
			Constellation: s.constellation,
			AzimuthDeg:    math.Mod(s.az0+s.azRate*elapsed, 360),
			ElevationDeg:  s.el0 + s.elAmp*math.Sin(elapsed/60),
			UsedInFix:     s.used,
		})
	}
	return snap, nil
}

// Fix returns an accuracy that wanders through all three quality tiers
// over a two minute period.
func (m *MockSource) Fix() LocationFix {
	t := m.now()
	elapsed := t.Sub(m.start).Seconds()
	return LocationFix{
		Time:           t,
		AccuracyMeters: 14 + 12*math.Sin(elapsed*2*math.Pi/120),
		HasAccuracy:    true,
	}
}
