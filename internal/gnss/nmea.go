package gnss

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// DefaultUERE is the user-equivalent range error used to turn HDOP into a
// horizontal accuracy estimate, in meters.
const DefaultUERE = 4.0

// ErrNotSentence is returned by ParseLine for lines that are not NMEA
// sentences at all (blank lines, binary noise, partial reads).
var ErrNotSentence = errors.New("not an NMEA sentence")

// ParseLine trims a raw receiver line and parses it as an NMEA sentence.
func ParseLine(line string) (nmea.Sentence, error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return nil, ErrNotSentence
	}
	s, err := nmea.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("nmea parse: %w", err)
	}
	return s, nil
}

// Update reports what a single sentence changed. Nil fields were not
// touched by that sentence.
type Update struct {
	Snapshot *Snapshot
	Fix      *LocationFix
}

type satKey struct {
	constellation Constellation
	id            int
}

// Assembler accumulates GSV/GSA/GGA/RMC sentences into complete status
// snapshots and fixes. It is not safe for concurrent use; the producer
// feeds it from its single read loop.
type Assembler struct {
	uere float64
	now  func() time.Time

	cycles      map[string][]SatelliteObservation // last complete GSV cycle per talker
	pending     map[string][]SatelliteObservation // GSV cycle in progress per talker
	pendingNext map[string]int64                  // next expected GSV message number
	used        map[satKey]bool
	lastType    string
}

// NewAssembler returns an Assembler that estimates accuracy as HDOP*uere.
// A non-positive uere selects DefaultUERE.
func NewAssembler(uere float64) *Assembler {
	if uere <= 0 {
		uere = DefaultUERE
	}
	return &Assembler{
		uere:        uere,
		now:         time.Now,
		cycles:      make(map[string][]SatelliteObservation),
		pending:     make(map[string][]SatelliteObservation),
		pendingNext: make(map[string]int64),
		used:        make(map[satKey]bool),
	}
}

// Feed parses one raw line and applies it.
func (a *Assembler) Feed(line string) (Update, error) {
	s, err := ParseLine(line)
	if err != nil {
		return Update{}, err
	}
	return a.Handle(s), nil
}

// Handle applies an already parsed sentence.
func (a *Assembler) Handle(s nmea.Sentence) Update {
	var u Update

	switch s.DataType() {
	case nmea.TypeGSV:
		m := s.(nmea.GSV)
		u.Snapshot = a.handleGSV(m)

	case nmea.TypeGSA:
		m := s.(nmea.GSA)
		// a GSA burst (one per system on multi-GNSS receivers) replaces
		// the used set as a whole
		if a.lastType != nmea.TypeGSA {
			a.used = make(map[satKey]bool)
		}
		if m.FixType != nmea.FixNone {
			for _, sv := range m.SV {
				id, err := strconv.Atoi(strings.TrimSpace(sv))
				if err != nil {
					continue
				}
				a.used[satKey{classifySystem(m.TalkerID(), m.SystemID, id), id}] = true
			}
		}

	case nmea.TypeGGA:
		m := s.(nmea.GGA)
		fix := LocationFix{Time: a.now()}
		if m.FixQuality != nmea.Invalid && m.HDOP > 0 {
			fix.HasAccuracy = true
			fix.AccuracyMeters = m.HDOP * a.uere
		}
		u.Fix = &fix

	case nmea.TypeRMC:
		m := s.(nmea.RMC)
		if m.Validity == nmea.InvalidRMC {
			u.Fix = &LocationFix{Time: a.now()}
		}

	default:
		// other sentence types carry nothing the sky plot needs
	}

	a.lastType = s.DataType()
	return u
}

func (a *Assembler) handleGSV(m nmea.GSV) *Snapshot {
	talker := m.TalkerID()

	if m.MessageNumber == 1 {
		a.pending[talker] = nil
		a.pendingNext[talker] = 1
	}
	if next, ok := a.pendingNext[talker]; !ok || m.MessageNumber != next {
		// joined mid-cycle or lost a part; wait for the next first part
		delete(a.pending, talker)
		delete(a.pendingNext, talker)
		return nil
	}

	for i, info := range m.Info {
		if !hasLookAngles(m, i) {
			// still being acquired, no position to plot
			continue
		}
		id := int(info.SVPRNNumber)
		a.pending[talker] = append(a.pending[talker], SatelliteObservation{
			ID:            id,
			Constellation: classify(talker, id),
			AzimuthDeg:    float64(info.Azimuth),
			ElevationDeg:  float64(info.Elevation),
		})
	}
	a.pendingNext[talker] = m.MessageNumber + 1

	if m.MessageNumber < m.TotalMessages {
		return nil
	}

	a.cycles[talker] = a.pending[talker]
	delete(a.pending, talker)
	delete(a.pendingNext, talker)

	snap := a.Snapshot()
	return &snap
}

// hasLookAngles reports whether the i-th entry of m carries both elevation
// and azimuth. Empty fields decode as zero.
func hasLookAngles(m nmea.GSV, i int) bool {
	el, az := 4+i*4, 5+i*4
	return az < len(m.Fields) && m.Fields[el] != "" && m.Fields[az] != ""
}

// Snapshot merges the last complete GSV cycle of every talker, ordered by
// talker ID, and marks satellites listed by the latest GSA burst as used.
// The same satellite reported twice (one GSV cycle per signal band) is
// kept once.
func (a *Assembler) Snapshot() Snapshot {
	talkers := make([]string, 0, len(a.cycles))
	for t := range a.cycles {
		talkers = append(talkers, t)
	}
	sort.Strings(talkers)

	snap := Snapshot{Time: a.now(), Satellites: []SatelliteObservation{}}
	seen := make(map[satKey]bool)
	for _, t := range talkers {
		for _, obs := range a.cycles[t] {
			k := satKey{obs.Constellation, obs.ID}
			if seen[k] {
				continue
			}
			seen[k] = true
			obs.UsedInFix = a.used[k]
			snap.Satellites = append(snap.Satellites, obs)
		}
	}
	return snap
}

// classifySystem prefers the NMEA 4.10 system ID a combined (GN) GSA carries
// over the talker and PRN rules.
func classifySystem(talker string, systemID int64, prn int) Constellation {
	switch systemID {
	case 1:
		return classify("GP", prn)
	case 2:
		return GLONASS
	case 3:
		return Galileo
	case 4:
		return BeiDou
	case 5:
		return QZSS
	}
	return classify(talker, prn)
}

// classify derives the constellation from the talker ID, falling back to
// the NMEA PRN numbering for combined (GN) talkers.
func classify(talker string, prn int) Constellation {
	switch talker {
	case "GL":
		return GLONASS
	case "GA":
		return Galileo
	case "GB", "BD":
		return BeiDou
	case "GQ", "QZ":
		return QZSS
	case "GP":
		// GPS receivers report SBAS and QZSS under the GP talker
		if c := constellationByPRN(prn); c == SBAS || c == QZSS {
			return c
		}
		return GPS
	}
	return constellationByPRN(prn)
}

func constellationByPRN(prn int) Constellation {
	switch {
	case prn >= 1 && prn <= 32:
		return GPS
	case prn >= 33 && prn <= 64:
		return SBAS
	case prn >= 65 && prn <= 96:
		return GLONASS
	case prn >= 120 && prn <= 158:
		return SBAS
	case prn >= 193 && prn <= 200:
		return QZSS
	case prn >= 201 && prn <= 264:
		return BeiDou
	case prn >= 301 && prn <= 336:
		return Galileo
	case prn >= 401 && prn <= 437:
		return BeiDou
	}
	return Unknown
}
