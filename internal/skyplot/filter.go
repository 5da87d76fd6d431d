package skyplot

import "github.com/relabs-tech/gnss_skyplot/internal/gnss"

// IsVisible reports whether obs survives the view's filters.
//
// QZSS, SBAS and unknown satellites always pass the constellation gate:
// there is no toggle for them.
func IsVisible(obs gnss.SatelliteObservation, cfg ViewConfig) bool {
	constellationOK := true
	switch obs.Constellation {
	case gnss.GPS:
		constellationOK = cfg.ShowGPS
	case gnss.GLONASS:
		constellationOK = cfg.ShowGLONASS
	case gnss.Galileo:
		constellationOK = cfg.ShowGALILEO
	case gnss.BeiDou:
		constellationOK = cfg.ShowBEIDOU
	}

	usageOK := cfg.ShowUnused || obs.UsedInFix
	return constellationOK && usageOK
}
