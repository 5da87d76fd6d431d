package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
	"github.com/relabs-tech/gnss_skyplot/internal/prefs"
	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

// RenderOptions configure a one-shot render.
type RenderOptions struct {
	SnapshotPath string // JSON Snapshot; empty renders no satellites
	FixPath      string // JSON LocationFix; empty means unknown accuracy
	PrefsPath    string // view config; empty uses the defaults
	OutPath      string
	Width        int
	Height       int
	Badges       bool // draw constellation badges instead of shapes
}

// RenderFile renders one frame from files to a PNG.
func RenderFile(opts RenderOptions) (skyplot.FrameCounters, error) {
	if opts.OutPath == "" {
		return skyplot.FrameCounters{}, fmt.Errorf("no output path")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return skyplot.FrameCounters{}, fmt.Errorf("invalid size %dx%d", opts.Width, opts.Height)
	}

	var snap *gnss.Snapshot
	if opts.SnapshotPath != "" {
		snap = &gnss.Snapshot{}
		if err := readJSON(opts.SnapshotPath, snap); err != nil {
			return skyplot.FrameCounters{}, err
		}
	}
	var fix *gnss.LocationFix
	if opts.FixPath != "" {
		fix = &gnss.LocationFix{}
		if err := readJSON(opts.FixPath, fix); err != nil {
			return skyplot.FrameCounters{}, err
		}
	}

	cfg := skyplot.DefaultViewConfig()
	if opts.PrefsPath != "" {
		loaded, err := prefs.NewFileStore(opts.PrefsPath).Load()
		if err != nil {
			log.Printf("render: %v (using defaults)", err)
		}
		cfg = loaded
	}

	renderer := skyplot.NewRenderer(skyplot.DefaultTheme())
	if opts.Badges {
		renderer.Marker = skyplot.BadgeMarker{}
	}
	r := skyplot.NewRaster(opts.Width, opts.Height)
	counters := renderer.RenderFrame(r, skyplot.NewGeometry(opts.Width, opts.Height), snap, fix, cfg)
	if err := r.SavePNG(opts.OutPath); err != nil {
		return counters, fmt.Errorf("writing %s: %w", opts.OutPath, err)
	}
	return counters, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
