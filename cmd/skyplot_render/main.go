package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gnss_skyplot/internal/app"
)

func main() {
	var opts app.RenderOptions
	flag.StringVar(&opts.SnapshotPath, "snapshot", "", "satellite snapshot JSON (empty: no satellites)")
	flag.StringVar(&opts.FixPath, "fix", "", "location fix JSON (empty: unknown accuracy)")
	flag.StringVar(&opts.PrefsPath, "prefs", "", "view preferences YAML (empty: defaults)")
	flag.StringVar(&opts.OutPath, "o", "skyplot.png", "output PNG")
	flag.IntVar(&opts.Width, "w", 800, "width in pixels")
	flag.IntVar(&opts.Height, "h", 800, "height in pixels")
	flag.BoolVar(&opts.Badges, "badges", false, "draw constellation badges instead of plain markers")
	flag.Parse()

	counters, err := app.RenderFile(opts)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Printf("render: wrote %s (%d visible, %d used)", opts.OutPath, counters.Visible, counters.Used)
}
