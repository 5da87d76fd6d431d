package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/gnss_skyplot/internal/config"
	"github.com/relabs-tech/gnss_skyplot/internal/prefs"
	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

// consoleSize is the nominal plot the console computes positions for.
const consoleSize = 360

// RunConsoleMQTT subscribes to the GNSS feed and prints one summary per
// frame to stdout until interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()

	view := skyplot.NewView(prefs.NewFileStore(cfg.PrefsFile), consolePrinter(os.Stdout))
	view.Resize(consoleSize, consoleSize)

	client, err := connectMQTT(cfg, cfg.MQTTClientIDConsole, "console")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	if err := subscribeFeed(client, cfg, view, nil, "console"); err != nil {
		return err
	}

	// Wait for Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = runView(ctx, view)
	log.Println("console: shutting down")
	return err
}

// consolePrinter prints one line per frame with the counters and the
// visible satellites.
func consolePrinter(w io.Writer) skyplot.RedrawFunc {
	renderer := skyplot.NewRenderer(skyplot.DefaultTheme())
	return func(f skyplot.Frame) {
		counters := renderer.RenderFrame(skyplot.Discard, f.Geometry, f.Snapshot, f.Fix, f.Config)
		fmt.Fprintf(w, "[SKY %4d] visible=%2d used=%2d accuracy=%s\n",
			f.Seq, counters.Visible, counters.Used, f.Tier())
		if f.Snapshot == nil {
			return
		}
		for _, obs := range f.Snapshot.Satellites {
			if !skyplot.IsVisible(obs, f.Config) {
				continue
			}
			used := " "
			if obs.UsedInFix {
				used = "*"
			}
			fmt.Fprintf(w, "  %s %-7s %3d  az=%6.1f° el=%5.1f°\n",
				used, obs.Constellation, obs.ID, obs.AzimuthDeg, obs.ElevationDeg)
		}
	}
}
