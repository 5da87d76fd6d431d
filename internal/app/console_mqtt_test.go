package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

func TestConsolePrinter(t *testing.T) {
	var buf bytes.Buffer
	printFrame := consolePrinter(&buf)

	cfg := skyplot.DefaultViewConfig()
	cfg.ShowUnused = false
	printFrame(skyplot.Frame{Seq: 4, Snapshot: threeSats(), Config: cfg, Geometry: skyplot.NewGeometry(360, 360)})

	out := buf.String()
	if !strings.Contains(out, "visible= 2 used= 2 accuracy=UNKNOWN") {
		t.Errorf("header missing:\n%s", out)
	}
	if strings.Contains(out, "GLONASS") {
		t.Errorf("unused satellite printed:\n%s", out)
	}
	if !strings.Contains(out, "* GALILEO  11") {
		t.Errorf("galileo line missing:\n%s", out)
	}
}
