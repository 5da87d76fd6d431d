package app

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gnss_skyplot/internal/config"
	"github.com/relabs-tech/gnss_skyplot/internal/prefs"
	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

// panel is the part of *ssd1306.Dev the display loop needs.
type panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// RunDisplay draws the sky plot on an SSD1306 OLED until interrupted.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	opts := ssd1306.DefaultOpts
	opts.W, opts.H = cfg.DisplayWidth, cfg.DisplayHeight
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: %dx%d panel initialized", opts.W, opts.H)

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	renderer := skyplot.NewRenderer(skyplot.CompactTheme())
	view := skyplot.NewView(prefs.NewFileStore(cfg.PrefsFile), func(f skyplot.Frame) {
		if err := drawFrame(dev, renderer, f); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	})
	view.Resize(opts.W, opts.H)

	client, err := connectMQTT(cfg, cfg.MQTTClientIDDisplay, "display")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	if err := subscribeFeed(client, cfg, view, nil, "display"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("display: starting update loop")
	// blank plot stays on the panel after exit
	err = runView(ctx, view)
	log.Println("display: shutting down")
	return err
}

// drawFrame renders f in color and thresholds it onto the panel.
func drawFrame(dev panel, renderer *skyplot.Renderer, f skyplot.Frame) error {
	r := skyplot.NewRaster(f.Geometry.Size())
	renderer.RenderFrame(r, f.Geometry, f.Snapshot, f.Fix, f.Config)
	return dev.Draw(dev.Bounds(), toMonochrome(r.Image(), dev.Bounds()), image.Point{})
}

// toMonochrome converts img to the panel's 1-bit layout; any bright pixel
// lights up.
func toMonochrome(img image.Image, bounds image.Rectangle) *image1bit.VerticalLSB {
	bits := image1bit.NewVerticalLSB(bounds)
	draw.Draw(bits, bounds, img, image.Point{}, draw.Src)
	return bits
}

func showSplash(dev panel) error {
	img := image1bit.NewVerticalLSB(dev.Bounds())

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("GNSS Sky Plot"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Looking for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("sats"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
