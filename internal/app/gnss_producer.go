package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gnss_skyplot/internal/config"
	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

// RunGNSSProducer opens the receiver's serial port, assembles NMEA
// sentences into status snapshots and fixes, and publishes them as
// retained JSON. On SIGINT/SIGTERM both topics are cleared.
func RunGNSSProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	client, err := connectMQTT(cfg, cfg.MQTTClientIDProducer, "gnss producer")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	pub := newMQTTPublisher(client, cfg)

	// ---- 2) Open receiver serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("opening %s: %w", serialOpts.PortName, err)
	}
	log.Printf("gnss producer: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// closing the port unblocks the pending read
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	// ---- 3) Read, assemble, publish ----
	err = pumpNMEA(ctx, port, gnss.NewAssembler(cfg.GPSUERE), pub, "gnss producer")

	log.Println("gnss producer: shutting down")
	publishAbsent(pub, "gnss producer")
	return err
}

// pumpNMEA feeds every line of r to asm and publishes each completed
// snapshot and fix. It returns nil at EOF or once ctx is done.
func pumpNMEA(ctx context.Context, r io.Reader, asm *gnss.Assembler, pub Publisher, component string) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			publishUpdate(asm, line, pub, component)
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading receiver: %w", err)
		}
	}
}

func publishUpdate(asm *gnss.Assembler, line string, pub Publisher, component string) {
	u, err := asm.Feed(line)
	if err != nil {
		// noisy receiver or partial sentence
		return
	}
	if u.Snapshot != nil {
		if err := pub.PublishStatus(u.Snapshot); err != nil {
			log.Printf("%s: %v", component, err)
		}
	}
	if u.Fix != nil {
		if err := pub.PublishFix(u.Fix); err != nil {
			log.Printf("%s: %v", component, err)
		}
	}
}
