// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gnss_skyplot/internal/config"
	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
)

// RunMockProducer publishes the synthetic constellation at MOCK_INTERVAL
// until interrupted, then clears both topics.
func RunMockProducer() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg, cfg.MQTTClientIDMock, "mock producer")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	pub := newMQTTPublisher(client, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runMock(ctx, gnss.NewMockSource(), pub, cfg.MockPeriod())
	log.Println("mock producer: shutting down")
	publishAbsent(pub, "mock producer")
	return err
}

// runMock publishes one status and one fix per tick, starting immediately.
func runMock(ctx context.Context, src *gnss.MockSource, pub Publisher, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		snap, err := src.Next()
		if err != nil {
			return err
		}
		fix := src.Fix()
		if err := pub.PublishStatus(&snap); err != nil {
			log.Printf("mock producer: %v", err)
		}
		if err := pub.PublishFix(&fix); err != nil {
			log.Printf("mock producer: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
