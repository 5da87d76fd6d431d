// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gnss_skyplot/internal/app"
	"github.com/relabs-tech/gnss_skyplot/internal/config"
)

func main() {
	configPath := flag.String("config", "./skyplot_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gnss-skyplot web server (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defer app.SetupLogging(config.Get().LogFile).Close()

	if err := app.RunWeb(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
