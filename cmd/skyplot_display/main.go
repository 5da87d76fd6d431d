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

	log.Println("starting gnss-skyplot OLED display (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defer app.SetupLogging(config.Get().LogFile).Close()

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
