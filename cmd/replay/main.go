package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/inertial_decoder/internal/app"
	"github.com/relabs-tech/inertial_decoder/internal/config"
)

func main() {
	input := flag.String("in", "-", "capture file to decode, - for stdin")
	configPath := flag.String("config", "", "optional configuration file for decoder settings")
	verbose := flag.Bool("v", false, "log every dropped frame")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	if err := app.RunReplay(cfg, *input, os.Stdout, *verbose); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
