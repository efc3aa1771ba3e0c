package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/inertial_decoder/internal/app"
	"github.com/relabs-tech/inertial_decoder/internal/config"
)

func main() {
	configPath := flag.String("config", "./dr_config.txt", "path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
