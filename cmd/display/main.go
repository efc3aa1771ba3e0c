// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/inertial_decoder/internal/app"
	"github.com/relabs-tech/inertial_decoder/internal/config"
)

func main() {
	log.Println("starting inertial-decoder display (MQTT → SSD1306)")

	if err := config.InitGlobal("dr_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
