// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/climate_panel/internal/app"
	"github.com/relabs-tech/climate_panel/internal/config"
)

func main() {
	configPath := flag.String("config", "./panel_config.txt", "path to configuration file (empty for built-in defaults)")
	flag.Parse()

	log.Println("starting climate-panel monitor (sensor → panel, HTTP)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunMonitor(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
