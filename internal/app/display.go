// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/climate_panel/internal/config"
	paneldisplay "github.com/relabs-tech/climate_panel/internal/display"
	"github.com/relabs-tech/climate_panel/internal/ssd1351"
)

// openDisplay returns the drawer selected by cfg.DisplayDriver and a
// function that releases it.
func openDisplay(cfg *config.Config) (display.Drawer, func(), error) {
	switch cfg.DisplayDriver {
	case "none":
		log.Println("display: no panel configured, rendering off-screen")
		return paneldisplay.NewDiscard(), func() {}, nil
	case "ssd1351":
	default:
		return nil, nil, fmt.Errorf("unknown display driver %q", cfg.DisplayDriver)
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	port, err := spireg.Open(cfg.DisplaySPIDevice)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open SPI %s: %w", cfg.DisplaySPIDevice, err)
	}

	dc := gpioreg.ByName(cfg.DisplayDCPin)
	if dc == nil {
		port.Close()
		return nil, nil, fmt.Errorf("unknown DC pin %q", cfg.DisplayDCPin)
	}
	var rst gpio.PinOut
	if cfg.DisplayRSTPin != "" {
		p := gpioreg.ByName(cfg.DisplayRSTPin)
		if p == nil {
			port.Close()
			return nil, nil, fmt.Errorf("unknown RST pin %q", cfg.DisplayRSTPin)
		}
		rst = p
	}

	freq := physic.Frequency(cfg.DisplaySPIMHz) * physic.MegaHertz
	dev, err := ssd1351.NewSPI(port, dc, rst, freq, &ssd1351.DefaultOpts)
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: %s initialized on %s", dev, cfg.DisplaySPIDevice)

	release := func() {
		if err := dev.Halt(); err != nil {
			log.Printf("display: halt error: %v", err)
		}
		port.Close()
	}
	return dev, release, nil
}
