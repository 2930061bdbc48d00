// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"math"
	"strings"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/climate_panel/internal/env"
)

// BME280 reads temperature and humidity from a Bosch BME280 on I2C.
// A BMP280 on the same address works too but reports no humidity.
type BME280 struct {
	bus         i2c.BusCloser
	dev         *bmxx80.Dev
	hasHumidity bool
}

// NewBME280 opens the I2C bus (empty name selects the first one) and
// initializes the sensor at addr.
func NewBME280(busName string, addr uint16) (*BME280, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("BME280 I2C open: %w", err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("BME280 init at 0x%02X: %w", addr, err)
	}

	s := &BME280{
		bus:         bus,
		dev:         dev,
		hasHumidity: strings.HasPrefix(dev.String(), "BME280"),
	}
	if !s.hasHumidity {
		log.Printf("sensors: %s has no humidity channel, humidity will stay unknown", dev)
	}
	log.Printf("sensors: %s initialized at 0x%02X", dev, addr)
	return s, nil
}

// ReadEnv takes one forced-mode measurement.
func (s *BME280) ReadEnv() (env.Raw, error) {
	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return env.Raw{}, fmt.Errorf("BME280 sense: %w", err)
	}

	raw := env.Raw{
		Celsius:     e.Temperature.Celsius(),
		HumidityPct: math.NaN(),
	}
	if s.hasHumidity {
		raw.HumidityPct = float64(e.Humidity) / float64(physic.PercentRH)
	}
	return raw, nil
}

// Close halts the sensor and releases the bus.
func (s *BME280) Close() error {
	if err := s.dev.Halt(); err != nil {
		s.bus.Close()
		return fmt.Errorf("BME280 halt: %w", err)
	}
	return s.bus.Close()
}
