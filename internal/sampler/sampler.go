// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sampler turns raw sensor samples into Readings, keeps the running
// extrema and formats the four display lines.
package sampler

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/relabs-tech/climate_panel/internal/env"
	"github.com/relabs-tech/climate_panel/internal/sensors"
)

// Lines are the four text rows shown on the panel.
type Lines [4]string

// PlaceholderLines is what the panel shows before any valid sample.
var PlaceholderLines = FormatLines(env.EmptySnapshot())

// Sampler owns the extrema. It is driven by a single goroutine.
type Sampler struct {
	src     sensors.EnvSource
	now     func() uint32 // epoch seconds
	extrema env.Extrema
}

// New creates a sampler reading from src; now supplies the epoch second
// stamped on each Reading.
func New(src sensors.EnvSource, now func() uint32) *Sampler {
	return &Sampler{
		src:     src,
		now:     now,
		extrema: env.NewExtrema(),
	}
}

// Extrema returns the extrema observed so far.
func (s *Sampler) Extrema() env.Extrema { return s.extrema }

// Sample reads the sensor once and returns the converted Reading together
// with the extrema after it. A failed read yields a Reading with both
// fields NaN; a partially failed read yields NaN for the missing field.
// Each sample with a missing field logs exactly one line.
func (s *Sampler) Sample() (env.Reading, env.Extrema) {
	r := env.Reading{
		TemperatureF: math.NaN(),
		HumidityPct:  math.NaN(),
		SampledAt:    s.now(),
	}

	raw, err := s.src.ReadEnv()
	if err != nil {
		log.Printf("sampler: error reading sensor: %v", err)
		return r, s.extrema
	}

	if !math.IsNaN(raw.Celsius) && !math.IsInf(raw.Celsius, 0) {
		r.TemperatureF = env.CelsiusToFahrenheit(raw.Celsius)
	}
	if !math.IsNaN(raw.HumidityPct) && !math.IsInf(raw.HumidityPct, 0) {
		r.HumidityPct = raw.HumidityPct
	}

	var missing []string
	if !r.TemperatureValid() {
		missing = append(missing, "temperature")
	}
	if !r.HumidityValid() {
		missing = append(missing, "humidity")
	}
	if len(missing) > 0 {
		log.Printf("sampler: error reading %s, keeping last known value", strings.Join(missing, " and "))
	}

	s.extrema = s.extrema.Observe(r)
	return r, s.extrema
}

// FormatLines renders the snapshot as the four panel rows. Values are
// rounded to the nearest integer; a quantity never sampled shows "--".
func FormatLines(snap env.Snapshot) Lines {
	e := snap.Extrema
	t, tMin, tMax := "--", "--", "--"
	if !math.IsNaN(snap.TemperatureF) && e.HasTemperature() {
		t, tMin, tMax = round(snap.TemperatureF), round(e.TempMin), round(e.TempMax)
	}
	h, hMin, hMax := "--", "--", "--"
	if !math.IsNaN(snap.HumidityPct) && e.HasHumidity() {
		h, hMin, hMax = round(snap.HumidityPct), round(e.HumMin), round(e.HumMax)
	}

	return Lines{
		fmt.Sprintf("TEMP: %sF", t),
		fmt.Sprintf("L:%s H:%s", tMin, tMax),
		fmt.Sprintf("HUMID: %s%%", h),
		fmt.Sprintf("L:%s H:%s", hMin, hMax),
	}
}

func round(v float64) string {
	return fmt.Sprintf("%d", int(math.Round(v)))
}
