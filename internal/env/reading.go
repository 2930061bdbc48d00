// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

import "math"

// Raw is a single sample as reported by the sensor capability.
// A field the sensor could not measure is NaN.
type Raw struct {
	Celsius     float64
	HumidityPct float64
}

// Reading is one sampling cycle after unit conversion. Invalid fields are
// NaN. A Reading is never modified once built.
type Reading struct {
	TemperatureF float64
	HumidityPct  float64
	SampledAt    uint32 // epoch seconds
}

// TemperatureValid reports whether the temperature field carries a value.
func (r Reading) TemperatureValid() bool { return !math.IsNaN(r.TemperatureF) }

// HumidityValid reports whether the humidity field carries a value.
func (r Reading) HumidityValid() bool { return !math.IsNaN(r.HumidityPct) }

// CelsiusToFahrenheit converts a temperature in °C to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// Extrema are the running minimum and maximum of each quantity since start.
// A quantity with no valid observation has Min=+Inf and Max=-Inf.
type Extrema struct {
	TempMin float64
	TempMax float64
	HumMin  float64
	HumMax  float64
}

// NewExtrema returns extrema with no observations.
func NewExtrema() Extrema {
	return Extrema{
		TempMin: math.Inf(1),
		TempMax: math.Inf(-1),
		HumMin:  math.Inf(1),
		HumMax:  math.Inf(-1),
	}
}

// HasTemperature reports whether a valid temperature was ever observed.
func (e Extrema) HasTemperature() bool { return e.TempMin <= e.TempMax }

// HasHumidity reports whether a valid humidity was ever observed.
func (e Extrema) HasHumidity() bool { return e.HumMin <= e.HumMax }

// Observe widens the extrema with the valid fields of r and returns the
// result. Extrema never narrow.
func (e Extrema) Observe(r Reading) Extrema {
	if r.TemperatureValid() {
		e.TempMin = math.Min(e.TempMin, r.TemperatureF)
		e.TempMax = math.Max(e.TempMax, r.TemperatureF)
	}
	if r.HumidityValid() {
		e.HumMin = math.Min(e.HumMin, r.HumidityPct)
		e.HumMax = math.Max(e.HumMax, r.HumidityPct)
	}
	return e
}
