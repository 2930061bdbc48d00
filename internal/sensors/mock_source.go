// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/climate_panel/internal/env"
)

type mockSource struct {
	start time.Time
	reads int

	// failEvery makes every n-th read report NaN humidity (0 disables).
	failEvery int
}

// NewMockSource creates a mock sensor that generates smooth changing
// values around room conditions.
func NewMockSource() EnvSource {
	return &mockSource{start: time.Now(), failEvery: 20}
}

func (m *mockSource) ReadEnv() (env.Raw, error) {
	m.reads++
	elapsed := time.Since(m.start).Seconds()

	raw := env.Raw{
		Celsius:     21 + 2*math.Sin(elapsed/60),
		HumidityPct: 45 + 8*math.Cos(elapsed/90),
	}
	if m.failEvery > 0 && m.reads%m.failEvery == 0 {
		raw.HumidityPct = math.NaN()
	}
	return raw, nil
}
