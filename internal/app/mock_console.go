// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/climate_panel/internal/sampler"
	"github.com/relabs-tech/climate_panel/internal/sensors"
	"github.com/relabs-tech/climate_panel/internal/snapshot"
)

// RunMockConsole samples the mock sensor and prints the panel lines, so the
// sampling path can be watched without any hardware attached.
func RunMockConsole() error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	return mockConsole(newConsoleSession(sensors.NewMockSource()), ticker.C, stdout, -1)
}

// consoleSession is the sampler half of the monitor without panel or
// network.
type consoleSession struct {
	smp   *sampler.Sampler
	store *snapshot.Store
}

func newConsoleSession(src sensors.EnvSource) *consoleSession {
	return &consoleSession{
		smp:   sampler.New(src, func() uint32 { return uint32(time.Now().Unix()) }),
		store: snapshot.New(),
	}
}

func (c *consoleSession) step() sampler.Lines {
	r, e := c.smp.Sample()
	c.store.Update(r, e)
	return sampler.FormatLines(c.store.Read())
}

// mockConsole prints one block per tick; n < 0 runs until ticks closes.
func mockConsole(s *consoleSession, ticks <-chan time.Time, w io.Writer, n int) error {
	for i := 0; n < 0 || i < n; i++ {
		if _, ok := <-ticks; !ok {
			return nil
		}
		lines := s.step()
		if _, err := fmt.Fprintf(w, "%-12s %s\n%-12s %s\n\n", lines[0], lines[1], lines[2], lines[3]); err != nil {
			return err
		}
	}
	return nil
}
