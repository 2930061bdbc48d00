// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display owns the four panel lines and the anti burn-in phase and
// pushes full frames to a periph display.Drawer.
package display

import (
	"fmt"
	"image"
	"log"
	"time"

	"periph.io/x/conn/v3/display"

	"github.com/relabs-tech/climate_panel/internal/sampler"
)

// Panel redraws the whole screen whenever the phase or the lines change.
// It is driven by a single goroutine.
type Panel struct {
	dev      display.Drawer
	interval time.Duration
	frame    *image.RGBA

	lines   sampler.Lines
	phase   Phase
	started bool
	redraws int
}

// NewPanel creates a panel drawing on dev. interval is the phase length.
func NewPanel(dev display.Drawer, interval time.Duration) *Panel {
	if interval <= 0 {
		interval = DefaultPhaseInterval
	}
	return &Panel{
		dev:      dev,
		interval: interval,
		frame:    image.NewRGBA(dev.Bounds()),
		lines:    sampler.PlaceholderLines,
	}
}

// Start records the phase for elapsed and draws the current lines.
func (p *Panel) Start(elapsed time.Duration) error {
	p.phase = PhaseAt(elapsed, p.interval)
	p.started = true
	return p.redraw()
}

// SetLines replaces the lines and redraws if they differ. The frame uses
// the offset of the phase elapsed falls in, so new data arriving on a phase
// boundary costs one frame, not two. It reports whether a redraw happened.
func (p *Panel) SetLines(elapsed time.Duration, lines sampler.Lines) (bool, error) {
	phase := PhaseAt(elapsed, p.interval)
	if p.started && lines == p.lines && phase == p.phase {
		return false, nil
	}
	p.lines = lines
	p.phase = phase
	p.started = true
	return true, p.redraw()
}

// Advance redraws once if elapsed falls in a different phase than the one
// recorded. It reports whether a redraw happened.
func (p *Panel) Advance(elapsed time.Duration) (bool, error) {
	phase := PhaseAt(elapsed, p.interval)
	if p.started && phase == p.phase {
		return false, nil
	}
	p.phase = phase
	p.started = true
	return true, p.redraw()
}

// Started reports whether the first frame has been drawn.
func (p *Panel) Started() bool { return p.started }

// Phase returns the recorded phase.
func (p *Panel) Phase() Phase { return p.phase }

// Lines returns the lines currently on screen.
func (p *Panel) Lines() sampler.Lines { return p.lines }

// Redraws counts full-screen redraws since creation.
func (p *Panel) Redraws() int { return p.redraws }

// NextBoundary is the elapsed time of the next phase change.
func (p *Panel) NextBoundary(elapsed time.Duration) time.Duration {
	return NextBoundary(elapsed, p.interval)
}

func (p *Panel) redraw() error {
	Render(p.frame, p.lines, p.phase.Offset())
	p.redraws++
	if err := p.dev.Draw(p.dev.Bounds(), p.frame, image.Point{}); err != nil {
		log.Printf("display: error updating panel: %v", err)
		return fmt.Errorf("draw frame: %w", err)
	}
	return nil
}
