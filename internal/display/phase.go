package display

import (
	"image"
	"time"
)

// DefaultPhaseInterval is how long the panel content stays at one offset.
const DefaultPhaseInterval = 60 * time.Second

// Phase is one of the four anti burn-in offset states.
type Phase int

// PhaseAt returns floor(elapsed/interval) mod 4.
func PhaseAt(elapsed, interval time.Duration) Phase {
	if elapsed < 0 {
		elapsed = 0
	}
	return Phase((elapsed / interval) % 4)
}

// Offset is the pixel shift applied to every line in this phase.
func (p Phase) Offset() image.Point {
	switch p {
	case 0:
		return image.Pt(1, 0)
	case 1:
		return image.Pt(1, -1)
	case 2:
		return image.Pt(0, -1)
	default:
		return image.Pt(0, 0)
	}
}

// NextBoundary returns the elapsed time at which the phase next changes.
func NextBoundary(elapsed, interval time.Duration) time.Duration {
	if elapsed < 0 {
		elapsed = 0
	}
	return (elapsed/interval + 1) * interval
}
