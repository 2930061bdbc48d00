// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package scheduler runs the appliance's cooperative main loop: sampling,
// anti burn-in phase changes and answering queued HTTP requests, all on one
// goroutine.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/climate_panel/internal/display"
	"github.com/relabs-tech/climate_panel/internal/httpapi"
	"github.com/relabs-tech/climate_panel/internal/sampler"
	"github.com/relabs-tech/climate_panel/internal/snapshot"
)

// DefaultSampleInterval is the minimum spacing between two sensor reads.
const DefaultSampleInterval = 2 * time.Second

// Clock reports monotonic time since boot.
type Clock interface {
	Elapsed() time.Duration
}

type monotonicClock struct{ start time.Time }

// NewClock returns a Clock that starts at zero now.
func NewClock() Clock { return monotonicClock{start: time.Now()} }

func (c monotonicClock) Elapsed() time.Duration { return time.Since(c.start) }

// Pumper is the network side: Pump answers at most one queued request,
// Wake fires when a request arrives.
type Pumper interface {
	Pump() bool
	Wake() <-chan struct{}
}

// Publisher receives the /sensor-data body after every snapshot change.
// Publish must not block.
type Publisher interface {
	Publish(payload []byte)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(payload []byte)

func (f PublisherFunc) Publish(payload []byte) { f(payload) }

// Scheduler owns every piece of mutable application state. Tick and Run
// must be called from a single goroutine.
type Scheduler struct {
	clock   Clock
	sampler *sampler.Sampler
	store   *snapshot.Store
	panel   *display.Panel
	net     Pumper
	pubs    []Publisher

	sampleEvery time.Duration
	nextSample  time.Duration
	samples     int
}

// New wires the components together. The first sample is due one
// interval after boot.
func New(clock Clock, s *sampler.Sampler, store *snapshot.Store, panel *display.Panel, net Pumper, sampleEvery time.Duration) *Scheduler {
	if sampleEvery <= 0 {
		sampleEvery = DefaultSampleInterval
	}
	return &Scheduler{
		clock:       clock,
		sampler:     s,
		store:       store,
		panel:       panel,
		net:         net,
		sampleEvery: sampleEvery,
		nextSample:  sampleEvery,
	}
}

// AddPublisher registers p for snapshot fan-out.
func (s *Scheduler) AddPublisher(p Publisher) {
	s.pubs = append(s.pubs, p)
}

// Samples counts sensor reads so far.
func (s *Scheduler) Samples() int { return s.samples }

// Tick runs one iteration: the sampling timer, the phase timer and one
// network pump. It never blocks and reports whether a request was
// answered.
func (s *Scheduler) Tick() bool {
	now := s.clock.Elapsed()

	if !s.panel.Started() {
		if err := s.panel.Start(now); err != nil {
			log.Printf("scheduler: initial draw failed: %v", err)
		}
	}

	if now >= s.nextSample {
		s.nextSample = now + s.sampleEvery
		s.sample(now)
	}

	if _, err := s.panel.Advance(now); err != nil {
		log.Printf("scheduler: phase redraw failed: %v", err)
	}

	if s.net == nil {
		return false
	}
	return s.net.Pump()
}

func (s *Scheduler) sample(now time.Duration) {
	s.samples++
	r, e := s.sampler.Sample()
	if !s.store.Update(r, e) {
		return
	}

	snap := s.store.Read()
	if _, err := s.panel.SetLines(now, sampler.FormatLines(snap)); err != nil {
		log.Printf("scheduler: line redraw failed: %v", err)
	}

	if len(s.pubs) == 0 {
		return
	}
	body, err := httpapi.SensorDataJSON(snap)
	if err != nil {
		log.Printf("scheduler: json encode error: %v", err)
		return
	}
	for _, p := range s.pubs {
		p.Publish(body)
	}
}

// untilNext is how long the loop may idle before a timer is due.
func (s *Scheduler) untilNext() time.Duration {
	now := s.clock.Elapsed()
	next := s.nextSample
	if b := s.panel.NextBoundary(now); b < next {
		next = b
	}
	return next - now
}

// Run ticks until ctx is cancelled. Between ticks it sleeps until the next
// timer is due or a request is queued.
func (s *Scheduler) Run(ctx context.Context) error {
	var wake <-chan struct{}
	if s.net != nil {
		wake = s.net.Wake()
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.Tick() {
			// more requests may be waiting behind a single wake signal
			continue
		}

		wait := s.untilNext()
		if wait <= 0 {
			continue
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		case <-wake:
			timer.Stop()
		}
	}
}
