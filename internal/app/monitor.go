// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/climate_panel/internal/config"
	"github.com/relabs-tech/climate_panel/internal/display"
	"github.com/relabs-tech/climate_panel/internal/httpapi"
	"github.com/relabs-tech/climate_panel/internal/publish"
	"github.com/relabs-tech/climate_panel/internal/sampler"
	"github.com/relabs-tech/climate_panel/internal/scheduler"
	"github.com/relabs-tech/climate_panel/internal/sensors"
	"github.com/relabs-tech/climate_panel/internal/snapshot"
	"github.com/relabs-tech/climate_panel/internal/startup"
)

// requestQueueLen is how many HTTP requests may wait for the main loop.
const requestQueueLen = 8

// RunMonitor runs the appliance until SIGINT/SIGTERM.
func RunMonitor() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := scheduler.NewClock()

	// Panel first so the placeholder screen is up while we wait for the
	// network and the clock.
	drawer, release, err := openDisplay(cfg)
	if err != nil {
		return err
	}
	defer release()
	panel := display.NewPanel(drawer, time.Duration(cfg.PhaseIntervalMS)*time.Millisecond)
	if err := panel.Start(clock.Elapsed()); err != nil {
		log.Printf("display: initial draw failed: %v", err)
	}

	src, closeSensor, err := sensors.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open sensor: %w", err)
	}
	defer closeSensor()
	log.Printf("sampler: using %s sensor", cfg.SensorDriver)

	wait := startup.Options{Timeout: time.Duration(cfg.StartupTimeoutMS) * time.Millisecond}
	ln, err := startup.Listen(ctx, fmt.Sprintf(":%d", cfg.WebServerPort), wait)
	if err != nil {
		return err
	}
	if err := startup.WaitClockSync(ctx, time.Now, cfg.ClockSyncMinEpoch, wait); err != nil {
		ln.Close()
		return err
	}

	store := snapshot.New()
	hub := httpapi.NewHub(store)
	svc := httpapi.NewService(store, requestQueueLen).WithLive(hub)
	webErr := serveWeb(ctx, ln, svc)

	smp := sampler.New(src, func() uint32 { return uint32(time.Now().Unix()) })
	sched := scheduler.New(clock, smp, store, panel, svc, time.Duration(cfg.SampleIntervalMS)*time.Millisecond)
	sched.AddPublisher(scheduler.PublisherFunc(hub.Broadcast))

	if cfg.MQTTBroker != "" {
		client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDMonitor)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		pub := publish.NewPublisher(client, cfg.TopicSnapshot)
		go pub.Run(ctx)
		sched.AddPublisher(pub)
		log.Printf("mqtt: publishing snapshots to %s", cfg.TopicSnapshot)
	}

	log.Println("monitor: entering main loop")
	runErr := make(chan error, 1)
	go func() { runErr <- sched.Run(ctx) }()

	select {
	case err := <-runErr:
		return err
	case err, ok := <-webErr:
		stop()
		<-runErr
		if ok {
			return err
		}
		return nil
	}
}
