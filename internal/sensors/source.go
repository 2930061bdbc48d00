// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/climate_panel/internal/config"
	"github.com/relabs-tech/climate_panel/internal/env"
)

// ErrReadTimeout is returned by a bounded source when the underlying read
// did not finish in time.
var ErrReadTimeout = errors.New("sensor read timed out")

// EnvSource is anything that can take one temperature/humidity sample.
type EnvSource interface {
	ReadEnv() (env.Raw, error)
}

// Open builds the source selected by cfg.SensorDriver, wrapped so that no
// single read can stall the caller longer than SensorReadTimeoutMS. The
// returned function halts the sensor and releases its bus or port.
func Open(cfg *config.Config) (EnvSource, func(), error) {
	var (
		src EnvSource
		err error
	)
	switch cfg.SensorDriver {
	case "bme280":
		src, err = NewBME280(cfg.BME280I2CBus, cfg.BME280I2CAddr)
	case "serial":
		src, err = NewSerial(cfg.SensorSerialPort, cfg.SensorSerialBaud)
	case "mock":
		src = NewMockSource()
	default:
		return nil, nil, fmt.Errorf("unknown sensor driver %q", cfg.SensorDriver)
	}
	if err != nil {
		return nil, nil, err
	}

	b := Bounded(src, time.Duration(cfg.SensorReadTimeoutMS)*time.Millisecond)
	release := func() {
		if err := b.(io.Closer).Close(); err != nil {
			log.Printf("sensors: close error: %v", err)
		}
	}
	return b, release, nil
}

type readResult struct {
	raw env.Raw
	err error
}

type boundedSource struct {
	src     EnvSource
	timeout time.Duration
	pending chan readResult // non-nil while a read is in flight
}

// Bounded wraps src so that ReadEnv returns within timeout. A read that
// overruns keeps running in the background; the next call waits for that
// read instead of starting another one. Not safe for concurrent use.
func Bounded(src EnvSource, timeout time.Duration) EnvSource {
	return &boundedSource{src: src, timeout: timeout}
}

func (b *boundedSource) ReadEnv() (env.Raw, error) {
	if b.pending == nil {
		ch := make(chan readResult, 1)
		go func() {
			raw, err := b.src.ReadEnv()
			ch <- readResult{raw: raw, err: err}
		}()
		b.pending = ch
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case r := <-b.pending:
		b.pending = nil
		return r.raw, r.err
	case <-timer.C:
		return env.Raw{}, ErrReadTimeout
	}
}

// Close waits up to one timeout for a read still in flight, then closes
// the wrapped source if it has a Close method.
func (b *boundedSource) Close() error {
	if b.pending != nil {
		select {
		case <-b.pending:
		case <-time.After(b.timeout):
		}
		b.pending = nil
	}
	if c, ok := b.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
