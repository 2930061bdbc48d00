// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package startup blocks until the prerequisites of the main loop are met:
// a bindable network listener and a synchronised wall clock.
package startup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"
)

// RetryInterval is the pause between two attempts.
const RetryInterval = 500 * time.Millisecond

// ErrTimeout is returned when a prerequisite is still missing after the
// configured bound.
var ErrTimeout = errors.New("startup timed out")

// Options bounds the waits. A zero Timeout retries forever.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (o Options) interval() time.Duration {
	if o.Interval <= 0 {
		return RetryInterval
	}
	return o.Interval
}

// retry calls try until it succeeds, ctx ends or the timeout passes. what
// names the prerequisite in progress logs.
func retry(ctx context.Context, opts Options, what string, try func() error) error {
	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = time.Now().Add(opts.Timeout)
	}

	attempt := 0
	for {
		err := try()
		if err == nil {
			return nil
		}
		attempt++
		if attempt == 1 {
			log.Printf("startup: waiting for %s: %v", what, err)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%s: %w: %v", what, ErrTimeout, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(opts.interval()):
		}
	}
}

// Listen binds addr, retrying while the network is not up yet.
func Listen(ctx context.Context, addr string, opts Options) (net.Listener, error) {
	var ln net.Listener
	err := retry(ctx, opts, "network", func() error {
		var err error
		ln, err = net.Listen("tcp", addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("startup: listening on %s", ln.Addr())
	return ln, nil
}

var errClockNotSynced = errors.New("clock not synchronised")

// WaitClockSync waits until now reports an epoch later than minEpoch.
func WaitClockSync(ctx context.Context, now func() time.Time, minEpoch int64, opts Options) error {
	err := retry(ctx, opts, "clock sync", func() error {
		if now().Unix() > minEpoch {
			return nil
		}
		return errClockNotSynced
	})
	if err != nil {
		return err
	}
	log.Printf("startup: clock synchronised: %s", now().UTC().Format(time.RFC3339))
	return nil
}
