// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/climate_panel/internal/env"
)

// readCommand asks the bridge firmware for one measurement. The bridge
// answers with a single line such as "T=22.40 H=45.10"; a channel the
// DHT could not read is sent as "nan".
var readCommand = []byte("READ\n")

// ErrNoFields is returned when a bridge line carries neither T= nor H=.
var ErrNoFields = errors.New("no sensor fields in line")

const serialLineDeadline = 400 * time.Millisecond

// SerialSource talks to a microcontroller that owns the DHT22 and relays
// readings over a serial line.
type SerialSource struct {
	port     io.ReadWriter
	closer   io.Closer
	deadline time.Duration
	rest     []byte // bytes received after the last returned line
}

// NewSerial opens the serial port of the sensor bridge.
func NewSerial(portName string, baud int) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100, // ms; reads return empty instead of blocking
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("sensor serial open %s: %w", portName, err)
	}
	log.Printf("sensors: serial bridge opened on %s at %d baud", portName, baud)

	return &SerialSource{port: port, closer: port, deadline: serialLineDeadline}, nil
}

// ReadEnv sends one read command and parses the reply line.
func (s *SerialSource) ReadEnv() (env.Raw, error) {
	if _, err := s.port.Write(readCommand); err != nil {
		return env.Raw{}, fmt.Errorf("sensor serial write: %w", err)
	}

	line, err := s.readLine()
	if err != nil {
		return env.Raw{}, err
	}
	return ParseBridgeLine(line)
}

// readLine collects bytes until a newline or the line deadline passes.
// Bytes past the newline are kept for the next call.
func (s *SerialSource) readLine() (string, error) {
	if line, ok := s.takeLine(); ok {
		return line, nil
	}
	buf := make([]byte, 64)
	start := time.Now()

	for time.Since(start) < s.deadline {
		n, err := s.port.Read(buf)
		if n > 0 {
			s.rest = append(s.rest, buf[:n]...)
			if line, ok := s.takeLine(); ok {
				return line, nil
			}
		}
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("sensor serial read: %w", err)
		}
		if n == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return "", fmt.Errorf("sensor serial read: no complete line after %v", s.deadline)
}

func (s *SerialSource) takeLine() (string, bool) {
	i := bytes.IndexByte(s.rest, '\n')
	if i < 0 {
		return "", false
	}
	line := string(bytes.TrimRight(s.rest[:i], "\r"))
	s.rest = append(s.rest[:0], s.rest[i+1:]...)
	return line, true
}

// Close releases the serial port.
func (s *SerialSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ParseBridgeLine parses "T=<celsius> H=<percent>". Fields may come in any
// order; a missing or "nan" field is reported as NaN.
func ParseBridgeLine(line string) (env.Raw, error) {
	raw := env.Raw{Celsius: math.NaN(), HumidityPct: math.NaN()}
	seen := false

	for _, tok := range strings.Fields(strings.TrimSpace(line)) {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		var dst *float64
		switch strings.ToUpper(key) {
		case "T":
			dst = &raw.Celsius
		case "H":
			dst = &raw.HumidityPct
		default:
			continue
		}
		seen = true
		if strings.EqualFold(value, "nan") {
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return env.Raw{}, fmt.Errorf("bad %s value %q: %w", key, value, err)
		}
		*dst = v
	}

	if !seen {
		return env.Raw{}, fmt.Errorf("%w: %q", ErrNoFields, line)
	}
	return raw, nil
}
