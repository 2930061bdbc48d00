package app

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/climate_panel/internal/config"
	"github.com/relabs-tech/climate_panel/internal/env"
)

type fixedSource struct {
	raw env.Raw
	err error
}

func (f fixedSource) ReadEnv() (env.Raw, error) { return f.raw, f.err }

func TestMockConsolePrintsPanelLines(t *testing.T) {
	ticks := make(chan time.Time, 2)
	ticks <- time.Time{}
	ticks <- time.Time{}

	var out bytes.Buffer
	s := newConsoleSession(fixedSource{raw: env.Raw{Celsius: 22.4444444, HumidityPct: 45}})
	if err := mockConsole(s, ticks, &out, 2); err != nil {
		t.Fatalf("mockConsole: %v", err)
	}
	got := out.String()
	if strings.Count(got, "TEMP: 72F") != 2 || !strings.Contains(got, "HUMID: 45%") {
		t.Fatalf("output = %q", got)
	}
}

func TestMockConsoleStopsWhenTicksClose(t *testing.T) {
	prev := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(prev)

	ticks := make(chan time.Time, 1)
	ticks <- time.Time{}
	close(ticks)

	var out bytes.Buffer
	s := newConsoleSession(fixedSource{err: errors.New("bus error")})
	if err := mockConsole(s, ticks, &out, -1); err != nil {
		t.Fatalf("mockConsole: %v", err)
	}
	if !strings.Contains(out.String(), "TEMP: --F") {
		t.Fatalf("failed read should keep placeholders: %q", out.String())
	}
}

func TestPrintSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{
			name:    "never sampled",
			payload: `{"temperature":-999.0,"humidity":-1.0,"temp_low":-999.0,"temp_high":-999.0,"hum_low":-1.0,"hum_high":-1.0,"last_updated":0}`,
			want:    []string{"T=-- F", "RH=-- %", "@0"},
		},
		{
			name:    "sampled",
			payload: `{"temperature":72.4,"humidity":45.0,"temp_low":68.0,"temp_high":72.4,"hum_low":45.0,"hum_high":50.0,"last_updated":1700000000}`,
			want:    []string{"T= 72.40 F", "L: 68.00", "H: 50.00", "@1700000000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := printSnapshot(&out, []byte(tt.payload)); err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("%q missing from %q", w, out.String())
				}
			}
		})
	}

	if err := printSnapshot(io.Discard, []byte("not json")); err == nil {
		t.Fatal("expected error for bad payload")
	}
}

func TestOpenDisplayNone(t *testing.T) {
	prev := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(prev)

	cfg := config.Default()
	cfg.DisplayDriver = "none"
	d, release, err := openDisplay(cfg)
	if err != nil {
		t.Fatalf("openDisplay: %v", err)
	}
	defer release()
	if d.Bounds().Dx() != 128 || d.Bounds().Dy() != 128 {
		t.Fatalf("bounds = %v", d.Bounds())
	}

	cfg.DisplayDriver = "crt"
	if _, _, err := openDisplay(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
