package sampler

import (
	"bytes"
	"errors"
	"log"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/relabs-tech/climate_panel/internal/env"
)

type scriptedSource struct {
	raws []env.Raw
	errs []error
	i    int
}

func (s *scriptedSource) ReadEnv() (env.Raw, error) {
	i := s.i
	s.i++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return env.Raw{}, err
	}
	return s.raws[i], nil
}

func fahrenheitToCelsius(f float64) float64 { return (f - 32) * 5 / 9 }

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev, flags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prev)
		log.SetFlags(flags)
	})
	return &buf
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSampleConvertsAndTracksExtrema(t *testing.T) {
	src := &scriptedSource{raws: []env.Raw{
		{Celsius: fahrenheitToCelsius(72.4), HumidityPct: 45},
		{Celsius: fahrenheitToCelsius(68.0), HumidityPct: 50},
	}}
	s := New(src, func() uint32 { return 1700000000 })

	r, e := s.Sample()
	if !near(r.TemperatureF, 72.4) || r.HumidityPct != 45 || r.SampledAt != 1700000000 {
		t.Fatalf("first reading = %+v", r)
	}
	if !near(e.TempMin, 72.4) || !near(e.TempMax, 72.4) || e.HumMin != 45 || e.HumMax != 45 {
		t.Fatalf("first extrema = %+v", e)
	}

	_, e = s.Sample()
	if !near(e.TempMin, 68.0) || !near(e.TempMax, 72.4) || e.HumMin != 45 || e.HumMax != 50 {
		t.Fatalf("second extrema = %+v", e)
	}
}

func TestSampleReadErrorKeepsExtremaAndLogsOnce(t *testing.T) {
	buf := captureLog(t)
	src := &scriptedSource{
		raws: []env.Raw{{Celsius: 20, HumidityPct: 40}, {}},
		errs: []error{nil, errors.New("checksum mismatch")},
	}
	s := New(src, func() uint32 { return 1 })

	_, before := s.Sample()
	buf.Reset()

	r, after := s.Sample()
	if r.TemperatureValid() || r.HumidityValid() {
		t.Fatalf("failed read produced values: %+v", r)
	}
	if after != before {
		t.Fatalf("extrema changed on failure: %+v -> %+v", before, after)
	}
	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Fatalf("expected one diagnostic, got %d: %q", n, buf.String())
	}
}

func TestSamplePartialFailure(t *testing.T) {
	buf := captureLog(t)
	src := &scriptedSource{raws: []env.Raw{{Celsius: 25, HumidityPct: math.NaN()}}}
	s := New(src, func() uint32 { return 1 })

	r, e := s.Sample()
	if !r.TemperatureValid() || r.HumidityValid() {
		t.Fatalf("reading = %+v", r)
	}
	if !e.HasTemperature() || e.HasHumidity() {
		t.Fatalf("extrema = %+v", e)
	}
	if !strings.Contains(buf.String(), "humidity") || strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("diagnostic = %q", buf.String())
	}
}

func TestExtremaBoundEveryObservation(t *testing.T) {
	captureLog(t)
	rng := rand.New(rand.NewSource(7))
	var raws []env.Raw
	for i := 0; i < 500; i++ {
		raw := env.Raw{Celsius: rng.Float64()*60 - 20, HumidityPct: rng.Float64() * 100}
		if rng.Intn(10) == 0 {
			raw.Celsius = math.NaN()
		}
		if rng.Intn(10) == 0 {
			raw.HumidityPct = math.NaN()
		}
		raws = append(raws, raw)
	}
	s := New(&scriptedSource{raws: raws}, func() uint32 { return 0 })

	prev := s.Extrema()
	var seenT, seenH []float64
	for range raws {
		r, e := s.Sample()
		if r.TemperatureValid() {
			seenT = append(seenT, r.TemperatureF)
		}
		if r.HumidityValid() {
			seenH = append(seenH, r.HumidityPct)
		}
		if e.TempMin > prev.TempMin || e.TempMax < prev.TempMax || e.HumMin > prev.HumMin || e.HumMax < prev.HumMax {
			t.Fatalf("extrema narrowed: %+v -> %+v", prev, e)
		}
		for _, v := range seenT {
			if v < e.TempMin || v > e.TempMax {
				t.Fatalf("temperature %v outside [%v, %v]", v, e.TempMin, e.TempMax)
			}
		}
		for _, v := range seenH {
			if v < e.HumMin || v > e.HumMax {
				t.Fatalf("humidity %v outside [%v, %v]", v, e.HumMin, e.HumMax)
			}
		}
		prev = e
	}
}

func TestFormatLines(t *testing.T) {
	if PlaceholderLines != (Lines{"TEMP: --F", "L:-- H:--", "HUMID: --%", "L:-- H:--"}) {
		t.Fatalf("placeholders = %q", PlaceholderLines)
	}

	r := env.Reading{TemperatureF: 72.4, HumidityPct: 45, SampledAt: 1}
	snap := env.EmptySnapshot().Merge(r, env.NewExtrema().Observe(r))
	want := Lines{"TEMP: 72F", "L:72 H:72", "HUMID: 45%", "L:45 H:45"}
	if got := FormatLines(snap); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	r2 := env.Reading{TemperatureF: 68.0, HumidityPct: 50.5, SampledAt: 2}
	snap = snap.Merge(r2, snap.Extrema.Observe(r2))
	want = Lines{"TEMP: 68F", "L:68 H:72", "HUMID: 51%", "L:45 H:51"}
	if got := FormatLines(snap); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatLinesNegative(t *testing.T) {
	r := env.Reading{TemperatureF: -4.6, HumidityPct: math.NaN()}
	snap := env.EmptySnapshot().Merge(r, env.NewExtrema().Observe(r))
	want := Lines{"TEMP: -5F", "L:-5 H:-5", "HUMID: --%", "L:-- H:--"}
	if got := FormatLines(snap); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
