package snapshot

import (
	"math"
	"sync"
	"testing"

	"github.com/relabs-tech/climate_panel/internal/env"
)

func TestStoreStartsEmpty(t *testing.T) {
	s := New()
	snap := s.Read()
	if !math.IsNaN(snap.TemperatureF) || !math.IsNaN(snap.HumidityPct) || snap.LastUpdated != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
}

func TestStoreUpdate(t *testing.T) {
	s := New()
	r := env.Reading{TemperatureF: 72.4, HumidityPct: 45, SampledAt: 10}
	if !s.Update(r, env.NewExtrema().Observe(r)) {
		t.Fatal("valid reading should change the snapshot")
	}
	got := s.Read()
	if got.TemperatureF != 72.4 || got.HumidityPct != 45 || got.LastUpdated != 10 {
		t.Fatalf("snapshot = %+v", got)
	}

	bad := env.Reading{TemperatureF: math.NaN(), HumidityPct: math.NaN(), SampledAt: 12}
	if s.Update(bad, got.Extrema) {
		t.Fatal("failed reading must not change the snapshot")
	}
	if s.Read() != got {
		t.Fatalf("snapshot changed: %+v", s.Read())
	}
}

// Readers running against a writer must never see a current value that
// lies outside the extrema published with it.
func TestStoreReadersSeeConsistentCycles(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := s.Read()
				if math.IsNaN(snap.TemperatureF) {
					continue
				}
				e := snap.Extrema
				if snap.TemperatureF < e.TempMin || snap.TemperatureF > e.TempMax ||
					snap.HumidityPct < e.HumMin || snap.HumidityPct > e.HumMax {
					t.Errorf("inconsistent snapshot: %+v", snap)
					return
				}
			}
		}()
	}

	e := env.NewExtrema()
	for i := 0; i < 2000; i++ {
		r := env.Reading{
			TemperatureF: float64(i%50) + 50,
			HumidityPct:  float64(i%30) + 30,
			SampledAt:    uint32(i),
		}
		e = e.Observe(r)
		s.Update(r, e)
	}
	close(done)
	wg.Wait()
}
