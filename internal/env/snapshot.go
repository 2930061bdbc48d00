package env

import (
	"math"
	"strconv"
)

// Sentinels reported over JSON for a quantity that was never sampled.
const (
	UnknownTemperature = -999.0
	UnknownHumidity    = -1.0
)

// Snapshot is the latest known state: the newest valid value of each
// quantity, the extrema of the same sampling cycle and the epoch second of
// the last cycle that produced any valid value.
type Snapshot struct {
	TemperatureF float64 // NaN until the first valid temperature
	HumidityPct  float64 // NaN until the first valid humidity
	Extrema      Extrema
	LastUpdated  uint32
}

// EmptySnapshot is the state before any sample.
func EmptySnapshot() Snapshot {
	return Snapshot{
		TemperatureF: math.NaN(),
		HumidityPct:  math.NaN(),
		Extrema:      NewExtrema(),
	}
}

// Merge returns the snapshot that follows s after reading r with extrema e.
// Invalid fields of r keep the value already in s. If r has no valid field
// at all, s is returned unchanged.
func (s Snapshot) Merge(r Reading, e Extrema) Snapshot {
	if !r.TemperatureValid() && !r.HumidityValid() {
		return s
	}
	next := s
	if r.TemperatureValid() {
		next.TemperatureF = r.TemperatureF
	}
	if r.HumidityValid() {
		next.HumidityPct = r.HumidityPct
	}
	next.Extrema = e
	next.LastUpdated = r.SampledAt
	return next
}

// Float is a JSON number that always carries a decimal point, so -999
// encodes as -999.0 and 45 as 45.0.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	b := strconv.AppendFloat(nil, v, 'f', -1, 64)
	for _, c := range b {
		if c == '.' {
			return b, nil
		}
	}
	return append(b, '.', '0'), nil
}

// SensorData is the body of GET /sensor-data and of the MQTT snapshot
// payload. Field order is part of the wire format.
type SensorData struct {
	Temperature Float  `json:"temperature"`
	Humidity    Float  `json:"humidity"`
	TempLow     Float  `json:"temp_low"`
	TempHigh    Float  `json:"temp_high"`
	HumLow      Float  `json:"hum_low"`
	HumHigh     Float  `json:"hum_high"`
	LastUpdated uint32 `json:"last_updated"`
}

// SensorData converts the snapshot to its wire form, substituting the
// sentinels for quantities that were never sampled.
func (s Snapshot) SensorData() SensorData {
	d := SensorData{
		Temperature: UnknownTemperature,
		Humidity:    UnknownHumidity,
		TempLow:     UnknownTemperature,
		TempHigh:    UnknownTemperature,
		HumLow:      UnknownHumidity,
		HumHigh:     UnknownHumidity,
		LastUpdated: s.LastUpdated,
	}
	if !math.IsNaN(s.TemperatureF) && s.Extrema.HasTemperature() {
		d.Temperature = Float(s.TemperatureF)
		d.TempLow = Float(s.Extrema.TempMin)
		d.TempHigh = Float(s.Extrema.TempMax)
	}
	if !math.IsNaN(s.HumidityPct) && s.Extrema.HasHumidity() {
		d.Humidity = Float(s.HumidityPct)
		d.HumLow = Float(s.Extrema.HumMin)
		d.HumHigh = Float(s.Extrema.HumMax)
	}
	return d
}
