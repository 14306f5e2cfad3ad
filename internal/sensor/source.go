package sensor

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Simulated environment baselines.
const (
	baseTemperature = 20.0
	baseHumidity    = 50.0

	temperatureSpread = 5.0
	humiditySpread    = 15.0
)

// SimulatedSource generates plausible temperature and humidity readings
// around fixed baselines. It stands in for real sensor hardware.
type SimulatedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedSource creates a source seeded from the current time.
func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Read returns one simulated reading, rounded to two decimals.
func (s *SimulatedSource) Read() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	temperature := baseTemperature + s.uniform(temperatureSpread) + s.rng.Float64()
	humidity := baseHumidity + s.uniform(humiditySpread) + s.rng.Float64()

	return Reading{
		Temperature: round2(temperature),
		Humidity:    round2(humidity),
	}
}

// uniform returns a random value in [-spread, spread).
func (s *SimulatedSource) uniform(spread float64) float64 {
	return (s.rng.Float64()*2 - 1) * spread
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
