package observations

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/markpostal/kiln-watch/internal/report"
	"github.com/markpostal/kiln-watch/internal/telemetry"
)

const (
	simStartTemperature = 22.0
	simBaseRamp         = 100.0
	simRampSpread       = 100.0
	simTemperatureNoise = 2.0
	simRampNoise        = 5.0
	simUpperBound       = 1093.0
	simLowerBound       = 20.0
)

type simulatedSensor struct {
	temperature float64
	// ramp in degrees Celsius per hour
	ramp float64
}

// Simulator manufactures reports for synthetic kilns that heat and cool
// between fixed bounds. It is not safe for concurrent use.
type Simulator struct {
	interval time.Duration
	rng      *rand.Rand
	sensors  []simulatedSensor
}

// NewSimulator creates deviceCount sensors starting at room temperature
// with a ramp of roughly 100C/h.
func NewSimulator(deviceCount int, interval time.Duration, src rand.Source) *Simulator {
	sim := &Simulator{
		interval: interval,
		rng:      rand.New(src),
		sensors:  make([]simulatedSensor, deviceCount),
	}
	for i := range sim.sensors {
		sim.sensors[i] = simulatedSensor{
			temperature: simStartTemperature,
			ramp:        simBaseRamp + sim.jitter(simRampSpread),
		}
	}
	return sim
}

// Tick advances every sensor by one interval and returns one report each.
func (sim *Simulator) Tick() []report.Report {
	hours := sim.interval.Hours()

	reports := make([]report.Report, len(sim.sensors))
	for i := range sim.sensors {
		sensor := &sim.sensors[i]

		sensor.temperature += sensor.ramp*hours + sim.jitter(simTemperatureNoise)
		switch {
		case sensor.temperature > simUpperBound && sensor.ramp > 0:
			sensor.ramp = -sensor.ramp
		case sensor.temperature < simLowerBound && sensor.ramp < 0:
			sensor.ramp = -sensor.ramp
		}
		sensor.ramp += sim.jitter(simRampNoise)

		reports[i] = report.Report{
			SensorName:  fmt.Sprintf("kiln_watch_%d", i),
			SensorIndex: i,
			Temperature: int(math.Round(sensor.temperature)),
		}
	}
	return reports
}

// jitter returns a uniform value in [-spread/2, spread/2).
func (sim *Simulator) jitter(spread float64) float64 {
	return (sim.rng.Float64() - 0.5) * spread
}

func (s *Store) simulate(ctx context.Context, deviceCount int) error {
	sim := NewSimulator(deviceCount, s.cfg.SimulateInterval, s.randSrc)

	ticker := time.NewTicker(s.cfg.SimulateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, r := range sim.Tick() {
				s.log.Debug().Str("report", r.String()).Msg("Incoming report")
				s.enqueue(r, telemetry.SourceSimulator)
			}
		}
	}
}
