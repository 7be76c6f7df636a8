package sim

import (
	"fmt"

	"github.com/san-kum/solarsim/internal/solar"
)

// Metric accumulates a scalar over the samples of a run.
type Metric interface {
	Name() string
	Observe(s solar.Sample, dt float64)
	Value() float64
	Reset()
}

// Observer is notified after every completed tick. It receives a copy of the
// tick's output and runs outside the state lock.
type Observer interface {
	OnTick(s solar.Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s solar.Sample)

func (f ObserverFunc) OnTick(s solar.Sample) { f(s) }

type Config struct {
	Dt       float64
	Duration float64
}

const DefaultDt = 0.5

func DefaultConfig() Config {
	return Config{
		Dt:       DefaultDt,
		Duration: 3600,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	return nil
}

type Result struct {
	Samples    []solar.Sample
	Metrics    map[string]float64
	StepsTaken int
}
