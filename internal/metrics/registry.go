package metrics

import "github.com/san-kum/solarsim/internal/sim"

// Defaults returns the metrics recorded for every run.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewPeakTemp(),
		NewMeanTemp(),
		NewSolarEnergy(),
		NewLossEnergy(),
	}
}
