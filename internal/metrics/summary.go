package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/solarsim/internal/solar"
)

// Summary describes one sampled series.
type Summary struct {
	Name   string
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Final  float64
}

// Series extracts a named column from samples. Unknown names yield nil.
func Series(samples []solar.Sample, name string) []float64 {
	pick := map[string]func(solar.Sample) float64{
		"tank_average_temp":   func(s solar.Sample) float64 { return float64(s.TankTemp) },
		"water_temp_in":       func(s solar.Sample) float64 { return float64(s.WaterTempIn) },
		"ambient_temp":        func(s solar.Sample) float64 { return float64(s.AmbientTemp) },
		"tank_water_mass":     func(s solar.Sample) float64 { return float64(s.TankMass) },
		"tank_water_mass_max": func(s solar.Sample) float64 { return float64(s.TankCapacity) },
		"q_solar":             func(s solar.Sample) float64 { return s.Solar },
		"q_net":               func(s solar.Sample) float64 { return s.Net },
	}[name]
	if pick == nil {
		return nil
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = pick(s)
	}
	return out
}

// SeriesNames lists the columns Series understands, in display order.
func SeriesNames() []string {
	return []string{
		"tank_average_temp",
		"water_temp_in",
		"ambient_temp",
		"tank_water_mass",
		"tank_water_mass_max",
		"q_solar",
		"q_net",
	}
}

// Summarize computes descriptive statistics for a series.
func Summarize(name string, data []float64) Summary {
	if len(data) == 0 {
		return Summary{Name: name}
	}
	mean, std := stat.MeanStdDev(data, nil)
	if len(data) < 2 {
		std = 0
	}
	return Summary{
		Name:   name,
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Mean:   mean,
		StdDev: std,
		Final:  data[len(data)-1],
	}
}
