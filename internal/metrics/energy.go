package metrics

import "github.com/san-kum/solarsim/internal/solar"

const joulesPerKWh = 3.6e6

// SolarEnergy integrates collected solar power, reported in kWh.
type SolarEnergy struct {
	name   string
	joules float64
}

func NewSolarEnergy() *SolarEnergy {
	return &SolarEnergy{name: "solar_energy_kwh"}
}

func (e *SolarEnergy) Name() string { return e.name }

func (e *SolarEnergy) Observe(s solar.Sample, dt float64) {
	e.joules += s.Solar * dt
}

func (e *SolarEnergy) Value() float64 { return e.joules / joulesPerKWh }

func (e *SolarEnergy) Reset() { e.joules = 0 }

// LossEnergy integrates panel, pipe and tank losses, reported in kWh.
// Negative when the surroundings heat the loop.
type LossEnergy struct {
	name   string
	joules float64
}

func NewLossEnergy() *LossEnergy {
	return &LossEnergy{name: "loss_energy_kwh"}
}

func (e *LossEnergy) Name() string { return e.name }

func (e *LossEnergy) Observe(s solar.Sample, dt float64) {
	e.joules += (s.PanelLoss + s.PipeLoss + s.TankLoss) * dt
}

func (e *LossEnergy) Value() float64 { return e.joules / joulesPerKWh }

func (e *LossEnergy) Reset() { e.joules = 0 }
