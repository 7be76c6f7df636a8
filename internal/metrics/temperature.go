package metrics

import (
	"math"

	"github.com/san-kum/solarsim/internal/solar"
)

type PeakTemp struct {
	name string
	peak float64
	seen bool
}

func NewPeakTemp() *PeakTemp {
	return &PeakTemp{name: "peak_tank_temp"}
}

func (p *PeakTemp) Name() string { return p.name }

func (p *PeakTemp) Observe(s solar.Sample, dt float64) {
	t := float64(s.TankTemp)
	if !p.seen {
		p.peak = t
		p.seen = true
		return
	}
	p.peak = math.Max(p.peak, t)
}

func (p *PeakTemp) Value() float64 { return p.peak }

func (p *PeakTemp) Reset() {
	p.peak = 0
	p.seen = false
}

// MeanTemp is the time-weighted mean tank temperature.
type MeanTemp struct {
	name     string
	weighted float64
	elapsed  float64
}

func NewMeanTemp() *MeanTemp {
	return &MeanTemp{name: "mean_tank_temp"}
}

func (m *MeanTemp) Name() string { return m.name }

func (m *MeanTemp) Observe(s solar.Sample, dt float64) {
	m.weighted += float64(s.TankTemp) * dt
	m.elapsed += dt
}

func (m *MeanTemp) Value() float64 {
	if m.elapsed == 0 {
		return 0
	}
	return m.weighted / m.elapsed
}

func (m *MeanTemp) Reset() {
	m.weighted = 0
	m.elapsed = 0
}
