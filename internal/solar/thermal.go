package solar

// WaterSpecificHeat is cp for liquid water, J/(kg·K), held constant.
const WaterSpecificHeat = 4181.0

// HeatBalance holds the heat flows of one thermal step, in watts.
type HeatBalance struct {
	Solar     float64 `json:"q_solar" csv:"q_solar"`
	PanelLoss float64 `json:"q_panel_loss" csv:"q_panel_loss"`
	PanelNet  float64 `json:"q_panel_net" csv:"q_panel_net"`
	PipeLoss  float64 `json:"q_pipe_loss" csv:"q_pipe_loss"`
	TankLoss  float64 `json:"q_tank_loss" csv:"q_tank_loss"`
	Net       float64 `json:"q_net" csv:"q_net"`
}

// Balance evaluates the heat flows for the current state. Every loss term is
// linear in (tank − ambient) and becomes a gain when the tank is colder.
func (s *State) Balance() HeatBalance {
	tank := float64(s.TankAverageTemp.Value())
	ambient := float64(s.AmbientTemp.Value())
	diff := tank - ambient

	var b HeatBalance
	b.Solar = float64(s.SolarIrradiance.Value()) * float64(s.PanelArea.Value()) * float64(s.PanelEfficiency.Value())
	b.PanelLoss = float64(s.PanelHeatLossCoefficient.Value()) * float64(s.PanelLossArea.Value()) * diff
	b.PanelNet = b.Solar - b.PanelLoss
	b.PipeLoss = float64(s.PipeOverallHeatTransferCoefficient.Value()) * float64(s.PipeOuterSurfaceArea.Value()) * diff
	b.TankLoss = float64(s.TankHeatLossCoefficient.Value()) * float64(s.TankSurfaceArea.Value()) * diff
	b.Net = b.PanelNet - b.PipeLoss - b.TankLoss
	return b
}

// UpdateThermal integrates the tank temperature over dt seconds and returns
// the heat balance used. With no water in the tank the temperature is left
// unchanged. The panel inlet is fully mixed with the tank, so water_temp_in
// always equals tank_average_temp afterwards.
func (s *State) UpdateThermal(dt float64) HeatBalance {
	b := s.Balance()

	tank := float64(s.TankAverageTemp.Value())
	mass := float64(s.TankWaterMass.Value())
	newTemp := tank
	if mass > 0 {
		deltaTemp := b.Net * dt / (mass * WaterSpecificHeat)
		deltaLoad := float64(s.LoadMassFlowRate.Value()) * (tank - float64(s.LoadTemp.Value())) * dt / mass
		newTemp = tank + deltaTemp - deltaLoad
	}

	s.TankAverageTemp.Assign(float32(newTemp))
	s.WaterTempIn.Assign(s.TankAverageTemp.Value())
	return b
}

// Step runs one tick: geometry first, then the thermal update, both with dt.
func (s *State) Step(dt float64) HeatBalance {
	s.UpdateGeometry()
	return s.UpdateThermal(dt)
}
