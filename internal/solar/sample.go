package solar

// Sample is the observable output of one tick.
type Sample struct {
	Time         float64 `json:"time" csv:"time"`
	TankTemp     float32 `json:"tank_average_temp" csv:"tank_average_temp"`
	WaterTempIn  float32 `json:"water_temp_in" csv:"water_temp_in"`
	AmbientTemp  float32 `json:"ambient_temp" csv:"ambient_temp"`
	TankMass     float32 `json:"tank_water_mass" csv:"tank_water_mass"`
	TankCapacity float32 `json:"tank_water_mass_max" csv:"tank_water_mass_max"`
	HeatBalance
}

// SampleAt captures the current outputs of s at time t together with the
// heat balance of the step that produced them.
func (s *State) SampleAt(t float64, b HeatBalance) Sample {
	return Sample{
		Time:         t,
		TankTemp:     s.TankAverageTemp.Value(),
		WaterTempIn:  s.WaterTempIn.Value(),
		AmbientTemp:  s.AmbientTemp.Value(),
		TankMass:     s.TankWaterMass.Value(),
		TankCapacity: s.TankWaterMass.Max(),
		HeatBalance:  b,
	}
}
