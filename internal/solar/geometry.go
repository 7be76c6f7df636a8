package solar

import "math"

// WaterDensity is ρ, kg/m³.
const WaterDensity = 1000.0

// TankCapacity returns the water mass (kg) a closed cylindrical tank can hold
// given its total surface area (m²) and height-to-diameter ratio k.
//
// With height h = 2kr the surface area is 2πr²(2k+1), so
// r = sqrt(A / (2π(1+2k))) and V = πr²h = 2πkr³.
func TankCapacity(area, ratio float64) float64 {
	if area <= 0 {
		return 0
	}
	r := math.Sqrt(area / (2 * math.Pi * (1 + 2*ratio)))
	volume := 2 * math.Pi * ratio * r * r * r
	return volume * WaterDensity
}

// UpdateGeometry recomputes the tank's maximum water mass from its geometry
// and pulls the current mass down to it when it no longer fits.
func (s *State) UpdateGeometry() {
	capacity := TankCapacity(
		float64(s.TankSurfaceArea.Value()),
		float64(s.TankHeightDiameterRatio.Value()),
	)
	s.TankWaterMass.SetMax(float32(capacity))
}
