package solar

const absoluteZeroOffset = 273.15

// Kelvin converts °C to K.
func Kelvin(celsius float64) float64 { return celsius + absoluteZeroOffset }
