package config

import "sort"

// Preset is a named set of initial field values.
type Preset struct {
	Description string
	Fields      map[string]float32
}

var Presets = map[string]*Preset{
	"default": {
		Description: "documented defaults",
		Fields:      map[string]float32{},
	},
	"legacy": {
		Description: "low-efficiency collector variant",
		Fields:      map[string]float32{"panel_efficiency": 0.25},
	},
	"summer": {
		Description: "hot clear day, light draw",
		Fields: map[string]float32{
			"ambient_temp":        32,
			"solar_irradiance":    1000,
			"cloud_factor":        0,
			"load_mass_flow_rate": 0.05,
			"load_temp":           18,
		},
	},
	"winter": {
		Description: "cold overcast day, heavy draw",
		Fields: map[string]float32{
			"ambient_temp":        -5,
			"solar_irradiance":    250,
			"cloud_factor":        0.7,
			"load_mass_flow_rate": 0.2,
			"load_temp":           10,
		},
	},
	"no_load": {
		Description: "no hot water draw",
		Fields:      map[string]float32{"load_mass_flow_rate": 0},
	},
}

func GetPreset(name string) *Preset {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
