package solar

import "github.com/san-kum/solarsim/internal/field"

// FieldID identifies one field of a State.
type FieldID int

const (
	AmbientTemp FieldID = iota
	CloudFactor
	InsulationEfficiency
	LeakRate
	SolarIrradiance
	PanelArea
	PanelEfficiency
	PanelHeatLossCoefficient
	PanelLossArea
	PipeOuterSurfaceArea
	PipeOverallHeatTransferCoefficient
	TankAverageTemp
	TankHeatLossCoefficient
	TankHeightDiameterRatio
	TankSurfaceArea
	TankWaterMass
	PumpFlowRate
	LoadMassFlowRate
	LoadTemp
	WaterTempIn

	NumFields
)

var fieldNames = [NumFields]string{
	AmbientTemp:                        "ambient_temp",
	CloudFactor:                        "cloud_factor",
	InsulationEfficiency:               "insulation_efficiency",
	LeakRate:                           "leak_rate",
	SolarIrradiance:                    "solar_irradiance",
	PanelArea:                          "panel_area",
	PanelEfficiency:                    "panel_efficiency",
	PanelHeatLossCoefficient:           "panel_heat_loss_coefficient",
	PanelLossArea:                      "panel_loss_area",
	PipeOuterSurfaceArea:               "pipe_outer_surface_area",
	PipeOverallHeatTransferCoefficient: "pipe_overall_heat_transfer_coefficient",
	TankAverageTemp:                    "tank_average_temp",
	TankHeatLossCoefficient:            "tank_heat_loss_coefficient",
	TankHeightDiameterRatio:            "tank_height_diameter_ratio",
	TankSurfaceArea:                    "tank_surface_area",
	TankWaterMass:                      "tank_water_mass",
	PumpFlowRate:                       "pump_flow_rate",
	LoadMassFlowRate:                   "load_mass_flow_rate",
	LoadTemp:                           "load_temp",
	WaterTempIn:                        "water_temp_in",
}

var fieldsByName = func() map[string]FieldID {
	m := make(map[string]FieldID, NumFields)
	for id, name := range fieldNames {
		m[name] = FieldID(id)
	}
	return m
}()

// String returns the declared field name.
func (id FieldID) String() string {
	if id < 0 || id >= NumFields {
		return "unknown"
	}
	return fieldNames[id]
}

// Lookup resolves a declared field name.
func Lookup(name string) (FieldID, bool) {
	id, ok := fieldsByName[name]
	return id, ok
}

// Names returns every field name in declaration order.
func Names() []string {
	names := make([]string, NumFields)
	copy(names, fieldNames[:])
	return names
}

// State is the full parameter and state-variable set of one simulated unit.
type State struct {
	// Ambient temperature, °C
	AmbientTemp field.Bounded
	// Cloud cover factor, inert
	CloudFactor field.Bounded
	// Insulation efficiency factor, inert
	InsulationEfficiency field.Bounded
	// Water leak rate factor, inert
	LeakRate field.Bounded
	// Incident energy flux, W/m²
	SolarIrradiance field.Bounded
	// Collector area, m²
	PanelArea field.Bounded
	// Collector efficiency η
	PanelEfficiency field.Bounded
	// W/(m²·K)
	PanelHeatLossCoefficient field.Bounded
	// m²
	PanelLossArea field.Bounded
	// m²
	PipeOuterSurfaceArea field.Bounded
	// W/(m²·K)
	PipeOverallHeatTransferCoefficient field.Bounded
	// Bulk tank temperature, °C. Simulation output.
	TankAverageTemp field.Bounded
	// W/(m²·K)
	TankHeatLossCoefficient field.Bounded
	// Tank height over diameter
	TankHeightDiameterRatio field.Bounded
	// Total tank surface area, m²
	TankSurfaceArea field.Bounded
	// Water held in the tank, kg. Max follows tank geometry.
	TankWaterMass field.Bounded
	// Circulation pump flow, m³/s. Inert.
	PumpFlowRate field.Bounded
	// Hot water draw, kg/s
	LoadMassFlowRate field.Bounded
	// Temperature of the drawn water's replacement, °C
	LoadTemp field.Bounded
	// Panel inlet temperature, °C. Simulation output.
	WaterTempIn field.Bounded
}

// DefaultPanelEfficiency is the efficiency of the default collector.
const DefaultPanelEfficiency = 0.8

// NewState returns a State holding the documented defaults.
func NewState() *State {
	return &State{
		AmbientTemp:                        field.New(25, -88, 58, field.Mutable),
		CloudFactor:                        field.Percentile(0.2),
		InsulationEfficiency:               field.Percentile(1),
		LeakRate:                           field.Percentile(0),
		SolarIrradiance:                    field.New(800, 0, 1365.4, field.Mutable),
		PanelArea:                          field.New(2, 1, 3, field.Mutable),
		PanelEfficiency:                    field.Percentile(DefaultPanelEfficiency),
		PanelHeatLossCoefficient:           field.New(0, 4, 19, field.Mutable),
		PanelLossArea:                      field.New(0.1, 0, 3, field.Mutable),
		PipeOuterSurfaceArea:               field.New(3, 0.5, 12, field.Mutable),
		PipeOverallHeatTransferCoefficient: field.New(0.03, 0.02, 0.07, field.Mutable),
		TankAverageTemp:                    field.New(25, 10, 60, field.Derived),
		TankHeatLossCoefficient:            field.New(0, 3.231, 20, field.Mutable),
		TankHeightDiameterRatio:            field.New(2, 1, 3, field.Mutable),
		TankSurfaceArea:                    field.New(5, 1, 20, field.Mutable),
		TankWaterMass:                      field.New(100, 0, 2000, field.Mutable),
		PumpFlowRate:                       field.New(0.05, 0.05, 0.5, field.Mutable),
		LoadMassFlowRate:                   field.New(0.1, 0, 10, field.Mutable),
		LoadTemp:                           field.New(20, 10, 60, field.Mutable),
		WaterTempIn:                        field.New(25, 10, 60, field.Derived),
	}
}

// ref maps an identifier to its field inside s.
func (s *State) ref(id FieldID) *field.Bounded {
	switch id {
	case AmbientTemp:
		return &s.AmbientTemp
	case CloudFactor:
		return &s.CloudFactor
	case InsulationEfficiency:
		return &s.InsulationEfficiency
	case LeakRate:
		return &s.LeakRate
	case SolarIrradiance:
		return &s.SolarIrradiance
	case PanelArea:
		return &s.PanelArea
	case PanelEfficiency:
		return &s.PanelEfficiency
	case PanelHeatLossCoefficient:
		return &s.PanelHeatLossCoefficient
	case PanelLossArea:
		return &s.PanelLossArea
	case PipeOuterSurfaceArea:
		return &s.PipeOuterSurfaceArea
	case PipeOverallHeatTransferCoefficient:
		return &s.PipeOverallHeatTransferCoefficient
	case TankAverageTemp:
		return &s.TankAverageTemp
	case TankHeatLossCoefficient:
		return &s.TankHeatLossCoefficient
	case TankHeightDiameterRatio:
		return &s.TankHeightDiameterRatio
	case TankSurfaceArea:
		return &s.TankSurfaceArea
	case TankWaterMass:
		return &s.TankWaterMass
	case PumpFlowRate:
		return &s.PumpFlowRate
	case LoadMassFlowRate:
		return &s.LoadMassFlowRate
	case LoadTemp:
		return &s.LoadTemp
	case WaterTempIn:
		return &s.WaterTempIn
	}
	return nil
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := *s
	return &c
}
