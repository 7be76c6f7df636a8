// Package solar models a lumped-parameter solar water-heating loop.
//
// A flat panel absorbs irradiance, heat flows through a pipe into a storage
// tank, and the tank loses heat to ambient air while an external load draws
// hot water. The package defines:
//
//   - [State]: the fixed set of named [field.Bounded] parameters
//   - [FieldID]: static identifiers for every field, with a name lookup table
//   - [State.Get], [State.Set], [State.Fields]: named field access
//   - [State.UpdateGeometry]: tank capacity from surface area and shape
//   - [State.UpdateThermal]: one fixed timestep of the thermal model
//
// # Thread Safety
//
// State is NOT safe for concurrent use. Callers serialize field writes and
// ticks themselves; see the sim package.
package solar
