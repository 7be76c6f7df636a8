// Package viz provides the live terminal dashboard for a running simulation.
//
// The dashboard is a Bubble Tea program over an [Engine]. It advances the
// simulation in fixed ticks at a configurable speed, lists every writable
// field as a control and shows tank readouts, heat flows and the tank
// temperature history.
//
// # Key Bindings
//
//	Space     - Pause/Resume
//	N         - Single step while paused
//	Tab/↑↓    - Select control
//	←→ / HL   - Adjust selected field (1% / 10% of range)
//	[ ]       - Halve/double speed
//	T         - Cycle color themes
//	?         - Show help overlay
package viz
