package solar

import (
	"strings"

	"github.com/san-kum/solarsim/internal/field"
)

// Snapshot is a read-only copy of one field.
type Snapshot struct {
	Name  string     `json:"name"`
	Value float32    `json:"value"`
	Min   float32    `json:"min"`
	Max   float32    `json:"max"`
	Kind  field.Kind `json:"kind"`
}

// Change records a successful write.
type Change struct {
	Name string  `json:"field_name"`
	Old  float32 `json:"old_value"`
	New  float32 `json:"new_value"`
}

func snapshotOf(id FieldID, f *field.Bounded) Snapshot {
	return Snapshot{
		Name:  id.String(),
		Value: f.Value(),
		Min:   f.Min(),
		Max:   f.Max(),
		Kind:  f.Kind(),
	}
}

// Get returns the current snapshot of the named field.
func (s *State) Get(name string) (Snapshot, bool) {
	id, ok := Lookup(name)
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(id, s.ref(id)), true
}

// Field returns the snapshot for id.
func (s *State) Field(id FieldID) Snapshot {
	return snapshotOf(id, s.ref(id))
}

// Value returns the current value for id.
func (s *State) Value(id FieldID) float32 {
	return s.ref(id).Value()
}

// Set clamps v into the named field's range and stores it. Derived fields
// are owned by the simulation and rejected with ErrReadOnlyField.
func (s *State) Set(name string, v float32) (Change, error) {
	id, ok := Lookup(name)
	if !ok {
		return Change{}, &FieldError{Name: name, Err: ErrUnknownField}
	}
	f := s.ref(id)
	if f.Kind() == field.Derived {
		return Change{}, &FieldError{Name: name, Err: ErrReadOnlyField}
	}
	old := f.Assign(v)
	return Change{Name: name, Old: old, New: f.Value()}, nil
}

// Override writes the named field regardless of kind. It exists for
// seeding initial conditions and must not be exposed to remote callers.
func (s *State) Override(name string, v float32) (Change, error) {
	id, ok := Lookup(name)
	if !ok {
		return Change{}, &FieldError{Name: name, Err: ErrUnknownField}
	}
	f := s.ref(id)
	old := f.Assign(v)
	return Change{Name: name, Old: old, New: f.Value()}, nil
}

// Fields enumerates every field in declaration order.
func (s *State) Fields() []Snapshot {
	out := make([]Snapshot, NumFields)
	for id := FieldID(0); id < NumFields; id++ {
		out[id] = snapshotOf(id, s.ref(id))
	}
	return out
}

// Partition splits snapshots into writable controls and simulation readouts.
func Partition(fields []Snapshot) (controls, readouts []Snapshot) {
	for _, f := range fields {
		if f.Kind == field.Derived {
			readouts = append(readouts, f)
		} else {
			controls = append(controls, f)
		}
	}
	return controls, readouts
}

// Label turns a field name into a display label: "tank_water_mass" becomes
// "Tank water mass".
func Label(name string) string {
	if name == "" {
		return ""
	}
	words := strings.ReplaceAll(name, "_", " ")
	return strings.ToUpper(words[:1]) + words[1:]
}
