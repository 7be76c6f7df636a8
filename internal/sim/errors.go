package sim

import "errors"

// ErrNoState indicates an operation on a scheduler with no attached state.
var ErrNoState = errors.New("sim: no simulation state attached")
