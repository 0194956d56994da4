package navigator

import "fmt"

// State is where a particle is relative to the registry: outside every solid, or inside one.
// Transitions happen only by locating the particle again after a boundary, so the registry has
// no terminal state of its own.
type State struct {
	Solid SolidID
}

// Outside is the state of a particle in no solid.
var Outside = State{Solid: NoSolid}

// InsideSolid returns the state of a particle inside solid id.
func InsideSolid(id SolidID) State {
	return State{Solid: id}
}

// IsOutside reports whether the particle is in no solid.
func (s State) IsOutside() bool {
	return s.Solid == NoSolid
}

func (s State) String() string {
	if s.IsOutside() {
		return "outside"
	}
	return fmt.Sprintf("inside(%d)", s.Solid)
}
