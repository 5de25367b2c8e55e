package report

import "fmt"

// State is a phase of report generation. Phases only move forward.
type State int

const (
	StateInit State = iota
	StateCatalogLoaded
	StateVariantsClassified
	StateEmittingHotspotRows
	StateEmittingOtherRows
	StateDone
)

var stateNames = [...]string{
	StateInit:                "INIT",
	StateCatalogLoaded:       "CATALOG_LOADED",
	StateVariantsClassified:  "VARIANTS_CLASSIFIED",
	StateEmittingHotspotRows: "EMITTING_HOTSPOT_ROWS",
	StateEmittingOtherRows:   "EMITTING_OTHER_ROWS",
	StateDone:                "DONE",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// StateError reports an operation called in the wrong phase.
type StateError struct {
	Op   string
	Have State
	Want State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: generator is in state %s, want %s", e.Op, e.Have, e.Want)
}
