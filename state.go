package partsplit

// State is a stage of a split. A Splitter starts idle and moves through the
// stages in order; Done and Failed last until the next Split.
type State int32

const (
	// StateIdle means no split has run yet.
	StateIdle State = iota
	// StateCounting means the first pass is counting input lines.
	StateCounting
	// StateInitialized means the policy knows the line and part counts.
	StateInitialized
	// StateDistributing means the second pass is writing parts.
	StateDistributing
	// StateDone means the last split produced its parts.
	StateDone
	// StateFailed means the last split stopped on an error.
	StateFailed
)

// String returns the lower-case name of s, or "unknown" for values outside
// the defined states.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCounting:
		return "counting"
	case StateInitialized:
		return "initialized"
	case StateDistributing:
		return "distributing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
