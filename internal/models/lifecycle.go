package models

// State is the lifecycle state of an issue
type State int

const (
	StateOpen State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "open"
	}
}

// ParseState maps a state name to a State. The tracker's own names
// ("opened", "reopened") count as open; anything unknown is open.
func ParseState(text string) State {
	switch text {
	case "active":
		return StateActive
	case "closed":
		return StateClosed
	default:
		return StateOpen
	}
}

// IsOpenOrActive reports whether s is anything but closed
func (s State) IsOpenOrActive() bool {
	return s != StateClosed
}

// Transition is a user-visible move between two lifecycle states
type Transition int

const (
	OpenToActive Transition = iota
	OpenToClosed
	ActiveToOpen
	ActiveToClosed
	ClosedToOpen
	ClosedToActive
)

var transitionTable = [...]struct {
	from, to State
	label    string
}{
	OpenToActive:   {StateOpen, StateActive, "Start"},
	OpenToClosed:   {StateOpen, StateClosed, "Close"},
	ActiveToOpen:   {StateActive, StateOpen, "Stop"},
	ActiveToClosed: {StateActive, StateClosed, "Stop & Close"},
	ClosedToOpen:   {StateClosed, StateOpen, "Reopen"},
	ClosedToActive: {StateClosed, StateActive, "Reopen & Start"},
}

// From returns the state the transition starts at
func (t Transition) From() State { return transitionTable[t].from }

// To returns the state the transition ends at
func (t Transition) To() State { return transitionTable[t].to }

// Label returns the text shown for the transition
func (t Transition) Label() string { return transitionTable[t].label }

func (t Transition) String() string { return t.Label() }

// LegalTransitions returns the two transitions that start at s, in table order
func LegalTransitions(s State) [2]Transition {
	switch s {
	case StateActive:
		return [2]Transition{ActiveToOpen, ActiveToClosed}
	case StateClosed:
		return [2]Transition{ClosedToOpen, ClosedToActive}
	default:
		return [2]Transition{OpenToActive, OpenToClosed}
	}
}

// TransitionBetween finds the transition from one state to another.
// ok is false when from == to.
func TransitionBetween(from, to State) (t Transition, ok bool) {
	for _, candidate := range LegalTransitions(from) {
		if candidate.To() == to {
			return candidate, true
		}
	}
	return 0, false
}

// Apply sets the issue's state to the transition's target. It has no
// other effect.
func (i *Issue) Apply(t Transition) {
	i.State = t.To()
}

// IsOpenOrActive reports whether the issue is not closed
func (i *Issue) IsOpenOrActive() bool { return i.State.IsOpenOrActive() }

// IsActive reports whether the issue is the one being worked on
func (i *Issue) IsActive() bool { return i.State == StateActive }

// IsClosed reports whether the issue is closed
func (i *Issue) IsClosed() bool { return i.State == StateClosed }
