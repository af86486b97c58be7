package playback

import (
	"errors"

	"github.com/zeusync/playscript/internal/core/command/script"
)

// State is the scheduler phase.
type State int

const (
	StateRunning State = iota
	StateCountingDown
	StateEnding
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateCountingDown:
		return "CountingDown"
	case StateEnding:
		return "Ending"
	case StateEnded:
		return "Ended"
	default:
		return "Invalid"
	}
}

var (
	ErrFatal      = errors.New("fatal playback error")
	ErrDrainLimit = errors.New("zero-wait chain exceeded the drain limit")
	ErrNoScript   = errors.New("no script loaded")
)

// Outcome says what happened to one drained record.
type Outcome int

const (
	OutcomeExecuted Outcome = iota
	OutcomeFailed
	OutcomeUnknown
	OutcomeMisconfigured
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExecuted:
		return "executed"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeMisconfigured:
		return "misconfigured"
	case OutcomeRejected:
		return "rejected"
	default:
		return "invalid"
	}
}

// Event is delivered to observers for every drained record and every state
// change. Record is nil for state changes.
type Event struct {
	Record    *script.Record
	Outcome   Outcome
	Countdown float64
	From, To  State
	Err       error
}

// IsStateChange reports whether the event describes a transition.
func (e Event) IsStateChange() bool { return e.Record == nil }

type Observer func(Event)

// Presenter is the slice of the stage the scheduler touches when the script
// runs out.
type Presenter interface {
	ClearTransient()
	StartExit(seconds float64)
}
