package studio

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/tspstudio/pkg/neos"
)

// Status is the tag of a JobState.
type Status int

const (
	// Unscheduled channels have never been submitted, or were reset.
	Unscheduled Status = iota
	// Submitted channels have a job running on the remote service.
	Submitted
	// Failed channels were tried and failed; they are retried.
	Failed
	// Resolved channels carry a tour. Only new points undo this.
	Resolved
)

var statusNames = map[Status]string{
	Unscheduled: "unscheduled",
	Submitted:   "submitted",
	Failed:      "failed",
	Resolved:    "resolved",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// JobState is the resolution state of one channel. Handle is set only when
// Status is Submitted.
type JobState struct {
	Status Status
	Handle neos.Handle
}

// SubmittedState returns the Submitted state for h.
func SubmittedState(h neos.Handle) JobState {
	return JobState{Status: Submitted, Handle: h}
}

// Terminal reports whether no job is in flight and none will be polled.
func (s JobState) Terminal() bool {
	return s.Status == Resolved || s.Status == Failed
}

func (s JobState) String() string {
	if s.Status == Submitted {
		return fmt.Sprintf("submitted(%d)", s.Handle.Job)
	}
	return s.Status.String()
}

type jobStateJSON struct {
	Status   string `json:"status"`
	Job      int    `json:"job,omitempty"`
	Password string `json:"password,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s JobState) MarshalJSON() ([]byte, error) {
	out := jobStateJSON{Status: s.Status.String()}
	if s.Status == Submitted {
		out.Job, out.Password = s.Handle.Job, s.Handle.Password
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *JobState) UnmarshalJSON(b []byte) error {
	var in jobStateJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	for st, name := range statusNames {
		if name == in.Status {
			*s = JobState{Status: st}
			if st == Submitted {
				if in.Job == 0 {
					return fmt.Errorf("submitted state without a job number")
				}
				s.Handle = neos.Handle{Job: in.Job, Password: in.Password}
			}
			return nil
		}
	}
	return fmt.Errorf("unknown job status %q", in.Status)
}

// EventKind identifies what happened to a channel.
type EventKind int

const (
	EventSubmitted      EventKind = iota // remote job accepted; carries a handle
	EventSubmitFailed                    // remote service refused the job
	EventStillRunning                    // poll found the job unfinished
	EventSolved                          // poll returned a tour
	EventSolveFailed                     // job ended abnormally or without a tour
	EventCancelled                       // job cancelled on request
	EventPointsReplaced                  // channel got a new point set
	EventSolvedLocally                   // tour computed without the remote service
)

var eventNames = [...]string{
	"submitted", "submit-failed", "still-running", "solved",
	"solve-failed", "cancelled", "points-replaced", "solved-locally",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is an input to Transition.
type Event struct {
	Kind   EventKind
	Handle neos.Handle // EventSubmitted only
}

// ErrIllegalTransition is returned by Transition for events that make no
// sense in the current state.
var ErrIllegalTransition = stderrors.New("illegal job state transition")

// Transition returns the state that follows from applying ev to s. It has
// no side effects.
//
//	Unscheduled --submitted--> Submitted --solved--> Resolved
//	     |                         |
//	     +--submit-failed--> Failed <--solve-failed
//	                           |
//	                           +--submitted--> Submitted
//
// Cancelling a Submitted job returns it to Unscheduled. New points reset
// any state to Unscheduled, and a local solve resolves any state.
func Transition(s JobState, ev Event) (JobState, error) {
	switch ev.Kind {
	case EventPointsReplaced:
		return JobState{Status: Unscheduled}, nil
	case EventSolvedLocally:
		return JobState{Status: Resolved}, nil
	}

	switch s.Status {
	case Unscheduled, Failed:
		switch ev.Kind {
		case EventSubmitted:
			if ev.Handle.IsZero() {
				break
			}
			return SubmittedState(ev.Handle), nil
		case EventSubmitFailed:
			return JobState{Status: Failed}, nil
		case EventCancelled:
			if s.Status == Unscheduled {
				return s, nil
			}
		}
	case Submitted:
		switch ev.Kind {
		case EventStillRunning:
			return s, nil
		case EventSolved:
			return JobState{Status: Resolved}, nil
		case EventSolveFailed:
			return JobState{Status: Failed}, nil
		case EventCancelled:
			return JobState{Status: Unscheduled}, nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev.Kind, s.Status)
}
