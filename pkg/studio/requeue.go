package studio

import "time"

// RequeueReason explains why polling stopped to run another submission
// sweep.
type RequeueReason int

const (
	KeepPolling RequeueReason = iota
	IntervalElapsed
	AllTerminal
	NewlyResolved
)

func (r RequeueReason) String() string {
	switch r {
	case IntervalElapsed:
		return "requeue interval elapsed"
	case AllTerminal:
		return "no jobs left running"
	case NewlyResolved:
		return "got result(s)"
	default:
		return "keep polling"
	}
}

// Requeue decides, after a polling sweep, whether to go back to the
// submission phase. sinceSubmit is the time since the last submission sweep
// started and newly reports whether any channel resolved in this sweep. An
// interval of zero or less never expires. When several reasons apply the
// most specific one is reported.
func Requeue(sinceSubmit, interval time.Duration, states []JobState, newly bool) (bool, RequeueReason) {
	if newly {
		return true, NewlyResolved
	}
	running := false
	for _, s := range states {
		if s.Status == Submitted {
			running = true
			break
		}
	}
	if !running {
		return true, AllTerminal
	}
	if interval > 0 && sinceSubmit >= interval {
		return true, IntervalElapsed
	}
	return false, KeepPolling
}
