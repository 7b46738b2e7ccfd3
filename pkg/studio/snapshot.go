package studio

import "time"

// Phase names the orchestrator activity in a Snapshot.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhasePolling    Phase = "polling"
	PhaseWaiting    Phase = "waiting"
	PhaseLocal      Phase = "solving-local"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// ChannelSnapshot is the externally visible state of one channel.
type ChannelSnapshot struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Job       int    `json:"job,omitempty"`
	Points    int    `json:"points"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}

// Snapshot is a copy of a study's progress, safe to hand to other
// goroutines.
type Snapshot struct {
	StudyID   string            `json:"study_id"`
	Mode      string            `json:"mode"`
	Phase     Phase             `json:"phase"`
	Channels  []ChannelSnapshot `json:"channels"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Resolved reports how many channels carry a tour.
func (s Snapshot) Resolved() int {
	n := 0
	for _, c := range s.Channels {
		if c.Status == Resolved.String() {
			n++
		}
	}
	return n
}

// Snapshot captures the study's current progress.
func (s *Study) Snapshot(phase Phase) Snapshot {
	snap := Snapshot{
		StudyID:   s.ID,
		Mode:      s.Mode.String(),
		Phase:     phase,
		Channels:  make([]ChannelSnapshot, len(s.Channels)),
		UpdatedAt: time.Now().UTC(),
	}
	for i, c := range s.Channels {
		snap.Channels[i] = ChannelSnapshot{
			Index:     c.Index,
			Name:      c.Name,
			Status:    c.State.Status.String(),
			Job:       c.State.Handle.Job,
			Points:    len(c.Points),
			Attempts:  c.Attempts,
			LastError: c.LastError,
		}
	}
	return snap
}
