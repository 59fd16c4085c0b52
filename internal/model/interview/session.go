package interview

import "time"

// Phase tracks where a session is in the interview lifecycle.
type Phase string

const (
	// PhaseAsking covers both the normal and the extended questioning rounds.
	PhaseAsking Phase = "asking"
	// PhaseReadyForClose is reached once the synchronous flow collects enough
	// answers; no further questions are issued.
	PhaseReadyForClose Phase = "ready_for_close"
	// PhaseClosed marks a session whose summary has been produced.
	PhaseClosed Phase = "closed"
)

// Session captures one live interview owned by a single authenticated user.
// Turns are append-only while the session lives; ReadySent latches to true at
// most once and never resets.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	StyleKey  string    `json:"styleKey"`
	Turns     []Turn    `json:"turns"`
	ReadySent bool      `json:"readySent"`
	Phase     Phase     `json:"phase"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExtendedMode reports whether the session has crossed into the escalated
// prompting round. The escalation is one-way: it depends only on the number
// of accumulated user turns, which never decreases.
func (s Session) ExtendedMode() bool {
	return AnsweredCount(s.Turns) >= ExtendedThreshold
}

const (
	// CloseThreshold is the answer count at which the synchronous flow stops
	// asking and moves straight to the result view.
	CloseThreshold = 5
	// ReadyCheckThreshold is the answer count from which the realtime flow
	// starts probing for readiness.
	ReadyCheckThreshold = 5
	// ExtendedThreshold is the answer count that switches prompting into
	// extended mode and makes readiness unconditional.
	ExtendedThreshold = 10
)
