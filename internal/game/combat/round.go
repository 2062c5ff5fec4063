package combat

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a session. It only moves forward:
// in_progress -> completed or in_progress -> fled.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFled       Status = "fled"
)

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFled
}

// Round records the results produced during one exchange.
type Round struct {
	Number    int            `json:"round"`
	Timestamp time.Time      `json:"timestamp"`
	Results   []ActionResult `json:"results"`
}

// Session is one live combat encounter. It is owned by a Store and mutated
// only by the Manager while it holds the session's lock.
type Session struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
	Turn         int           `json:"currentTurn"`
	TurnOrder    []string      `json:"turnOrder"`
	StartedAt    time.Time     `json:"startTime"`
	Status       Status        `json:"status"`
	History      []Round       `json:"history"`
}

// NewSession builds an in-progress session and freezes its turn order.
//
// Precondition: id must be non-empty; participants must hold exactly one
// player and at least one hostile.
func NewSession(id string, participants []Participant, now time.Time) *Session {
	return &Session{
		ID:           id,
		Participants: participants,
		Turn:         1,
		TurnOrder:    ComputeTurnOrder(participants),
		StartedAt:    now,
		Status:       StatusInProgress,
		History:      []Round{},
	}
}

// Participant returns a pointer to the participant with the given id, or nil.
func (s *Session) Participant(id string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID == id {
			return &s.Participants[i]
		}
	}
	return nil
}

// Player returns the player participant, or nil if the session has none.
func (s *Session) Player() *Participant {
	for i := range s.Participants {
		if s.Participants[i].IsPlayer() {
			return &s.Participants[i]
		}
	}
	return nil
}

// ActiveHostiles returns pointers to hostiles that are alive and still fighting,
// in participant order.
func (s *Session) ActiveHostiles() []*Participant {
	var out []*Participant
	for i := range s.Participants {
		p := &s.Participants[i]
		if !p.IsPlayer() && p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// ActivePlayers returns pointers to living players in participant order.
func (s *Session) ActivePlayers() []*Participant {
	var out []*Participant
	for i := range s.Participants {
		p := &s.Participants[i]
		if p.IsPlayer() && p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// CheckEnded reports whether combat is over: every player is dead, or no
// hostile is still fighting.
//
// Postcondition: Returns true iff len(ActivePlayers()) == 0 or len(ActiveHostiles()) == 0.
func (s *Session) CheckEnded() bool {
	return len(s.ActivePlayers()) == 0 || len(s.ActiveHostiles()) == 0
}

// appendRound records results as the current turn and advances the counter.
func (s *Session) appendRound(results []ActionResult, now time.Time) {
	s.History = append(s.History, Round{Number: s.Turn, Timestamp: now, Results: slices.Clone(results)})
	s.Turn++
}

// Clone returns a deep copy of s suitable for handing to callers outside the
// session lock.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Participants = slices.Clone(s.Participants)
	for i := range cp.Participants {
		cp.Participants[i].Effects = slices.Clone(cp.Participants[i].Effects)
	}
	cp.TurnOrder = slices.Clone(s.TurnOrder)
	cp.History = slices.Clone(s.History)
	for i := range cp.History {
		cp.History[i].Results = slices.Clone(cp.History[i].Results)
	}
	return &cp
}
