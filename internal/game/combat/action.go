package combat

import (
	"fmt"
	"time"
)

// ActionKind identifies what a participant intends to do.
type ActionKind string

const (
	ActionAttack ActionKind = "attack"
	ActionDefend ActionKind = "defend"
	ActionFlee   ActionKind = "flee"
)

// Valid reports whether a is a recognised action kind.
func (a ActionKind) Valid() bool {
	switch a {
	case ActionAttack, ActionDefend, ActionFlee:
		return true
	}
	return false
}

// DamageType selects which attack and defense stats an attack uses.
type DamageType int

const (
	DamagePhysical DamageType = iota
	// DamageMagical is resolved by Attack but no action path selects it yet.
	DamageMagical
)

// String returns "physical" or "magical".
func (d DamageType) String() string {
	if d == DamageMagical {
		return "magical"
	}
	return "physical"
}

// ActionRequest is one intended action.
type ActionRequest struct {
	ActorID  string     `json:"actorId"`
	TargetID string     `json:"targetId"`
	Kind     ActionKind `json:"type"`
	// SkillID and ItemID are reserved and ignored by the resolver.
	SkillID   string    `json:"skillId,omitempty"`
	ItemID    string    `json:"itemId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks that the request names an actor and a known action kind.
func (r ActionRequest) Validate() error {
	if r.ActorID == "" {
		return fmt.Errorf("%w: action actorId is required", ErrPreconditionFailed)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown action type %q", ErrPreconditionFailed, r.Kind)
	}
	return nil
}

// ActionResult records the outcome of one resolved action.
type ActionResult struct {
	Success     bool       `json:"success"`
	Kind        ActionKind `json:"type"`
	Damage      int        `json:"damage"`
	Dodged      bool       `json:"isDodged"`
	Critical    bool       `json:"isCritical"`
	Message     string     `json:"message"`
	ActorID     string     `json:"actorId"`
	TargetID    string     `json:"targetId"`
	RemainingHP int        `json:"remainingHp"`
}
