package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cory-johannsen/mudcombat/internal/game/combat"
)

// Timestamp decodes either an RFC 3339 string or a number of milliseconds
// since the Unix epoch. null and "" decode to the zero time.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	var ms json.Number
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("timestamp %s: %w", data, err)
	}
	if n, err := ms.Int64(); err == nil {
		t.Time = time.UnixMilli(n).UTC()
		return nil
	}
	f, err := ms.Float64()
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", data, err)
	}
	t.Time = time.UnixMilli(int64(f)).UTC()
	return nil
}

// ActionBody is the action object inside POST /combat/action.
type ActionBody struct {
	ActorID   string            `json:"actorId"`
	TargetID  string            `json:"targetId"`
	Kind      combat.ActionKind `json:"type"`
	SkillID   string            `json:"skillId,omitempty"`
	ItemID    string            `json:"itemId,omitempty"`
	Timestamp Timestamp         `json:"timestamp"`
}

// request converts b to the engine's request, stamping now when the client
// sent no timestamp.
func (b ActionBody) request(now time.Time) combat.ActionRequest {
	ts := b.Timestamp.Time
	if ts.IsZero() {
		ts = now
	}
	return combat.ActionRequest{
		ActorID:   b.ActorID,
		TargetID:  b.TargetID,
		Kind:      b.Kind,
		SkillID:   b.SkillID,
		ItemID:    b.ItemID,
		Timestamp: ts,
	}
}
