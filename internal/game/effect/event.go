package effect

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// TriggerEvent names the combat moment a trigger listens for.
type TriggerEvent string

const (
	OnHit         TriggerEvent = "ON_HIT"
	OnDamageTaken TriggerEvent = "ON_DAMAGE_TAKEN"
	OnLowHealth   TriggerEvent = "ON_LOW_HEALTH"
	OnSpellCast   TriggerEvent = "ON_SPELL_CAST"
	OnTurnStart   TriggerEvent = "ON_TURN_START"
	OnTurnEnd     TriggerEvent = "ON_TURN_END"
)

// defaultLowHealthThreshold applies when an ON_LOW_HEALTH trigger leaves its
// threshold unset.
const defaultLowHealthThreshold = 0.25

// Validate rejects values outside the closed event set.
func (e TriggerEvent) Validate() error {
	switch e {
	case OnHit, OnDamageTaken, OnLowHealth, OnSpellCast, OnTurnStart, OnTurnEnd:
		return nil
	}
	return fmt.Errorf("effect: unknown trigger event %q", string(e))
}

// Event is one combat occurrence dispatched through a Ledger. Only the
// fields relevant to its Kind are populated.
type Event struct {
	Kind TriggerEvent

	// Damage and DamageType describe an ON_DAMAGE_TAKEN event.
	Damage     int
	DamageType rules.DamageType

	// HPRatio is the owner's HP fraction after the event, for ON_LOW_HEALTH.
	HPRatio float64

	// Category is the cast spell's category, for ON_SPELL_CAST.
	Category rules.ActionCategory

	// Turn is the current turn number, for turn boundary events.
	Turn int
}

// met reports whether the event satisfies this trigger's condition. Gate
// checks (max triggers, cooldown, per-turn flag) are the ledger's concern;
// this is purely the condition predicate.
func (t *Trigger) met(ev Event) bool {
	if ev.Kind != t.On {
		return false
	}
	switch t.On {
	case OnDamageTaken:
		if ev.Damage <= 0 {
			return false
		}
		return t.DamageType == "" || t.DamageType == ev.DamageType
	case OnLowHealth:
		threshold := t.Threshold
		if threshold <= 0 {
			threshold = defaultLowHealthThreshold
		}
		return ev.HPRatio <= threshold
	}
	return true
}
