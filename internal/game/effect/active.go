package effect

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Active is one applied effect on one character. It holds a shared reference
// to its immutable Definition plus the runtime state the ledger mutates:
// remaining duration, the casting environment snapshot, and trigger counters.
type Active struct {
	ID     uuid.UUID
	Def    *Definition
	Source string // caster name, for messages and logs

	// Remaining counts down at each turn update; negative means permanent.
	Remaining int

	// Env is the variable environment captured at application time. Rolls
	// made on behalf of this instance (DoT ticks, attack riders) use it, so
	// an upcast effect keeps its cast-time [MIND] binding for its lifetime.
	Env dice.Env

	// MindLevel is the resource committed at the original cast, paired with
	// nested effects yielded by trigger activations.
	MindLevel int

	// Rolled is the at-application evaluation of a numeric modifier's value
	// expression. Attack and Damage modifiers keep contributing expressions
	// instead and leave it zero.
	Rolled int

	TriggersUsed      int
	CooldownRemaining int
	TriggeredThisTurn bool
}

func newActive(def *Definition, source string, env dice.Env, mindLevel int) *Active {
	return &Active{
		ID:        uuid.New(),
		Def:       def,
		Source:    source,
		Remaining: def.Duration,
		Env:       env,
		MindLevel: mindLevel,
	}
}

// Expired reports whether the instance's duration has run out. Permanent
// instances never expire.
func (a *Active) Expired() bool {
	return a.Remaining == 0
}

// Exhausted reports whether a trigger instance has spent its activation
// budget and is permanently inert.
func (a *Active) Exhausted() bool {
	t := a.Def.Trigger
	return t != nil && t.MaxTriggers > 0 && a.TriggersUsed >= t.MaxTriggers
}

// strength is the projected maximum of a modifier's expression under the
// instance's environment. The stacking contest compares projections, not
// rolled values, so a contested slot always resolves deterministically.
func (a *Active) strength() (int, error) {
	m := a.Def.Modifier
	if m == nil {
		return 0, nil
	}
	expr := m.Value
	if m.Damage != nil {
		expr = m.Damage.Expr
	}
	return dice.EvalMax(expr, a.Env)
}

// rider packages the instance's damage contribution for the resolver.
func (a *Active) rider() DamageRider {
	return DamageRider{
		Damage:    *a.Def.Modifier.Damage,
		Env:       a.Env,
		MindLevel: a.MindLevel,
		Source:    a.Def.Name,
	}
}

// DamageRider is one extra damage component folded into an attack: either
// the active damage modifier or a one-shot consume-on-hit bonus. The rider
// carries its own environment so upcast riders roll at their cast level.
type DamageRider struct {
	Damage    rules.DamageComponent
	Env       dice.Env
	MindLevel int
	Source    string
}
