// Package effect implements the status-effect system: typed effect
// definitions, per-character ledgers of active instances, and the stacking,
// refresh, replacement, and expiration rules that govern them.
//
// A Definition is an immutable template loaded from content. Exactly one of
// its payload fields is set, discriminating the five effect kinds: Modifier,
// DamageOverTime, HealingOverTime, Incapacitating, and Trigger. Applying a
// definition to a character creates an Active instance in that character's
// Ledger; the template itself is shared and never mutated.
package effect

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// PermanentDuration marks a definition or instance that never expires on its
// own. Instant effects use duration 0 and resolve at application time.
const PermanentDuration = -1

// Kind discriminates the effect payload variants.
type Kind int

const (
	KindModifier Kind = iota
	KindDamageOverTime
	KindHealingOverTime
	KindIncapacitating
	KindTrigger
)

func (k Kind) String() string {
	switch k {
	case KindModifier:
		return "modifier"
	case KindDamageOverTime:
		return "damage over time"
	case KindHealingOverTime:
		return "healing over time"
	case KindIncapacitating:
		return "incapacitating"
	case KindTrigger:
		return "trigger"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Definition is the static template for one effect. Exactly one payload
// field is non-nil; Validate enforces this and Kind reports which.
//
// Invariant: definitions are immutable after load. Active instances hold a
// shared reference and keep their own runtime state.
type Definition struct {
	Name        string
	Description string

	// Duration is the lifetime in turns: PermanentDuration for no expiry,
	// 0 for instant resolution at application, N > 0 for N turn updates.
	Duration int

	Modifier        *Modifier
	DamageOverTime  *DamageOverTime
	HealingOverTime *HealingOverTime
	Incapacitating  *Incapacitating
	Trigger         *Trigger
}

// Modifier adjusts one stat while active. Numeric bonus types (HP, Mind, AC,
// Initiative) evaluate Value once at application; Attack and Damage bonuses
// contribute their expression to each affected roll instead.
type Modifier struct {
	Bonus rules.BonusType `json:"bonus"`

	// Value is the roll or arithmetic expression for the bonus amount.
	// Ignored when Damage is set.
	Value string `json:"value,omitempty"`

	// Damage carries a typed damage component for Damage bonuses, so the
	// extra damage is adjusted against the target's resistances.
	Damage *rules.DamageComponent `json:"damage,omitempty"`

	// ConsumeOnHit marks a one-shot damage rider: it is collected into the
	// next hit's damage and removed, bypassing the strength contest that
	// governs persistent modifiers.
	ConsumeOnHit bool `json:"consume_on_hit,omitempty"`
}

// DamageOverTime deals its damage component once per turn update.
type DamageOverTime struct {
	Damage rules.DamageComponent `json:"damage"`
}

// HealingOverTime heals its rolled amount once per turn update, clamped by
// the owner's missing HP.
type HealingOverTime struct {
	Heal string `json:"heal"`
}

// Incapacitating suppresses or restricts the target's actions while active.
type Incapacitating struct {
	Kind rules.IncapacitationKind `json:"kind"`

	// DamageThreshold is the minimum single damage application that breaks
	// a damage-breakable kind. Zero means any positive damage breaks it.
	DamageThreshold int `json:"damage_threshold,omitempty"`

	// SaveExpr and SaveDC define an optional escape roll made by the target
	// at each turn update; meeting or beating SaveDC ends the effect early.
	// Both must be set together.
	SaveExpr string `json:"save_expr,omitempty"`
	SaveDC   int    `json:"save_dc,omitempty"`
}

// Trigger activates on a combat event instead of acting continuously. On
// activation it yields BonusDamage (folded into the current attack when the
// event is an on-hit) and Effects (applied by the caller, scaled by the
// mind level recorded at application).
type Trigger struct {
	On TriggerEvent `json:"on"`

	// Threshold is the HP ratio at or below which an ON_LOW_HEALTH trigger
	// fires. Zero selects the default of 0.25.
	Threshold float64 `json:"threshold,omitempty"`

	// DamageType filters ON_DAMAGE_TAKEN activations to one damage type
	// when set.
	DamageType rules.DamageType `json:"damage_type,omitempty"`

	ConsumesOnTrigger bool `json:"consumes_on_trigger,omitempty"`

	// Cooldown is the number of turn starts that must pass between
	// activations. Zero means no cooldown.
	Cooldown int `json:"cooldown,omitempty"`

	// MaxTriggers caps total activations; once reached the instance is
	// permanently inert until removed. Zero means unlimited.
	MaxTriggers int `json:"max_triggers,omitempty"`

	// OncePerTurn limits the trigger to a single activation per turn.
	OncePerTurn bool `json:"once_per_turn,omitempty"`

	Effects     []*Definition           `json:"effects,omitempty"`
	BonusDamage []rules.DamageComponent `json:"bonus_damage,omitempty"`
}

// Kind reports which payload variant this definition carries.
// Precondition: the definition has passed Validate.
func (d *Definition) Kind() Kind {
	switch {
	case d.Modifier != nil:
		return KindModifier
	case d.DamageOverTime != nil:
		return KindDamageOverTime
	case d.HealingOverTime != nil:
		return KindHealingOverTime
	case d.Incapacitating != nil:
		return KindIncapacitating
	case d.Trigger != nil:
		return KindTrigger
	}
	panic(fmt.Sprintf("effect: definition %q has no payload", d.Name))
}

// Permanent reports whether the definition never expires on its own.
func (d *Definition) Permanent() bool {
	return d.Duration < 0
}

// Instant reports whether the definition resolves entirely at application.
func (d *Definition) Instant() bool {
	return d.Duration == 0
}

func (d *Definition) String() string {
	switch {
	case d.Permanent():
		return d.Name
	case d.Instant():
		return d.Name + " (instant)"
	case d.Duration == 1:
		return d.Name + " (1 turn)"
	}
	return fmt.Sprintf("%s (%d turns)", d.Name, d.Duration)
}

// Validate checks the definition against the closed effect grammar: a name,
// exactly one payload, a duration legal for that payload, and payload fields
// within their own closed sets. Nested trigger effects are validated
// recursively. All violations are collected into a single error.
func (d *Definition) Validate() error {
	var violations []string
	if d.Name == "" {
		violations = append(violations, "name must not be empty")
	}

	payloads := 0
	for _, set := range []bool{
		d.Modifier != nil,
		d.DamageOverTime != nil,
		d.HealingOverTime != nil,
		d.Incapacitating != nil,
		d.Trigger != nil,
	} {
		if set {
			payloads++
		}
	}
	switch payloads {
	case 0:
		violations = append(violations, "exactly one payload required, got none")
	case 1:
	default:
		violations = append(violations, fmt.Sprintf("exactly one payload required, got %d", payloads))
	}

	if payloads == 1 {
		switch d.Kind() {
		case KindModifier:
			violations = append(violations, d.Modifier.validate()...)
			if d.Duration == 0 {
				violations = append(violations, "modifier duration must be permanent or positive")
			}
		case KindDamageOverTime:
			if err := d.DamageOverTime.Damage.Validate(); err != nil {
				violations = append(violations, err.Error())
			}
		case KindHealingOverTime:
			if d.HealingOverTime.Heal == "" {
				violations = append(violations, "healing over time requires a heal expression")
			}
		case KindIncapacitating:
			violations = append(violations, d.Incapacitating.validate()...)
			if d.Duration == 0 {
				violations = append(violations, "incapacitating duration must be permanent or positive")
			}
		case KindTrigger:
			violations = append(violations, d.Trigger.validate()...)
			if d.Duration == 0 {
				violations = append(violations, "trigger duration must be permanent or positive")
			}
		}
	}

	if len(violations) > 0 {
		return fmt.Errorf("effect %q: %s", d.Name, strings.Join(violations, "; "))
	}
	return nil
}

func (m *Modifier) validate() []string {
	var violations []string
	if err := m.Bonus.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	switch {
	case m.Bonus == rules.BonusDamage:
		if m.Damage == nil {
			violations = append(violations, "DAMAGE bonuses require a typed damage component")
		} else if err := m.Damage.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	case m.Damage != nil:
		violations = append(violations, "typed damage is only legal on DAMAGE bonuses")
	case m.Value == "":
		violations = append(violations, "modifier requires a value expression")
	}
	if m.ConsumeOnHit && m.Bonus != rules.BonusDamage {
		violations = append(violations, "consume_on_hit is only legal on DAMAGE bonuses")
	}
	return violations
}

func (i *Incapacitating) validate() []string {
	var violations []string
	if err := i.Kind.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if i.DamageThreshold < 0 {
		violations = append(violations, "damage_threshold must not be negative")
	}
	if i.DamageThreshold > 0 && !i.Kind.DamageBreakable() {
		violations = append(violations, fmt.Sprintf("%s does not break on damage", string(i.Kind)))
	}
	if (i.SaveExpr == "") != (i.SaveDC == 0) {
		violations = append(violations, "save_expr and save_dc must be set together")
	}
	return violations
}

func (t *Trigger) validate() []string {
	var violations []string
	if err := t.On.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if t.Threshold < 0 || t.Threshold > 1 {
		violations = append(violations, "threshold must be within [0, 1]")
	}
	if t.Threshold != 0 && t.On != OnLowHealth {
		violations = append(violations, "threshold is only legal on ON_LOW_HEALTH triggers")
	}
	if t.DamageType != "" {
		if t.On != OnDamageTaken {
			violations = append(violations, "damage_type filter is only legal on ON_DAMAGE_TAKEN triggers")
		} else if err := t.DamageType.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	if t.Cooldown < 0 {
		violations = append(violations, "cooldown must not be negative")
	}
	if t.MaxTriggers < 0 {
		violations = append(violations, "max_triggers must not be negative")
	}
	if len(t.Effects) == 0 && len(t.BonusDamage) == 0 {
		violations = append(violations, "trigger must yield effects or bonus damage")
	}
	for _, nested := range t.Effects {
		if nested == nil {
			violations = append(violations, "nested effect must not be null")
			continue
		}
		if nested.Trigger != nil {
			violations = append(violations, fmt.Sprintf("nested effect %q: triggers cannot nest", nested.Name))
		}
		if err := nested.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	for _, c := range t.BonusDamage {
		if err := c.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	return violations
}
