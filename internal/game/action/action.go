// Package action defines the combat actions a character can take: weapon
// attacks, the spell families, abilities, and multi-attack composites. A
// Definition is immutable content; per-use state (cooldowns, remaining uses)
// lives with the acting character.
package action

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Kind discriminates the closed set of action variants. Dispatch on it with
// a switch; there is no open subclassing.
type Kind string

const (
	// KindWeaponAttack is a to-hit attack with weapon or natural damage.
	KindWeaponAttack Kind = "WEAPON_ATTACK"
	// KindSpellAttack is a spell requiring a spell attack roll.
	KindSpellAttack Kind = "SPELL_ATTACK"
	// KindSpellHeal restores HP with no attack roll.
	KindSpellHeal Kind = "SPELL_HEAL"
	// KindSpellBuff applies beneficial effects to self or allies.
	KindSpellBuff Kind = "SPELL_BUFF"
	// KindSpellDebuff applies hostile effects without an attack roll.
	KindSpellDebuff Kind = "SPELL_DEBUFF"
	// KindAbility is a non-spell special action shaped by its category.
	KindAbility Kind = "ABILITY"
	// KindMultiAttack resolves a sequence of registered attacks as one action.
	KindMultiAttack Kind = "MULTI_ATTACK"
)

// Validate rejects values outside the closed kind set.
func (k Kind) Validate() error {
	switch k {
	case KindWeaponAttack, KindSpellAttack, KindSpellHeal, KindSpellBuff,
		KindSpellDebuff, KindAbility, KindMultiAttack:
		return nil
	}
	return fmt.Errorf("action: unknown kind %q", string(k))
}

// Definition is one loaded action. Which fields are meaningful depends on
// Kind; Validate enforces the per-kind shape.
//
// Invariant: definitions are immutable after load and freely shared.
type Definition struct {
	Name        string
	Kind        Kind
	Class       rules.ActionClass
	Category    rules.ActionCategory
	Description string

	// TargetExpr is the number-of-targets expression, evaluated with the
	// cast-time environment. Empty means a single target.
	TargetExpr string

	// Cooldown is the number of turns between uses; values <= 0 mean none.
	Cooldown int

	// MaximumUses caps uses per encounter; values <= 0 mean unlimited.
	MaximumUses int

	// TargetRestrictions narrow legal targets with OR logic. When empty,
	// CanTarget falls back to the category default table.
	TargetRestrictions []rules.TargetRestriction

	// Effects are applied to the target on successful resolution.
	Effects []*effect.Definition

	// AttackBonus is the to-hit bonus expression added to the d20 roll.
	// Attacks only; empty means a flat d20.
	AttackBonus string

	// Damage carries the attack's damage components. Weapon and spell
	// attacks require at least one; offensive abilities use it too.
	Damage []rules.DamageComponent

	// HandsRequired is the number of hands a weapon attack occupies.
	// Zero covers natural attacks.
	HandsRequired int

	// Level is the spell's base level; 0 marks a cantrip.
	Level int

	// MindCost lists the mind price per cast level: index 0 is the cost to
	// cast at level 1. Its length bounds the highest cast level.
	MindCost []int

	// RequiresConcentration marks spells that occupy a concentration slot
	// while their effects persist.
	RequiresConcentration bool

	// HealExpr is the healing roll for SPELL_HEAL and healing abilities.
	HealExpr string

	// AttackRefs names the registered attacks a MULTI_ATTACK resolves, in
	// order. The content registry resolves them into Attacks after load.
	AttackRefs []string

	// Attacks is the resolved form of AttackRefs.
	Attacks []*Definition
}

// IsSpell reports whether the action spends mind to cast.
func (d *Definition) IsSpell() bool {
	switch d.Kind {
	case KindSpellAttack, KindSpellHeal, KindSpellBuff, KindSpellDebuff:
		return true
	}
	return false
}

// RollsToHit reports whether resolving the action includes an attack roll.
func (d *Definition) RollsToHit() bool {
	return d.Kind == KindWeaponAttack || d.Kind == KindSpellAttack
}

// MaxMindLevel returns the highest level the spell can be cast at, or 0 for
// actions that are not spells.
func (d *Definition) MaxMindLevel() int {
	return len(d.MindCost)
}

// MindCostAt returns the mind price for casting at mindLevel.
//
// Precondition: d is a spell.
func (d *Definition) MindCostAt(mindLevel int) (int, error) {
	if !d.IsSpell() {
		return 0, nil
	}
	if mindLevel < 1 || mindLevel > len(d.MindCost) {
		return 0, fmt.Errorf("action: %s cannot be cast at level %d (levels 1-%d)",
			d.Name, mindLevel, len(d.MindCost))
	}
	return d.MindCost[mindLevel-1], nil
}

// TargetCount evaluates TargetExpr in env and returns the number of targets,
// never less than one. A broken expression still yields one target along
// with the evaluation error so the caller can log it.
func (d *Definition) TargetCount(env dice.Env) (int, error) {
	if d.TargetExpr == "" {
		return 1, nil
	}
	n, err := dice.Evaluate(d.TargetExpr, env)
	if err != nil {
		return 1, fmt.Errorf("action: %s target expression: %w", d.Name, err)
	}
	if n < 1 {
		return 1, nil
	}
	return n, nil
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, string(d.Kind))
}

// Validate checks the definition against its per-kind shape. All violations
// are collected into a single error.
func (d *Definition) Validate() error {
	var violations []string
	if d.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if err := d.Kind.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if err := d.Class.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if err := d.Category.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	for _, r := range d.TargetRestrictions {
		if err := r.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	for _, e := range d.Effects {
		if err := e.Validate(); err != nil {
			violations = append(violations, fmt.Sprintf("effect %s: %v", e.Name, err))
		}
	}
	for i, c := range d.Damage {
		if err := c.Validate(); err != nil {
			violations = append(violations, fmt.Sprintf("damage component %d: %v", i, err))
		}
	}
	if d.HandsRequired < 0 {
		violations = append(violations, "hands required must not be negative")
	}

	violations = append(violations, d.validateKind()...)

	if len(violations) > 0 {
		return fmt.Errorf("action %q invalid: %s", d.Name, strings.Join(violations, "; "))
	}
	return nil
}

func (d *Definition) validateKind() []string {
	var violations []string

	requireDamage := func() {
		if len(d.Damage) == 0 {
			violations = append(violations, "at least one damage component required")
		}
	}
	forbidSpellFields := func() {
		if len(d.MindCost) > 0 {
			violations = append(violations, "mind cost is only valid on spells")
		}
		if d.Level != 0 {
			violations = append(violations, "spell level is only valid on spells")
		}
		if d.RequiresConcentration {
			violations = append(violations, "concentration is only valid on spells")
		}
	}
	requireSpellFields := func() {
		if len(d.MindCost) == 0 {
			violations = append(violations, "spells require at least one mind cost entry")
		}
		for i, c := range d.MindCost {
			if c < 0 {
				violations = append(violations, fmt.Sprintf("mind cost %d must not be negative", i))
			}
		}
		if d.Level < 0 {
			violations = append(violations, "spell level must not be negative")
		}
	}

	switch d.Kind {
	case KindWeaponAttack:
		requireDamage()
		forbidSpellFields()
		if d.HealExpr != "" {
			violations = append(violations, "heal expression is not valid on an attack")
		}
		if len(d.AttackRefs) > 0 {
			violations = append(violations, "attack references are only valid on a multi-attack")
		}
	case KindSpellAttack:
		requireDamage()
		requireSpellFields()
		if d.HealExpr != "" {
			violations = append(violations, "heal expression is not valid on an attack")
		}
	case KindSpellHeal:
		requireSpellFields()
		if d.HealExpr == "" {
			violations = append(violations, "healing spells require a heal expression")
		}
		if len(d.Damage) > 0 {
			violations = append(violations, "damage components are not valid on a healing spell")
		}
	case KindSpellBuff, KindSpellDebuff:
		requireSpellFields()
		if len(d.Effects) == 0 {
			violations = append(violations, "buff and debuff spells require at least one effect")
		}
		if len(d.Damage) > 0 || d.HealExpr != "" {
			violations = append(violations, "buff and debuff spells carry effects only")
		}
	case KindAbility:
		forbidSpellFields()
		switch d.Category {
		case rules.CategoryOffensive:
			requireDamage()
		case rules.CategoryHealing:
			if d.HealExpr == "" {
				violations = append(violations, "healing abilities require a heal expression")
			}
		case rules.CategoryBuff, rules.CategoryDebuff:
			if len(d.Effects) == 0 {
				violations = append(violations, "buff and debuff abilities require at least one effect")
			}
		}
	case KindMultiAttack:
		forbidSpellFields()
		if len(d.AttackRefs) == 0 && len(d.Attacks) == 0 {
			violations = append(violations, "multi-attack requires at least one attack reference")
		}
		if len(d.Damage) > 0 || d.HealExpr != "" || len(d.Effects) > 0 {
			violations = append(violations, "multi-attack carries only attack references")
		}
		if d.Category != rules.CategoryOffensive {
			violations = append(violations, "multi-attack must be offensive")
		}
	}

	return violations
}

// DefaultCategory returns the category implied by a kind, or empty when the
// kind has no implied category and content must state one.
func DefaultCategory(k Kind) rules.ActionCategory {
	switch k {
	case KindWeaponAttack, KindSpellAttack, KindMultiAttack:
		return rules.CategoryOffensive
	case KindSpellHeal:
		return rules.CategoryHealing
	case KindSpellBuff:
		return rules.CategoryBuff
	case KindSpellDebuff:
		return rules.CategoryDebuff
	}
	return ""
}
