package action

import (
	"fmt"
	"strings"
)

// Variant derives a named attack from a registered base attack: the roll
// modifiers are appended to the base expressions and the optional overrides
// replace the base fields. Variants let content ship "Power Slash" as
// "Slash" with -2 to hit and +4 damage instead of a full copy.
type Variant struct {
	Name          string `json:"name"`
	Base          string `json:"base"`
	AttackRollMod string `json:"attack_roll_mod,omitempty"`
	DamageRollMod string `json:"damage_roll_mod,omitempty"`

	Description string `json:"description,omitempty"`
	Cooldown    *int   `json:"cooldown,omitempty"`
	MaximumUses *int   `json:"maximum_uses,omitempty"`
}

// Validate checks the variant's own fields. Resolution against the base
// happens in Apply.
func (v *Variant) Validate() error {
	var violations []string
	if v.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if v.Base == "" {
		violations = append(violations, "base attack name must not be empty")
	}
	if len(violations) > 0 {
		return fmt.Errorf("attack variant %q invalid: %s", v.Name, strings.Join(violations, "; "))
	}
	return nil
}

// Apply builds the variant definition from base. The base is not modified;
// damage components are copied before their expressions are extended.
//
// Precondition: base has passed Validate.
func (v *Variant) Apply(base *Definition) (*Definition, error) {
	if base == nil {
		panic("action: Variant.Apply called with nil base")
	}
	if base.Kind != KindWeaponAttack {
		return nil, fmt.Errorf("action: variant %s: base %s is a %s, not a weapon attack",
			v.Name, base.Name, base.Kind)
	}

	out := *base
	out.Name = v.Name
	out.Damage = append(out.Damage[:0:0], base.Damage...)
	out.TargetRestrictions = append(out.TargetRestrictions[:0:0], base.TargetRestrictions...)

	if v.AttackRollMod != "" {
		out.AttackBonus = appendTerm(out.AttackBonus, v.AttackRollMod)
	}
	if v.DamageRollMod != "" {
		for i := range out.Damage {
			out.Damage[i].Expr = appendTerm(out.Damage[i].Expr, v.DamageRollMod)
		}
	}
	if v.Description != "" {
		out.Description = v.Description
	}
	if v.Cooldown != nil {
		out.Cooldown = *v.Cooldown
	}
	if v.MaximumUses != nil {
		out.MaximumUses = *v.MaximumUses
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("action: variant %s: %w", v.Name, err)
	}
	return &out, nil
}

// appendTerm joins mod onto expr as an additional arithmetic term, supplying
// the leading sign when the modifier has none.
func appendTerm(expr, mod string) string {
	if !strings.HasPrefix(mod, "+") && !strings.HasPrefix(mod, "-") {
		mod = "+" + mod
	}
	if expr == "" {
		return strings.TrimPrefix(mod, "+")
	}
	return expr + mod
}
