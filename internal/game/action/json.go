package action

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

const defaultDescription = "No description."

// UnmarshalJSON decodes a definition strictly: unknown fields are rejected
// so content typos fail at load. An absent description gets a placeholder,
// an absent class defaults to a standard action, and an absent category
// falls back to the kind's implied category where one exists.
//
// Postcondition: on success the definition passes Validate.
func (d *Definition) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name        string               `json:"name"`
		Kind        Kind                 `json:"kind"`
		Class       rules.ActionClass    `json:"class"`
		Category    rules.ActionCategory `json:"category"`
		Description string               `json:"description"`

		TargetExpr         string                    `json:"target_expr"`
		Cooldown           int                       `json:"cooldown"`
		MaximumUses        int                       `json:"maximum_uses"`
		TargetRestrictions []rules.TargetRestriction `json:"target_restrictions"`
		Effects            []*effect.Definition      `json:"effects"`

		AttackRoll    string                  `json:"attack_roll"`
		Damage        []rules.DamageComponent `json:"damage"`
		HandsRequired int                     `json:"hands_required"`

		Level                 int   `json:"level"`
		MindCost              []int `json:"mind_cost"`
		RequiresConcentration bool  `json:"requires_concentration"`

		Heal string `json:"heal"`

		Attacks []string `json:"attacks"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s shadow
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("decoding action: %w", err)
	}

	d.Name = s.Name
	d.Kind = s.Kind
	d.Class = s.Class
	d.Category = s.Category
	d.Description = s.Description
	d.TargetExpr = s.TargetExpr
	d.Cooldown = s.Cooldown
	d.MaximumUses = s.MaximumUses
	d.TargetRestrictions = s.TargetRestrictions
	d.Effects = s.Effects
	d.AttackBonus = s.AttackRoll
	d.Damage = s.Damage
	d.HandsRequired = s.HandsRequired
	d.Level = s.Level
	d.MindCost = s.MindCost
	d.RequiresConcentration = s.RequiresConcentration
	d.HealExpr = s.Heal
	d.AttackRefs = s.Attacks
	d.Attacks = nil

	if d.Description == "" {
		d.Description = defaultDescription
	}
	if d.Class == "" {
		d.Class = rules.ClassStandard
	}
	if d.Category == "" {
		d.Category = DefaultCategory(d.Kind)
	}

	return d.Validate()
}
