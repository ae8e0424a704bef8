package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// ArmorSlot is the body slot a piece of armor occupies.
type ArmorSlot string

const (
	SlotHead        ArmorSlot = "HEAD"
	SlotTorso       ArmorSlot = "TORSO"
	SlotShield      ArmorSlot = "SHIELD"
	SlotLegs        ArmorSlot = "LEGS"
	SlotCloak       ArmorSlot = "CLOAK"
	SlotGloves      ArmorSlot = "GLOVES"
	SlotRing        ArmorSlot = "RING"
	SlotCombatStyle ArmorSlot = "COMBAT_STYLE"
)

// Validate rejects values outside the closed slot set.
func (s ArmorSlot) Validate() error {
	switch s {
	case SlotHead, SlotTorso, SlotShield, SlotLegs, SlotCloak, SlotGloves,
		SlotRing, SlotCombatStyle:
		return nil
	}
	return fmt.Errorf("content: unknown armor slot %q", string(s))
}

// ArmorType classifies how a torso piece interacts with Dexterity.
type ArmorType string

const (
	ArmorLight  ArmorType = "LIGHT"
	ArmorMedium ArmorType = "MEDIUM"
	ArmorHeavy  ArmorType = "HEAVY"
	ArmorOther  ArmorType = "OTHER"
)

// Validate rejects values outside the closed type set.
func (t ArmorType) Validate() error {
	switch t {
	case ArmorLight, ArmorMedium, ArmorHeavy, ArmorOther:
		return nil
	}
	return fmt.Errorf("content: unknown armor type %q", string(t))
}

// Armor is a wearable piece that contributes armor class and may carry
// effects applied to the wearer while worn.
type Armor struct {
	Name        string
	Description string

	// AC is the base armor class value of the piece.
	AC int

	Slot ArmorSlot
	Type ArmorType

	// MaxDexBonus caps the Dexterity contribution of medium torso armor.
	MaxDexBonus int

	Effects []*effect.Definition
}

// ACBonus returns the piece's armor class contribution for a wearer with
// the given Dexterity modifier. Only torso pieces and shields contribute;
// light armor adds the full modifier, medium caps it at MaxDexBonus, and
// heavy ignores Dexterity entirely.
func (a *Armor) ACBonus(dexMod int) int {
	switch a.Slot {
	case SlotTorso:
		switch a.Type {
		case ArmorLight:
			return a.AC + dexMod
		case ArmorMedium:
			if dexMod > a.MaxDexBonus {
				return a.AC + a.MaxDexBonus
			}
			return a.AC + dexMod
		default:
			return a.AC
		}
	case SlotShield:
		return a.AC
	}
	return 0
}

func (a *Armor) String() string {
	return fmt.Sprintf("%s (%s %s, AC %d)", a.Name, strings.ToLower(string(a.Type)),
		strings.ToLower(string(a.Slot)), a.AC)
}

// Validate checks the armor invariants, collecting all violations.
func (a *Armor) Validate() error {
	var violations []string
	if a.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if err := a.Slot.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if err := a.Type.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if a.AC < 0 {
		violations = append(violations, "AC must not be negative")
	}
	if a.MaxDexBonus < 0 {
		violations = append(violations, "max dex bonus must not be negative")
	}
	for _, e := range a.Effects {
		if err := e.Validate(); err != nil {
			violations = append(violations, fmt.Sprintf("effect %s: %v", e.Name, err))
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("armor %q invalid: %s", a.Name, strings.Join(violations, "; "))
	}
	return nil
}

// UnmarshalJSON decodes an armor piece strictly.
//
// Postcondition: on success the armor passes Validate.
func (a *Armor) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name        string               `json:"name"`
		Description string               `json:"description"`
		AC          int                  `json:"ac"`
		Slot        ArmorSlot            `json:"armor_slot"`
		Type        ArmorType            `json:"armor_type"`
		MaxDexBonus int                  `json:"max_dex_bonus"`
		Effects     []*effect.Definition `json:"effects"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s shadow
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("decoding armor: %w", err)
	}

	a.Name = s.Name
	a.Description = s.Description
	a.AC = s.AC
	a.Slot = s.Slot
	a.Type = s.Type
	a.MaxDexBonus = s.MaxDexBonus
	a.Effects = s.Effects

	return a.Validate()
}
