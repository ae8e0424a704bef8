package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/action"
)

// Weapon bundles the attacks a wielded item grants. The attacks are defined
// inline and registered under a "<weapon> - <attack>" name so two weapons
// can both grant a "Slash" without colliding.
type Weapon struct {
	Name        string
	Description string

	// HandsRequired is how many hands wielding the weapon occupies.
	HandsRequired int

	Attacks []*action.Definition
}

// Grants returns the weapon's attacks renamed with the weapon prefix. The
// inline definitions are not modified.
func (w *Weapon) Grants() []*action.Definition {
	out := make([]*action.Definition, 0, len(w.Attacks))
	for _, atk := range w.Attacks {
		granted := *atk
		granted.Name = fmt.Sprintf("%s - %s", w.Name, atk.Name)
		granted.HandsRequired = w.HandsRequired
		out = append(out, &granted)
	}
	return out
}

// Validate checks the weapon invariants, collecting all violations.
func (w *Weapon) Validate() error {
	var violations []string
	if w.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if w.HandsRequired < 0 {
		violations = append(violations, "hands required must not be negative")
	}
	if len(w.Attacks) == 0 {
		violations = append(violations, "at least one attack required")
	}
	for _, atk := range w.Attacks {
		if atk.Kind != action.KindWeaponAttack {
			violations = append(violations, fmt.Sprintf("attack %s must be a weapon attack, got %s", atk.Name, atk.Kind))
		}
		if err := atk.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("weapon %q invalid: %s", w.Name, strings.Join(violations, "; "))
	}
	return nil
}

// UnmarshalJSON decodes a weapon strictly.
//
// Postcondition: on success the weapon passes Validate.
func (w *Weapon) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name          string               `json:"name"`
		Description   string               `json:"description"`
		HandsRequired int                  `json:"hands_required"`
		Attacks       []*action.Definition `json:"attacks"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s shadow
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("decoding weapon: %w", err)
	}

	w.Name = s.Name
	w.Description = s.Description
	w.HandsRequired = s.HandsRequired
	w.Attacks = s.Attacks

	return w.Validate()
}
