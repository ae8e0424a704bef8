package character

import (
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// TurnStart begins the character's turn: action flags reset and turn-start
// triggers fire, with any yielded effects attaching to the character.
func (c *Character) TurnStart(turn int) {
	c.standardUsed = false
	c.bonusUsed = false
	c.selfApply(c.ledger.TurnStart(turn))
}

// TurnUpdate ends the character's turn: active effects tick and expire, and
// cooldowns count down. Returns the tick events for narration.
func (c *Character) TurnUpdate() []effect.TickEvent {
	events := c.ledger.TurnUpdate()
	for name, remaining := range c.cooldowns {
		if remaining <= 1 {
			delete(c.cooldowns, name)
			continue
		}
		c.cooldowns[name] = remaining - 1
	}
	return events
}

// UseActionClass marks the action-economy slot as spent for this turn. Free
// actions and reactions consume nothing.
func (c *Character) UseActionClass(class rules.ActionClass) {
	switch class {
	case rules.ClassStandard:
		c.standardUsed = true
	case rules.ClassBonus:
		c.bonusUsed = true
	}
}

// HasActionClass reports whether the action-economy slot is still open this
// turn.
func (c *Character) HasActionClass(class rules.ActionClass) bool {
	switch class {
	case rules.ClassStandard:
		return !c.standardUsed
	case rules.ClassBonus:
		return !c.bonusUsed
	}
	return true
}

// TurnDone reports whether the character has nothing left to do: the
// standard action is spent, and the bonus action too when any available
// action could use it.
func (c *Character) TurnDone() bool {
	if !c.standardUsed {
		return false
	}
	if c.bonusUsed {
		return true
	}
	for _, d := range c.AvailableActions() {
		if d.Class == rules.ClassBonus {
			return false
		}
	}
	for _, d := range c.AvailableSpells() {
		if d.Class == rules.ClassBonus {
			return false
		}
	}
	return true
}

// AddCooldown puts the action on cooldown for duration turns. The stored
// value is one higher so the cooldown survives the turn update that follows
// the action's own use. Re-adding while already on cooldown does nothing.
func (c *Character) AddCooldown(def *action.Definition, duration int) {
	if duration <= 0 {
		return
	}
	if _, exists := c.cooldowns[def.Name]; exists {
		return
	}
	c.cooldowns[def.Name] = duration + 1
}

// OnCooldown reports whether the action is cooling down.
func (c *Character) OnCooldown(def *action.Definition) bool {
	return c.cooldowns[def.Name] > 0
}

// CooldownRemaining returns the turns left on the action's cooldown, 0 when
// ready.
func (c *Character) CooldownRemaining(def *action.Definition) int {
	return c.cooldowns[def.Name]
}

// InitializeUses seeds the limited-use counter for a newly learned action.
// Unlimited actions are tracked as -1.
func (c *Character) InitializeUses(def *action.Definition) {
	if _, ok := c.uses[def.Name]; ok {
		return
	}
	if def.MaximumUses <= 0 {
		c.uses[def.Name] = -1
		return
	}
	c.uses[def.Name] = def.MaximumUses
}

// RemainingUses returns the uses left for the action, -1 for unlimited.
func (c *Character) RemainingUses(def *action.Definition) int {
	if def.MaximumUses <= 0 {
		return -1
	}
	return c.uses[def.Name]
}

// SpendUse consumes one use of a limited action, reporting whether one
// remained. Unlimited actions always succeed.
func (c *Character) SpendUse(def *action.Definition) bool {
	if def.MaximumUses <= 0 {
		return true
	}
	if c.uses[def.Name] <= 0 {
		return false
	}
	c.uses[def.Name]--
	return true
}

// AvailableActions returns the known non-spell actions the character can
// take right now: off cooldown, action-economy slot open, uses remaining.
// Sorted by name for deterministic choice.
func (c *Character) AvailableActions() []*action.Definition {
	return c.available(c.actions, func(*action.Definition) bool { return true })
}

// AvailableSpells returns the known spells castable right now, including
// the mind cost of their lowest level.
func (c *Character) AvailableSpells() []*action.Definition {
	return c.available(c.spells, func(d *action.Definition) bool {
		cost := 0
		if len(d.MindCost) > 0 {
			cost = d.MindCost[0]
		}
		return c.mind >= cost
	})
}

// AvailableAttacks returns the available weapon attacks.
func (c *Character) AvailableAttacks() []*action.Definition {
	var out []*action.Definition
	for _, d := range c.AvailableActions() {
		if d.Kind == action.KindWeaponAttack {
			out = append(out, d)
		}
	}
	return out
}

func (c *Character) available(defs map[string]*action.Definition, ok func(*action.Definition) bool) []*action.Definition {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []*action.Definition
	for _, name := range names {
		d := defs[name]
		if c.OnCooldown(d) || !c.HasActionClass(d.Class) {
			continue
		}
		if c.RemainingUses(d) == 0 {
			continue
		}
		if !ok(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}
