package character

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// TakeDamage applies one damage packet. Immunity zeroes it, resistance
// halves it, vulnerability doubles it; the three are exclusive with immunity
// winning. HP floors at 0. Damage-breakable incapacitations are notified
// before triggers fire, so a sleeping character wakes in time to react.
//
// Postcondition: actual is the HP actually lost, never more than the HP the
// character had.
func (c *Character) TakeDamage(amount int, t rules.DamageType) (base, adjusted, actual int) {
	base = amount
	adjusted = amount
	switch {
	case c.immunities[t]:
		adjusted = 0
	case c.resistances[t]:
		adjusted /= 2
	case c.vulnerabilities[t]:
		adjusted *= 2
	}
	if adjusted < 0 {
		adjusted = 0
	}
	actual = adjusted
	if actual > c.hp {
		actual = c.hp
	}
	c.hp -= actual

	c.ledger.NotifyDamage(adjusted)

	if c.IsAlive() && adjusted > 0 {
		c.selfApply(c.ledger.OnEvent(effect.Event{
			Kind:       effect.OnDamageTaken,
			Damage:     adjusted,
			DamageType: t,
		}))
		if maxHP := c.MaxHP(); maxHP > 0 {
			c.selfApply(c.ledger.OnEvent(effect.Event{
				Kind:    effect.OnLowHealth,
				HPRatio: float64(c.hp) / float64(maxHP),
			}))
		}
	}

	c.logger.Debug("damage taken",
		zap.String("character", c.name),
		zap.Int("base", base),
		zap.Int("adjusted", adjusted),
		zap.Int("actual", actual),
		zap.String("type", string(t)),
		zap.Int("hp", c.hp))
	return base, adjusted, actual
}

// Heal restores hit points up to the current maximum and returns the amount
// actually restored.
func (c *Character) Heal(amount int) int {
	if room := c.MaxHP() - c.hp; amount > room {
		amount = room
	}
	if amount < 0 {
		amount = 0
	}
	c.hp += amount
	return amount
}

// SetVitals pins the current HP and Mind pools, clamped to [0, MaxHP] and
// [0, MaxMind]. Scenario overrides use it to field pre-wounded or drained
// combatants without routing the difference through the damage pipeline.
func (c *Character) SetVitals(hp, mind int) {
	if hp > c.MaxHP() {
		hp = c.MaxHP()
	}
	if hp < 0 {
		hp = 0
	}
	if mind > c.MaxMind() {
		mind = c.MaxMind()
	}
	if mind < 0 {
		mind = 0
	}
	c.hp = hp
	c.mind = mind
}

// UseMind spends mind points, reporting whether the character had enough.
// The pool is never overdrawn.
func (c *Character) UseMind(amount int) bool {
	if amount < 0 {
		amount = 0
	}
	if c.mind < amount {
		return false
	}
	c.mind -= amount
	return true
}

// RegainMind restores mind points up to the current maximum and returns the
// amount actually restored.
func (c *Character) RegainMind(amount int) int {
	if room := c.MaxMind() - c.mind; amount > room {
		amount = room
	}
	if amount < 0 {
		amount = 0
	}
	c.mind += amount
	return amount
}

// selfApply attaches the effects yielded by trigger activations to the
// character itself. Rejections are logged and skipped; a trigger firing
// never aborts the event that fired it.
func (c *Character) selfApply(activations []effect.Activation) {
	for _, act := range activations {
		for _, def := range act.Effects {
			env := act.Env
			if env == nil {
				env = c.Env()
			}
			if _, err := c.ledger.Add(c, def, env, act.MindLevel); err != nil {
				c.logger.Warn("triggered effect not applied",
					zap.String("character", c.name),
					zap.String("effect", def.Name),
					zap.Error(err))
			}
		}
	}
}
