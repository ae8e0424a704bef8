package action

import "github.com/cory-johannsen/skirmish/internal/game/rules"

// Target is the view of a combatant the targeting rules need.
type Target interface {
	Name() string
	Team() rules.Team
	IsAlive() bool
	HP() int
	MaxHP() int
}

// CanTarget reports whether target is legal for this action performed by
// actor. Explicit restrictions are checked first with OR logic and widen the
// legal set; when none match, the category's default targeting decides.
// Dead participants are never legal on either side.
func (d *Definition) CanTarget(actor, target Target) bool {
	if actor == nil || target == nil {
		return false
	}
	if !actor.IsAlive() || !target.IsAlive() {
		return false
	}

	self := actor == target
	hostile := rules.Opponents(actor.Team(), target.Team())

	for _, r := range d.TargetRestrictions {
		switch r {
		case rules.TargetSelf:
			if self {
				return true
			}
		case rules.TargetAlly:
			if !hostile {
				return true
			}
		case rules.TargetEnemy:
			if hostile {
				return true
			}
		case rules.TargetAny:
			return true
		}
	}

	switch d.Category {
	case rules.CategoryOffensive:
		return !self && hostile
	case rules.CategoryHealing:
		// Healing defaults to self and allies, and only the wounded.
		return !hostile && target.HP() < target.MaxHP()
	case rules.CategoryBuff:
		return !hostile
	case rules.CategoryDebuff:
		return !self && hostile
	case rules.CategoryUtility:
		return true
	}
	return false
}
