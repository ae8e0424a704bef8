// Package rules holds the closed rule vocabulary shared by the combat core:
// team relationships, bonus and damage types, action classes and categories,
// incapacitation kinds, and damage components. Every enum here is a closed
// set; loaders reject values outside it instead of passing strings through.
package rules

import "fmt"

// Team identifies which side of an encounter a combatant fights for.
type Team string

const (
	TeamPlayer Team = "PLAYER"
	TeamAlly   Team = "ALLY"
	TeamEnemy  Team = "ENEMY"
)

// Opponents reports whether two teams are hostile to each other. Player and
// Ally are one side, Enemy the other.
func Opponents(a, b Team) bool {
	return a.side() != b.side()
}

func (t Team) side() int {
	if t == TeamEnemy {
		return 1
	}
	return 0
}

// Validate rejects values outside the closed team set.
func (t Team) Validate() error {
	switch t {
	case TeamPlayer, TeamAlly, TeamEnemy:
		return nil
	}
	return fmt.Errorf("rules: unknown team %q", string(t))
}

// BonusType names the stat a modifier effect adjusts. HP, Mind, and
// Concentration bonuses are additive across sources; AC and Initiative are
// exclusive (strongest single source applies); Attack and Damage contribute
// roll expressions.
type BonusType string

const (
	BonusHP            BonusType = "HP"
	BonusMind          BonusType = "MIND"
	BonusAC            BonusType = "AC"
	BonusInitiative    BonusType = "INITIATIVE"
	BonusAttack        BonusType = "ATTACK"
	BonusDamage        BonusType = "DAMAGE"
	BonusConcentration BonusType = "CONCENTRATION"
)

// Additive reports whether multiple active sources of this bonus type sum.
func (b BonusType) Additive() bool {
	return b == BonusHP || b == BonusMind || b == BonusConcentration
}

// Validate rejects values outside the closed bonus-type set.
func (b BonusType) Validate() error {
	switch b {
	case BonusHP, BonusMind, BonusAC, BonusInitiative, BonusAttack,
		BonusDamage, BonusConcentration:
		return nil
	}
	return fmt.Errorf("rules: unknown bonus type %q", string(b))
}

// DamageType classifies a damage component for resistance, vulnerability,
// and immunity adjustment.
type DamageType string

const (
	DamagePiercing    DamageType = "PIERCING"
	DamageSlashing    DamageType = "SLASHING"
	DamageBludgeoning DamageType = "BLUDGEONING"
	DamageFire        DamageType = "FIRE"
	DamageCold        DamageType = "COLD"
	DamageLightning   DamageType = "LIGHTNING"
	DamageThunder     DamageType = "THUNDER"
	DamagePoison      DamageType = "POISON"
	DamageNecrotic    DamageType = "NECROTIC"
	DamageRadiant     DamageType = "RADIANT"
	DamagePsychic     DamageType = "PSYCHIC"
	DamageForce       DamageType = "FORCE"
	DamageAcid        DamageType = "ACID"
)

// Validate rejects values outside the closed damage-type set.
func (d DamageType) Validate() error {
	switch d {
	case DamagePiercing, DamageSlashing, DamageBludgeoning, DamageFire,
		DamageCold, DamageLightning, DamageThunder, DamagePoison,
		DamageNecrotic, DamageRadiant, DamagePsychic, DamageForce, DamageAcid:
		return nil
	}
	return fmt.Errorf("rules: unknown damage type %q", string(d))
}

// ActionClass is the action-economy slot an action consumes.
type ActionClass string

const (
	ClassStandard ActionClass = "STANDARD"
	ClassBonus    ActionClass = "BONUS"
	ClassFree     ActionClass = "FREE"
	ClassReaction ActionClass = "REACTION"
)

// Validate rejects values outside the closed action-class set.
func (c ActionClass) Validate() error {
	switch c {
	case ClassStandard, ClassBonus, ClassFree, ClassReaction:
		return nil
	}
	return fmt.Errorf("rules: unknown action class %q", string(c))
}

// ActionCategory drives default targeting and AI intent.
type ActionCategory string

const (
	CategoryOffensive ActionCategory = "OFFENSIVE"
	CategoryHealing   ActionCategory = "HEALING"
	CategoryBuff      ActionCategory = "BUFF"
	CategoryDebuff    ActionCategory = "DEBUFF"
	CategoryUtility   ActionCategory = "UTILITY"
)

// Validate rejects values outside the closed category set.
func (c ActionCategory) Validate() error {
	switch c {
	case CategoryOffensive, CategoryHealing, CategoryBuff, CategoryDebuff, CategoryUtility:
		return nil
	}
	return fmt.Errorf("rules: unknown action category %q", string(c))
}

// TargetRestriction narrows an action's legal targets. Restrictions combine
// with OR logic; an action with none falls back to category defaults.
type TargetRestriction string

const (
	TargetSelf  TargetRestriction = "SELF"
	TargetAlly  TargetRestriction = "ALLY"
	TargetEnemy TargetRestriction = "ENEMY"
	TargetAny   TargetRestriction = "ANY"
)

// Validate rejects values outside the closed restriction set.
func (r TargetRestriction) Validate() error {
	switch r {
	case TargetSelf, TargetAlly, TargetEnemy, TargetAny:
		return nil
	}
	return fmt.Errorf("rules: unknown target restriction %q", string(r))
}

// IncapacitationKind names what an incapacitating effect does to its target.
type IncapacitationKind string

const (
	Paralyzed  IncapacitationKind = "PARALYZED"
	Stunned    IncapacitationKind = "STUNNED"
	Sleeping   IncapacitationKind = "SLEEP"
	Charmed    IncapacitationKind = "CHARMED"
	Frightened IncapacitationKind = "FRIGHTENED"
)

// DamageBreakable reports whether taking damage can end this kind.
func (k IncapacitationKind) DamageBreakable() bool {
	return k == Sleeping || k == Charmed
}

// PreventsActions reports whether the afflicted combatant loses their turn.
// Charmed and Frightened restrict choices rather than actions, which is the
// caller's concern.
func (k IncapacitationKind) PreventsActions() bool {
	return k == Paralyzed || k == Stunned || k == Sleeping
}

// Validate rejects values outside the closed incapacitation set.
func (k IncapacitationKind) Validate() error {
	switch k {
	case Paralyzed, Stunned, Sleeping, Charmed, Frightened:
		return nil
	}
	return fmt.Errorf("rules: unknown incapacitation kind %q", string(k))
}
