// Package character assembles the combat aggregate: ability scores, derived
// stats, hit point and mind pools, equipped gear, known actions and spells,
// the active-effect ledger, and the per-turn bookkeeping the orchestrator
// consumes. A Character is exclusively owned by its encounter and is not
// safe for concurrent use.
package character

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// ClassLevel records levels taken in one class. Multiclass characters carry
// several entries.
type ClassLevel struct {
	Class *content.Class
	Level int
}

// Sheet is the declarative statblock a Character is built from. Gear and
// known actions are attached after construction via Equip and Learn.
type Sheet struct {
	Name string
	Team rules.Team

	// Race may be nil for characters without racial traits.
	Race    *content.Race
	Classes []ClassLevel
	Stats   rules.AbilityScores

	// SpellcastingAbility selects the modifier behind the SPELLCASTING
	// expression variable. Empty means the modifier is 0.
	SpellcastingAbility rules.Ability

	// TotalHands bounds equipped gear; zero defaults to 2.
	TotalHands int

	// NumberOfAttacks is how many times a single weapon attack action
	// resolves; zero defaults to 1.
	NumberOfAttacks int

	Resistances     []rules.DamageType
	Vulnerabilities []rules.DamageType
	Immunities      []rules.DamageType
}

// Character is one combatant: identity, derived stats, vitals, gear, known
// actions, the active-effect ledger, and turn bookkeeping.
type Character struct {
	name string
	team rules.Team

	race    *content.Race
	classes []ClassLevel
	stats   rules.AbilityScores

	spellcastingAbility rules.Ability
	totalHands          int
	numberOfAttacks     int

	resistances     map[rules.DamageType]bool
	vulnerabilities map[rules.DamageType]bool
	immunities      map[rules.DamageType]bool

	armor   []*content.Armor
	weapons []*content.Weapon

	// actions and spells are keyed by lower-cased definition name.
	actions map[string]*action.Definition
	spells  map[string]*action.Definition

	hp   int
	mind int

	cooldowns map[string]int
	uses      map[string]int

	standardUsed bool
	bonusUsed    bool

	ledger *effect.Ledger
	logger *zap.Logger
}

// New constructs a Character from a sheet with full vitals and an empty
// ledger.
//
// Precondition: roller and logger must not be nil.
// Postcondition: on success the character's HP and Mind pools are at their
// maxima.
func New(sheet Sheet, roller *dice.Roller, limits effect.Limits, logger *zap.Logger) (*Character, error) {
	if roller == nil {
		panic("character: New requires a non-nil roller")
	}
	if logger == nil {
		panic("character: New requires a non-nil logger")
	}
	if err := validateSheet(sheet); err != nil {
		return nil, err
	}

	totalHands := sheet.TotalHands
	if totalHands == 0 {
		totalHands = 2
	}
	attacks := sheet.NumberOfAttacks
	if attacks == 0 {
		attacks = 1
	}

	c := &Character{
		name:                sheet.Name,
		team:                sheet.Team,
		race:                sheet.Race,
		classes:             append([]ClassLevel(nil), sheet.Classes...),
		stats:               sheet.Stats,
		spellcastingAbility: sheet.SpellcastingAbility,
		totalHands:          totalHands,
		numberOfAttacks:     attacks,
		resistances:         typeSet(sheet.Resistances),
		vulnerabilities:     typeSet(sheet.Vulnerabilities),
		immunities:          typeSet(sheet.Immunities),
		actions:             make(map[string]*action.Definition),
		spells:              make(map[string]*action.Definition),
		cooldowns:           make(map[string]int),
		uses:                make(map[string]int),
		logger:              logger,
	}
	c.ledger = effect.NewLedger(c, roller, limits, logger)
	c.hp = c.MaxHP()
	c.mind = c.MaxMind()
	return c, nil
}

func validateSheet(sheet Sheet) error {
	var violations []string
	if sheet.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if err := sheet.Team.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if len(sheet.Classes) == 0 {
		violations = append(violations, "at least one class level is required")
	}
	for i, cl := range sheet.Classes {
		if cl.Class == nil {
			violations = append(violations, fmt.Sprintf("class %d must not be nil", i))
			continue
		}
		if cl.Level < 1 {
			violations = append(violations, fmt.Sprintf("class %s level must be positive, got %d", cl.Class.Name, cl.Level))
		}
	}
	if err := sheet.Stats.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if sheet.SpellcastingAbility != "" {
		if err := sheet.SpellcastingAbility.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	if sheet.TotalHands < 0 {
		violations = append(violations, fmt.Sprintf("total hands must not be negative, got %d", sheet.TotalHands))
	}
	if sheet.NumberOfAttacks < 0 {
		violations = append(violations, fmt.Sprintf("number of attacks must not be negative, got %d", sheet.NumberOfAttacks))
	}
	for _, set := range [][]rules.DamageType{sheet.Resistances, sheet.Vulnerabilities, sheet.Immunities} {
		for _, t := range set {
			if err := t.Validate(); err != nil {
				violations = append(violations, err.Error())
			}
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("character sheet invalid: %s", strings.Join(violations, "; "))
	}
	return nil
}

func typeSet(types []rules.DamageType) map[rules.DamageType]bool {
	set := make(map[rules.DamageType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// Name returns the character's display name.
func (c *Character) Name() string { return c.name }

// Rename gives the character a scenario instance name, so two spawns of the
// same statblock stay distinguishable. Initiative records and effect sources
// key on the name, so renaming must happen before the character joins an
// encounter.
//
// Precondition: name is non-empty.
func (c *Character) Rename(name string) {
	if name == "" {
		panic("character: Rename requires a non-empty name")
	}
	c.name = name
}

// Team returns which side of the encounter the character fights for.
func (c *Character) Team() rules.Team { return c.team }

// Race returns the character's race, or nil.
func (c *Character) Race() *content.Race { return c.race }

// Classes returns the character's class levels.
func (c *Character) Classes() []ClassLevel { return c.classes }

// Stats returns the character's ability scores.
func (c *Character) Stats() rules.AbilityScores { return c.stats }

// Ledger returns the character's active-effect ledger.
func (c *Character) Ledger() *effect.Ledger { return c.ledger }

// NumberOfAttacks is how many times one weapon attack action resolves.
func (c *Character) NumberOfAttacks() int { return c.numberOfAttacks }

// TotalHands returns how many hands the character has for gear.
func (c *Character) TotalHands() int { return c.totalHands }

// Level returns the total character level across classes.
func (c *Character) Level() int {
	total := 0
	for _, cl := range c.classes {
		total += cl.Level
	}
	return total
}

// IsAlive reports whether the character has hit points remaining.
func (c *Character) IsAlive() bool { return c.hp > 0 }

// HP returns current hit points.
func (c *Character) HP() int { return c.hp }

// Mind returns current mind points.
func (c *Character) Mind() int { return c.mind }

// MaxHP is the hit point maximum: per class, levels times the class HP
// gain plus the Constitution modifier, plus any active HP bonus. The value
// is derived on demand so fortifying effects raise it while they last.
func (c *Character) MaxHP() int {
	con := c.stats.Modifier(rules.AbilityConstitution)
	total := 0
	for _, cl := range c.classes {
		total += cl.Level * (cl.Class.HPMult + con)
	}
	return total + c.ledger.Modifier(rules.BonusHP)
}

// MaxMind is the mind point maximum: per class, levels times the class
// mind gain plus the spellcasting modifier, plus any active Mind bonus.
func (c *Character) MaxMind() int {
	spell := c.SpellcastingModifier()
	total := 0
	for _, cl := range c.classes {
		total += cl.Level * (cl.Class.MindMult + spell)
	}
	return total + c.ledger.Modifier(rules.BonusMind)
}

// SpellcastingModifier returns the modifier of the character's spellcasting
// ability, or 0 when no ability is set.
func (c *Character) SpellcastingModifier() int {
	if c.spellcastingAbility == "" {
		return 0
	}
	return c.stats.Modifier(c.spellcastingAbility)
}

// AC derives the armor class. Unarmored it is 10 plus the Dexterity
// modifier; worn armor replaces that base with the sum of each piece's
// contribution. Racial natural armor and the active AC bonus always add.
func (c *Character) AC() int {
	dex := c.stats.Modifier(rules.AbilityDexterity)
	base := 10 + dex
	if len(c.armor) > 0 {
		base = 0
		for _, a := range c.armor {
			base += a.ACBonus(dex)
		}
	}
	natural := 0
	if c.race != nil {
		natural = c.race.NaturalAC
	}
	return base + natural + c.ledger.Modifier(rules.BonusAC)
}

// Initiative is the Dexterity modifier plus the active initiative bonus.
func (c *Character) Initiative() int {
	return c.stats.Modifier(rules.AbilityDexterity) + c.ledger.Modifier(rules.BonusInitiative)
}

// SpellAttackBonus is the flat to-hit bonus for a spell cast at the given
// mind level.
func (c *Character) SpellAttackBonus(mindLevel int) int {
	return c.SpellcastingModifier() + mindLevel
}

// ConcentrationLimit is how many concentration effects the character can
// maintain at once. Never below 1.
func (c *Character) ConcentrationLimit() int {
	base := 1 + floorHalf(c.SpellcastingModifier())
	if base < 1 {
		base = 1
	}
	limit := base + c.ledger.Modifier(rules.BonusConcentration)
	if limit < 1 {
		limit = 1
	}
	return limit
}

// floorHalf halves toward negative infinity, so -3 gives -2.
func floorHalf(n int) int {
	if n < 0 && n%2 != 0 {
		return n/2 - 1
	}
	return n / 2
}

// Env returns the character's expression bindings: SPELLCASTING, the six
// ability modifiers, and LEVEL. Cast-time bindings such as MIND layer in
// front via With.
func (c *Character) Env() dice.Env {
	env := make(dice.Env, 0, len(rules.Abilities)+2)
	env = append(env, dice.Var{Name: "SPELLCASTING", Value: c.SpellcastingModifier()})
	env = append(env, c.stats.Env()...)
	env = append(env, dice.Var{Name: "LEVEL", Value: c.Level()})
	return env
}

// ActionsPrevented reports the active incapacitation stopping the character
// from acting, if any.
func (c *Character) ActionsPrevented() (*effect.Active, bool) {
	return c.ledger.ActionsPrevented()
}

// String renders a compact status line.
func (c *Character) String() string {
	return fmt.Sprintf("%s [%s] HP %d/%d AC %d", c.name, c.team, c.hp, c.MaxHP(), c.AC())
}
