package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

func testRegistry(t *testing.T) *content.Registry {
	t.Helper()
	r := content.NewRegistry()

	require.NoError(t, r.RegisterClass(&content.Class{
		Name: "Skirmisher", HPMult: 10, MindMult: 3,
		ActionsByLevel: map[int][]string{1: {"Shortsword - Stab"}},
		SpellsByLevel:  map[int][]string{2: {"Spark"}},
	}))
	require.NoError(t, r.RegisterRace(&content.Race{
		Name: "Goblin", NaturalAC: 1, DefaultActions: []string{"Bite"},
	}))
	require.NoError(t, r.RegisterAction(bite()))
	require.NoError(t, r.RegisterAction(&action.Definition{
		Name: "Spark", Kind: action.KindSpellAttack,
		Class: rules.ClassStandard, Category: rules.CategoryOffensive,
		Level: 1, MindCost: []int{2, 4},
		AttackBonus: "[SPELLCASTING]",
		Damage:      []rules.DamageComponent{{Expr: "1d6+[MIND]", Type: rules.DamageLightning}},
	}))
	require.NoError(t, r.RegisterWeapon(&content.Weapon{
		Name: "Shortsword", HandsRequired: 1,
		Attacks: []*action.Definition{{
			Name: "Stab", Kind: action.KindWeaponAttack,
			Class: rules.ClassStandard, Category: rules.CategoryOffensive,
			Damage: []rules.DamageComponent{{Expr: "1d6+[DEX]", Type: rules.DamagePiercing}},
		}},
	}))
	require.NoError(t, r.RegisterArmor(&content.Armor{
		Name: "Leather Jerkin", AC: 11, Slot: content.SlotTorso, Type: content.ArmorLight,
	}))
	require.NoError(t, r.RegisterMonster(&content.Monster{
		Name: "Gnarl", Race: "Goblin",
		Levels: map[string]int{"Skirmisher": 2},
		Stats: rules.AbilityScores{
			Strength: 14, Dexterity: 14, Constitution: 12,
			Intelligence: 13, Wisdom: 10, Charisma: 8,
		},
		SpellcastingAbility: rules.AbilityIntelligence,
		TotalHands:          2,
		NumberOfAttacks:     1,
		Resistances:         []rules.DamageType{rules.DamagePoison},
		Weapons:             []string{"Shortsword"},
		Armors:              []string{"Leather Jerkin"},
	}))
	require.NoError(t, r.Finalize())
	return r
}

func spawn(t *testing.T, r *content.Registry, name string, team rules.Team) *character.Character {
	t.Helper()
	roller := dice.NewLoggedRoller(dice.NewSeededSource(dice.SeedFor(name)), zap.NewNop())
	c, err := character.FromMonster(r, name, team, roller, effect.DefaultLimits(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestFromMonster(t *testing.T) {
	r := testRegistry(t)
	c := spawn(t, r, "Gnarl", rules.TeamEnemy)

	assert.Equal(t, "Gnarl", c.Name())
	assert.Equal(t, rules.TeamEnemy, c.Team())
	assert.Equal(t, 2, c.Level())
	assert.Equal(t, 22, c.MaxHP(), "2 levels of (10 + CON 1)")
	assert.Equal(t, 22, c.HP())
	assert.Equal(t, 8, c.MaxMind(), "2 levels of (3 + INT 1)")
	assert.Equal(t, 14, c.AC(), "jerkin 11 + DEX 2 + natural 1")
	assert.Equal(t, 1, c.SpellcastingModifier())

	_, ok := c.Knows("Bite")
	assert.True(t, ok, "race default")
	_, ok = c.Knows("Shortsword - Stab")
	assert.True(t, ok, "class grant resolved through the weapon prefix")
	spark, ok := c.Knows("Spark")
	require.True(t, ok, "class spell granted at level 2")
	assert.True(t, spark.IsSpell())
	assert.Len(t, c.Spells(), 1)
	assert.Len(t, c.Actions(), 2)

	assert.Equal(t, 1, c.FreeHands(), "the shortsword occupies one hand")
}

func TestFromMonsterUnknownName(t *testing.T) {
	r := testRegistry(t)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop())
	_, err := character.FromMonster(r, "Mistwalker", rules.TeamEnemy, roller, effect.DefaultLimits(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown monster "Mistwalker"`)
}

func TestFromMonsterTopsUpPoolsAfterGear(t *testing.T) {
	r := content.NewRegistry()
	require.NoError(t, r.RegisterClass(&content.Class{Name: "Warden", HPMult: 8}))
	require.NoError(t, r.RegisterRace(&content.Race{Name: "Troll"}))
	require.NoError(t, r.RegisterArmor(&content.Armor{
		Name: "Heartstone Plate", AC: 16, Slot: content.SlotTorso, Type: content.ArmorHeavy,
		Effects: []*effect.Definition{{
			Name: "Heartstone", Duration: effect.PermanentDuration,
			Modifier: &effect.Modifier{Bonus: rules.BonusHP, Value: "5"},
		}},
	}))
	require.NoError(t, r.RegisterMonster(&content.Monster{
		Name: "Gruk", Race: "Troll",
		Levels: map[string]int{"Warden": 1},
		Stats: rules.AbilityScores{
			Strength: 16, Dexterity: 8, Constitution: 14,
			Intelligence: 6, Wisdom: 10, Charisma: 6,
		},
		TotalHands:      2,
		NumberOfAttacks: 1,
		Armors:          []string{"Heartstone Plate"},
	}))
	require.NoError(t, r.Finalize())

	c := spawn(t, r, "Gruk", rules.TeamEnemy)
	assert.Equal(t, 15, c.MaxHP(), "(8 + CON 2) + heartstone 5")
	assert.Equal(t, 15, c.HP(), "spawns at the armored maximum")
}
