package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

func skirmisher() *content.Class {
	return &content.Class{Name: "Skirmisher", HPMult: 10, MindMult: 4}
}

func testStats() rules.AbilityScores {
	return rules.AbilityScores{
		Strength: 16, Dexterity: 14, Constitution: 12,
		Intelligence: 10, Wisdom: 13, Charisma: 8,
	}
}

func testSheet() character.Sheet {
	return character.Sheet{
		Name:                "Vex",
		Team:                rules.TeamPlayer,
		Classes:             []character.ClassLevel{{Class: skirmisher(), Level: 3}},
		Stats:               testStats(),
		SpellcastingAbility: rules.AbilityWisdom,
	}
}

func newTestCharacter(t testing.TB, mutate func(*character.Sheet)) *character.Character {
	t.Helper()
	sheet := testSheet()
	if mutate != nil {
		mutate(&sheet)
	}
	roller := dice.NewLoggedRoller(dice.NewSeededSource(dice.SeedFor(sheet.Name)), zap.NewNop())
	c, err := character.New(sheet, roller, effect.DefaultLimits(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func bite() *action.Definition {
	return &action.Definition{
		Name:        "Bite",
		Kind:        action.KindWeaponAttack,
		Class:       rules.ClassStandard,
		Category:    rules.CategoryOffensive,
		Description: "No description.",
		AttackBonus: "[STR]",
		Damage:      []rules.DamageComponent{{Expr: "1d6+[STR]", Type: rules.DamagePiercing}},
	}
}

func quickMend() *action.Definition {
	return &action.Definition{
		Name:        "Quick Mend",
		Kind:        action.KindSpellHeal,
		Class:       rules.ClassBonus,
		Category:    rules.CategoryHealing,
		Description: "No description.",
		Level:       1,
		MindCost:    []int{2},
		HealExpr:    "1d4+[SPELLCASTING]",
	}
}

func TestNewRejectsBadSheets(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop())

	sheet := testSheet()
	sheet.Name = ""
	sheet.Classes = nil
	_, err := character.New(sheet, roller, effect.DefaultLimits(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must not be empty")
	assert.Contains(t, err.Error(), "at least one class level is required")

	sheet = testSheet()
	sheet.Stats.Dexterity = 0
	_, err = character.New(sheet, roller, effect.DefaultLimits(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEX must be between 1 and 30")
}

func TestDerivedStats(t *testing.T) {
	c := newTestCharacter(t, nil)

	assert.Equal(t, 3, c.Level())
	assert.Equal(t, 33, c.MaxHP(), "3 levels of (10 + CON 1)")
	assert.Equal(t, 33, c.HP())
	assert.Equal(t, 15, c.MaxMind(), "3 levels of (4 + WIS 1)")
	assert.Equal(t, 15, c.Mind())
	assert.Equal(t, 12, c.AC(), "unarmored 10 + DEX 2")
	assert.Equal(t, 2, c.Initiative())
	assert.Equal(t, 1, c.SpellcastingModifier())
	assert.Equal(t, 3, c.SpellAttackBonus(2))
	assert.True(t, c.IsAlive())
}

func TestMulticlassPools(t *testing.T) {
	c := newTestCharacter(t, func(s *character.Sheet) {
		s.Classes = []character.ClassLevel{
			{Class: skirmisher(), Level: 2},
			{Class: &content.Class{Name: "Hedge Mage", HPMult: 6, MindMult: 8}, Level: 1},
		}
	})

	assert.Equal(t, 3, c.Level())
	assert.Equal(t, 29, c.MaxHP(), "2x(10+1) + 1x(6+1)")
	assert.Equal(t, 19, c.MaxMind(), "2x(4+1) + 1x(8+1)")
}

func TestACWithArmorAndRace(t *testing.T) {
	c := newTestCharacter(t, func(s *character.Sheet) {
		s.Race = &content.Race{Name: "Goblin", NaturalAC: 1}
	})
	assert.Equal(t, 13, c.AC(), "10 + DEX 2 + natural 1")

	require.NoError(t, c.EquipArmor(&content.Armor{
		Name: "Scale Shirt", AC: 14, Slot: content.SlotTorso,
		Type: content.ArmorMedium, MaxDexBonus: 1,
	}))
	assert.Equal(t, 16, c.AC(), "armor 14 + capped DEX 1 + natural 1")

	require.NoError(t, c.EquipArmor(&content.Armor{
		Name: "Oak Shield", AC: 2, Slot: content.SlotShield, Type: content.ArmorOther,
	}))
	assert.Equal(t, 18, c.AC())
}

func TestEnvBindings(t *testing.T) {
	c := newTestCharacter(t, nil)
	env := c.Env()

	for name, want := range map[string]int{
		"SPELLCASTING": 1, "STR": 3, "DEX": 2, "CON": 1,
		"INT": 0, "WIS": 1, "CHA": -1, "LEVEL": 3,
	} {
		got, ok := env.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	mind, ok := env.With("MIND", 2).Lookup("MIND")
	require.True(t, ok)
	assert.Equal(t, 2, mind)
}

func TestConcentrationLimit(t *testing.T) {
	c := newTestCharacter(t, nil)
	assert.Equal(t, 1, c.ConcentrationLimit(), "1 + floor(1/2)")

	strong := newTestCharacter(t, func(s *character.Sheet) {
		s.Name = "Sage"
		s.Stats.Wisdom = 18
	})
	assert.Equal(t, 3, strong.ConcentrationLimit(), "1 + floor(4/2)")

	dim := newTestCharacter(t, func(s *character.Sheet) {
		s.Name = "Brute"
		s.Stats.Wisdom = 4
	})
	assert.Equal(t, 1, dim.ConcentrationLimit(), "never below 1")

	_, err := c.Ledger().Add(c, &effect.Definition{
		Name: "Focused Mind", Duration: 3,
		Modifier: &effect.Modifier{Bonus: rules.BonusConcentration, Value: "2"},
	}, c.Env(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ConcentrationLimit())
}

func TestTakeDamageAdjustments(t *testing.T) {
	tests := []struct {
		name     string
		amount   int
		t        rules.DamageType
		adjusted int
	}{
		{"plain", 6, rules.DamageSlashing, 6},
		{"resisted halves down", 9, rules.DamageFire, 4},
		{"vulnerable doubles", 5, rules.DamageCold, 10},
		{"immune zeroes", 7, rules.DamagePoison, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCharacter(t, func(s *character.Sheet) {
				s.Resistances = []rules.DamageType{rules.DamageFire}
				s.Vulnerabilities = []rules.DamageType{rules.DamageCold}
				s.Immunities = []rules.DamageType{rules.DamagePoison}
			})
			base, adjusted, actual := c.TakeDamage(tt.amount, tt.t)
			assert.Equal(t, tt.amount, base)
			assert.Equal(t, tt.adjusted, adjusted)
			assert.Equal(t, tt.adjusted, actual, "full HP absorbs the whole packet")
			assert.Equal(t, 33-tt.adjusted, c.HP())
		})
	}
}

func TestTakeDamageFloorsAtZero(t *testing.T) {
	c := newTestCharacter(t, nil)
	base, adjusted, actual := c.TakeDamage(100, rules.DamageSlashing)
	assert.Equal(t, 100, base)
	assert.Equal(t, 100, adjusted)
	assert.Equal(t, 33, actual, "only the HP held can be lost")
	assert.Equal(t, 0, c.HP())
	assert.False(t, c.IsAlive())
}

func TestDamageBreaksSleep(t *testing.T) {
	c := newTestCharacter(t, func(s *character.Sheet) {
		s.Immunities = []rules.DamageType{rules.DamagePoison}
	})
	_, err := c.Ledger().Add(c, &effect.Definition{
		Name: "Lullaby", Duration: 5,
		Incapacitating: &effect.Incapacitating{Kind: rules.Sleeping},
	}, c.Env(), 0)
	require.NoError(t, err)
	_, prevented := c.ActionsPrevented()
	require.True(t, prevented)

	c.TakeDamage(6, rules.DamagePoison)
	_, prevented = c.ActionsPrevented()
	assert.True(t, prevented, "immune damage never lands, so the sleeper stays down")

	c.TakeDamage(3, rules.DamageSlashing)
	_, prevented = c.ActionsPrevented()
	assert.False(t, prevented)
}

func TestOnDamageTriggerSelfApplies(t *testing.T) {
	c := newTestCharacter(t, nil)
	_, err := c.Ledger().Add(c, &effect.Definition{
		Name: "Thorn Ward", Duration: effect.PermanentDuration,
		Trigger: &effect.Trigger{
			On: effect.OnDamageTaken,
			Effects: []*effect.Definition{{
				Name: "Braced", Duration: 2,
				Modifier: &effect.Modifier{Bonus: rules.BonusAC, Value: "2"},
			}},
		},
	}, c.Env(), 0)
	require.NoError(t, err)

	c.TakeDamage(4, rules.DamageSlashing)
	assert.True(t, c.Ledger().Has("Braced"))
	assert.Equal(t, 14, c.AC())
}

func TestLowHealthTriggerFires(t *testing.T) {
	c := newTestCharacter(t, nil)
	_, err := c.Ledger().Add(c, &effect.Definition{
		Name: "Survival Instinct", Duration: effect.PermanentDuration,
		Trigger: &effect.Trigger{
			On: effect.OnLowHealth,
			Effects: []*effect.Definition{{
				Name: "Adrenaline", Duration: 3,
				Modifier: &effect.Modifier{Bonus: rules.BonusInitiative, Value: "2"},
			}},
		},
	}, c.Env(), 0)
	require.NoError(t, err)

	c.TakeDamage(20, rules.DamageBludgeoning)
	assert.False(t, c.Ledger().Has("Adrenaline"), "13/33 is above the quarter threshold")

	c.TakeDamage(5, rules.DamageBludgeoning)
	assert.True(t, c.Ledger().Has("Adrenaline"), "8/33 crosses it")
	assert.Equal(t, 4, c.Initiative())
}

func TestHealClampsToCurrentMax(t *testing.T) {
	c := newTestCharacter(t, nil)
	c.TakeDamage(10, rules.DamageSlashing)
	assert.Equal(t, 7, c.Heal(7))
	assert.Equal(t, 3, c.Heal(20), "only the missing HP is restored")
	assert.Equal(t, 33, c.HP())

	// A fortifying effect raises the ceiling while it lasts; when it lapses
	// the pool keeps its value but further healing finds no room.
	_, err := c.Ledger().Add(c, &effect.Definition{
		Name: "Stoneskin", Duration: 2,
		Modifier: &effect.Modifier{Bonus: rules.BonusHP, Value: "10"},
	}, c.Env(), 0)
	require.NoError(t, err)
	assert.Equal(t, 43, c.MaxHP())
	assert.Equal(t, 10, c.Heal(20))

	c.TurnUpdate()
	c.TurnUpdate()
	assert.Equal(t, 33, c.MaxHP())
	assert.Equal(t, 43, c.HP())
	assert.Equal(t, 0, c.Heal(5))
}

func TestMindPool(t *testing.T) {
	c := newTestCharacter(t, nil)
	require.True(t, c.UseMind(5))
	assert.Equal(t, 10, c.Mind())
	assert.False(t, c.UseMind(20))
	assert.Equal(t, 10, c.Mind(), "a refused spend leaves the pool untouched")
	assert.Equal(t, 5, c.RegainMind(100))
	assert.Equal(t, 15, c.Mind())
}

func TestCooldownLifecycle(t *testing.T) {
	c := newTestCharacter(t, nil)
	d := bite()
	c.Learn(d)
	require.Len(t, c.AvailableActions(), 1)

	c.AddCooldown(d, 2)
	assert.True(t, c.OnCooldown(d))
	assert.Equal(t, 3, c.CooldownRemaining(d), "stored one high to survive this turn's update")
	assert.Empty(t, c.AvailableActions())

	c.TurnUpdate()
	c.TurnUpdate()
	assert.True(t, c.OnCooldown(d))
	c.TurnUpdate()
	assert.False(t, c.OnCooldown(d))
	assert.Len(t, c.AvailableActions(), 1)
}

func TestLimitedUses(t *testing.T) {
	c := newTestCharacter(t, nil)
	d := bite()
	d.Name = "Savage Bite"
	d.MaximumUses = 2
	c.Learn(d)

	assert.Equal(t, 2, c.RemainingUses(d))
	require.True(t, c.SpendUse(d))
	require.True(t, c.SpendUse(d))
	assert.Equal(t, 0, c.RemainingUses(d))
	assert.False(t, c.SpendUse(d))
	assert.Empty(t, c.AvailableActions(), "an exhausted action is no longer offered")

	unlimited := bite()
	c.Learn(unlimited)
	assert.Equal(t, -1, c.RemainingUses(unlimited))
	assert.True(t, c.SpendUse(unlimited))
}

func TestTurnFlagsAndTurnDone(t *testing.T) {
	c := newTestCharacter(t, nil)
	c.Learn(bite())
	c.Learn(quickMend())

	assert.False(t, c.TurnDone())
	c.UseActionClass(rules.ClassStandard)
	assert.False(t, c.TurnDone(), "a bonus-action spell is still on offer")
	c.UseActionClass(rules.ClassBonus)
	assert.True(t, c.TurnDone())

	c.TurnStart(2)
	assert.False(t, c.TurnDone())
	assert.True(t, c.HasActionClass(rules.ClassStandard))
	assert.True(t, c.HasActionClass(rules.ClassFree), "free actions never spend a slot")
}

func TestTurnDoneWithoutBonusOptions(t *testing.T) {
	c := newTestCharacter(t, nil)
	c.Learn(bite())
	c.UseActionClass(rules.ClassStandard)
	assert.True(t, c.TurnDone())
}

func TestAvailableSpellsMindGate(t *testing.T) {
	c := newTestCharacter(t, nil)
	c.Learn(quickMend())
	require.Len(t, c.AvailableSpells(), 1)

	require.True(t, c.UseMind(14))
	assert.Empty(t, c.AvailableSpells(), "1 mind cannot open a 2 mind cast")
	assert.Empty(t, c.AvailableActions(), "spells never appear among actions")
}

func TestEquipHands(t *testing.T) {
	c := newTestCharacter(t, nil)
	greatsword := &content.Weapon{Name: "Greatsword", HandsRequired: 2, Attacks: []*action.Definition{bite()}}
	require.NoError(t, c.EquipWeapon(greatsword))
	assert.Equal(t, 0, c.FreeHands())

	shield := &content.Armor{Name: "Oak Shield", AC: 2, Slot: content.SlotShield, Type: content.ArmorOther}
	err := c.EquipArmor(shield)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no free hand")

	require.True(t, c.UnequipWeapon("Greatsword"))
	assert.Equal(t, 2, c.FreeHands())
	require.NoError(t, c.EquipArmor(shield))
	assert.Equal(t, 1, c.FreeHands())
}

func TestArmorSlotConflict(t *testing.T) {
	c := newTestCharacter(t, nil)
	require.NoError(t, c.EquipArmor(&content.Armor{
		Name: "Leather Jerkin", AC: 11, Slot: content.SlotTorso, Type: content.ArmorLight,
	}))
	err := c.EquipArmor(&content.Armor{
		Name: "Scale Shirt", AC: 14, Slot: content.SlotTorso, Type: content.ArmorMedium,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already wears armor in slot TORSO")
}

func TestArmorEffectsFollowEquip(t *testing.T) {
	c := newTestCharacter(t, nil)
	warded := &content.Armor{
		Name: "Runed Jerkin", AC: 11, Slot: content.SlotTorso, Type: content.ArmorLight,
		Effects: []*effect.Definition{{
			Name: "Warding Runes", Duration: effect.PermanentDuration,
			Modifier: &effect.Modifier{Bonus: rules.BonusAC, Value: "1"},
		}},
	}
	require.NoError(t, c.EquipArmor(warded))
	assert.True(t, c.Ledger().Has("Warding Runes"))
	assert.Equal(t, 14, c.AC(), "armor 11 + DEX 2 + runes 1")

	require.True(t, c.UnequipArmor("Runed Jerkin"))
	assert.False(t, c.Ledger().Has("Warding Runes"))
	assert.Equal(t, 12, c.AC())
}

func TestWeaponGrantsFollowEquip(t *testing.T) {
	c := newTestCharacter(t, nil)
	shortsword := &content.Weapon{Name: "Shortsword", HandsRequired: 1, Attacks: []*action.Definition{bite()}}
	require.NoError(t, c.EquipWeapon(shortsword))

	granted, ok := c.Knows("Shortsword - Bite")
	require.True(t, ok)
	assert.Equal(t, 1, granted.HandsRequired)
	_, ok = c.Knows("Bite")
	assert.False(t, ok, "only the prefixed grant is learned")

	require.True(t, c.UnequipWeapon("Shortsword"))
	_, ok = c.Knows("Shortsword - Bite")
	assert.False(t, ok)
}

func TestVitalsNeverLeaveBounds(t *testing.T) {
	types := []rules.DamageType{rules.DamageSlashing, rules.DamageFire, rules.DamageCold}
	rapid.Check(t, func(rt *rapid.T) {
		c := newTestCharacter(t, func(s *character.Sheet) {
			s.Resistances = []rules.DamageType{rules.DamageFire}
			s.Vulnerabilities = []rules.DamageType{rules.DamageCold}
		})
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(rt, "heal") {
				healed := c.Heal(rapid.IntRange(0, 40).Draw(rt, "amount"))
				require.GreaterOrEqual(rt, healed, 0)
			} else {
				hpBefore := c.HP()
				_, adjusted, actual := c.TakeDamage(rapid.IntRange(0, 40).Draw(rt, "amount"), rapid.SampledFrom(types).Draw(rt, "type"))
				require.LessOrEqual(rt, actual, adjusted)
				require.Equal(rt, hpBefore-actual, c.HP())
			}
			require.GreaterOrEqual(rt, c.HP(), 0)
			require.LessOrEqual(rt, c.HP(), c.MaxHP())
		}
	})
}
