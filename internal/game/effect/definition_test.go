package effect_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

func TestDefinitionValidate_ExactlyOnePayload(t *testing.T) {
	empty := &effect.Definition{Name: "Hollow"}
	err := empty.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one payload")

	double := &effect.Definition{
		Name:            "Confused",
		Duration:        2,
		Modifier:        &effect.Modifier{Bonus: rules.BonusAC, Value: "2"},
		HealingOverTime: &effect.HealingOverTime{Heal: "1d4"},
	}
	err = double.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2")
}

func TestDefinitionValidate_Modifier(t *testing.T) {
	tests := []struct {
		name string
		def  *effect.Definition
		want string
	}{
		{
			name: "missing value expression",
			def: &effect.Definition{Name: "Blank", Duration: 2,
				Modifier: &effect.Modifier{Bonus: rules.BonusAC}},
			want: "value expression",
		},
		{
			name: "damage bonus without component",
			def: &effect.Definition{Name: "Untyped", Duration: 2,
				Modifier: &effect.Modifier{Bonus: rules.BonusDamage, Value: "1d6"}},
			want: "typed damage component",
		},
		{
			name: "typed damage on an AC bonus",
			def: &effect.Definition{Name: "Mixed", Duration: 2,
				Modifier: &effect.Modifier{Bonus: rules.BonusAC,
					Damage: &rules.DamageComponent{Expr: "1d6", Type: rules.DamageFire}}},
			want: "only legal on DAMAGE",
		},
		{
			name: "consume on hit outside damage",
			def: &effect.Definition{Name: "Flash", Duration: 2,
				Modifier: &effect.Modifier{Bonus: rules.BonusAttack, Value: "1d4", ConsumeOnHit: true}},
			want: "consume_on_hit",
		},
		{
			name: "instant modifier",
			def: &effect.Definition{Name: "Blink", Duration: 0,
				Modifier: &effect.Modifier{Bonus: rules.BonusAC, Value: "2"}},
			want: "permanent or positive",
		},
		{
			name: "unknown bonus type",
			def: &effect.Definition{Name: "Lucky", Duration: 2,
				Modifier: &effect.Modifier{Bonus: "LUCK", Value: "2"}},
			want: "unknown bonus type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefinitionValidate_Incapacitating(t *testing.T) {
	bad := &effect.Definition{Name: "Dazed", Duration: 1,
		Incapacitating: &effect.Incapacitating{Kind: "DIZZY"}}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown incapacitation kind")

	unbreakable := &effect.Definition{Name: "Hold", Duration: 2,
		Incapacitating: &effect.Incapacitating{Kind: rules.Paralyzed, DamageThreshold: 3}}
	err = unbreakable.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not break on damage")

	halfSave := &effect.Definition{Name: "Grip", Duration: 2,
		Incapacitating: &effect.Incapacitating{Kind: rules.Stunned, SaveExpr: "1d20"}}
	err = halfSave.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set together")

	good := &effect.Definition{Name: "Sleep", Duration: 3,
		Incapacitating: &effect.Incapacitating{Kind: rules.Sleeping, DamageThreshold: 1,
			SaveExpr: "1d20+[WIS]", SaveDC: 12}}
	require.NoError(t, good.Validate())
}

func TestDefinitionValidate_Trigger(t *testing.T) {
	tests := []struct {
		name string
		def  *effect.Definition
		want string
	}{
		{
			name: "unknown event",
			def: &effect.Definition{Name: "Odd", Duration: 3,
				Trigger: &effect.Trigger{On: "ON_TUESDAY",
					BonusDamage: []rules.DamageComponent{{Expr: "1d4", Type: rules.DamageFire}}}},
			want: "unknown trigger event",
		},
		{
			name: "threshold outside low health",
			def: &effect.Definition{Name: "Edgy", Duration: 3,
				Trigger: &effect.Trigger{On: effect.OnHit, Threshold: 0.5,
					BonusDamage: []rules.DamageComponent{{Expr: "1d4", Type: rules.DamageFire}}}},
			want: "only legal on ON_LOW_HEALTH",
		},
		{
			name: "no yields",
			def: &effect.Definition{Name: "Inert", Duration: 3,
				Trigger: &effect.Trigger{On: effect.OnHit}},
			want: "must yield",
		},
		{
			name: "nested trigger",
			def: &effect.Definition{Name: "Matryoshka", Duration: 3,
				Trigger: &effect.Trigger{On: effect.OnHit,
					Effects: []*effect.Definition{{Name: "Inner", Duration: 3,
						Trigger: &effect.Trigger{On: effect.OnHit,
							BonusDamage: []rules.DamageComponent{{Expr: "1", Type: rules.DamageFire}}}}}}},
			want: "cannot nest",
		},
		{
			name: "negative cooldown",
			def: &effect.Definition{Name: "Rewind", Duration: 3,
				Trigger: &effect.Trigger{On: effect.OnHit, Cooldown: -1,
					BonusDamage: []rules.DamageComponent{{Expr: "1d4", Type: rules.DamageFire}}}},
			want: "cooldown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefinitionKindAndString(t *testing.T) {
	poison := &effect.Definition{Name: "Poisoned", Duration: 3,
		DamageOverTime: &effect.DamageOverTime{Damage: rules.DamageComponent{Expr: "1d4", Type: rules.DamagePoison}}}
	require.NoError(t, poison.Validate())
	assert.Equal(t, effect.KindDamageOverTime, poison.Kind())
	assert.Equal(t, "Poisoned (3 turns)", poison.String())

	ward := &effect.Definition{Name: "Ward", Duration: effect.PermanentDuration,
		Modifier: &effect.Modifier{Bonus: rules.BonusAC, Value: "1"}}
	assert.True(t, ward.Permanent())
	assert.Equal(t, "Ward", ward.String())

	burst := &effect.Definition{Name: "Burst", Duration: 0,
		DamageOverTime: &effect.DamageOverTime{Damage: rules.DamageComponent{Expr: "2d6", Type: rules.DamageFire}}}
	assert.True(t, burst.Instant())
	assert.Equal(t, "Burst (instant)", burst.String())

	blink := &effect.Definition{Name: "Blink", Duration: 1,
		Incapacitating: &effect.Incapacitating{Kind: rules.Stunned}}
	assert.Equal(t, "Blink (1 turn)", blink.String())
}

func TestDefinitionJSON_StrictDecode(t *testing.T) {
	var def effect.Definition
	err := json.Unmarshal([]byte(`{
		"name": "Poisoned Blade",
		"description": "The wound festers.",
		"duration": 3,
		"damage_over_time": {"damage": {"expr": "1d4+[MIND]", "type": "POISON"}}
	}`), &def)
	require.NoError(t, err)
	assert.Equal(t, "Poisoned Blade", def.Name)
	assert.Equal(t, 3, def.Duration)
	assert.Equal(t, effect.KindDamageOverTime, def.Kind())

	err = json.Unmarshal([]byte(`{"name": "Typo", "duraton": 3,
		"healing_over_time": {"heal": "1d4"}}`), &def)
	require.Error(t, err, "unknown fields must be rejected")
	assert.Contains(t, err.Error(), "unknown field")
}

func TestDefinitionJSON_NullDurationIsPermanent(t *testing.T) {
	var def effect.Definition
	err := json.Unmarshal([]byte(`{"name": "Blessing",
		"modifier": {"bonus": "AC", "value": "1"}}`), &def)
	require.NoError(t, err)
	assert.True(t, def.Permanent())

	err = json.Unmarshal([]byte(`{"name": "Blessing", "duration": null,
		"modifier": {"bonus": "AC", "value": "1"}}`), &def)
	require.NoError(t, err)
	assert.True(t, def.Permanent())
}

func TestDefinitionJSON_NestedTriggerEffects(t *testing.T) {
	var def effect.Definition
	err := json.Unmarshal([]byte(`{
		"name": "Vengeful Brand",
		"duration": 5,
		"trigger": {
			"on": "ON_HIT",
			"consumes_on_trigger": true,
			"bonus_damage": [{"expr": "2d6", "type": "RADIANT"}],
			"effects": [
				{"name": "Seared", "duration": 2,
				 "damage_over_time": {"damage": {"expr": "1d4", "type": "FIRE"}}}
			]
		}
	}`), &def)
	require.NoError(t, err)
	require.Equal(t, effect.KindTrigger, def.Kind())
	require.Len(t, def.Trigger.Effects, 1)
	assert.Equal(t, "Seared", def.Trigger.Effects[0].Name)
	assert.Equal(t, effect.KindDamageOverTime, def.Trigger.Effects[0].Kind())

	err = json.Unmarshal([]byte(`{
		"name": "Broken Brand",
		"duration": 5,
		"trigger": {"on": "ON_HIT", "effects": [{"name": "Empty", "duration": 2}]}
	}`), &def)
	require.Error(t, err, "invalid nested effects must fail the whole decode")
}
