package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

func TestOutcomeString(t *testing.T) {
	cases := []struct {
		name    string
		outcome combat.Outcome
		want    string
	}{
		{
			name: "hit",
			outcome: combat.Outcome{Actor: "Rask", Target: "Grub", Action: "Longsword",
				Hit: true, AttackDesc: "[15]+3", DamageDealt: 9},
			want: "Rask -> Grub [Longsword] hit for 9",
		},
		{
			name: "crit that defeats",
			outcome: combat.Outcome{Actor: "Rask", Target: "Grub", Action: "Longsword",
				Hit: true, Critical: true, AttackDesc: "[20]+3", DamageDealt: 27, TargetDefeated: true},
			want: "Rask -> Grub [Longsword] crit for 27 defeated",
		},
		{
			name: "miss",
			outcome: combat.Outcome{Actor: "Rask", Target: "Grub", Action: "Longsword",
				AttackDesc: "[4]+3"},
			want: "Rask -> Grub [Longsword] miss",
		},
		{
			name: "fumble",
			outcome: combat.Outcome{Actor: "Rask", Target: "Grub", Action: "Longsword",
				Fumble: true, AttackDesc: "[1]+3"},
			want: "Rask -> Grub [Longsword] fumble",
		},
		{
			name:    "heal",
			outcome: combat.Outcome{Actor: "Lyra", Target: "Rask", Action: "Mend", Healed: 6},
			want:    "Lyra -> Rask [Mend] healed 6",
		},
		{
			name: "buff",
			outcome: combat.Outcome{Actor: "Lyra", Target: "Lyra", Action: "War Cry",
				EffectsApplied: []string{"Emboldened", "Surging"}},
			want: "Lyra -> Lyra [War Cry] effects Emboldened, Surging",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.outcome.String())
		})
	}
}

func TestResultAggregates(t *testing.T) {
	res := &combat.Result{
		Action: "Firebolt",
		Outcomes: []combat.Outcome{
			{Target: "Grub", Hit: true, DamageDealt: 6, TargetDefeated: true},
			{Target: "Thag", Hit: true, DamageDealt: 5},
			{Target: "Anja"},
		},
	}

	assert.Equal(t, 11, res.DamageDealt(), "damage sums across outcomes")
	assert.Equal(t, []string{"Grub"}, res.Defeated())
}
