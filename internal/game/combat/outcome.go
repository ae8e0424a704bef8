package combat

import (
	"fmt"
	"strings"
)

// Outcome records one action resolution against one target.
type Outcome struct {
	Actor  string `json:"actor"`
	Target string `json:"target"`
	Action string `json:"action"`

	Hit      bool `json:"hit"`
	Critical bool `json:"critical,omitempty"`
	Fumble   bool `json:"fumble,omitempty"`

	// AttackRoll is the raw first d20; AttackTotal adds every modifier.
	AttackRoll  int    `json:"attack_roll,omitempty"`
	AttackTotal int    `json:"attack_total,omitempty"`
	AttackDesc  string `json:"attack_desc,omitempty"`
	TargetAC    int    `json:"target_ac,omitempty"`

	// DamageDealt is the HP actually removed, summed across components.
	DamageDealt     int      `json:"damage_dealt,omitempty"`
	DamageBreakdown []string `json:"damage_breakdown,omitempty"`

	// Healed is the HP actually restored after the missing-HP clamp.
	Healed   int    `json:"healed,omitempty"`
	HealDesc string `json:"heal_desc,omitempty"`

	EffectsApplied  []string `json:"effects_applied,omitempty"`
	EffectsRejected []string `json:"effects_rejected,omitempty"`

	TargetDefeated bool `json:"target_defeated,omitempty"`
}

func (o Outcome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s -> %s [%s]", o.Actor, o.Target, o.Action)
	switch {
	case o.Fumble:
		b.WriteString(" fumble")
	case o.Critical && o.Hit:
		fmt.Fprintf(&b, " crit for %d", o.DamageDealt)
	case o.Hit:
		fmt.Fprintf(&b, " hit for %d", o.DamageDealt)
	case o.AttackDesc != "":
		b.WriteString(" miss")
	}
	if o.Healed > 0 {
		fmt.Fprintf(&b, " healed %d", o.Healed)
	}
	if len(o.EffectsApplied) > 0 {
		fmt.Fprintf(&b, " effects %s", strings.Join(o.EffectsApplied, ", "))
	}
	if o.TargetDefeated {
		b.WriteString(" defeated")
	}
	return b.String()
}

// Result is the product of one action resolution: the resources committed
// once for the whole use, plus the per-target outcomes in resolution order.
type Result struct {
	Action    string `json:"action"`
	MindLevel int    `json:"mind_level,omitempty"`
	MindSpent int    `json:"mind_spent,omitempty"`

	// SelfEffects names effects a cast-time trigger placed on the actor.
	SelfEffects []string `json:"self_effects,omitempty"`

	Outcomes []Outcome `json:"outcomes"`
}

// DamageDealt sums the HP removed across all outcomes.
func (r *Result) DamageDealt() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.DamageDealt
	}
	return total
}

// Defeated lists the targets this resolution dropped.
func (r *Result) Defeated() []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.TargetDefeated {
			names = append(names, o.Target)
		}
	}
	return names
}
