package ai

import (
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// castOption is one affordable way to use an action: non-spells use the
// zero option, spells one option per payable cast level.
type castOption struct {
	level int
	cost  int
}

func castOptions(actor *character.Character, def *action.Definition) []castOption {
	if !def.IsSpell() {
		return []castOption{{}}
	}
	var opts []castOption
	for lvl := 1; lvl <= def.MaxMindLevel(); lvl++ {
		cost, err := def.MindCostAt(lvl)
		if err != nil || cost > actor.Mind() {
			continue
		}
		opts = append(opts, castOption{level: lvl, cost: cost})
	}
	return opts
}

// castEnv is the environment an action resolves in at one cast level.
func castEnv(actor *character.Character, level int) dice.Env {
	if level > 0 {
		return actor.Env().With("MIND", level)
	}
	return actor.Env()
}

// hpRatio returns current HP as a fraction of maximum; full health is 1.
func hpRatio(c *character.Character) float64 {
	if c.MaxHP() <= 0 {
		return 1
	}
	return float64(c.HP()) / float64(c.MaxHP())
}

// legalTargets filters pool down to the combatants def may target.
func legalTargets(def *action.Definition, actor *character.Character, pool []*character.Character) []*character.Character {
	var out []*character.Character
	for _, t := range pool {
		if def.CanTarget(actor, t) {
			out = append(out, t)
		}
	}
	return out
}

// benefits reports whether at least one of def's effects would change
// target's state if applied at this cast level.
func benefits(def *action.Definition, target *character.Character, env dice.Env, level int) bool {
	for _, e := range def.Effects {
		if target.Ledger().WouldBenefit(e, env, level) {
			return true
		}
	}
	return false
}

// usefulCount counts the targets def's effects would change.
func usefulCount(def *action.Definition, targets []*character.Character, env dice.Env, level int) int {
	n := 0
	for _, t := range targets {
		if benefits(def, t, env, level) {
			n++
		}
	}
	return n
}

// rankTargets orders candidates for one action at one cast level: targets
// the action's effects would benefit come first, and within each group the
// most wounded lead.
func rankTargets(def *action.Definition, candidates []*character.Character, env dice.Env, level int) []*character.Character {
	type entry struct {
		target *character.Character
		useful bool
		ratio  float64
	}
	entries := make([]entry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, entry{target: c, useful: benefits(def, c, env, level), ratio: hpRatio(c)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].useful != entries[j].useful {
			return entries[i].useful
		}
		return entries[i].ratio < entries[j].ratio
	})
	out := make([]*character.Character, len(entries))
	for i, e := range entries {
		out[i] = e.target
	}
	return out
}

// damageComponents counts an attack's damage components, descending into
// multi-attack composites.
func damageComponents(def *action.Definition) int {
	n := len(def.Damage)
	for _, sub := range def.Attacks {
		n += damageComponents(sub)
	}
	return n
}
