// Package ai decides combatant turns. The Planner surveys what the actor
// can do right now, scores each action, cast level, and target pairing,
// and commits to the best use in a fixed priority order: healing, buffs,
// debuffs, attack spells, weapon attacks.
package ai

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Planner is a deterministic combat.Brain: the same encounter state always
// yields the same decision, so seeded fights replay exactly.
type Planner struct {
	logger *zap.Logger
}

// NewPlanner constructs a Planner.
//
// Precondition: logger must not be nil.
func NewPlanner(logger *zap.Logger) *Planner {
	if logger == nil {
		panic("ai: NewPlanner requires a non-nil logger")
	}
	return &Planner{logger: logger}
}

// pick is one scored candidate use.
type pick struct {
	def     *action.Definition
	level   int
	targets []*character.Character
}

// Decide chooses the actor's next action use, or nil to end the turn.
//
// Precondition: enc and actor are non-nil; the orchestrator only consults
// brains for living, non-incapacitated actors.
func (p *Planner) Decide(enc *combat.Encounter, actor *character.Character) *combat.Decision {
	enemies := enc.Opponents(actor)
	if len(enemies) == 0 {
		return nil
	}
	allies := enc.Allies(actor)

	var heals, buffs, debuffs, attackSpells, attacks []*action.Definition
	for _, d := range append(actor.AvailableActions(), actor.AvailableSpells()...) {
		switch {
		case d.Category == rules.CategoryHealing:
			heals = append(heals, d)
		case d.Category == rules.CategoryBuff:
			buffs = append(buffs, d)
		case d.Category == rules.CategoryDebuff:
			debuffs = append(debuffs, d)
		case d.Kind == action.KindSpellAttack:
			attackSpells = append(attackSpells, d)
		case d.Category == rules.CategoryOffensive:
			attacks = append(attacks, d)
		}
	}

	for _, choose := range []func() *pick{
		func() *pick { return p.chooseHeal(actor, allies, heals) },
		func() *pick { return p.chooseSupport(actor, allies, buffs) },
		func() *pick { return p.chooseSupport(actor, enemies, debuffs) },
		func() *pick { return p.chooseAttackSpell(actor, enemies, attackSpells) },
		func() *pick { return p.chooseAttack(actor, enemies, attacks) },
	} {
		best := choose()
		if best == nil {
			continue
		}
		names := make([]string, 0, len(best.targets))
		for _, t := range best.targets {
			names = append(names, t.Name())
		}
		p.logger.Debug("turn decided",
			zap.String("actor", actor.Name()),
			zap.String("action", best.def.Name),
			zap.Int("mind_level", best.level),
			zap.Strings("targets", names))
		return &combat.Decision{Action: best.def, MindLevel: best.level, Targets: best.targets}
	}
	return nil
}

// chooseHeal picks the healing use restoring the most value: total HP
// missing across the chosen targets, ten per target an attached effect
// would help, minus the mind cost. Only wounded allies are considered,
// most wounded first.
func (p *Planner) chooseHeal(actor *character.Character, allies, defs []*action.Definition) *pick {
	var best *pick
	bestScore := -1.0
	for _, def := range defs {
		var pool []*character.Character
		for _, t := range legalTargets(def, actor, allies) {
			if t.HP() < t.MaxHP() {
				pool = append(pool, t)
			}
		}
		if len(pool) == 0 {
			continue
		}
		sort.SliceStable(pool, func(i, j int) bool { return hpRatio(pool[i]) < hpRatio(pool[j]) })

		for _, opt := range castOptions(actor, def) {
			env := castEnv(actor, opt.level)
			chosen := pool
			if limit := p.targetLimit(def, env); limit < len(chosen) {
				chosen = chosen[:limit]
			}
			missing := 0
			for _, t := range chosen {
				missing += t.MaxHP() - t.HP()
			}
			score := float64(missing + 10*usefulCount(def, chosen, env, opt.level) - opt.cost)
			if score > bestScore {
				bestScore = score
				best = &pick{def: def, level: opt.level, targets: chosen}
			}
		}
	}
	return best
}

// chooseSupport picks the buff or debuff whose effects would change the
// most targets, preferring cheaper casts. A use that would change nothing
// is never chosen.
func (p *Planner) chooseSupport(actor *character.Character, pool, defs []*action.Definition) *pick {
	var best *pick
	bestScore := -1.0
	for _, def := range defs {
		legal := legalTargets(def, actor, pool)
		if len(legal) == 0 {
			continue
		}
		for _, opt := range castOptions(actor, def) {
			env := castEnv(actor, opt.level)
			ranked := rankTargets(def, legal, env, opt.level)
			if limit := p.targetLimit(def, env); limit < len(ranked) {
				ranked = ranked[:limit]
			}
			useful := usefulCount(def, ranked, env, opt.level)
			if useful == 0 {
				continue
			}
			score := float64(useful*10 - opt.cost)
			if score > bestScore {
				bestScore = score
				best = &pick{def: def, level: opt.level, targets: ranked}
			}
		}
	}
	return best
}

// chooseAttackSpell picks the offensive spell hitting the most targets
// worth hitting for the least mind. A spell without rider effects counts
// every target it can reach.
func (p *Planner) chooseAttackSpell(actor *character.Character, enemies, defs []*action.Definition) *pick {
	var best *pick
	bestScore := -1.0
	for _, def := range defs {
		legal := legalTargets(def, actor, enemies)
		if len(legal) == 0 {
			continue
		}
		for _, opt := range castOptions(actor, def) {
			env := castEnv(actor, opt.level)
			ranked := rankTargets(def, legal, env, opt.level)
			if limit := p.targetLimit(def, env); limit < len(ranked) {
				ranked = ranked[:limit]
			}
			useful := usefulCount(def, ranked, env, opt.level)
			if len(def.Effects) == 0 {
				useful = len(ranked)
			}
			score := float64(useful*10 - opt.cost)
			if score > bestScore {
				bestScore = score
				best = &pick{def: def, level: opt.level, targets: ranked}
			}
		}
	}
	return best
}

// chooseAttack picks the best single attack and victim: ten for an effect
// the target lacks, up to ten for how close the target is to dropping, and
// one per damage component.
func (p *Planner) chooseAttack(actor *character.Character, enemies, defs []*action.Definition) *pick {
	env := actor.Env()
	var best *pick
	bestScore := -1.0
	for _, def := range defs {
		for _, target := range legalTargets(def, actor, enemies) {
			score := (1-hpRatio(target))*10 + float64(damageComponents(def))
			if len(def.Effects) > 0 && benefits(def, target, env, 0) {
				score += 10
			}
			if score > bestScore {
				bestScore = score
				best = &pick{def: def, targets: []*character.Character{target}}
			}
		}
	}
	return best
}

// targetLimit evaluates the action's target-count expression, falling back
// to a single target when the expression is broken.
func (p *Planner) targetLimit(def *action.Definition, env dice.Env) int {
	n, err := def.TargetCount(env)
	if err != nil {
		p.logger.Warn("target expression failed, assuming one target",
			zap.String("action", def.Name),
			zap.Error(err))
	}
	return n
}
