// Package combat resolves actions and runs encounters: the to-hit/damage/
// effect state machine for a single action use, initiative ordering, the
// round loop, and the engine that tracks live encounters.
package combat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Config carries the table rules the resolver honors.
type Config struct {
	// AutoHitOnCrit makes a natural 20 hit regardless of the total vs AC.
	AutoHitOnCrit bool
}

// DefaultConfig returns the standard table rules.
func DefaultConfig() Config {
	return Config{AutoHitOnCrit: true}
}

// Resolver turns one action use into per-target outcomes. It mutates the
// participants (HP, mind, cooldowns, ledgers) and is not safe for concurrent
// use on the same encounter.
type Resolver struct {
	roller *dice.Roller
	cfg    Config
	logger *zap.Logger
}

// NewResolver builds a resolver over the given roller.
//
// Precondition: roller and logger are non-nil.
func NewResolver(roller *dice.Roller, cfg Config, logger *zap.Logger) *Resolver {
	if roller == nil {
		panic("combat: NewResolver requires a non-nil roller")
	}
	if logger == nil {
		panic("combat: NewResolver requires a non-nil logger")
	}
	return &Resolver{roller: roller, cfg: cfg, logger: logger}
}

// ResolveAction resolves a non-spell action by actor against target: weapon
// attacks, multi-attacks, and abilities. The cooldown is committed before
// any roll, so a miss still spends it.
//
// Precondition: def is not a spell; spells resolve through ResolveSpell.
// Resolving while on cooldown is a caller contract violation and is
// rejected with a *ResourceError after logging at error level.
func (r *Resolver) ResolveAction(actor, target *character.Character, def *action.Definition) (*Result, error) {
	if actor == nil || target == nil {
		panic("combat: ResolveAction requires a non-nil actor and target")
	}
	if def == nil {
		panic("combat: ResolveAction requires a non-nil definition")
	}
	if def.IsSpell() {
		panic(fmt.Sprintf("combat: %s is a spell, resolve it with ResolveSpell", def.Name))
	}
	if !actor.IsAlive() {
		return nil, fmt.Errorf("combat: %s is down and cannot act", actor.Name())
	}
	if actor.OnCooldown(def) {
		r.logger.Error("action resolved while on cooldown",
			zap.String("actor", actor.Name()),
			zap.String("action", def.Name),
			zap.Int("remaining", actor.CooldownRemaining(def)))
		return nil, &ResourceError{Actor: actor.Name(), Action: def.Name, Cause: ErrOnCooldown}
	}
	if actor.RemainingUses(def) == 0 {
		return nil, &ResourceError{Actor: actor.Name(), Action: def.Name, Cause: ErrNoUsesLeft}
	}
	if !def.CanTarget(actor, target) {
		return nil, &TargetingError{Actor: actor.Name(), Action: def.Name,
			Target: target.Name(), Reason: targetingReason(target)}
	}

	actor.SpendUse(def)
	actor.AddCooldown(def, def.Cooldown)

	res := &Result{Action: def.Name}
	env := actor.Env()

	switch def.Kind {
	case action.KindWeaponAttack:
		o, err := r.attackOne(actor, target, def, def.AttackBonus, env, 0, nil)
		if err != nil {
			return nil, err
		}
		res.Outcomes = append(res.Outcomes, o)

	case action.KindMultiAttack:
		for _, sub := range def.Attacks {
			if !target.IsAlive() {
				break
			}
			o, err := r.attackOne(actor, target, sub, sub.AttackBonus, env, 0, nil)
			if err != nil {
				return nil, err
			}
			res.Outcomes = append(res.Outcomes, o)
		}

	case action.KindAbility:
		o, err := r.resolveAbility(actor, target, def, env)
		if err != nil {
			return nil, err
		}
		res.Outcomes = append(res.Outcomes, o)
	}
	return res, nil
}

// ResolveSpell resolves one cast at mindLevel against targets. The mind
// cost, cooldown, and use are committed exactly once for the whole cast;
// each target then resolves independently, so one rejected target never
// rolls back another's damage or effects.
//
// Insufficient mind rejects the cast without touching the cooldown.
func (r *Resolver) ResolveSpell(actor *character.Character, targets []*character.Character, def *action.Definition, mindLevel int) (*Result, error) {
	if actor == nil {
		panic("combat: ResolveSpell requires a non-nil actor")
	}
	if def == nil {
		panic("combat: ResolveSpell requires a non-nil definition")
	}
	if !def.IsSpell() {
		panic(fmt.Sprintf("combat: %s is not a spell, resolve it with ResolveAction", def.Name))
	}
	if !actor.IsAlive() {
		return nil, fmt.Errorf("combat: %s is down and cannot cast", actor.Name())
	}

	cost, err := def.MindCostAt(mindLevel)
	if err != nil {
		return nil, err
	}
	if actor.Mind() < cost {
		return nil, &ResourceError{Actor: actor.Name(), Action: def.Name,
			Cause: ErrInsufficientMind, Need: cost, Have: actor.Mind()}
	}
	if actor.OnCooldown(def) {
		r.logger.Error("spell resolved while on cooldown",
			zap.String("actor", actor.Name()),
			zap.String("spell", def.Name),
			zap.Int("remaining", actor.CooldownRemaining(def)))
		return nil, &ResourceError{Actor: actor.Name(), Action: def.Name, Cause: ErrOnCooldown}
	}
	if actor.RemainingUses(def) == 0 {
		return nil, &ResourceError{Actor: actor.Name(), Action: def.Name, Cause: ErrNoUsesLeft}
	}

	var legal []*character.Character
	for _, t := range targets {
		if def.CanTarget(actor, t) {
			legal = append(legal, t)
		} else if t != nil {
			r.logger.Warn("spell target skipped",
				zap.String("actor", actor.Name()),
				zap.String("spell", def.Name),
				zap.String("target", t.Name()))
		}
	}
	if len(legal) == 0 {
		return nil, &TargetingError{Actor: actor.Name(), Action: def.Name,
			Reason: "no legal target"}
	}

	actor.UseMind(cost)
	actor.SpendUse(def)
	actor.AddCooldown(def, def.Cooldown)

	env := actor.Env().With("MIND", mindLevel)
	res := &Result{Action: def.Name, MindLevel: mindLevel, MindSpent: cost}

	// Cast-time triggers fire once per cast. Their nested effects land on
	// the caster; their bonus damage rides the first hit of the volley.
	var pending []effect.DamageRider
	for _, act := range actor.Ledger().OnEvent(effect.Event{Kind: effect.OnSpellCast, Category: def.Category}) {
		pending = append(pending, act.BonusDamage...)
		for _, eff := range act.Effects {
			if _, err := actor.Ledger().Add(actor, eff, act.Env, act.MindLevel); err != nil {
				r.logger.Debug("cast trigger effect rejected",
					zap.String("actor", actor.Name()), zap.Error(err))
				continue
			}
			res.SelfEffects = append(res.SelfEffects, eff.Name)
		}
	}

	for _, target := range legal {
		var o Outcome
		switch def.Kind {
		case action.KindSpellAttack:
			bonus := strconv.Itoa(actor.SpellAttackBonus(def.Level))
			o, err = r.attackOne(actor, target, def, bonus, env, mindLevel, pending)
			pending = nil
		case action.KindSpellHeal:
			o, err = r.healOne(actor, target, def, env, mindLevel)
		default:
			o = r.effectsOnly(actor, target, def, env, mindLevel)
		}
		if err != nil {
			return nil, err
		}
		res.Outcomes = append(res.Outcomes, o)
	}
	return res, nil
}

// resolveAbility dispatches an ability by category. Offensive abilities roll
// to hit like attacks; healing abilities heal; the rest carry effects only.
func (r *Resolver) resolveAbility(actor, target *character.Character, def *action.Definition, env dice.Env) (Outcome, error) {
	switch def.Category {
	case rules.CategoryOffensive:
		return r.attackOne(actor, target, def, def.AttackBonus, env, 0, nil)
	case rules.CategoryHealing:
		return r.healOne(actor, target, def, env, 0)
	default:
		return r.effectsOnly(actor, target, def, env, 0), nil
	}
}

// attackOne runs the full attack state machine against one target: to-hit
// roll, natural detection, damage with crit re-roll and ledger riders, then
// effect application.
func (r *Resolver) attackOne(actor, target *character.Character, def *action.Definition, bonus string, env dice.Env, mindLevel int, extraRiders []effect.DamageRider) (Outcome, error) {
	o := Outcome{
		Actor:    actor.Name(),
		Target:   target.Name(),
		Action:   def.Name,
		TargetAC: target.AC(),
	}

	expr := toHitExpr(bonus, actor.Ledger().AttackExpressions())
	rolled, err := r.roller.RollAndDescribe(expr, env)
	if err != nil {
		return o, fmt.Errorf("combat: %s to-hit roll: %w", def.Name, err)
	}
	o.AttackRoll = rolled.FirstDie()
	o.AttackTotal = rolled.Value
	o.AttackDesc = rolled.Description
	o.Critical = rolled.IsNatural(20)
	o.Fumble = rolled.IsNatural(1)

	// The raw die decides the naturals; the fumble wins over everything.
	switch {
	case o.Fumble:
		o.Hit = false
	case o.Critical && r.cfg.AutoHitOnCrit:
		o.Hit = true
	default:
		o.Hit = o.AttackTotal >= o.TargetAC
	}
	if !o.Hit {
		r.logger.Debug("attack missed",
			zap.String("actor", o.Actor), zap.String("target", o.Target),
			zap.String("action", def.Name), zap.Int("total", o.AttackTotal),
			zap.Int("ac", o.TargetAC), zap.Bool("fumble", o.Fumble))
		return o, nil
	}

	// On-hit triggers fire before damage so their bonus damage rides this
	// hit. One-shot ledger riders are consumed by the collection itself.
	activations := actor.Ledger().OnEvent(effect.Event{Kind: effect.OnHit})
	riders := actor.Ledger().DamageRiders()
	riders = append(riders, extraRiders...)
	for _, act := range activations {
		riders = append(riders, act.BonusDamage...)
	}

	for _, c := range def.Damage {
		dealt, detail, err := r.damageComponent(target, c, env, o.Critical, "")
		if err != nil {
			return o, err
		}
		o.DamageDealt += dealt
		o.DamageBreakdown = append(o.DamageBreakdown, detail)
	}
	for _, rd := range riders {
		dealt, detail, err := r.damageComponent(target, rd.Damage, rd.Env, false, rd.Source)
		if err != nil {
			return o, err
		}
		o.DamageDealt += dealt
		o.DamageBreakdown = append(o.DamageBreakdown, detail)
	}

	for _, eff := range def.Effects {
		r.applyEffect(actor, target, eff, env, mindLevel, &o)
	}
	for _, act := range activations {
		for _, eff := range act.Effects {
			r.applyEffect(actor, target, eff, act.Env, act.MindLevel, &o)
		}
	}

	o.TargetDefeated = !target.IsAlive()
	r.logger.Debug("attack resolved",
		zap.String("actor", o.Actor), zap.String("target", o.Target),
		zap.String("action", def.Name), zap.Bool("critical", o.Critical),
		zap.Int("damage", o.DamageDealt), zap.Bool("defeated", o.TargetDefeated))
	return o, nil
}

// damageComponent rolls one component, re-rolls its dice terms on a crit,
// and applies the total to the target. The returned detail string carries
// the applied amount, any resistance adjustment, and the rolled form.
func (r *Resolver) damageComponent(target *character.Character, c rules.DamageComponent, env dice.Env, crit bool, source string) (int, string, error) {
	rolled, err := r.roller.RollAndDescribe(c.Expr, env)
	if err != nil {
		return 0, "", fmt.Errorf("combat: damage roll %q: %w", c.Expr, err)
	}
	value := rolled.Value
	desc := rolled.Description

	if crit {
		// A crit re-rolls the dice only; flat modifiers are not doubled.
		var extras []string
		for _, term := range dice.ExtractDiceTerms(dice.Substitute(c.Expr, env)) {
			extra, err := r.roller.RollAndDescribe(term, env)
			if err != nil {
				return 0, "", fmt.Errorf("combat: crit roll %q: %w", term, err)
			}
			value += extra.Value
			extras = append(extras, extra.Description)
		}
		if len(extras) > 0 {
			desc += " + crit " + strings.Join(extras, "+")
		}
	}

	base, adjusted, actual := target.TakeDamage(value, c.Type)

	detail := fmt.Sprintf("%d %s", actual, c.Type)
	switch {
	case adjusted < base:
		detail += fmt.Sprintf(" (reduced: %d → %d)", base, adjusted)
	case adjusted > base:
		detail += fmt.Sprintf(" (raised: %d → %d)", base, adjusted)
	}
	detail += fmt.Sprintf(" (%s)", desc)
	if source != "" {
		detail += fmt.Sprintf(" from %s", source)
	}
	return actual, detail, nil
}

// healOne rolls the heal expression and restores the target, clamped by
// their missing HP, then applies any carried effects.
func (r *Resolver) healOne(actor, target *character.Character, def *action.Definition, env dice.Env, mindLevel int) (Outcome, error) {
	o := Outcome{Actor: actor.Name(), Target: target.Name(), Action: def.Name}

	rolled, err := r.roller.RollAndDescribe(def.HealExpr, env)
	if err != nil {
		return o, fmt.Errorf("combat: %s heal roll: %w", def.Name, err)
	}
	o.Healed = target.Heal(rolled.Value)
	o.HealDesc = rolled.Description

	for _, eff := range def.Effects {
		r.applyEffect(actor, target, eff, env, mindLevel, &o)
	}
	r.logger.Debug("heal resolved",
		zap.String("actor", o.Actor), zap.String("target", o.Target),
		zap.String("action", def.Name), zap.Int("rolled", rolled.Value),
		zap.Int("healed", o.Healed))
	return o, nil
}

// effectsOnly applies the action's effects with no roll, the buff and
// debuff path.
func (r *Resolver) effectsOnly(actor, target *character.Character, def *action.Definition, env dice.Env, mindLevel int) Outcome {
	o := Outcome{Actor: actor.Name(), Target: target.Name(), Action: def.Name}
	for _, eff := range def.Effects {
		r.applyEffect(actor, target, eff, env, mindLevel, &o)
	}
	o.TargetDefeated = !target.IsAlive()
	return o
}

// applyEffect records an application as applied or rejected on the outcome.
// Instant resolutions fold their damage or healing into the outcome totals.
func (r *Resolver) applyEffect(source, target *character.Character, def *effect.Definition, env dice.Env, mindLevel int, o *Outcome) {
	res, err := target.Ledger().Add(source, def, env, mindLevel)
	if err != nil {
		o.EffectsRejected = append(o.EffectsRejected,
			fmt.Sprintf("%s (%s)", def.Name, rejectionReason(err)))
		r.logger.Debug("effect rejected",
			zap.String("source", source.Name()),
			zap.String("target", target.Name()),
			zap.String("effect", def.Name),
			zap.Error(err))
		return
	}

	applied := def.Name
	if res.Replaced != nil {
		applied = fmt.Sprintf("%s (replaces %s)", def.Name, res.Replaced.Def.Name)
	}
	o.EffectsApplied = append(o.EffectsApplied, applied)

	if t := res.Instant; t != nil {
		switch t.Kind {
		case effect.TickDamage:
			o.DamageDealt += t.Amount
			o.DamageBreakdown = append(o.DamageBreakdown, t.Description)
		case effect.TickHeal:
			o.Healed += t.Amount
		}
	}
}

// toHitExpr builds the attack roll: a d20, the action's own bonus, then
// every active attack modifier from the ledger.
func toHitExpr(bonus string, modifiers []string) string {
	expr := "1D20"
	if bonus != "" {
		expr += "+" + bonus
	}
	for _, m := range modifiers {
		if m != "" {
			expr += "+" + m
		}
	}
	return expr
}

func targetingReason(target *character.Character) string {
	if target != nil && !target.IsAlive() {
		return "target is down"
	}
	return "not a legal target"
}

// rejectionReason extracts the short reason from a ledger rejection for
// outcome messaging.
func rejectionReason(err error) string {
	var stacking *effect.StackingError
	if errors.As(err, &stacking) {
		return stacking.Reason
	}
	var targeting *effect.TargetingError
	if errors.As(err, &targeting) {
		return targeting.Reason
	}
	return err.Error()
}
