package effect

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Participant is the minimal view of a combatant the ledger needs to vet an
// application source.
type Participant interface {
	Name() string
	IsAlive() bool
}

// Owner is the character-facing surface the ledger drives during turn
// updates: DoT ticks deal damage through it, HoT ticks heal through it, and
// escape saves roll in its environment.
type Owner interface {
	Participant
	HP() int
	MaxHP() int
	TakeDamage(amount int, t rules.DamageType) (base, adjusted, actual int)
	Heal(amount int) int
	Env() dice.Env
}

// Limits caps how many effects of each kind one character can carry, and
// selects whether incapacitations of different kinds may coexist.
type Limits struct {
	MaxModifiers            int
	MaxDamageOverTime       int
	MaxHealingOverTime      int
	MaxTriggers             int
	IncapacitationExclusive bool
}

// DefaultLimits returns the standard ruleset caps.
func DefaultLimits() Limits {
	return Limits{
		MaxModifiers:       5,
		MaxDamageOverTime:  3,
		MaxHealingOverTime: 3,
		MaxTriggers:        3,
	}
}

// Ledger tracks the active effects on one character and enforces the
// stacking, replacement, and expiration rules. It is exclusively owned by
// its character and is not safe for concurrent use; the encounter serialises
// turns, so no two mutations interleave.
type Ledger struct {
	owner  Owner
	roller *dice.Roller
	limits Limits
	logger *zap.Logger

	active []*Active
	best   map[rules.BonusType]*Active
}

// NewLedger creates an empty ledger for owner. Rolls made on behalf of
// active effects (DoT ticks, modifier values, escape saves) go through
// roller.
// Precondition: owner, roller, and logger must not be nil.
func NewLedger(owner Owner, roller *dice.Roller, limits Limits, logger *zap.Logger) *Ledger {
	if owner == nil {
		panic("effect: NewLedger requires a non-nil owner")
	}
	if roller == nil {
		panic("effect: NewLedger requires a non-nil roller")
	}
	if logger == nil {
		panic("effect: NewLedger requires a non-nil logger")
	}
	return &Ledger{
		owner:  owner,
		roller: roller,
		limits: limits,
		logger: logger,
		best:   make(map[rules.BonusType]*Active),
	}
}

// AddResult reports what an application did: the instance created (nil for
// instant effects), any weaker modifier it evicted, any on-hit trigger it
// replaced, whether it refreshed an existing over-time instance instead of
// creating one, and the resolution of an instant effect.
type AddResult struct {
	Instance  *Active
	Evicted   *Active
	Replaced  *Active
	Refreshed bool
	Instant   *TickEvent
}

// Add applies def to the ledger's owner on behalf of source. env is the
// casting environment snapshot; mindLevel is the resource committed to the
// cast, carried for trigger yields.
//
// Both participants must be alive, then the kind-specific stacking policy
// decides: modifiers contest the existing holder of their bonus type by
// projected maximum (tie rejects, stronger evicts); over-time effects of the
// same definition refresh their duration instead of stacking; a second
// incapacitation of the same kind is rejected; a second on-hit trigger
// replaces the first. Rejections return *TargetingError or *StackingError.
//
// Postcondition: on a rejection the ledger is unchanged.
func (l *Ledger) Add(source Participant, def *Definition, env dice.Env, mindLevel int) (AddResult, error) {
	if def == nil {
		panic("effect: Add requires a non-nil definition")
	}
	if source == nil {
		panic("effect: Add requires a non-nil source")
	}
	if !source.IsAlive() {
		return AddResult{}, &TargetingError{Effect: def.Name, Target: l.owner.Name(),
			Reason: fmt.Sprintf("source %s is not alive", source.Name())}
	}
	if !l.owner.IsAlive() {
		return AddResult{}, &TargetingError{Effect: def.Name, Target: l.owner.Name(),
			Reason: "target is not alive"}
	}

	var res AddResult
	var err error
	switch def.Kind() {
	case KindModifier:
		res, err = l.addModifier(source, def, env, mindLevel)
	case KindDamageOverTime:
		res, err = l.addDamageOverTime(source, def, env, mindLevel)
	case KindHealingOverTime:
		res, err = l.addHealingOverTime(source, def, env, mindLevel)
	case KindIncapacitating:
		res, err = l.addIncapacitating(source, def, env, mindLevel)
	case KindTrigger:
		res, err = l.addTrigger(source, def, env, mindLevel)
	}
	if err != nil {
		return AddResult{}, err
	}

	l.rebuildIndex()
	l.logger.Debug("effect applied",
		zap.String("target", l.owner.Name()),
		zap.String("source", source.Name()),
		zap.String("effect", def.Name),
		zap.String("kind", def.Kind().String()),
		zap.Bool("refreshed", res.Refreshed))
	return res, nil
}

func (l *Ledger) addModifier(source Participant, def *Definition, env dice.Env, mindLevel int) (AddResult, error) {
	m := def.Modifier
	inst := newActive(def, source.Name(), env, mindLevel)

	projected, err := inst.strength()
	if err != nil {
		return AddResult{}, fmt.Errorf("projecting %q: %w", def.Name, err)
	}

	res := AddResult{Instance: inst}
	if m.ConsumeOnHit {
		// One-shot riders skip the contest but still occupy capacity.
		if l.Count(KindModifier) >= l.limits.MaxModifiers {
			return AddResult{}, &StackingError{Effect: def.Name,
				Reason: fmt.Sprintf("modifier capacity (%d) reached", l.limits.MaxModifiers)}
		}
	} else if current := l.best[m.Bonus]; current != nil {
		held, _ := current.strength()
		if projected <= held {
			return AddResult{}, &StackingError{Effect: def.Name, Blocker: current.Def.Name,
				Reason: fmt.Sprintf("projected %s %+d does not beat %+d", string(m.Bonus), projected, held)}
		}
		l.remove(current)
		res.Evicted = current
	} else if l.Count(KindModifier) >= l.limits.MaxModifiers {
		return AddResult{}, &StackingError{Effect: def.Name,
			Reason: fmt.Sprintf("modifier capacity (%d) reached", l.limits.MaxModifiers)}
	}

	// Numeric bonuses lock in their value now; attack and damage bonuses
	// keep contributing expressions to each affected roll.
	if m.Damage == nil && m.Bonus != rules.BonusAttack {
		rolled, err := l.roller.EvalRandom(m.Value, env)
		if err != nil {
			return AddResult{}, fmt.Errorf("rolling %q value: %w", def.Name, err)
		}
		inst.Rolled = rolled
	}

	l.active = append(l.active, inst)
	return res, nil
}

func (l *Ledger) addDamageOverTime(source Participant, def *Definition, env dice.Env, mindLevel int) (AddResult, error) {
	if source.Name() == l.owner.Name() {
		return AddResult{}, &TargetingError{Effect: def.Name, Target: l.owner.Name(),
			Reason: "damage over time cannot target its own caster"}
	}
	if def.Instant() {
		ev := l.tickDamage(newActive(def, source.Name(), env, mindLevel))
		return AddResult{Instant: ev}, nil
	}
	if existing := l.find(def.Name); existing != nil && existing.Def.Kind() == KindDamageOverTime {
		existing.Remaining = def.Duration
		return AddResult{Instance: existing, Refreshed: true}, nil
	}
	if l.Count(KindDamageOverTime) >= l.limits.MaxDamageOverTime {
		return AddResult{}, &StackingError{Effect: def.Name,
			Reason: fmt.Sprintf("damage over time capacity (%d) reached", l.limits.MaxDamageOverTime)}
	}
	inst := newActive(def, source.Name(), env, mindLevel)
	l.active = append(l.active, inst)
	return AddResult{Instance: inst}, nil
}

func (l *Ledger) addHealingOverTime(source Participant, def *Definition, env dice.Env, mindLevel int) (AddResult, error) {
	if def.Instant() {
		ev := l.tickHeal(newActive(def, source.Name(), env, mindLevel))
		return AddResult{Instant: ev}, nil
	}
	if existing := l.find(def.Name); existing != nil && existing.Def.Kind() == KindHealingOverTime {
		existing.Remaining = def.Duration
		return AddResult{Instance: existing, Refreshed: true}, nil
	}
	if l.Count(KindHealingOverTime) >= l.limits.MaxHealingOverTime {
		return AddResult{}, &StackingError{Effect: def.Name,
			Reason: fmt.Sprintf("healing over time capacity (%d) reached", l.limits.MaxHealingOverTime)}
	}
	inst := newActive(def, source.Name(), env, mindLevel)
	l.active = append(l.active, inst)
	return AddResult{Instance: inst}, nil
}

func (l *Ledger) addIncapacitating(source Participant, def *Definition, env dice.Env, mindLevel int) (AddResult, error) {
	for _, inst := range l.active {
		inc := inst.Def.Incapacitating
		if inc == nil {
			continue
		}
		if inc.Kind == def.Incapacitating.Kind {
			return AddResult{}, &StackingError{Effect: def.Name, Blocker: inst.Def.Name,
				Reason: fmt.Sprintf("target is already %s", string(inc.Kind))}
		}
		if l.limits.IncapacitationExclusive {
			return AddResult{}, &StackingError{Effect: def.Name, Blocker: inst.Def.Name,
				Reason: "another incapacitation is already active"}
		}
	}
	inst := newActive(def, source.Name(), env, mindLevel)
	l.active = append(l.active, inst)
	return AddResult{Instance: inst}, nil
}

func (l *Ledger) addTrigger(source Participant, def *Definition, env dice.Env, mindLevel int) (AddResult, error) {
	var res AddResult
	if def.Trigger.On == OnHit {
		for _, inst := range l.active {
			if inst.Def.Trigger != nil && inst.Def.Trigger.On == OnHit {
				l.remove(inst)
				res.Replaced = inst
				l.logger.Info("on-hit trigger replaced",
					zap.String("target", l.owner.Name()),
					zap.String("old", inst.Def.Name),
					zap.String("new", def.Name))
				break
			}
		}
	}
	if res.Replaced == nil && l.Count(KindTrigger) >= l.limits.MaxTriggers {
		return AddResult{}, &StackingError{Effect: def.Name,
			Reason: fmt.Sprintf("trigger capacity (%d) reached", l.limits.MaxTriggers)}
	}
	inst := newActive(def, source.Name(), env, mindLevel)
	l.active = append(l.active, inst)
	res.Instance = inst
	return res, nil
}

// Active returns a snapshot of the active instances in application order.
func (l *Ledger) Active() []*Active {
	out := make([]*Active, len(l.active))
	copy(out, l.active)
	return out
}

// Has reports whether an effect with the given definition name is active.
func (l *Ledger) Has(name string) bool {
	return l.find(name) != nil
}

// WouldBenefit reports whether applying def would change the owner's state:
// healing over time needs a wounded owner, over-time effects must not
// already be running, and a modifier must win its contest or have capacity.
// Planners use it to skip casts the stacking rules would reject or that
// would change nothing. The ledger itself is not modified.
func (l *Ledger) WouldBenefit(def *Definition, env dice.Env, mindLevel int) bool {
	switch def.Kind() {
	case KindHealingOverTime:
		return l.owner.HP() < l.owner.MaxHP() && !l.Has(def.Name)
	case KindDamageOverTime:
		return !l.Has(def.Name)
	case KindModifier:
		m := def.Modifier
		if m.ConsumeOnHit {
			return l.Count(KindModifier) < l.limits.MaxModifiers
		}
		current := l.best[m.Bonus]
		if current == nil {
			return l.Count(KindModifier) < l.limits.MaxModifiers
		}
		projected, err := newActive(def, l.owner.Name(), env, mindLevel).strength()
		if err != nil {
			return false
		}
		held, _ := current.strength()
		return projected > held
	}
	return true
}

// Count returns the number of active instances of one kind.
func (l *Ledger) Count(kind Kind) int {
	n := 0
	for _, inst := range l.active {
		if inst.Def.Kind() == kind {
			n++
		}
	}
	return n
}

// ActionsPrevented returns the incapacitating instance that denies the owner
// their turn, if any.
func (l *Ledger) ActionsPrevented() (*Active, bool) {
	for _, inst := range l.active {
		if inc := inst.Def.Incapacitating; inc != nil && inc.Kind.PreventsActions() {
			return inst, true
		}
	}
	return nil, false
}

// Incapacitations returns the kinds currently afflicting the owner.
func (l *Ledger) Incapacitations() []rules.IncapacitationKind {
	var kinds []rules.IncapacitationKind
	for _, inst := range l.active {
		if inc := inst.Def.Incapacitating; inc != nil {
			kinds = append(kinds, inc.Kind)
		}
	}
	return kinds
}

// Modifier returns the owner's active bonus for one numeric bonus type. HP
// and Mind contributions are additive across sources; AC and Initiative take
// the strongest single source. Attack and Damage bonuses contribute roll
// expressions, not numbers, so they report zero here; use AttackExpressions
// and DamageRiders instead.
func (l *Ledger) Modifier(b rules.BonusType) int {
	switch {
	case b.Additive():
		total := 0
		for _, inst := range l.active {
			if m := inst.Def.Modifier; m != nil && m.Bonus == b && !m.ConsumeOnHit {
				total += inst.Rolled
			}
		}
		return total
	case b == rules.BonusAttack || b == rules.BonusDamage:
		return 0
	default:
		if best := l.best[b]; best != nil {
			return best.Rolled
		}
		return 0
	}
}

// AttackExpressions returns the active attack-modifier expressions with each
// instance's casting environment already substituted, ready to fold into a
// to-hit roll.
func (l *Ledger) AttackExpressions() []string {
	var out []string
	for _, inst := range l.active {
		if m := inst.Def.Modifier; m != nil && m.Bonus == rules.BonusAttack {
			out = append(out, dice.Substitute(m.Value, inst.Env))
		}
	}
	return out
}

// DamageRiders returns the extra damage components to fold into the owner's
// next hit: the strongest persistent damage modifier per damage type, plus
// every one-shot consume-on-hit rider. One-shot riders are removed as they
// are collected, so each contributes to exactly one hit.
func (l *Ledger) DamageRiders() []DamageRider {
	strongest := make(map[rules.DamageType]*Active)
	var order []rules.DamageType
	var oneShots []*Active
	for _, inst := range l.active {
		m := inst.Def.Modifier
		if m == nil || m.Damage == nil {
			continue
		}
		if m.ConsumeOnHit {
			oneShots = append(oneShots, inst)
			continue
		}
		current := strongest[m.Damage.Type]
		if current == nil {
			strongest[m.Damage.Type] = inst
			order = append(order, m.Damage.Type)
			continue
		}
		held, _ := current.strength()
		candidate, _ := inst.strength()
		if candidate > held {
			strongest[m.Damage.Type] = inst
		}
	}

	var riders []DamageRider
	for _, t := range order {
		riders = append(riders, strongest[t].rider())
	}
	for _, inst := range oneShots {
		riders = append(riders, inst.rider())
		l.remove(inst)
	}
	if len(oneShots) > 0 {
		l.rebuildIndex()
	}
	return riders
}

// Remove drops the first active instance with the given definition name.
func (l *Ledger) Remove(name string) bool {
	inst := l.find(name)
	if inst == nil {
		return false
	}
	l.remove(inst)
	l.rebuildIndex()
	return true
}

// Clear drops every active instance. Used when an encounter ends.
func (l *Ledger) Clear() {
	l.active = nil
	l.best = make(map[rules.BonusType]*Active)
}

// OnEvent dispatches a combat event through the owner's triggers and returns
// the activations it produced. Activation yields are the caller's to spend:
// bonus damage folds into the attack being resolved, nested effects are
// applied through the appropriate ledger.
func (l *Ledger) OnEvent(ev Event) []Activation {
	return l.dispatch(ev)
}

// NotifyDamage breaks damage-breakable incapacitations once a single damage
// application reaches their threshold. Called by the owner from inside its
// damage path so a sleeping target wakes before anything else processes.
func (l *Ledger) NotifyDamage(amount int) []TickEvent {
	if amount <= 0 {
		return nil
	}
	var events []TickEvent
	for _, inst := range l.snapshot() {
		inc := inst.Def.Incapacitating
		if inc == nil || !inc.Kind.DamageBreakable() {
			continue
		}
		threshold := inc.DamageThreshold
		if threshold <= 0 {
			threshold = 1
		}
		if amount < threshold {
			continue
		}
		l.remove(inst)
		events = append(events, TickEvent{Effect: inst.Def, Kind: TickBroken, Amount: amount})
		l.logger.Info("incapacitation broken by damage",
			zap.String("target", l.owner.Name()),
			zap.String("effect", inst.Def.Name),
			zap.Int("damage", amount))
	}
	return events
}

// TurnStart resets per-turn trigger state, advances trigger cooldowns, and
// fires turn-start triggers. Called at the top of the owner's turn.
func (l *Ledger) TurnStart(turn int) []Activation {
	for _, inst := range l.active {
		if inst.Def.Trigger == nil {
			continue
		}
		inst.TriggeredThisTurn = false
		if inst.CooldownRemaining > 0 {
			inst.CooldownRemaining--
		}
	}
	return l.dispatch(Event{Kind: OnTurnStart, Turn: turn})
}

// TurnUpdate runs the end-of-turn phase: turn-end triggers fire, damage and
// healing over time resolve, incapacitation escape saves roll, and finite
// durations decrement with expired instances dropped. The returned events
// describe everything that happened, in order.
func (l *Ledger) TurnUpdate() []TickEvent {
	var events []TickEvent
	for _, act := range l.dispatch(Event{Kind: OnTurnEnd}) {
		a := act
		events = append(events, TickEvent{Effect: act.Source.Def, Kind: TickTriggered, Activation: &a})
	}

	for _, inst := range l.snapshot() {
		if !l.contains(inst) {
			continue
		}
		switch inst.Def.Kind() {
		case KindDamageOverTime:
			if ev := l.tickDamage(inst); ev != nil {
				events = append(events, *ev)
			}
		case KindHealingOverTime:
			if ev := l.tickHeal(inst); ev != nil {
				events = append(events, *ev)
			}
		case KindIncapacitating:
			if ev := l.tickSave(inst); ev != nil {
				events = append(events, *ev)
			}
		}
	}

	for _, inst := range l.snapshot() {
		if !l.contains(inst) || inst.Remaining <= 0 {
			continue
		}
		inst.Remaining--
		if inst.Remaining == 0 {
			l.remove(inst)
			events = append(events, TickEvent{Effect: inst.Def, Kind: TickExpired})
			l.logger.Debug("effect expired",
				zap.String("target", l.owner.Name()),
				zap.String("effect", inst.Def.Name))
		}
	}

	l.rebuildIndex()
	return events
}

func (l *Ledger) tickDamage(inst *Active) *TickEvent {
	dot := inst.Def.DamageOverTime
	outcome, err := l.roller.RollAndDescribe(dot.Damage.Expr, inst.Env)
	if err != nil {
		l.logger.Warn("damage over time roll failed",
			zap.String("effect", inst.Def.Name),
			zap.String("expression", dot.Damage.Expr),
			zap.Error(err))
		return nil
	}
	_, _, actual := l.owner.TakeDamage(outcome.Value, dot.Damage.Type)
	return &TickEvent{Effect: inst.Def, Kind: TickDamage, Amount: actual, Description: outcome.String()}
}

func (l *Ledger) tickHeal(inst *Active) *TickEvent {
	hot := inst.Def.HealingOverTime
	outcome, err := l.roller.RollAndDescribe(hot.Heal, inst.Env)
	if err != nil {
		l.logger.Warn("healing over time roll failed",
			zap.String("effect", inst.Def.Name),
			zap.String("expression", hot.Heal),
			zap.Error(err))
		return nil
	}
	actual := l.owner.Heal(outcome.Value)
	return &TickEvent{Effect: inst.Def, Kind: TickHeal, Amount: actual, Description: outcome.String()}
}

func (l *Ledger) tickSave(inst *Active) *TickEvent {
	inc := inst.Def.Incapacitating
	if inc.SaveExpr == "" {
		return nil
	}
	outcome, err := l.roller.RollAndDescribe(inc.SaveExpr, l.owner.Env())
	if err != nil {
		l.logger.Warn("escape save roll failed",
			zap.String("effect", inst.Def.Name),
			zap.String("expression", inc.SaveExpr),
			zap.Error(err))
		return nil
	}
	if outcome.Value < inc.SaveDC {
		return nil
	}
	l.remove(inst)
	return &TickEvent{Effect: inst.Def, Kind: TickSaved, Amount: outcome.Value, Description: outcome.String()}
}

func (l *Ledger) dispatch(ev Event) []Activation {
	var out []Activation
	for _, inst := range l.snapshot() {
		if !l.contains(inst) {
			continue
		}
		tr := inst.Def.Trigger
		if tr == nil {
			continue
		}
		if inst.Exhausted() {
			continue
		}
		if inst.CooldownRemaining > 0 {
			continue
		}
		if tr.OncePerTurn && inst.TriggeredThisTurn {
			continue
		}
		if !tr.met(ev) {
			continue
		}

		inst.TriggersUsed++
		inst.CooldownRemaining = tr.Cooldown
		if tr.OncePerTurn {
			inst.TriggeredThisTurn = true
		}

		act := Activation{
			Source:    inst,
			Effects:   tr.Effects,
			MindLevel: inst.MindLevel,
			Env:       inst.Env,
			Consumed:  tr.ConsumesOnTrigger,
		}
		for _, c := range tr.BonusDamage {
			act.BonusDamage = append(act.BonusDamage, DamageRider{
				Damage:    c,
				Env:       inst.Env,
				MindLevel: inst.MindLevel,
				Source:    inst.Def.Name,
			})
		}
		if tr.ConsumesOnTrigger {
			l.remove(inst)
		}
		l.logger.Debug("trigger activated",
			zap.String("target", l.owner.Name()),
			zap.String("effect", inst.Def.Name),
			zap.String("event", string(ev.Kind)),
			zap.Int("uses", inst.TriggersUsed),
			zap.Bool("consumed", tr.ConsumesOnTrigger))
		out = append(out, act)
	}
	return out
}

func (l *Ledger) find(name string) *Active {
	for _, inst := range l.active {
		if inst.Def.Name == name {
			return inst
		}
	}
	return nil
}

func (l *Ledger) snapshot() []*Active {
	out := make([]*Active, len(l.active))
	copy(out, l.active)
	return out
}

func (l *Ledger) contains(target *Active) bool {
	for _, inst := range l.active {
		if inst == target {
			return true
		}
	}
	return false
}

func (l *Ledger) remove(target *Active) {
	for i, inst := range l.active {
		if inst == target {
			l.active = append(l.active[:i], l.active[i+1:]...)
			return
		}
	}
}

func (l *Ledger) rebuildIndex() {
	l.best = make(map[rules.BonusType]*Active)
	for _, inst := range l.active {
		m := inst.Def.Modifier
		if m == nil || m.ConsumeOnHit {
			continue
		}
		candidate, err := inst.strength()
		if err != nil {
			continue
		}
		current, ok := l.best[m.Bonus]
		if !ok {
			l.best[m.Bonus] = inst
			continue
		}
		held, _ := current.strength()
		if candidate > held {
			l.best[m.Bonus] = inst
		}
	}
}

// Activation is one trigger firing: the yielded bonus damage and nested
// effects, paired with the mind level recorded when the trigger was applied.
// Bonus damage is meaningful for on-hit activations; nested effects are
// applied by the caller to whichever ledger the game rules direct.
type Activation struct {
	Source      *Active
	BonusDamage []DamageRider
	Effects     []*Definition
	MindLevel   int
	Env         dice.Env
	Consumed    bool
}

// TickKind classifies a turn-update event.
type TickKind string

const (
	TickDamage    TickKind = "damage"
	TickHeal      TickKind = "heal"
	TickExpired   TickKind = "expired"
	TickTriggered TickKind = "triggered"
	TickSaved     TickKind = "saved"
	TickBroken    TickKind = "broken"
)

// TickEvent describes one thing the ledger did during a turn phase, for the
// caller's rendering and logs.
type TickEvent struct {
	Effect      *Definition
	Kind        TickKind
	Amount      int
	Description string
	Activation  *Activation
}
