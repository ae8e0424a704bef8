package combat

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// DefaultMaxRounds stops a stalemate encounter that never wipes a side.
const DefaultMaxRounds = 50

// decisionsPerTurnCap bounds one combatant's decisions in a single turn, in
// case a brain keeps choosing free actions.
const decisionsPerTurnCap = 8

// Brain chooses what a combatant does with their turn. Implementations
// select an action and targets but never mutate combat state; resolution is
// the orchestrator's job. Returning nil ends the turn.
type Brain interface {
	Decide(enc *Encounter, actor *character.Character) *Decision
}

// Decision is one chosen action use: what to use, the cast level for
// spells, and the targets.
type Decision struct {
	Action    *action.Definition
	MindLevel int
	Targets   []*character.Character
}

// Hooks are optional observation points for scripting and rendering. Nil
// fields are skipped.
type Hooks struct {
	EncounterStart func(enc *Encounter)
	RoundStart     func(enc *Encounter, round int)
	TurnEnd        func(enc *Encounter, actor *character.Character)
	EncounterEnd   func(enc *Encounter, report *Report)
}

// Event is one entry in the encounter log, in occurrence order.
type Event struct {
	Round     int     `json:"round"`
	Actor     string  `json:"actor,omitempty"`
	Action    string  `json:"action,omitempty"`
	Result    *Result `json:"result,omitempty"`
	Narrative string  `json:"narrative"`
}

// Report summarizes a finished encounter.
type Report struct {
	EncounterID string   `json:"encounter_id"`
	Rounds      int      `json:"rounds"`
	Victor      Side     `json:"victor"`
	Survivors   []string `json:"survivors,omitempty"`
	Events      []Event  `json:"events"`
}

func (r *Report) add(ev Event) {
	r.Events = append(r.Events, ev)
}

// Orchestrator drives encounters round by round: turn-start effects and
// action-economy reset, decisions resolved through the resolver, then
// turn-end effect and cooldown decay.
type Orchestrator struct {
	// Hooks observe encounter lifecycle points.
	Hooks Hooks
	// MaxRounds caps the encounter length; DefaultMaxRounds when <= 0.
	MaxRounds int

	resolver *Resolver
	logger   *zap.Logger
}

// NewOrchestrator builds an orchestrator over the given resolver.
//
// Precondition: resolver and logger are non-nil.
func NewOrchestrator(resolver *Resolver, logger *zap.Logger) *Orchestrator {
	if resolver == nil {
		panic("combat: NewOrchestrator requires a non-nil resolver")
	}
	if logger == nil {
		panic("combat: NewOrchestrator requires a non-nil logger")
	}
	return &Orchestrator{resolver: resolver, logger: logger}
}

// Run drives enc until one side is wiped or the round ceiling is reached,
// consulting brain for every living combatant's decisions.
//
// Precondition: enc and brain are non-nil.
func (o *Orchestrator) Run(enc *Encounter, brain Brain) (*Report, error) {
	if enc == nil {
		panic("combat: Run requires a non-nil encounter")
	}
	if brain == nil {
		panic("combat: Run requires a non-nil brain")
	}

	report := &Report{EncounterID: enc.ID}
	if o.Hooks.EncounterStart != nil {
		o.Hooks.EncounterStart(enc)
	}

	maxRounds := o.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	for !enc.Over && enc.Round < maxRounds {
		o.RunRound(enc, brain, report)
	}

	report.Rounds = enc.Round
	report.Victor = enc.Victor()
	for _, c := range enc.Living() {
		report.Survivors = append(report.Survivors, c.Name())
	}
	switch report.Victor {
	case SideNone:
		o.logger.Warn("encounter stopped at round ceiling",
			zap.String("encounter", enc.ID), zap.Int("rounds", enc.Round))
		report.add(Event{Round: enc.Round,
			Narrative: fmt.Sprintf("The fight grinds to a stalemate after %d rounds.", enc.Round)})
	default:
		report.add(Event{Round: enc.Round,
			Narrative: fmt.Sprintf("The battle is over: %s remain standing.",
				strings.Join(report.Survivors, ", "))})
	}

	if o.Hooks.EncounterEnd != nil {
		o.Hooks.EncounterEnd(enc, report)
	}
	return report, nil
}

// RunRound advances enc by one full round, appending events to report.
// Callers wanting turn-by-turn control can drive rounds themselves instead
// of calling Run.
func (o *Orchestrator) RunRound(enc *Encounter, brain Brain, report *Report) {
	enc.Round++
	if o.Hooks.RoundStart != nil {
		o.Hooks.RoundStart(enc, enc.Round)
	}
	report.add(Event{Round: enc.Round, Narrative: fmt.Sprintf("Round %d begins.", enc.Round)})

	for _, actor := range enc.Order {
		if enc.Over {
			return
		}
		if !actor.IsAlive() {
			continue
		}
		o.runTurn(enc, brain, actor, report)
		enc.refreshOver()
	}
}

func (o *Orchestrator) runTurn(enc *Encounter, brain Brain, actor *character.Character, report *Report) {
	actor.TurnStart(enc.Round)

	if inst, prevented := actor.ActionsPrevented(); prevented {
		report.add(Event{Round: enc.Round, Actor: actor.Name(),
			Narrative: fmt.Sprintf("%s is incapacitated by %s and cannot act.",
				actor.Name(), inst.Def.Name)})
	} else {
		o.runDecisions(enc, brain, actor, report)
	}

	for _, tick := range actor.TurnUpdate() {
		if narrative := describeTick(actor.Name(), tick); narrative != "" {
			report.add(Event{Round: enc.Round, Actor: actor.Name(), Narrative: narrative})
		}
	}
	if !actor.IsAlive() {
		report.add(Event{Round: enc.Round, Actor: actor.Name(),
			Narrative: fmt.Sprintf("%s succumbs to their wounds.", actor.Name())})
		enc.refreshOver()
	}

	if o.Hooks.TurnEnd != nil {
		o.Hooks.TurnEnd(enc, actor)
	}
}

func (o *Orchestrator) runDecisions(enc *Encounter, brain Brain, actor *character.Character, report *Report) {
	for i := 0; i < decisionsPerTurnCap && !actor.TurnDone() && !enc.Over; i++ {
		d := brain.Decide(enc, actor)
		if d == nil {
			return
		}
		events, err := o.execute(enc, actor, d)
		if err != nil {
			o.logger.Warn("decision could not be resolved",
				zap.String("actor", actor.Name()),
				zap.Error(err))
			return
		}
		for _, ev := range events {
			report.add(ev)
		}
		actor.UseActionClass(d.Action.Class)
		enc.refreshOver()
	}
}

// execute resolves one decision. Weapon attacks repeat per the actor's
// attack routine, stopping early when the target falls or the attack goes
// on cooldown.
func (o *Orchestrator) execute(enc *Encounter, actor *character.Character, d *Decision) ([]Event, error) {
	def := d.Action
	if def == nil {
		return nil, fmt.Errorf("combat: decision carries no action")
	}

	if def.IsSpell() {
		res, err := o.resolver.ResolveSpell(actor, d.Targets, def, d.MindLevel)
		if err != nil {
			return nil, err
		}
		return []Event{{Round: enc.Round, Actor: actor.Name(), Action: def.Name,
			Result: res, Narrative: describeResult(def, res)}}, nil
	}

	if len(d.Targets) == 0 {
		return nil, &TargetingError{Actor: actor.Name(), Action: def.Name, Reason: "no target chosen"}
	}
	target := d.Targets[0]

	swings := 1
	if def.Kind == action.KindWeaponAttack {
		swings = actor.NumberOfAttacks()
	}

	var events []Event
	for s := 0; s < swings; s++ {
		if s > 0 && (!target.IsAlive() || actor.OnCooldown(def)) {
			break
		}
		res, err := o.resolver.ResolveAction(actor, target, def)
		if err != nil {
			if s == 0 {
				return nil, err
			}
			o.logger.Debug("attack routine cut short",
				zap.String("actor", actor.Name()),
				zap.String("action", def.Name),
				zap.Error(err))
			break
		}
		events = append(events, Event{Round: enc.Round, Actor: actor.Name(),
			Action: def.Name, Result: res, Narrative: describeResult(def, res)})
	}
	return events, nil
}

// describeResult renders one resolution as prose, one sentence per
// outcome.
func describeResult(def *action.Definition, res *Result) string {
	var sentences []string
	for i := range res.Outcomes {
		sentences = append(sentences, describeOutcome(def, &res.Outcomes[i]))
	}
	return strings.Join(sentences, " ")
}

func describeOutcome(def *action.Definition, o *Outcome) string {
	var b strings.Builder

	switch {
	case o.AttackDesc != "":
		if def.IsSpell() {
			fmt.Fprintf(&b, "%s casts %s at %s: rolled (%s) %d vs AC %d",
				o.Actor, o.Action, o.Target, o.AttackDesc, o.AttackTotal, o.TargetAC)
		} else {
			fmt.Fprintf(&b, "%s attacks %s with %s: rolled (%s) %d vs AC %d",
				o.Actor, o.Target, o.Action, o.AttackDesc, o.AttackTotal, o.TargetAC)
		}
		switch {
		case o.Fumble:
			b.WriteString(", fumble!")
		case !o.Hit:
			b.WriteString(", miss.")
		case o.Critical:
			fmt.Fprintf(&b, ", critical hit for %d damage.", o.DamageDealt)
		default:
			fmt.Fprintf(&b, ", hit for %d damage.", o.DamageDealt)
		}
	case o.HealDesc != "":
		fmt.Fprintf(&b, "%s casts %s on %s, restoring %d HP.",
			o.Actor, o.Action, o.Target, o.Healed)
	default:
		fmt.Fprintf(&b, "%s uses %s on %s.", o.Actor, o.Action, o.Target)
	}

	if len(o.EffectsApplied) > 0 {
		fmt.Fprintf(&b, " %s is affected by %s.", o.Target, strings.Join(o.EffectsApplied, ", "))
	}
	if len(o.EffectsRejected) > 0 {
		fmt.Fprintf(&b, " %s resists %s.", o.Target, strings.Join(o.EffectsRejected, ", "))
	}
	if o.TargetDefeated {
		fmt.Fprintf(&b, " %s is defeated!", o.Target)
	}
	return b.String()
}

// describeTick renders one turn-update event as prose. Trigger bookkeeping
// ticks stay out of the narrative.
func describeTick(owner string, t effect.TickEvent) string {
	name := ""
	if t.Effect != nil {
		name = t.Effect.Name
	}
	switch t.Kind {
	case effect.TickDamage:
		return fmt.Sprintf("%s takes %d damage from %s.", owner, t.Amount, name)
	case effect.TickHeal:
		return fmt.Sprintf("%s recovers %d HP from %s.", owner, t.Amount, name)
	case effect.TickExpired:
		return fmt.Sprintf("%s on %s expires.", name, owner)
	case effect.TickSaved:
		return fmt.Sprintf("%s shakes off %s.", owner, name)
	case effect.TickBroken:
		return fmt.Sprintf("%s is shaken out of %s.", owner, name)
	}
	return ""
}
