package scenario

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// Runner turns a scenario into a finished encounter report. Each run builds
// its own seeded roller, roster, and orchestrator, so runs never share
// PRNG state and the same scenario replays identically.
//
// A Runner drives one encounter at a time; the scripting callbacks are
// rebound per run.
type Runner struct {
	// Scripts dispatches encounter hooks when set; nil runs without them.
	Scripts *scripting.Manager

	registry *content.Registry
	limits   effect.Limits
	rules    combat.Config
	logger   *zap.Logger
}

// Result pairs the encounter report with the seed that produced it, so a
// run started from a label can still be replayed by number.
type Result struct {
	Report *combat.Report
	Seed   uint64
}

// NewRunner builds a runner over finalized content.
//
// Precondition: reg and logger are non-nil.
func NewRunner(reg *content.Registry, limits effect.Limits, rules combat.Config, logger *zap.Logger) *Runner {
	if reg == nil {
		panic("scenario: NewRunner requires a non-nil registry")
	}
	if logger == nil {
		panic("scenario: NewRunner requires a non-nil logger")
	}
	return &Runner{registry: reg, limits: limits, rules: rules, logger: logger}
}

// Run spawns the roster, loads the scenario's hook scripts, and drives the
// encounter to its report. Scripted narrations are merged into the report's
// event log by round.
//
// Precondition: scn is non-nil and has passed Validate.
func (r *Runner) Run(scn *Scenario) (*Result, error) {
	if scn == nil {
		panic("scenario: Run requires a non-nil scenario")
	}

	seed := scn.ResolveSeed()
	roller := dice.NewLoggedRoller(dice.NewSeededSource(seed), r.logger)
	r.logger.Info("scenario starting",
		zap.String("scenario", scn.Name),
		zap.Uint64("seed", seed),
		zap.Int("roster", len(scn.Roster)))

	combatants, err := scn.Spawn(r.registry, roller, r.limits, r.logger)
	if err != nil {
		return nil, err
	}

	engine := combat.NewEngine(roller, r.logger)
	enc, err := engine.Start(combatants)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scn.Name, err)
	}
	defer engine.End(enc.ID)

	var narrations []combat.Event
	if r.Scripts != nil {
		if paths := scn.ScriptPaths(); len(paths) > 0 {
			if err := r.Scripts.LoadEncounter(enc.ID, paths, 0); err != nil {
				return nil, err
			}
			defer r.Scripts.Unload(enc.ID)
		}
		r.bind(enc, scn.Name, &narrations)
	}

	orch := combat.NewOrchestrator(combat.NewResolver(roller, r.rules, r.logger), r.logger)
	orch.MaxRounds = scn.MaxRounds
	if r.Scripts != nil {
		orch.Hooks = r.hooks()
	}

	report, err := orch.Run(enc, ai.NewPlanner(r.logger))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scn.Name, err)
	}
	mergeNarrations(report, narrations)
	return &Result{Report: report, Seed: seed}, nil
}

// hooks adapts the orchestrator's lifecycle points to Lua hook dispatch.
func (r *Runner) hooks() combat.Hooks {
	return combat.Hooks{
		EncounterStart: func(enc *combat.Encounter) {
			r.Scripts.CallHook(enc.ID, scripting.HookEncounterStart, lua.LString(enc.ID))
		},
		RoundStart: func(enc *combat.Encounter, round int) {
			r.Scripts.CallHook(enc.ID, scripting.HookRoundStart, lua.LString(enc.ID), lua.LNumber(round))
		},
		TurnEnd: func(enc *combat.Encounter, actor *character.Character) {
			r.Scripts.CallHook(enc.ID, scripting.HookTurnEnd, lua.LString(enc.ID), lua.LString(actor.Name()))
		},
		EncounterEnd: func(enc *combat.Encounter, report *combat.Report) {
			r.Scripts.CallHook(enc.ID, scripting.HookEncounterEnd, lua.LString(enc.ID),
				lua.LString(string(report.Victor)), lua.LNumber(report.Rounds))
		},
	}
}

// scriptSource attributes script-applied effects in ledger logs; scripts
// are never knocked out, so the source is always alive.
type scriptSource string

func (s scriptSource) Name() string  { return string(s) }
func (s scriptSource) IsAlive() bool { return true }

// bind points the script manager's game callbacks at the running encounter.
func (r *Runner) bind(enc *combat.Encounter, scenarioName string, narrations *[]combat.Event) {
	m := r.Scripts

	m.GetCombatant = func(name string) *scripting.CombatantInfo {
		c, ok := enc.Combatant(name)
		if !ok {
			return nil
		}
		active := c.Ledger().Active()
		effects := make([]string, 0, len(active))
		for _, a := range active {
			effects = append(effects, a.Def.Name)
		}
		return &scripting.CombatantInfo{
			Name:    c.Name(),
			Team:    string(c.Team()),
			HP:      c.HP(),
			MaxHP:   c.MaxHP(),
			Mind:    c.Mind(),
			MaxMind: c.MaxMind(),
			AC:      c.AC(),
			Alive:   c.IsAlive(),
			Effects: effects,
		}
	}

	m.ApplyEffect = func(target, effectName string, mindLevel int) error {
		c, ok := enc.Combatant(target)
		if !ok {
			return fmt.Errorf("scenario: no combatant named %q", target)
		}
		def, ok := r.registry.Effect(effectName)
		if !ok {
			return fmt.Errorf("scenario: effect %q not registered", effectName)
		}
		env := c.Env()
		if mindLevel > 0 {
			env = env.With("MIND", mindLevel)
		}
		_, err := c.Ledger().Add(scriptSource(scenarioName), def, env, mindLevel)
		return err
	}

	m.DealDamage = func(target string, amount int, damageType string) (int, error) {
		c, ok := enc.Combatant(target)
		if !ok {
			return 0, fmt.Errorf("scenario: no combatant named %q", target)
		}
		if amount < 0 {
			return 0, fmt.Errorf("scenario: damage must not be negative, got %d", amount)
		}
		t := rules.DamageType(damageType)
		if damageType == "" {
			t = rules.DamageForce
		}
		if err := t.Validate(); err != nil {
			return 0, err
		}
		_, _, actual := c.TakeDamage(amount, t)
		return actual, nil
	}

	m.Heal = func(target string, amount int) (int, error) {
		c, ok := enc.Combatant(target)
		if !ok {
			return 0, fmt.Errorf("scenario: no combatant named %q", target)
		}
		return c.Heal(amount), nil
	}

	m.Narrate = func(text string) {
		*narrations = append(*narrations, combat.Event{Round: enc.Round, Narrative: text})
		r.logger.Info("scripted narration",
			zap.String("scenario", scenarioName),
			zap.String("text", text))
	}
}

// mergeNarrations interleaves scripted narration lines into the report's
// event log by round. The stable sort keeps each round's combat events
// ahead of the narrations scripted during it.
func mergeNarrations(report *combat.Report, narrations []combat.Event) {
	if len(narrations) == 0 {
		return
	}
	report.Events = append(report.Events, narrations...)
	sort.SliceStable(report.Events, func(i, j int) bool {
		return report.Events[i].Round < report.Events[j].Round
	})
}
