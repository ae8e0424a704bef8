package rules

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// DamageComponent pairs a roll expression with the damage type it deals.
// Attacks carry one or more components; each is rolled and adjusted
// independently against the target's resistances.
type DamageComponent struct {
	Expr string     `json:"expr" yaml:"expr"`
	Type DamageType `json:"type" yaml:"type"`
}

// Validate rejects empty expressions and unknown damage types.
func (c DamageComponent) Validate() error {
	if c.Expr == "" {
		return fmt.Errorf("rules: damage component has no roll expression")
	}
	return c.Type.Validate()
}

// MinValue projects the component's minimum under env.
func (c DamageComponent) MinValue(env dice.Env) (int, error) {
	return dice.EvalMin(c.Expr, env)
}

// MaxValue projects the component's maximum under env. The projection ranks
// effect strength and feeds AI scoring.
func (c DamageComponent) MaxValue(env dice.Env) (int, error) {
	return dice.EvalMax(c.Expr, env)
}

func (c DamageComponent) String() string {
	return fmt.Sprintf("%s %s", c.Expr, string(c.Type))
}

// MaxDamage sums the projected maxima of components under env. Components
// whose expressions do not resolve contribute zero, so a partially bound env
// still yields a usable ranking.
func MaxDamage(components []DamageComponent, env dice.Env) int {
	total := 0
	for _, c := range components {
		v, err := c.MaxValue(env)
		if err != nil {
			continue
		}
		total += v
	}
	return total
}
