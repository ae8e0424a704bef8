// Package dice provides the roll-expression engine for the Skirmish combat
// core: substitution of [NAME] variable tokens, extraction and rolling of NdM
// dice terms, and evaluation of the surrounding arithmetic under random,
// minimum, or maximum projection.
package dice

import "fmt"

// Safety bounds for a single dice term. Anything above these is rejected as
// unsafe rather than silently coerced to zero.
const (
	MaxDiceCount = 100
	MaxDiceSides = 1000
)

// Mode selects how dice terms are resolved during evaluation.
type Mode int

const (
	// ModeRandom rolls each die with the evaluation's Source.
	ModeRandom Mode = iota
	// ModeMin resolves every NdM term to N (all ones).
	ModeMin
	// ModeMax resolves every NdM term to N*M (all faces maxed).
	ModeMax
)

// RollOutcome holds the full audit trail for one expression evaluation.
// Produced fresh per evaluation; never cached.
//
// Postcondition: Rolls contains every individual die result in roll order,
// so Rolls[0] is the raw first die of the first dice term.
type RollOutcome struct {
	Expression  string // substituted expression that was evaluated
	Value       int    // final arithmetic result
	Description string // per-term rolled form, e.g. "[4 5]+3"
	Rolls       []int  // individual die results in roll order
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5]+3 = 12"
//
// Precondition: o.Expression is non-empty.
func (o RollOutcome) String() string {
	if o.Expression == "" {
		panic("dice: RollOutcome.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %s = %d", o.Expression, o.Description, o.Value)
}

// FirstDie returns the raw result of the first die rolled, or 0 when the
// expression contained no dice. Attack resolution reads this to detect
// naturals before any modifier arithmetic.
func (o RollOutcome) FirstDie() int {
	if len(o.Rolls) == 0 {
		return 0
	}
	return o.Rolls[0]
}

// IsNatural reports whether the raw first die equals n. Crit and fumble
// detection is IsNatural(20) / IsNatural(1) on a d20 roll.
func (o RollOutcome) IsNatural(n int) bool {
	return len(o.Rolls) > 0 && o.Rolls[0] == n
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
