package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so every evaluation leaves an audit line.
// All rolls are logged at debug level with expression, raw dice, and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to
// logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil || logger == nil {
		panic("dice: NewLoggedRoller requires a non-nil source and logger")
	}
	return &Roller{src: src, logger: logger}
}

// Source exposes the underlying randomness provider for callers that need
// raw draws (initiative ties, AI jitter).
func (r *Roller) Source() Source {
	return r.src
}

// RollAndDescribe evaluates expr against env and logs the outcome.
//
// Postcondition: outcome logged at debug; returns the RollOutcome or an
// ExpressionError.
func (r *Roller) RollAndDescribe(expr string, env Env) (RollOutcome, error) {
	outcome, err := RollAndDescribe(expr, env, r.src)
	if err != nil {
		return RollOutcome{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", outcome.Expression),
		zap.String("rolled", outcome.Description),
		zap.Ints("dice", outcome.Rolls),
		zap.Int("total", outcome.Value),
	)
	return outcome, nil
}

// EvalRandom evaluates expr against env without keeping the audit trail,
// still logging the total at debug level.
func (r *Roller) EvalRandom(expr string, env Env) (int, error) {
	value, err := EvalRandom(expr, env, r.src)
	if err != nil {
		return 0, err
	}
	r.logger.Debug("dice eval",
		zap.String("expression", expr),
		zap.Int("total", value),
	)
	return value, nil
}
