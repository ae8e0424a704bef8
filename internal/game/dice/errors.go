package dice

import "fmt"

// ExpressionError reports a malformed or unsafe roll expression. It is the
// only error kind this package produces: bad input is always rejected with a
// reason, never silently evaluated to zero.
type ExpressionError struct {
	Expr   string // the offending expression as received
	Reason string // what made it unusable
}

// Error satisfies the error interface.
func (e *ExpressionError) Error() string {
	return fmt.Sprintf("dice: unsafe or malformed expression %q: %s", e.Expr, e.Reason)
}

func exprErr(expr, format string, args ...any) *ExpressionError {
	return &ExpressionError{Expr: expr, Reason: fmt.Sprintf(format, args...)}
}
