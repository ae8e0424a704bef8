package combat

import (
	"errors"
	"fmt"
)

// Causes carried by a ResourceError. Match them with errors.Is.
var (
	ErrInsufficientMind = errors.New("insufficient mind")
	ErrOnCooldown       = errors.New("action on cooldown")
	ErrNoUsesLeft       = errors.New("no uses left")
)

// ResourceError rejects a resolution the actor cannot pay for. Nothing was
// rolled and nothing was spent.
type ResourceError struct {
	Actor  string
	Action string
	Cause  error

	// Need and Have report the mind shortfall for ErrInsufficientMind.
	Need int
	Have int
}

func (e *ResourceError) Error() string {
	if errors.Is(e.Cause, ErrInsufficientMind) {
		return fmt.Sprintf("combat: %s cannot cast %s: %v (need %d, have %d)",
			e.Actor, e.Action, e.Cause, e.Need, e.Have)
	}
	return fmt.Sprintf("combat: %s cannot use %s: %v", e.Actor, e.Action, e.Cause)
}

func (e *ResourceError) Unwrap() error { return e.Cause }

// TargetingError rejects a resolution aimed at an illegal target before any
// state changes.
type TargetingError struct {
	Actor  string
	Action string
	Target string
	Reason string
}

func (e *TargetingError) Error() string {
	return fmt.Sprintf("combat: %s cannot target %s with %s: %s",
		e.Actor, e.Target, e.Action, e.Reason)
}
