package effect

import "fmt"

// TargetingError rejects an application before any state changes: the source
// or target is dead, or the combination is illegal for the effect kind.
type TargetingError struct {
	Effect string
	Target string
	Reason string
}

func (e *TargetingError) Error() string {
	return fmt.Sprintf("effect: %s cannot target %s: %s", e.Effect, e.Target, e.Reason)
}

// StackingError reports an application that lost to effects already on the
// target. It is an expected outcome of the stacking rules, not a failure;
// callers surface it as a message rather than aborting.
type StackingError struct {
	Effect  string
	Blocker string
	Reason  string
}

func (e *StackingError) Error() string {
	if e.Blocker == "" {
		return fmt.Sprintf("effect: %s rejected: %s", e.Effect, e.Reason)
	}
	return fmt.Sprintf("effect: %s rejected by %s: %s", e.Effect, e.Blocker, e.Reason)
}
