package dice

import "strings"

// Var is a single named integer binding used during substitution.
type Var struct {
	Name  string
	Value int
}

// Env is an ordered variable environment. Order matters: when two bindings
// share a name, the earliest one wins, so callers can layer cast-time
// variables (e.g. MIND) in front of a character's base stats.
type Env []Var

// Lookup returns the value bound to name, matching case-insensitively.
//
// Postcondition: the first binding whose name matches is returned.
func (e Env) Lookup(name string) (int, bool) {
	for _, v := range e {
		if strings.EqualFold(v.Name, name) {
			return v.Value, true
		}
	}
	return 0, false
}

// With returns a copy of the environment with name bound to value in front
// of all existing bindings. The receiver is not modified.
func (e Env) With(name string, value int) Env {
	out := make(Env, 0, len(e)+1)
	out = append(out, Var{Name: name, Value: value})
	out = append(out, e...)
	return out
}
