package dice

import (
	"fmt"
	"strings"
)

// RollAndDescribe substitutes env into expr, rolls every dice term with src,
// evaluates the surrounding arithmetic, and returns the full audit trail.
//
// Precondition: src must be non-nil.
// Postcondition: the outcome's Rolls holds each raw die in roll order and
// Description shows the per-term rolled form of the substituted expression.
func RollAndDescribe(expr string, env Env, src Source) (RollOutcome, error) {
	if src == nil {
		panic("dice: RollAndDescribe called with nil Source")
	}
	substituted := Substitute(expr, env)
	ev := evaluation{expr: substituted, mode: ModeRandom, src: src, allowDice: true}
	value, err := ev.run()
	if err != nil {
		return RollOutcome{}, err
	}
	return RollOutcome{
		Expression:  substituted,
		Value:       value,
		Description: ev.describe(),
		Rolls:       ev.rolls,
	}, nil
}

// EvalRandom substitutes env into expr and evaluates it with every dice term
// rolled using src.
func EvalRandom(expr string, env Env, src Source) (int, error) {
	if src == nil {
		panic("dice: EvalRandom called with nil Source")
	}
	ev := evaluation{expr: Substitute(expr, env), mode: ModeRandom, src: src, allowDice: true}
	return ev.run()
}

// EvalMin substitutes env into expr and evaluates it assuming every die
// rolls a 1 (each NdM term contributes N).
func EvalMin(expr string, env Env) (int, error) {
	ev := evaluation{expr: Substitute(expr, env), mode: ModeMin, allowDice: true}
	return ev.run()
}

// EvalMax substitutes env into expr and evaluates it assuming every die
// rolls its maximum face (each NdM term contributes N*M). Effect-strength
// projection is defined in terms of this value.
func EvalMax(expr string, env Env) (int, error) {
	ev := evaluation{expr: Substitute(expr, env), mode: ModeMax, allowDice: true}
	return ev.run()
}

// Evaluate substitutes env into expr and evaluates it as pure arithmetic.
// Dice terms are rejected; this is the entry point for scaling and
// target-count expressions such as "1+[MIND]/2".
func Evaluate(expr string, env Env) (int, error) {
	ev := evaluation{expr: Substitute(expr, env), mode: ModeMin}
	return ev.run()
}

// evaluation is a single pass over one substituted expression. The grammar
// is deliberately restricted:
//
//	expr   := term (('+'|'-') term)*
//	term   := factor (('*'|'/') factor)*
//	factor := NUMBER | DICE | '(' expr ')' | ('+'|'-') factor
//
// No identifiers: an unresolved [NAME] token is an ExpressionError here.
type evaluation struct {
	expr      string
	mode      Mode
	src       Source
	allowDice bool

	toks      []token
	pos       int
	rolls     []int   // every raw die in roll order
	termRolls [][]int // per dice-term raw dice, in consumption order
}

func (ev *evaluation) run() (int, error) {
	if strings.TrimSpace(ev.expr) == "" {
		return 0, nil
	}
	toks, err := tokenize(ev.expr)
	if err != nil {
		return 0, err
	}
	ev.toks = toks
	value, err := ev.parseExpr()
	if err != nil {
		return 0, err
	}
	if ev.pos != len(ev.toks) {
		return 0, exprErr(ev.expr, "unexpected %q after end of expression", ev.toks[ev.pos].text)
	}
	return value, nil
}

func (ev *evaluation) parseExpr() (int, error) {
	value, err := ev.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch ev.peek() {
		case tokPlus:
			ev.pos++
			rhs, err := ev.parseTerm()
			if err != nil {
				return 0, err
			}
			value += rhs
		case tokMinus:
			ev.pos++
			rhs, err := ev.parseTerm()
			if err != nil {
				return 0, err
			}
			value -= rhs
		default:
			return value, nil
		}
	}
}

func (ev *evaluation) parseTerm() (int, error) {
	value, err := ev.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch ev.peek() {
		case tokStar:
			ev.pos++
			rhs, err := ev.parseFactor()
			if err != nil {
				return 0, err
			}
			value *= rhs
		case tokSlash:
			ev.pos++
			rhs, err := ev.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, exprErr(ev.expr, "division by zero")
			}
			value /= rhs
		default:
			return value, nil
		}
	}
}

func (ev *evaluation) parseFactor() (int, error) {
	if ev.pos >= len(ev.toks) {
		return 0, exprErr(ev.expr, "expression ends where a value was expected")
	}
	t := ev.toks[ev.pos]
	switch t.kind {
	case tokNumber:
		ev.pos++
		return t.value, nil
	case tokDice:
		ev.pos++
		return ev.resolveDice(t)
	case tokLParen:
		ev.pos++
		value, err := ev.parseExpr()
		if err != nil {
			return 0, err
		}
		if ev.peek() != tokRParen {
			return 0, exprErr(ev.expr, "missing closing parenthesis")
		}
		ev.pos++
		return value, nil
	case tokPlus:
		ev.pos++
		return ev.parseFactor()
	case tokMinus:
		ev.pos++
		value, err := ev.parseFactor()
		if err != nil {
			return 0, err
		}
		return -value, nil
	case tokVar:
		return 0, exprErr(ev.expr, "unresolved variable %s", t.text)
	default:
		return 0, exprErr(ev.expr, "unexpected %q where a value was expected", t.text)
	}
}

// resolveDice applies the safety bounds, then resolves the term under the
// evaluation mode.
func (ev *evaluation) resolveDice(t token) (int, error) {
	if !ev.allowDice {
		return 0, exprErr(ev.expr, "dice term %q in arithmetic-only expression", t.text)
	}
	if t.count > MaxDiceCount {
		return 0, exprErr(ev.expr, "die count %d in term %q exceeds limit %d", t.count, t.text, MaxDiceCount)
	}
	if t.sides > MaxDiceSides {
		return 0, exprErr(ev.expr, "die sides %d in term %q exceeds limit %d", t.sides, t.text, MaxDiceSides)
	}
	if t.sides < 1 {
		return 0, exprErr(ev.expr, "die sides must be >= 1 in term %q", t.text)
	}
	switch ev.mode {
	case ModeMin:
		return t.count, nil
	case ModeMax:
		return t.count * t.sides, nil
	default:
		total := 0
		term := make([]int, 0, t.count)
		for i := 0; i < t.count; i++ {
			die := ev.src.Intn(t.sides) + 1
			term = append(term, die)
			total += die
		}
		ev.rolls = append(ev.rolls, term...)
		ev.termRolls = append(ev.termRolls, term)
		return total, nil
	}
}

// describe re-emits the token stream with each dice term replaced by its
// rolled dice in brackets, e.g. "2d6+3" rolled as 4 and 5 becomes "[4 5]+3".
func (ev *evaluation) describe() string {
	var b strings.Builder
	term := 0
	for _, t := range ev.toks {
		if t.kind == tokDice {
			if term < len(ev.termRolls) {
				b.WriteString(fmt.Sprintf("%v", ev.termRolls[term]))
				term++
			} else {
				b.WriteString(t.text)
			}
			continue
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func (ev *evaluation) peek() tokenKind {
	if ev.pos >= len(ev.toks) {
		return tokenKind(-1)
	}
	return ev.toks[ev.pos].kind
}
