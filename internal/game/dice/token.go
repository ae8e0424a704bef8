package dice

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokDice             // NdM term; count defaults to 1 when omitted
	tokVar              // unresolved [NAME] token
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string // verbatim slice of the input
	value int    // tokNumber only
	count int    // tokDice only
	sides int    // tokDice only
}

// Substitute replaces every [NAME] token in expr with the matching integer
// from env. Name matching is case-insensitive. Unresolved tokens are left
// intact so the caller's mistake surfaces at evaluation, not here.
//
// Postcondition: the returned string contains no [NAME] token whose name is
// bound in env.
func Substitute(expr string, env Env) string {
	if !strings.Contains(expr, "[") {
		return expr
	}
	var b strings.Builder
	b.Grow(len(expr))
	for i := 0; i < len(expr); {
		if expr[i] != '[' {
			b.WriteByte(expr[i])
			i++
			continue
		}
		end := strings.IndexByte(expr[i:], ']')
		if end < 0 {
			// No closing bracket; emit the rest verbatim.
			b.WriteString(expr[i:])
			break
		}
		name := strings.TrimSpace(expr[i+1 : i+end])
		if val, ok := env.Lookup(name); ok {
			b.WriteString(strconv.Itoa(val))
		} else {
			b.WriteString(expr[i : i+end+1])
		}
		i += end + 1
	}
	return b.String()
}

// ExtractDiceTerms returns every NdM dice term in expr, in order of
// appearance. Malformed input yields whatever terms were recognizable; the
// evaluator is responsible for rejecting the expression as a whole.
func ExtractDiceTerms(expr string) []string {
	toks, err := tokenize(expr)
	if err != nil {
		toks, _ = partialTokenize(expr)
	}
	var terms []string
	for _, t := range toks {
		if t.kind == tokDice {
			terms = append(terms, t.text)
		}
	}
	return terms
}

// tokenize splits expr into arithmetic, dice, and variable tokens. It
// rejects any character outside the restricted grammar: digits, dice terms,
// [NAME] tokens, + - * / and parentheses.
func tokenize(expr string) ([]token, error) {
	var toks []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '+':
			toks = append(toks, token{kind: tokPlus, text: "+"})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus, text: "-"})
			i++
		case c == '*':
			toks = append(toks, token{kind: tokStar, text: "*"})
			i++
		case c == '/':
			toks = append(toks, token{kind: tokSlash, text: "/"})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c == '[':
			end := strings.IndexByte(expr[i:], ']')
			if end < 0 {
				return nil, exprErr(expr, "unterminated variable token at offset %d", i)
			}
			toks = append(toks, token{kind: tokVar, text: expr[i : i+end+1]})
			i += end + 1
		case c >= '0' && c <= '9':
			tok, next, err := scanNumberOrDice(expr, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case c == 'd' || c == 'D':
			tok, next, err := scanBareDice(expr, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		default:
			return nil, exprErr(expr, "illegal character %q at offset %d", string(c), i)
		}
	}
	return toks, nil
}

// partialTokenize is the lenient variant used only by ExtractDiceTerms:
// illegal characters are skipped instead of aborting the scan.
func partialTokenize(expr string) ([]token, error) {
	var toks []token
	for i := 0; i < len(expr); {
		c := expr[i]
		if c >= '0' && c <= '9' {
			if tok, next, err := scanNumberOrDice(expr, i); err == nil {
				toks = append(toks, tok)
				i = next
				continue
			}
		}
		if c == 'd' || c == 'D' {
			if tok, next, err := scanBareDice(expr, i); err == nil {
				toks = append(toks, tok)
				i = next
				continue
			}
		}
		i++
	}
	return toks, nil
}

// scanNumberOrDice consumes a digit run starting at i. When the run is
// immediately followed by d/D and more digits it becomes a dice term,
// otherwise a plain number.
func scanNumberOrDice(expr string, i int) (token, int, error) {
	j := i
	for j < len(expr) && expr[j] >= '0' && expr[j] <= '9' {
		j++
	}
	if j < len(expr) && (expr[j] == 'd' || expr[j] == 'D') && j+1 < len(expr) && isDigit(expr[j+1]) {
		k := j + 1
		for k < len(expr) && isDigit(expr[k]) {
			k++
		}
		count, err := strconv.Atoi(expr[i:j])
		if err != nil {
			return token{}, 0, exprErr(expr, "invalid die count in term %q", expr[i:k])
		}
		sides, err := strconv.Atoi(expr[j+1 : k])
		if err != nil {
			return token{}, 0, exprErr(expr, "invalid die sides in term %q", expr[i:k])
		}
		return token{kind: tokDice, text: expr[i:k], count: count, sides: sides}, k, nil
	}
	value, err := strconv.Atoi(expr[i:j])
	if err != nil {
		return token{}, 0, exprErr(expr, "invalid number %q", expr[i:j])
	}
	return token{kind: tokNumber, text: expr[i:j], value: value}, j, nil
}

// scanBareDice consumes a dice term with an omitted count ("d20" == "1d20").
func scanBareDice(expr string, i int) (token, int, error) {
	if i+1 >= len(expr) || !isDigit(expr[i+1]) {
		return token{}, 0, exprErr(expr, "dangling %q at offset %d", string(expr[i]), i)
	}
	k := i + 1
	for k < len(expr) && isDigit(expr[k]) {
		k++
	}
	sides, err := strconv.Atoi(expr[i+1 : k])
	if err != nil {
		return token{}, 0, exprErr(expr, "invalid die sides in term %q", expr[i:k])
	}
	return token{kind: tokDice, text: expr[i:k], count: 1, sides: sides}, k, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
