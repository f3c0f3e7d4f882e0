package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// A small expression language for the expression trigger kind. It evaluates
// arithmetic, comparison, and boolean operators over submission fields with
// no function calls and no I/O, so operator-authored rules cannot reach
// outside the submission payload.
//
// Grammar:
//
//	expr        = or
//	or          = and { "||" and }
//	and         = comparison { "&&" comparison }
//	comparison  = additive [ ("=="|"!="|"<"|"<="|">"|">=") additive ]
//	additive    = multiplicative { ("+"|"-") multiplicative }
//	multiplicative = unary { ("*"|"/"|"%") unary }
//	unary       = [ "!" | "-" ] primary
//	primary     = number | string | "true" | "false" | identifier | "(" expr ")"

var ErrExprSyntax = errors.New("forms: expression syntax error")

// EvalExpression evaluates source against the given variables. Values are
// float64, string, or bool; identifiers not present in vars are an error.
func EvalExpression(source string, vars map[string]any) (any, error) {
	tokens, err := lexExpression(source)
	if err != nil {
		return nil, err
	}
	p := &exprParser{tokens: tokens, vars: vars}
	value, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("%w: unexpected %q", ErrExprSyntax, p.peek().text)
	}
	return value, nil
}

type exprToken struct {
	kind string // number, string, ident, op
	text string
}

func lexExpression(source string) ([]exprToken, error) {
	var tokens []exprToken
	runes := []rune(source)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, exprToken{kind: "number", text: string(runes[start:i])})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, exprToken{kind: "ident", text: string(runes[start:i])})
		case r == '\'' || r == '"':
			quote := r
			i++
			start := i
			for i < len(runes) && runes[i] != quote {
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("%w: unterminated string", ErrExprSyntax)
			}
			tokens = append(tokens, exprToken{kind: "string", text: string(runes[start:i])})
			i++
		default:
			matched := false
			for _, op := range []string{"==", "!=", "<=", ">=", "&&", "||"} {
				if strings.HasPrefix(string(runes[i:]), op) {
					tokens = append(tokens, exprToken{kind: "op", text: op})
					i += 2
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			switch r {
			case '+', '-', '*', '/', '%', '<', '>', '!', '(', ')':
				tokens = append(tokens, exprToken{kind: "op", text: string(r)})
				i++
			default:
				return nil, fmt.Errorf("%w: unexpected character %q", ErrExprSyntax, string(r))
			}
		}
	}
	return tokens, nil
}

type exprParser struct {
	tokens []exprToken
	pos    int
	vars   map[string]any
}

func (p *exprParser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *exprParser) peek() exprToken {
	if p.atEnd() {
		return exprToken{}
	}
	return p.tokens[p.pos]
}

func (p *exprParser) acceptOp(ops ...string) (string, bool) {
	if p.atEnd() || p.tokens[p.pos].kind != "op" {
		return "", false
	}
	for _, op := range ops {
		if p.tokens[p.pos].text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) parseOr() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lb, err := toBool(left)
		if err != nil {
			return nil, err
		}
		rb, err := toBool(right)
		if err != nil {
			return nil, err
		}
		left = lb || rb
	}
}

func (p *exprParser) parseAnd() (any, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return left, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		lb, err := toBool(left)
		if err != nil {
			return nil, err
		}
		rb, err := toBool(right)
		if err != nil {
			return nil, err
		}
		left = lb && rb
	}
}

func (p *exprParser) parseComparison() (any, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("==", "!=", "<=", ">=", "<", ">")
	if !ok {
		return left, nil
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	switch op {
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	}
	ln, err := toNumber(left)
	if err != nil {
		return nil, err
	}
	rn, err := toNumber(right)
	if err != nil {
		return nil, err
	}
	switch op {
	case "<":
		return ln < rn, nil
	case "<=":
		return ln <= rn, nil
	case ">":
		return ln > rn, nil
	default:
		return ln >= rn, nil
	}
}

func (p *exprParser) parseAdditive() (any, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			ls, lok := left.(string)
			rs, rok := right.(string)
			if lok || rok {
				if !lok {
					ls = stringify(left)
				}
				if !rok {
					rs = stringify(right)
				}
				left = ls + rs
				continue
			}
		}
		ln, err := toNumber(left)
		if err != nil {
			return nil, err
		}
		rn, err := toNumber(right)
		if err != nil {
			return nil, err
		}
		if op == "+" {
			left = ln + rn
		} else {
			left = ln - rn
		}
	}
}

func (p *exprParser) parseMultiplicative() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		ln, err := toNumber(left)
		if err != nil {
			return nil, err
		}
		rn, err := toNumber(right)
		if err != nil {
			return nil, err
		}
		switch op {
		case "*":
			left = ln * rn
		case "/":
			if rn == 0 {
				return nil, fmt.Errorf("forms: expression division by zero")
			}
			left = ln / rn
		default:
			if rn == 0 {
				return nil, fmt.Errorf("forms: expression modulo by zero")
			}
			left = float64(int64(ln) % int64(rn))
		}
	}
}

func (p *exprParser) parseUnary() (any, error) {
	if _, ok := p.acceptOp("!"); ok {
		value, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		b, err := toBool(value)
		if err != nil {
			return nil, err
		}
		return !b, nil
	}
	if _, ok := p.acceptOp("-"); ok {
		value, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n, err := toNumber(value)
		if err != nil {
			return nil, err
		}
		return -n, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (any, error) {
	if p.atEnd() {
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrExprSyntax)
	}
	token := p.tokens[p.pos]
	switch token.kind {
	case "number":
		p.pos++
		n, err := strconv.ParseFloat(token.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrExprSyntax, token.text)
		}
		return n, nil
	case "string":
		p.pos++
		return token.text, nil
	case "ident":
		p.pos++
		switch token.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		value, ok := p.vars[token.text]
		if !ok {
			return nil, fmt.Errorf("forms: expression references unknown field %q", token.text)
		}
		return normalizeExprValue(value), nil
	case "op":
		if token.text == "(" {
			p.pos++
			value, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, fmt.Errorf("%w: missing closing parenthesis", ErrExprSyntax)
			}
			return value, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected %q", ErrExprSyntax, token.text)
}

func normalizeExprValue(value any) any {
	switch typed := value.(type) {
	case float64, string, bool:
		return typed
	case int:
		return float64(typed)
	case int64:
		return float64(typed)
	case float32:
		return float64(typed)
	default:
		return stringify(value)
	}
}

func toNumber(value any) (float64, error) {
	switch typed := value.(type) {
	case float64:
		return typed, nil
	case float32:
		return float64(typed), nil
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case json.Number:
		n, err := typed.Float64()
		if err != nil {
			return 0, fmt.Errorf("forms: %q is not numeric", typed.String())
		}
		return n, nil
	case bool:
		if typed {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, fmt.Errorf("forms: %q is not numeric", typed)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("forms: %v is not numeric", value)
	}
}

func toBool(value any) (bool, error) {
	switch typed := value.(type) {
	case bool:
		return typed, nil
	case float64:
		return typed != 0, nil
	case string:
		return typed != "", nil
	default:
		return false, fmt.Errorf("forms: %v is not boolean", value)
	}
}

func looseEqual(left, right any) bool {
	if ln, err := toNumber(left); err == nil {
		if rn, err := toNumber(right); err == nil {
			return ln == rn
		}
	}
	return stringify(left) == stringify(right)
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
