package forms_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-pagekit/internal/forms"
)

func TestEvalExpression(t *testing.T) {
	vars := map[string]any{
		"price":    10.0,
		"qty":      3,
		"name":     "Kim",
		"approved": true,
	}

	cases := []struct {
		name   string
		source string
		want   any
	}{
		{"arithmetic", "price * qty + 5", 35.0},
		{"precedence", "2 + 3 * 4", 14.0},
		{"parens", "(2 + 3) * 4", 20.0},
		{"modulo", "7 % 3", 1.0},
		{"unary minus", "-price + 15", 5.0},
		{"comparison", "price * qty > 25", true},
		{"loose equality", "qty == '3'", true},
		{"inequality", "price != 11", true},
		{"and", "approved && qty >= 3", true},
		{"or", "qty > 10 || approved", true},
		{"not", "!approved", false},
		{"string concat", "'hello ' + name", "hello Kim"},
		{"string compare", "name == 'Kim'", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := forms.EvalExpression(tc.source, vars)
			if err != nil {
				t.Fatalf("eval %q: %v", tc.source, err)
			}
			if got != tc.want {
				t.Fatalf("eval %q: expected %v got %v", tc.source, tc.want, got)
			}
		})
	}
}

func TestEvalExpressionErrors(t *testing.T) {
	vars := map[string]any{"price": 10.0}

	if _, err := forms.EvalExpression("price / 0", vars); err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division by zero error got %v", err)
	}
	if _, err := forms.EvalExpression("missing + 1", vars); err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error got %v", err)
	}
	if _, err := forms.EvalExpression("price +", vars); !errors.Is(err, forms.ErrExprSyntax) {
		t.Fatalf("expected syntax error got %v", err)
	}
	if _, err := forms.EvalExpression("(price + 1", vars); !errors.Is(err, forms.ErrExprSyntax) {
		t.Fatalf("expected missing paren error got %v", err)
	}
	if _, err := forms.EvalExpression("'unterminated", vars); !errors.Is(err, forms.ErrExprSyntax) {
		t.Fatalf("expected unterminated string error got %v", err)
	}
	if _, err := forms.EvalExpression("price @ 2", vars); !errors.Is(err, forms.ErrExprSyntax) {
		t.Fatalf("expected unexpected character error got %v", err)
	}
}
