package forms

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-pagekit/entity"
)

const (
	opEquals      = "equals"
	opNotEquals   = "not_equals"
	opContains    = "contains"
	opGreaterThan = "greater_than"
	opLessThan    = "less_than"
)

func validOperator(op string) bool {
	switch op {
	case opEquals, opNotEquals, opContains, opGreaterThan, opLessThan:
		return true
	default:
		return false
	}
}

// evaluateConditions applies a trigger's condition list against the
// submitted payload. Every condition must hold (logical AND); an empty
// list always holds, and a condition naming a field absent from the
// payload never does. Numeric operators error when either operand fails
// to parse as a number.
func evaluateConditions(conditions []entity.TriggerCondition, payload map[string]any) (bool, error) {
	for _, condition := range conditions {
		ok, err := evaluateCondition(condition, payload)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evaluateCondition(condition entity.TriggerCondition, payload map[string]any) (bool, error) {
	actual, present := payload[condition.Field]
	if !present {
		return false, nil
	}
	switch condition.Operator {
	case opEquals:
		return stringify(actual) == stringify(condition.Value), nil
	case opNotEquals:
		return stringify(actual) != stringify(condition.Value), nil
	case opContains:
		if list, ok := actual.([]any); ok {
			needle := stringify(condition.Value)
			for _, item := range list {
				if stringify(item) == needle {
					return true, nil
				}
			}
			return false, nil
		}
		return strings.Contains(stringify(actual), stringify(condition.Value)), nil
	case opGreaterThan, opLessThan:
		left, err := toNumber(actual)
		if err != nil {
			return false, fmt.Errorf("condition field %q: %w", condition.Field, err)
		}
		right, err := toNumber(condition.Value)
		if err != nil {
			return false, fmt.Errorf("condition value for %q: %w", condition.Field, err)
		}
		if condition.Operator == opGreaterThan {
			return left > right, nil
		}
		return left < right, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrOperatorUnknown, condition.Operator)
	}
}
