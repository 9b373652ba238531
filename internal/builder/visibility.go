package builder

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/abrezinsky/surveydesk/internal/models"
)

// Conditional logic operators
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpAnyOf       = "any_of"
)

// operator expressions, evaluated against ruleEnv
var operatorExpr = map[string]string{
	OpEquals:      `len(values) > 0 && len(answer) == 1 && answer[0] == values[0]`,
	OpNotEquals:   `len(values) > 0 && !(len(answer) == 1 && answer[0] == values[0])`,
	OpContains:    `len(values) > 0 && all(values, {# in answer})`,
	OpAnyOf:       `any(answer, {# in values})`,
	OpGreaterThan: `hasNumber && hasThreshold && number > threshold`,
	OpLessThan:    `hasNumber && hasThreshold && number < threshold`,
}

// IsValidOperator reports whether op is a known conditional logic operator
func IsValidOperator(op string) bool {
	_, ok := operatorExpr[op]
	return ok
}

// Evaluator decides question visibility from conditional logic rules.
// Compiled operator programs are cached and shared between goroutines.
type Evaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewEvaluator creates an Evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

func ruleEnv(answer interface{}, values []string) map[string]interface{} {
	strs := answerStrings(answer)
	num, hasNum := answerNumber(answer)
	threshold, hasThreshold := 0.0, false
	if len(values) > 0 {
		if f, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64); err == nil {
			threshold, hasThreshold = f, true
		}
	}
	if values == nil {
		values = []string{}
	}
	return map[string]interface{}{
		"answer":       strs,
		"values":       values,
		"number":       num,
		"hasNumber":    hasNum,
		"threshold":    threshold,
		"hasThreshold": hasThreshold,
	}
}

func (e *Evaluator) program(op string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.programs[op]; ok {
		return p, nil
	}
	code, ok := operatorExpr[op]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", op)
	}
	p, err := expr.Compile(code, expr.Env(ruleEnv(nil, nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile operator %q: %w", op, err)
	}
	e.programs[op] = p
	return p, nil
}

// Match reports whether answer satisfies rules
func (e *Evaluator) Match(rules *models.ConditionalLogicRules, answer interface{}) (bool, error) {
	p, err := e.program(rules.Operator)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(p, ruleEnv(answer, rules.Values))
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}

// VisibleSet returns, per question UUID, whether the question is shown for
// answers (keyed by question UUID). A question without rules is visible. A
// question whose base is hidden or unanswered is hidden.
func (e *Evaluator) VisibleSet(qs []models.Question, answers map[string]interface{}) (map[string]bool, error) {
	bySeq := make(map[int]models.Question, len(qs))
	byUUID := make(map[string]models.Question, len(qs))
	for _, q := range qs {
		bySeq[q.SequenceNumber] = q
		byUUID[q.UUID] = q
	}

	visible := make(map[string]bool, len(qs))
	var visit func(q models.Question, depth int) (bool, error)
	visit = func(q models.Question, depth int) (bool, error) {
		if v, ok := visible[q.UUID]; ok {
			return v, nil
		}
		r := q.ConditionalLogicRules
		if r == nil {
			visible[q.UUID] = true
			return true, nil
		}
		// a reference cycle is treated as hidden
		if depth > len(qs) {
			return false, nil
		}

		base, found := models.Question{}, false
		if r.BaseQuestionUUID != "" {
			base, found = byUUID[r.BaseQuestionUUID]
		}
		if !found && r.BaseQuestionSequence != nil {
			base, found = bySeq[*r.BaseQuestionSequence]
		}
		if !found {
			visible[q.UUID] = true
			return true, nil
		}

		baseVisible, err := visit(base, depth+1)
		if err != nil {
			return false, err
		}
		answer, answered := answers[base.UUID]
		if !baseVisible || !answered || isEmptyAnswer(answer) {
			visible[q.UUID] = false
			return false, nil
		}

		ok, err := e.Match(r, answer)
		if err != nil {
			return false, fmt.Errorf("question %d: %w", q.SequenceNumber, err)
		}
		visible[q.UUID] = ok
		return ok, nil
	}

	for _, q := range qs {
		if _, err := visit(q, 0); err != nil {
			return nil, err
		}
	}
	return visible, nil
}

func answerStrings(answer interface{}) []string {
	switch v := answer.(type) {
	case nil:
		return []string{}
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, scalarString(item))
		}
		return out
	default:
		return []string{scalarString(v)}
	}
}

func scalarString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(x)
	}
}

func answerNumber(answer interface{}) (float64, bool) {
	switch v := answer.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func isEmptyAnswer(answer interface{}) bool {
	switch v := answer.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}
