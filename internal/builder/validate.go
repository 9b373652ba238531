package builder

import (
	"fmt"
	"strings"

	apperrors "github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/models"
)

// MaxQuestions caps the size of one survey
const MaxQuestions = 200

// Validate checks a question list and returns field errors keyed as
// "questions[i].field", or nil when the list is valid.
func Validate(qs []models.Question) error {
	fields := apperrors.FieldErrors{}

	if len(qs) > MaxQuestions {
		fields.Add("questions", fmt.Sprintf("must not contain more than %d questions", MaxQuestions))
	}

	byUUID := make(map[string]int, len(qs))
	bySeq := make(map[int]int, len(qs))
	for i, q := range qs {
		if q.UUID != "" {
			if _, dup := byUUID[q.UUID]; dup {
				fields.Add(key(i, "uuid"), "must be unique")
			}
			byUUID[q.UUID] = i
		}
		bySeq[q.SequenceNumber] = i
	}

	for i, q := range qs {
		if q.SequenceNumber != i+1 {
			fields.Add(key(i, "sequence_number"), fmt.Sprintf("must be %d", i+1))
		}
		if strings.TrimSpace(q.Text) == "" {
			fields.Add(key(i, "text"), "is required")
		}
		if !models.IsValidQuestionType(q.Type) {
			fields.Add(key(i, "type"), fmt.Sprintf("unknown question type %q", q.Type))
		}
		validateOptions(fields, i, q)
		validateRules(fields, i, q, byUUID, bySeq)
	}

	return fields.Err()
}

func validateOptions(fields apperrors.FieldErrors, i int, q models.Question) {
	if q.Type == models.QuestionSingleChoice || q.Type == models.QuestionMultipleChoice {
		if len(q.Options) < 2 {
			fields.Add(key(i, "options"), "must have at least 2 options")
		}
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			fields.Add(key(i, "options"), "must not contain blank options")
			continue
		}
		if seen[o] {
			fields.Add(key(i, "options"), fmt.Sprintf("duplicate option %q", o))
		}
		seen[o] = true
	}
}

func validateRules(fields apperrors.FieldErrors, i int, q models.Question, byUUID map[string]int, bySeq map[int]int) {
	r := q.ConditionalLogicRules
	if r == nil {
		return
	}
	field := key(i, "conditional_logic_rules")

	if !IsValidOperator(r.Operator) {
		fields.Add(field, fmt.Sprintf("unknown operator %q", r.Operator))
	}
	if len(r.Values) == 0 {
		fields.Add(field, "must have at least one value")
	}

	base := -1
	switch {
	case r.BaseQuestionUUID != "":
		idx, ok := byUUID[r.BaseQuestionUUID]
		if !ok {
			fields.Add(field, "base question does not exist")
			return
		}
		base = idx
	case r.BaseQuestionSequence != nil:
		idx, ok := bySeq[*r.BaseQuestionSequence]
		if !ok {
			fields.Add(field, fmt.Sprintf("base question %d does not exist", *r.BaseQuestionSequence))
			return
		}
		base = idx
	default:
		fields.Add(field, "must name a base question")
		return
	}

	if base == i {
		fields.Add(field, "must not refer to its own question")
	}
}

func key(i int, field string) string {
	return fmt.Sprintf("questions[%d].%s", i, field)
}
