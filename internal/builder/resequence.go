// Package builder holds the survey question-list operations used by the
// survey editor: reordering, inserting, deleting and editing questions while
// keeping every question's 1-based sequence_number and every position-based
// conditional-logic reference consistent.
//
// All operations are pure. They never modify the slice they are given and
// return a fresh, resequenced copy, so a caller that gets an error (including
// ErrAborted) still holds its untouched original.
package builder

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abrezinsky/surveydesk/internal/models"
)

var (
	// ErrAborted is returned when a Confirmer declines a change
	ErrAborted = errors.New("change declined")
	// ErrIndexOutOfRange is returned for an index outside the question list
	ErrIndexOutOfRange = errors.New("question index out of range")
)

// Warning reports a side effect of a structural change the user should know about
type Warning struct {
	QuestionUUID   string `json:"question_uuid"`
	SequenceNumber int    `json:"sequence_number"`
	Message        string `json:"message"`
}

// Result is the outcome of a list operation
type Result struct {
	Questions []models.Question `json:"questions"`
	Warnings  []Warning         `json:"warnings,omitempty"`
}

// Resequence renumbers after (the list in its new order, still carrying the
// sequence numbers it had in before) and rewrites position-based
// conditional-logic references so they keep pointing at the same question.
//
// The old->new mapping is built from before: each question found in after
// (matched by UUID) maps its old sequence_number to its new index+1. A
// question without a UUID is matched by the sequence_number it still
// carries in after. A base reference missing from the mapping is resolved
// through the rule's base UUID when it has one; otherwise it belonged to a
// removed question, the dependent's rules are dropped and a warning is
// returned. Rules that only name their base by UUID are left untouched.
func Resequence(before, after []models.Question) Result {
	newPos := make(map[string]int, len(after))
	for i, q := range after {
		if q.UUID != "" {
			newPos[q.UUID] = i + 1
		}
	}

	mapping := make(map[int]int, len(before))
	for _, q := range before {
		if q.UUID == "" {
			continue
		}
		if pos, ok := newPos[q.UUID]; ok {
			mapping[q.SequenceNumber] = pos
		}
	}
	for i, q := range after {
		if q.UUID != "" || q.SequenceNumber <= 0 {
			continue
		}
		if _, taken := mapping[q.SequenceNumber]; !taken {
			mapping[q.SequenceNumber] = i + 1
		}
	}

	out := models.CloneQuestions(after)
	if out == nil {
		out = []models.Question{}
	}
	var warnings []Warning

	for i := range out {
		rules := out[i].ConditionalLogicRules
		if rules == nil || rules.BaseQuestionSequence == nil {
			continue
		}
		oldBase := *rules.BaseQuestionSequence
		if newBase, ok := mapping[oldBase]; ok {
			rules.BaseQuestionSequence = &newBase
			continue
		}
		if newBase, ok := newPos[rules.BaseQuestionUUID]; ok && rules.BaseQuestionUUID != "" {
			rules.BaseQuestionSequence = &newBase
			continue
		}
		out[i].ConditionalLogicRules = nil
		warnings = append(warnings, Warning{
			QuestionUUID:   out[i].UUID,
			SequenceNumber: i + 1,
			Message:        fmt.Sprintf("Conditional logic removed from question %d: the question it depended on (#%d) no longer exists", i+1, oldBase),
		})
	}

	for i := range out {
		out[i].SequenceNumber = i + 1
	}

	return Result{Questions: out, Warnings: warnings}
}

// Normalize assigns missing UUIDs and renumbers a list whose sequence
// numbers were supplied by a client, remapping references accordingly.
// When no question carries a sequence_number, list positions (index+1) are
// taken as the numbering the references were written in.
func Normalize(qs []models.Question) Result {
	in := models.CloneQuestions(qs)
	numbered := false
	for _, q := range in {
		if q.SequenceNumber != 0 {
			numbered = true
			break
		}
	}
	for i := range in {
		if !numbered {
			in[i].SequenceNumber = i + 1
		}
		if in[i].UUID == "" {
			in[i].UUID = uuid.NewString()
		}
		if in[i].Options == nil {
			in[i].Options = []string{}
		}
	}
	return Resequence(in, in)
}

// Move moves the question at from to index to
func Move(qs []models.Question, from, to int) (Result, error) {
	if from < 0 || from >= len(qs) || to < 0 || to >= len(qs) {
		return Result{}, ErrIndexOutOfRange
	}

	after := make([]models.Question, 0, len(qs))
	moved := qs[from]
	for i, q := range qs {
		if i != from {
			after = append(after, q)
		}
	}
	after = append(after[:to], append([]models.Question{moved}, after[to:]...)...)

	return Resequence(qs, after), nil
}

// Insert inserts q at index at (0..len). A base reference on q is read in
// the numbering of qs, before the insert.
func Insert(qs []models.Question, at int, q models.Question) (Result, error) {
	if at < 0 || at > len(qs) {
		return Result{}, ErrIndexOutOfRange
	}

	nq := q.Clone()
	if nq.UUID == "" {
		nq.UUID = uuid.NewString()
	}
	if nq.Options == nil {
		nq.Options = []string{}
	}
	nq.ID = 0
	nq.SequenceNumber = 0

	after := make([]models.Question, 0, len(qs)+1)
	after = append(after, qs[:at]...)
	after = append(after, nq)
	after = append(after, qs[at:]...)

	return Resequence(qs, after), nil
}

// Remove deletes the question at index at. When other questions depend on
// it, c must confirm; a decline returns ErrAborted and changes nothing.
func Remove(qs []models.Question, at int, c Confirmer) (Result, error) {
	if at < 0 || at >= len(qs) {
		return Result{}, ErrIndexOutOfRange
	}

	target := qs[at]
	if deps := Dependents(qs, target); len(deps) > 0 {
		if !confirm(c, Prompt{Action: ActionDelete, Question: summarize(target), Dependents: deps}) {
			return Result{}, ErrAborted
		}
	}

	after := make([]models.Question, 0, len(qs)-1)
	after = append(after, qs[:at]...)
	after = append(after, qs[at+1:]...)

	return Resequence(qs, after), nil
}

// Replace swaps the question at index at for edited, keeping its identity
// and position. A critical edit (see IsCriticalEdit) of a question others
// depend on needs confirmation; once confirmed, dependents whose rules can
// no longer match are cleared.
func Replace(qs []models.Question, at int, edited models.Question, c Confirmer) (Result, error) {
	if at < 0 || at >= len(qs) {
		return Result{}, ErrIndexOutOfRange
	}

	old := qs[at]
	next := edited.Clone()
	next.ID = old.ID
	next.UUID = old.UUID
	next.SequenceNumber = old.SequenceNumber
	if next.Options == nil {
		next.Options = []string{}
	}

	deps := Dependents(qs, old)
	critical := IsCriticalEdit(old, next)
	if critical && len(deps) > 0 {
		if !confirm(c, Prompt{Action: ActionEdit, Question: summarize(old), Dependents: deps}) {
			return Result{}, ErrAborted
		}
	}

	after := models.CloneQuestions(qs)
	after[at] = next

	var warnings []Warning
	if critical {
		for i := range after {
			if !dependsOn(after[i], old) || stillSatisfiable(after[i].ConditionalLogicRules, old, next) {
				continue
			}
			after[i].ConditionalLogicRules = nil
			warnings = append(warnings, Warning{
				QuestionUUID:   after[i].UUID,
				SequenceNumber: i + 1,
				Message:        fmt.Sprintf("Conditional logic removed from question %d: question %d changed and its rule can no longer match", i+1, at+1),
			})
		}
	}

	res := Resequence(qs, after)
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

// Dependents returns the questions whose conditional logic refers to target
func Dependents(qs []models.Question, target models.Question) []Dependent {
	var deps []Dependent
	for i, q := range qs {
		if q.UUID == target.UUID && q.UUID != "" {
			continue
		}
		if dependsOn(q, target) {
			deps = append(deps, Dependent{UUID: q.UUID, SequenceNumber: i + 1, Text: q.Text})
		}
	}
	return deps
}

// IsCriticalEdit reports whether changing old into next may break rules
// that depend on old: a type change, or a different option set on a choice
// question. Option order does not matter.
func IsCriticalEdit(old, next models.Question) bool {
	if old.Type != next.Type {
		return true
	}
	if !models.IsChoiceType(old.Type) {
		return false
	}
	return !sameOptionSet(old.Options, next.Options)
}

func dependsOn(q, target models.Question) bool {
	r := q.ConditionalLogicRules
	if r == nil {
		return false
	}
	if r.BaseQuestionUUID != "" && r.BaseQuestionUUID == target.UUID {
		return true
	}
	return r.BaseQuestionSequence != nil && *r.BaseQuestionSequence == target.SequenceNumber
}

// stillSatisfiable reports whether rules keyed on old can still match answers to next
func stillSatisfiable(r *models.ConditionalLogicRules, old, next models.Question) bool {
	if r == nil || old.Type != next.Type {
		return false
	}
	allowed := make(map[string]bool, len(next.Options))
	for _, o := range next.Options {
		allowed[o] = true
	}
	for _, v := range r.Values {
		if !allowed[v] {
			return false
		}
	}
	return true
}

func sameOptionSet(a, b []string) bool {
	set := make(map[string]int, len(a))
	for _, o := range a {
		set[o]++
	}
	for _, o := range b {
		set[o]--
	}
	for _, n := range set {
		if n != 0 {
			return false
		}
	}
	return true
}

func summarize(q models.Question) Dependent {
	return Dependent{UUID: q.UUID, SequenceNumber: q.SequenceNumber, Text: q.Text}
}
