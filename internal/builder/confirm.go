package builder

import (
	"fmt"
	"strings"
)

// Prompt actions
const (
	ActionDelete = "delete"
	ActionEdit   = "edit"
)

// Dependent identifies a question taking part in a conditional-logic dependency
type Dependent struct {
	UUID           string `json:"uuid"`
	SequenceNumber int    `json:"sequence_number"`
	Text           string `json:"text"`
}

// Prompt describes a change that needs the user's confirmation
type Prompt struct {
	Action     string      `json:"action"`
	Question   Dependent   `json:"question"`
	Dependents []Dependent `json:"dependents"`
}

// Message renders the prompt as the sentence shown to the user
func (p Prompt) Message() string {
	nums := make([]string, len(p.Dependents))
	for i, d := range p.Dependents {
		nums[i] = fmt.Sprintf("%d", d.SequenceNumber)
	}
	verb := "Deleting"
	if p.Action == ActionEdit {
		verb = "Changing the type or options of"
	}
	return fmt.Sprintf("%s question %d affects the conditional logic of question(s) %s. Continue?",
		verb, p.Question.SequenceNumber, strings.Join(nums, ", "))
}

// Confirmer decides whether a dependency-breaking change may proceed
type Confirmer interface {
	Confirm(p Prompt) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(p Prompt) bool

// Confirm calls f
func (f ConfirmFunc) Confirm(p Prompt) bool { return f(p) }

var (
	// AlwaysConfirm accepts every prompt
	AlwaysConfirm Confirmer = ConfirmFunc(func(Prompt) bool { return true })
	// NeverConfirm declines every prompt
	NeverConfirm Confirmer = ConfirmFunc(func(Prompt) bool { return false })
)

// Recorder declines or accepts according to Accept and remembers the last prompt.
// The HTTP layer uses it to report what would have been asked.
type Recorder struct {
	Accept bool
	Last   *Prompt
}

// Confirm records p and returns r.Accept
func (r *Recorder) Confirm(p Prompt) bool {
	r.Last = &p
	return r.Accept
}

// a nil Confirmer declines
func confirm(c Confirmer, p Prompt) bool {
	if c == nil {
		return false
	}
	return c.Confirm(p)
}
