package session

import (
	"fmt"

	"github.com/stemsi/exstem-proctor/internal/model"
)

// AdvanceResult tells whether Advance moved.
type AdvanceResult int

const (
	Advanced AdvanceResult = iota
	AtSectionEnd
)

func (r AdvanceResult) String() string {
	if r == Advanced {
		return "advanced"
	}
	return "at_section_end"
}

// Navigator tracks which question is on screen.
type Navigator struct {
	exam     *model.Exam
	section  int
	question int
}

// NewNavigator starts at the first question of the first section.
func NewNavigator(exam *model.Exam) *Navigator {
	return &Navigator{exam: exam}
}

// Position returns the current 0-based section and question.
func (n *Navigator) Position() (section, question int) {
	return n.section, n.question
}

// Current returns the question on screen, if the exam has one there.
func (n *Navigator) Current() (model.Question, bool) {
	return n.exam.Question(n.section, n.question)
}

// SelectSection moves to section i and always lands on its first question.
func (n *Navigator) SelectSection(i int) error {
	if i < 0 || i >= n.exam.SectionCount() {
		return fmt.Errorf("%w: section %d", ErrOutOfRange, i)
	}
	n.section = i
	n.question = 0
	return nil
}

// SelectQuestion moves to question i of the current section. Indices are
// not clamped.
func (n *Navigator) SelectQuestion(i int) error {
	if i < 0 || i >= len(n.exam.Questions(n.section)) {
		return fmt.Errorf("%w: question %d", ErrOutOfRange, i)
	}
	n.question = i
	return nil
}

// Advance moves to the next question of the current section. It never
// wraps into the next section.
func (n *Navigator) Advance() AdvanceResult {
	if n.question+1 >= len(n.exam.Questions(n.section)) {
		return AtSectionEnd
	}
	n.question++
	return Advanced
}
