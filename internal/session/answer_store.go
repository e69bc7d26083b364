package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stemsi/exstem-proctor/internal/model"
)

// AnswerStore is the sparse section → question → answer mapping of one
// attempt. Slots are created on first interaction and every write is
// checked against the question type of its slot.
type AnswerStore struct {
	exam    *model.Exam
	answers map[int]map[int]model.Answer
}

// NewAnswerStore creates an empty store bound to exam.
func NewAnswerStore(exam *model.Exam) *AnswerStore {
	return &AnswerStore{
		exam:    exam,
		answers: make(map[int]map[int]model.Answer),
	}
}

// SetSingleChoice selects option for a single-choice question, replacing
// any previous selection.
func (s *AnswerStore) SetSingleChoice(section, question, option int) error {
	q, err := s.question(section, question, model.QuestionTypeSingleChoice)
	if err != nil {
		return err
	}
	if err := checkOption(q, option); err != nil {
		return err
	}
	s.put(section, question, model.SingleChoice{Option: option})
	return nil
}

// ToggleMultiChoice adds or removes option from a multi-choice answer.
// Setting an option to the state it is already in is not an error.
func (s *AnswerStore) ToggleMultiChoice(section, question, option int, selected bool) error {
	q, err := s.question(section, question, model.QuestionTypeMultiChoice)
	if err != nil {
		return err
	}
	if err := checkOption(q, option); err != nil {
		return err
	}

	var current []int
	if prev, ok := s.answers[section][question].(model.MultiChoice); ok {
		current = prev.Options
	}

	next := make([]int, 0, len(current)+1)
	for _, o := range current {
		if o != option {
			next = append(next, o)
		}
	}
	if selected {
		next = append(next, option)
		sort.Ints(next)
	}
	s.put(section, question, model.MultiChoice{Options: next})
	return nil
}

// SetFreeText stores text for a free-text question. An empty string is
// stored as such and is not the same as never answering.
func (s *AnswerStore) SetFreeText(section, question int, text string) error {
	if _, err := s.question(section, question, model.QuestionTypeFreeText); err != nil {
		return err
	}
	s.put(section, question, model.FreeText{Text: text})
	return nil
}

// Get returns the stored answer of a slot.
func (s *AnswerStore) Get(section, question int) (model.Answer, bool) {
	a, ok := s.answers[section][question]
	if !ok {
		return nil, false
	}
	if m, isMulti := a.(model.MultiChoice); isMulti {
		return model.MultiChoice{Options: append([]int(nil), m.Options...)}, true
	}
	return a, true
}

// BuildSubmission projects the stored answers onto the wire format. It
// only reads the store, so repeated calls without writes in between return
// equal payloads.
func (s *AnswerStore) BuildSubmission() model.SubmissionAnswer {
	out := model.SubmissionAnswer{Sections: []model.SectionAnswers{}}

	for si, section := range s.exam.Sections {
		bySlot := s.answers[si]
		if len(bySlot) == 0 {
			continue
		}

		var answers []model.QuestionAnswer
		for qi := range section.Questions {
			a, ok := bySlot[qi]
			if !ok {
				continue
			}
			if qa, ok := wireAnswer(qi+1, a); ok {
				answers = append(answers, qa)
			}
		}

		if len(answers) > 0 {
			out.Sections = append(out.Sections, model.SectionAnswers{
				SectionID: si + 1,
				Answers:   answers,
			})
		}
	}
	return out
}

// AnsweredCount returns how many questions would contribute to a submission.
func (s *AnswerStore) AnsweredCount() int {
	n := 0
	for _, section := range s.BuildSubmission().Sections {
		n += len(section.Answers)
	}
	return n
}

// Submittable reports whether a would be sent in a submission. An empty
// multi-choice set or blank text is stored but not submitted.
func Submittable(a model.Answer) bool {
	_, ok := wireAnswer(0, a)
	return ok
}

func (s *AnswerStore) question(section, question int, want model.QuestionType) (model.Question, error) {
	q, ok := s.exam.Question(section, question)
	if !ok {
		return model.Question{}, fmt.Errorf("%w: section %d question %d", ErrOutOfRange, section, question)
	}
	if q.Type != want {
		return model.Question{}, fmt.Errorf("%w: question is %s, got %s", ErrAnswerTypeMismatch, q.Type, want)
	}
	return q, nil
}

func (s *AnswerStore) put(section, question int, a model.Answer) {
	bySlot, ok := s.answers[section]
	if !ok {
		bySlot = make(map[int]model.Answer)
		s.answers[section] = bySlot
	}
	bySlot[question] = a
}

func checkOption(q model.Question, option int) error {
	if option < 1 || option > len(q.Options) {
		return fmt.Errorf("%w: option %d of %d", ErrOutOfRange, option, len(q.Options))
	}
	return nil
}

// wireAnswer converts one stored answer; ok is false when the answer is
// not eligible for submission.
func wireAnswer(number int, a model.Answer) (model.QuestionAnswer, bool) {
	qa := model.QuestionAnswer{QuestionNumber: number}

	switch v := a.(type) {
	case model.SingleChoice:
		option := v.Option
		qa.CorrectOption = &option
	case model.MultiChoice:
		if len(v.Options) == 0 {
			return qa, false
		}
		qa.CorrectOptions = append([]int(nil), v.Options...)
		sort.Ints(qa.CorrectOptions)
	case model.FreeText:
		if strings.TrimSpace(v.Text) == "" {
			return qa, false
		}
		text := v.Text
		qa.Answer = &text
	default:
		return qa, false
	}
	return qa, true
}
