package model

// Answer is the closed set of values an answer slot can hold. The concrete
// type always matches the question type of the slot it is stored for.
type Answer interface {
	Kind() QuestionType
	isAnswer()
}

// SingleChoice holds one 1-based option index.
type SingleChoice struct {
	Option int
}

// MultiChoice holds a set of 1-based option indices in ascending order.
// An empty set is a valid stored answer, distinct from no answer.
type MultiChoice struct {
	Options []int
}

// FreeText holds typed text. An empty string is distinct from no answer.
type FreeText struct {
	Text string
}

func (SingleChoice) Kind() QuestionType { return QuestionTypeSingleChoice }
func (MultiChoice) Kind() QuestionType  { return QuestionTypeMultiChoice }
func (FreeText) Kind() QuestionType     { return QuestionTypeFreeText }

func (SingleChoice) isAnswer() {}
func (MultiChoice) isAnswer()  {}
func (FreeText) isAnswer()     {}

// Has reports whether option is selected.
func (m MultiChoice) Has(option int) bool {
	for _, o := range m.Options {
		if o == option {
			return true
		}
	}
	return false
}
