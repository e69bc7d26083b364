package session

import (
	"encoding/json"
	"testing"

	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedExam() *model.Exam {
	return &model.Exam{
		Title: "Mixed",
		Sections: []model.Section{
			{Title: "Choice", Questions: []model.Question{
				{Type: model.QuestionTypeSingleChoice, Text: "Pick one", Options: []string{"A", "B"}},
				{Type: model.QuestionTypeMultiChoice, Text: "Pick many", Options: []string{"A", "B", "C", "D"}},
			}},
			{Title: "Text", Questions: []model.Question{
				{Type: model.QuestionTypeFreeText, Text: "Explain"},
				{Type: model.QuestionTypeFreeText, Text: "Explain more"},
			}},
		},
	}
}

func TestAnswerStoreSingleChoiceOverwrites(t *testing.T) {
	s := NewAnswerStore(mixedExam())

	require.NoError(t, s.SetSingleChoice(0, 0, 1))
	require.NoError(t, s.SetSingleChoice(0, 0, 2))

	a, ok := s.Get(0, 0)
	require.True(t, ok)
	assert.Equal(t, model.SingleChoice{Option: 2}, a)
}

func TestAnswerStoreRejectsWrongTag(t *testing.T) {
	s := NewAnswerStore(mixedExam())

	assert.ErrorIs(t, s.SetSingleChoice(0, 1, 1), ErrAnswerTypeMismatch)
	assert.ErrorIs(t, s.ToggleMultiChoice(0, 0, 1, true), ErrAnswerTypeMismatch)
	assert.ErrorIs(t, s.SetFreeText(0, 0, "text"), ErrAnswerTypeMismatch)

	_, ok := s.Get(0, 0)
	assert.False(t, ok, "rejected writes must not create a slot")
}

func TestAnswerStoreRejectsOutOfRange(t *testing.T) {
	s := NewAnswerStore(mixedExam())

	assert.ErrorIs(t, s.SetSingleChoice(0, 0, 0), ErrOutOfRange)
	assert.ErrorIs(t, s.SetSingleChoice(0, 0, 3), ErrOutOfRange)
	assert.ErrorIs(t, s.SetFreeText(2, 0, "x"), ErrOutOfRange)
	assert.ErrorIs(t, s.SetFreeText(1, 5, "x"), ErrOutOfRange)
}

func TestAnswerStoreToggleIsIdempotent(t *testing.T) {
	s := NewAnswerStore(mixedExam())

	require.NoError(t, s.ToggleMultiChoice(0, 1, 3, true))
	require.NoError(t, s.ToggleMultiChoice(0, 1, 3, true))
	require.NoError(t, s.ToggleMultiChoice(0, 1, 2, false))

	a, ok := s.Get(0, 1)
	require.True(t, ok)
	assert.Equal(t, model.MultiChoice{Options: []int{3}}, a)
}

func TestAnswerStoreEmptySetIsStoredButNotSubmitted(t *testing.T) {
	s := NewAnswerStore(mixedExam())

	require.NoError(t, s.ToggleMultiChoice(0, 1, 1, true))
	require.NoError(t, s.ToggleMultiChoice(0, 1, 1, false))

	a, ok := s.Get(0, 1)
	require.True(t, ok)
	assert.Empty(t, a.(model.MultiChoice).Options)
	assert.Empty(t, s.BuildSubmission().Sections)
}

func TestBuildSubmissionSortsMultiChoice(t *testing.T) {
	s := NewAnswerStore(mixedExam())

	for _, step := range []struct {
		option   int
		selected bool
	}{{4, true}, {1, true}, {3, true}, {1, false}, {2, true}, {4, true}, {1, true}} {
		require.NoError(t, s.ToggleMultiChoice(0, 1, step.option, step.selected))
	}

	sub := s.BuildSubmission()
	require.Len(t, sub.Sections, 1)
	require.Len(t, sub.Sections[0].Answers, 1)
	assert.Equal(t, []int{1, 2, 3, 4}, sub.Sections[0].Answers[0].CorrectOptions)
}

func TestBuildSubmissionFreeText(t *testing.T) {
	s := NewAnswerStore(mixedExam())

	require.NoError(t, s.SetFreeText(1, 0, ""))
	require.NoError(t, s.SetFreeText(1, 1, "   "))
	assert.Empty(t, s.BuildSubmission().Sections)

	a, ok := s.Get(1, 0)
	require.True(t, ok, "empty text is still a stored answer")
	assert.Equal(t, model.FreeText{Text: ""}, a)

	require.NoError(t, s.SetFreeText(1, 1, "  x "))
	sub := s.BuildSubmission()
	require.Len(t, sub.Sections, 1)
	assert.Equal(t, 2, sub.Sections[0].SectionID)
	require.Len(t, sub.Sections[0].Answers, 1)
	assert.Equal(t, 2, sub.Sections[0].Answers[0].QuestionNumber)
	assert.Equal(t, "  x ", *sub.Sections[0].Answers[0].Answer)
}

func TestBuildSubmissionOrderAndIdempotence(t *testing.T) {
	s := NewAnswerStore(mixedExam())

	require.NoError(t, s.SetFreeText(1, 1, "second"))
	require.NoError(t, s.SetFreeText(1, 0, "first"))
	require.NoError(t, s.ToggleMultiChoice(0, 1, 2, true))
	require.NoError(t, s.SetSingleChoice(0, 0, 1))

	first, err := json.Marshal(s.BuildSubmission())
	require.NoError(t, err)
	second, err := json.Marshal(s.BuildSubmission())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.JSONEq(t, `{"sections": [
	  {"sectionId": 1, "answers": [
	    {"questionNumber": 1, "CorrectOption": 1},
	    {"questionNumber": 2, "CorrectOptions": [2]}
	  ]},
	  {"sectionId": 2, "answers": [
	    {"questionNumber": 1, "answer": "first"},
	    {"questionNumber": 2, "answer": "second"}
	  ]}
	]}`, string(first))
	assert.Equal(t, 4, s.AnsweredCount())
}

func TestBuildSubmissionEmptyStore(t *testing.T) {
	b, err := json.Marshal(NewAnswerStore(mixedExam()).BuildSubmission())
	require.NoError(t, err)
	assert.JSONEq(t, `{"sections": []}`, string(b))
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewAnswerStore(mixedExam())
	require.NoError(t, s.ToggleMultiChoice(0, 1, 1, true))

	a, _ := s.Get(0, 1)
	a.(model.MultiChoice).Options[0] = 4

	b, _ := s.Get(0, 1)
	assert.Equal(t, []int{1}, b.(model.MultiChoice).Options)
}

func TestSubmittable(t *testing.T) {
	assert.True(t, Submittable(model.SingleChoice{Option: 1}))
	assert.True(t, Submittable(model.MultiChoice{Options: []int{2}}))
	assert.True(t, Submittable(model.FreeText{Text: " x "}))
	assert.False(t, Submittable(model.MultiChoice{}))
	assert.False(t, Submittable(model.FreeText{Text: "  "}))
	assert.False(t, Submittable(nil))
}
