package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "title": "Physics Midterm",
  "sections": [
    {"title": "Mechanics", "questions": [
      {"type": "mcq", "questionText": "g on Earth?", "options": ["9.8", "1.6"]},
      {"type": "msq", "questionText": "Vectors?", "options": ["velocity", "mass", "force"]}
    ]},
    {"title": "Essay", "questions": [
      {"type": "open-ended", "questionText": "Explain inertia."}
    ]}
  ]
}`

func TestParseExam(t *testing.T) {
	exam := ParseExam([]byte(sampleDocument))

	assert.Equal(t, "Physics Midterm", exam.Title)
	assert.Equal(t, 2, exam.SectionCount())
	assert.Equal(t, []string{"Mechanics", "Essay"}, exam.SectionTitles())
	assert.Equal(t, 3, exam.QuestionCount())

	q, ok := exam.Question(0, 1)
	require.True(t, ok)
	assert.Equal(t, QuestionTypeMultiChoice, q.Type)
	assert.Equal(t, []string{"velocity", "mass", "force"}, q.Options)

	q, ok = exam.Question(1, 0)
	require.True(t, ok)
	assert.Equal(t, QuestionTypeFreeText, q.Type)
	assert.Empty(t, q.Options)

	_, ok = exam.Question(1, 1)
	assert.False(t, ok)
	assert.Nil(t, exam.Questions(5))
}

func TestParseExamStringWrapped(t *testing.T) {
	wrapped, err := json.Marshal(sampleDocument)
	require.NoError(t, err)

	exam := ParseExam(wrapped)
	assert.Equal(t, "Physics Midterm", exam.Title)
	assert.Equal(t, 2, exam.SectionCount())
}

func TestParseExamMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":        ``,
		"syntax error": `{"title": "x", "sections": [`,
		"array":        `[1, 2]`,
		"null":         `null`,
		"bad string":   `"{not json"`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			exam := ParseExam([]byte(doc))
			assert.Equal(t, DefaultExamTitle, exam.Title)
			assert.Zero(t, exam.SectionCount())
		})
	}
}

func TestParseExamDegradesPerField(t *testing.T) {
	exam := ParseExam([]byte(`{
	  "title": 42,
	  "sections": [
	    "not a section",
	    {"title": "Only", "questions": [
	      {"type": "essay", "questionText": "Unknown type"},
	      {"type": "mcq", "questionText": "No options"},
	      7
	    ]},
	    {"title": "Missing questions"}
	  ]
	}`))

	assert.Equal(t, DefaultExamTitle, exam.Title)
	require.Equal(t, 3, exam.SectionCount())
	assert.Empty(t, exam.Questions(0))

	qs := exam.Questions(1)
	require.Len(t, qs, 3)
	assert.Equal(t, QuestionTypeFreeText, qs[0].Type)
	assert.Equal(t, QuestionTypeSingleChoice, qs[1].Type)
	assert.Empty(t, qs[1].Options)
	assert.Equal(t, QuestionTypeFreeText, qs[2].Type)

	assert.Equal(t, "Missing questions", exam.Sections[2].Title)
	assert.Empty(t, exam.Questions(2))
}

func TestParseExamMissingSections(t *testing.T) {
	exam := ParseExam([]byte(`{"title": "Quiz"}`))
	assert.Equal(t, "Quiz", exam.Title)
	assert.Zero(t, exam.SectionCount())
}

func TestSubmissionEncoding(t *testing.T) {
	opt := 2
	text := "because"
	sub := Submission{
		Email:     "a@b.test",
		Token:     "tok",
		AttemptID: 9,
		Answer: SubmissionAnswer{Sections: []SectionAnswers{{
			SectionID: 1,
			Answers: []QuestionAnswer{
				{QuestionNumber: 1, CorrectOption: &opt},
				{QuestionNumber: 2, CorrectOptions: []int{1, 3}},
				{QuestionNumber: 3, Answer: &text},
			},
		}}},
	}

	b, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{
	  "email": "a@b.test", "token": "tok", "attempt_id": 9,
	  "answer": {"sections": [{"sectionId": 1, "answers": [
	    {"questionNumber": 1, "CorrectOption": 2},
	    {"questionNumber": 2, "CorrectOptions": [1, 3]},
	    {"questionNumber": 3, "answer": "because"}
	  ]}]}
	}`, string(b))
}

func TestInstructionText(t *testing.T) {
	r := InitTestResponse{Message: "Test initialized"}
	assert.Equal(t, "Test initialized", r.InstructionText())
	r.Instructions = "Read carefully."
	assert.Equal(t, "Read carefully.", r.InstructionText())
}
