package model

import (
	"bytes"
	"encoding/json"
)

// DefaultExamTitle is used when the document carries no usable title.
const DefaultExamTitle = "Test"

// Exam is the read-only question document of one attempt. Sections and
// questions are addressed by their 0-based position for the whole session.
type Exam struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// EmptyExam returns the exam used when the document cannot be read.
func EmptyExam() *Exam {
	return &Exam{Title: DefaultExamTitle, Sections: []Section{}}
}

// SectionCount returns the number of sections.
func (e *Exam) SectionCount() int {
	return len(e.Sections)
}

// SectionTitles returns the section titles in order.
func (e *Exam) SectionTitles() []string {
	titles := make([]string, len(e.Sections))
	for i, s := range e.Sections {
		titles[i] = s.Title
	}
	return titles
}

// Questions returns the questions of section s, or nil when s is out of range.
func (e *Exam) Questions(s int) []Question {
	if s < 0 || s >= len(e.Sections) {
		return nil
	}
	return e.Sections[s].Questions
}

// Question looks up a single question.
func (e *Exam) Question(s, q int) (Question, bool) {
	qs := e.Questions(s)
	if q < 0 || q >= len(qs) {
		return Question{}, false
	}
	return qs[q], true
}

// QuestionCount returns the number of questions across all sections.
func (e *Exam) QuestionCount() int {
	n := 0
	for _, s := range e.Sections {
		n += len(s.Questions)
	}
	return n
}

type rawExam struct {
	Title    json.RawMessage `json:"title"`
	Sections json.RawMessage `json:"sections"`
}

type rawSection struct {
	Title     json.RawMessage `json:"title"`
	Questions json.RawMessage `json:"questions"`
}

type rawQuestion struct {
	Type    json.RawMessage `json:"type"`
	Text    json.RawMessage `json:"questionText"`
	Options json.RawMessage `json:"options"`
}

// ParseExam builds an Exam from the portal's question document. It never
// fails: a document that is not a JSON object yields EmptyExam, and each
// missing or mistyped field degrades on its own without shifting the
// position of its siblings. The document may also be a JSON string that
// itself contains the object.
func ParseExam(raw []byte) *Exam {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return EmptyExam()
		}
		raw = bytes.TrimSpace([]byte(inner))
	}

	var doc rawExam
	if len(raw) == 0 || raw[0] != '{' || json.Unmarshal(raw, &doc) != nil {
		return EmptyExam()
	}

	exam := EmptyExam()
	if title := decodeString(doc.Title); title != "" {
		exam.Title = title
	}

	var sections []json.RawMessage
	if json.Unmarshal(doc.Sections, &sections) != nil {
		return exam
	}
	exam.Sections = make([]Section, 0, len(sections))
	for _, rs := range sections {
		exam.Sections = append(exam.Sections, parseSection(rs))
	}
	return exam
}

func parseSection(raw json.RawMessage) Section {
	section := Section{Questions: []Question{}}

	var rs rawSection
	if json.Unmarshal(raw, &rs) != nil {
		return section
	}
	section.Title = decodeString(rs.Title)

	var questions []json.RawMessage
	if json.Unmarshal(rs.Questions, &questions) != nil {
		return section
	}
	for _, rq := range questions {
		section.Questions = append(section.Questions, parseQuestion(rq))
	}
	return section
}

func parseQuestion(raw json.RawMessage) Question {
	q := Question{Type: QuestionTypeFreeText}

	var rq rawQuestion
	if json.Unmarshal(raw, &rq) != nil {
		return q
	}
	q.Text = decodeString(rq.Text)

	switch t := QuestionType(decodeString(rq.Type)); t {
	case QuestionTypeSingleChoice, QuestionTypeMultiChoice:
		q.Type = t
	}

	if q.Type.IsChoice() {
		var options []json.RawMessage
		if json.Unmarshal(rq.Options, &options) == nil {
			q.Options = make([]string, 0, len(options))
			for _, o := range options {
				q.Options = append(q.Options, decodeString(o))
			}
		}
	}
	return q
}

// decodeString returns the JSON string in raw, or "" for anything else.
func decodeString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
