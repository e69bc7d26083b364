package model

// QuestionType enumerates the answer shapes a question accepts.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "mcq"
	QuestionTypeMultiChoice  QuestionType = "msq"
	QuestionTypeFreeText     QuestionType = "open-ended"
)

// IsChoice reports whether answers to this type are option indices.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeSingleChoice || t == QuestionTypeMultiChoice
}

// Question represents a single exam question as delivered by the portal.
type Question struct {
	Type    QuestionType `json:"type"`
	Text    string       `json:"questionText"`
	Options []string     `json:"options,omitempty"`
}

// Section is an ordered group of questions.
type Section struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}
