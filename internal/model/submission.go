package model

// Submission is the body sent to the answer persistence endpoint.
type Submission struct {
	Email     string           `json:"email"`
	Token     string           `json:"token"`
	AttemptID int64            `json:"attempt_id"`
	Answer    SubmissionAnswer `json:"answer"`
}

// SubmissionAnswer carries only the sections that contribute answers.
type SubmissionAnswer struct {
	Sections []SectionAnswers `json:"sections"`
}

// SectionAnswers groups the answers of one section. SectionID is 1-based.
type SectionAnswers struct {
	SectionID int              `json:"sectionId"`
	Answers   []QuestionAnswer `json:"answers"`
}

// QuestionAnswer is one answered question. Exactly one of CorrectOption,
// CorrectOptions and Answer is set, according to the question type.
type QuestionAnswer struct {
	QuestionNumber int     `json:"questionNumber"`
	CorrectOption  *int    `json:"CorrectOption,omitempty"`
	CorrectOptions []int   `json:"CorrectOptions,omitempty"`
	Answer         *string `json:"answer,omitempty"`
}

// SaveAnswersResponse is the acknowledgment of a successful save.
type SaveAnswersResponse struct {
	Message string `json:"message"`
}
