package model

import "encoding/json"

// LoginRequest is the payload for authenticating a test-taker.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Birthdate string `json:"birthdate" validate:"required,datetime=2006-01-02"`
}

// LoginResponse carries the session token and the tests open to the user.
type LoginResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	Tests   []TestSummary `json:"tests"`
}

// TestSummary is one entry of the test list.
type TestSummary struct {
	TestID          int64  `json:"test_id"`
	TestName        string `json:"test_name"`
	TestStartTime   string `json:"test_start_time"`
	TestEndTime     string `json:"test_end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

// InitTestRequest opens an attempt for a test.
type InitTestRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Token  string `json:"token" validate:"required"`
	TestID int64  `json:"test_id" validate:"gt=0"`
}

// InitTestResponse returns the attempt id and the instructions to display.
type InitTestResponse struct {
	Message      string `json:"message"`
	Instructions string `json:"instructions"`
	AttemptID    int64  `json:"attempt_id"`
}

// InstructionText returns the instructions, falling back to the message.
func (r *InitTestResponse) InstructionText() string {
	if r.Instructions != "" {
		return r.Instructions
	}
	return r.Message
}

// StartTestRequest starts the timed part of an attempt.
type StartTestRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Token     string `json:"token" validate:"required"`
	TestID    int64  `json:"test_id" validate:"gt=0"`
	AttemptID int64  `json:"attempt_id" validate:"gt=0"`
}

// StartTestResponse carries the question document of the attempt.
// QuestionJSON is kept raw and handed to ParseExam.
type StartTestResponse struct {
	Message         string          `json:"message"`
	QuestionJSON    json.RawMessage `json:"question_json"`
	DurationMinutes int             `json:"duration_minutes"`
}
