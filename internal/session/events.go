package session

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates what a session reports to its observers.
type EventType string

const (
	EventTick       EventType = "tick"
	EventViolation  EventType = "violation"
	EventSaved      EventType = "saved"
	EventSaveFailed EventType = "save_failed"
	EventEnded      EventType = "ended"
)

// EndReason records which trigger ended the session.
type EndReason string

const (
	EndReasonUser           EndReason = "user"
	EndReasonTimeUp         EndReason = "time_up"
	EndReasonViolationLimit EndReason = "violation_limit"
	EndReasonInterrupted    EndReason = "interrupted"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	SessionID      uuid.UUID `json:"session_id"`
	TestID         int64     `json:"test_id"`
	AttemptID      int64     `json:"attempt_id"`
	ExamTitle      string    `json:"exam_title"`
	Section        int       `json:"section"`
	Question       int       `json:"question"`
	SectionCount   int       `json:"section_count"`
	QuestionCount  int       `json:"question_count"`
	Answered       int       `json:"answered"`
	TotalQuestions int       `json:"total_questions"`
	Remaining      int       `json:"remaining_seconds"`
	RemainingText  string    `json:"remaining"`
	TimerState     string    `json:"timer_state"`
	Violations     int       `json:"violations"`
	ViolationLimit int       `json:"violation_limit"`
	Saving         bool      `json:"saving"`
	Ending         bool      `json:"ending"`
}

// Event is one notification to observers.
type Event struct {
	Type      EventType  `json:"type"`
	SessionID uuid.UUID  `json:"session_id"`
	AttemptID int64      `json:"attempt_id"`
	At        time.Time  `json:"at"`
	Remaining int        `json:"remaining_seconds"`
	Violation *Violation `json:"violation,omitempty"`
	Reason    EndReason  `json:"reason,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Observer receives session events. OnEvent is called synchronously from
// the session and must not block.
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) OnEvent(ev Event) { f(ev) }
