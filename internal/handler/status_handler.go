package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/session"
)

// SessionView is the read side of a running session.
type SessionView interface {
	Snapshot() session.Snapshot
	Exam() *model.Exam
	Answer(section, question int) (model.Answer, bool)
}

// StatusHandler serves the session state to local invigilator tools.
type StatusHandler struct {
	view SessionView
	log  zerolog.Logger
}

func NewStatusHandler(view SessionView, log zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		view: view,
		log:  log.With().Str("component", "status_handler").Logger(),
	}
}

// GetSession godoc
// GET /api/v1/session
// Returns a snapshot of position, progress, time and strikes.
func (h *StatusHandler) GetSession(c *gin.Context) {
	if h.view == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, h.view.Snapshot())
}

type outlineQuestion struct {
	Number   int                `json:"number"`
	Type     model.QuestionType `json:"type"`
	Answered bool               `json:"answered"`
}

type outlineSection struct {
	ID        int               `json:"id"`
	Title     string            `json:"title"`
	Questions []outlineQuestion `json:"questions"`
}

type outline struct {
	Title    string           `json:"title"`
	Sections []outlineSection `json:"sections"`
}

// GetOutline godoc
// GET /api/v1/session/outline
// Lists sections and questions with their answered state. Question text and
// answer values are never exposed.
func (h *StatusHandler) GetOutline(c *gin.Context) {
	if h.view == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrNoActiveSession)
		return
	}

	exam := h.view.Exam()
	out := outline{Title: exam.Title, Sections: make([]outlineSection, 0, len(exam.Sections))}
	for s, sec := range exam.Sections {
		entry := outlineSection{ID: s + 1, Title: sec.Title, Questions: make([]outlineQuestion, 0, len(sec.Questions))}
		for q, question := range sec.Questions {
			a, stored := h.view.Answer(s, q)
			answered := stored && session.Submittable(a)
			entry.Questions = append(entry.Questions, outlineQuestion{
				Number:   q + 1,
				Type:     question.Type,
				Answered: answered,
			})
		}
		out.Sections = append(out.Sections, entry)
	}
	response.Success(c, http.StatusOK, out)
}
