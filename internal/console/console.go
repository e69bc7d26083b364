// Package console draws the exam on the host screen and turns the keys the
// violation monitor lets through into session operations.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/host"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/session"
)

const (
	styleReset  = "\x1b[0m"
	styleBold   = "\x1b[1m"
	styleAlert  = "\x1b[1;37;41m"
	styleDim    = "\x1b[2m"
)

// Display shows one full frame of text at a time.
type Display interface {
	Draw(frame string)
	Size() (width, height int)
}

type mode int

const (
	modeNormal mode = iota
	modeEditing
	modeConfirmEnd
)

// Session is what the console drives.
type Session interface {
	Snapshot() session.Snapshot
	Exam() *model.Exam
	Answer(section, question int) (model.Answer, bool)
	SelectSection(i int) error
	SelectQuestion(i int) error
	Advance() (session.AdvanceResult, error)
	SetSingleChoice(section, question, option int) error
	ToggleMultiChoice(section, question, option int, selected bool) error
	SetFreeText(section, question int, text string) error
	Save(ctx context.Context) error
	EndSession(ctx context.Context, reason session.EndReason)
}

// Console implements session.Presenter and session.KeyHandler.
type Console struct {
	display Display
	log     zerolog.Logger

	mu      sync.Mutex
	sess    Session
	mode    mode
	edit    []rune
	banner  *session.Violation
	notice  string
	errText string
	last    session.Snapshot
	hasLast bool
}

// New returns a console drawing on display.
func New(display Display, log zerolog.Logger) *Console {
	return &Console{
		display: display,
		log:     log.With().Str("component", "console").Logger(),
	}
}

// Attach binds the console to the session it drives.
func (c *Console) Attach(s Session) {
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
}

// ─── session.Presenter ─────────────────────────────────────────────────

func (c *Console) Render(snap session.Snapshot) {
	c.mu.Lock()
	c.last, c.hasLast = snap, true
	c.mu.Unlock()
	c.draw()
}

func (c *Console) ShowViolation(v session.Violation) {
	c.mu.Lock()
	c.banner = &v
	c.mu.Unlock()
	c.draw()
}

func (c *Console) HideViolation() {
	c.mu.Lock()
	c.banner = nil
	c.mu.Unlock()
	c.draw()
}

func (c *Console) ShowError(err error) {
	c.log.Debug().Err(err).Msg("Showing error")
	c.mu.Lock()
	c.errText = response.UserMessage(err)
	c.notice = ""
	c.mu.Unlock()
	c.draw()
}

func (c *Console) ShowNotice(msg string) {
	c.mu.Lock()
	c.notice = msg
	c.errText = ""
	c.mu.Unlock()
	c.draw()
}

// ─── session.KeyHandler ────────────────────────────────────────────────

func (c *Console) HandleKey(ctx context.Context, ev host.KeyEvent) {
	c.mu.Lock()
	sess, m := c.sess, c.mode
	c.mu.Unlock()
	if sess == nil {
		return
	}

	switch m {
	case modeEditing:
		c.handleEditKey(sess, ev)
	case modeConfirmEnd:
		c.setMode(modeNormal)
		if ev.Key == host.KeyRune && (ev.Rune == 'y' || ev.Rune == 'Y') {
			go sess.EndSession(context.WithoutCancel(ctx), session.EndReasonUser)
			return
		}
		c.ShowNotice("")
	default:
		c.handleNormalKey(ctx, sess, ev)
	}
}

func (c *Console) handleNormalKey(ctx context.Context, sess Session, ev host.KeyEvent) {
	snap := sess.Snapshot()
	sec, q := snap.Section, snap.Question

	switch {
	case ev.Key == host.KeyRight || ev.Key == host.KeyRune && ev.Rune == 'n':
		res, err := sess.Advance()
		if err != nil {
			c.ShowError(err)
			return
		}
		if res == session.AtSectionEnd {
			c.ShowNotice(sectionEndNotice(snap))
		}
	case ev.Key == host.KeyLeft || ev.Key == host.KeyRune && ev.Rune == 'p':
		if q > 0 {
			c.report(sess.SelectQuestion(q - 1))
		}
	case ev.Key == host.KeyRune && ev.Rune == ']':
		if sec+1 < snap.SectionCount {
			c.report(sess.SelectSection(sec + 1))
		}
	case ev.Key == host.KeyRune && ev.Rune == '[':
		if sec > 0 {
			c.report(sess.SelectSection(sec - 1))
		}
	case ev.Key == host.KeyRune && ev.Rune >= '1' && ev.Rune <= '9':
		c.choose(sess, sec, q, int(ev.Rune-'0'))
	case ev.Key == host.KeyRune && ev.Rune == 't':
		c.startEdit(sess, snap)
	case ev.Key == host.KeyRune && ev.Rune == 's':
		go func() {
			// Failures reach the user through ShowError.
			_ = sess.Save(ctx)
		}()
	case ev.Key == host.KeyRune && ev.Rune == 'q':
		c.setMode(modeConfirmEnd)
		c.ShowNotice("End the test and submit your answers? Press y to confirm, any other key to cancel.")
	}
}

func sectionEndNotice(snap session.Snapshot) string {
	if snap.Section+1 < snap.SectionCount {
		return "End of section. Press ] for the next section."
	}
	return "Last question of the test. Press s to save or q to finish."
}

func (c *Console) choose(sess Session, sec, q, option int) {
	question, ok := sess.Exam().Question(sec, q)
	if !ok {
		return
	}
	switch question.Type {
	case model.QuestionTypeSingleChoice:
		c.report(sess.SetSingleChoice(sec, q, option))
	case model.QuestionTypeMultiChoice:
		selected := true
		if a, ok := sess.Answer(sec, q); ok {
			if mc, ok := a.(model.MultiChoice); ok && mc.Has(option) {
				selected = false
			}
		}
		c.report(sess.ToggleMultiChoice(sec, q, option, selected))
	}
}

func (c *Console) startEdit(sess Session, snap session.Snapshot) {
	question, ok := sess.Exam().Question(snap.Section, snap.Question)
	if !ok || question.Type != model.QuestionTypeFreeText {
		return
	}
	var current string
	if a, ok := sess.Answer(snap.Section, snap.Question); ok {
		if ft, ok := a.(model.FreeText); ok {
			current = ft.Text
		}
	}
	c.mu.Lock()
	c.mode = modeEditing
	c.edit = []rune(current)
	c.mu.Unlock()
	c.ShowNotice("Editing answer. Enter to keep, Esc to discard.")
}

func (c *Console) handleEditKey(sess Session, ev host.KeyEvent) {
	c.mu.Lock()
	switch {
	case ev.Key == host.KeyEnter:
		text := string(c.edit)
		c.mode, c.edit = modeNormal, nil
		c.mu.Unlock()
		snap := sess.Snapshot()
		if err := sess.SetFreeText(snap.Section, snap.Question, text); err != nil {
			c.ShowError(err)
			return
		}
		c.ShowNotice("")
		return
	case ev.Key == host.KeyEsc:
		c.mode, c.edit = modeNormal, nil
		c.mu.Unlock()
		c.ShowNotice("")
		return
	case ev.Key == host.KeyBackspace:
		if len(c.edit) > 0 {
			c.edit = c.edit[:len(c.edit)-1]
		}
	case ev.Key == host.KeyRune && ev.Mods&(host.ModCtrl|host.ModAlt|host.ModSuper) == 0:
		c.edit = append(c.edit, ev.Rune)
	}
	c.mu.Unlock()
	c.draw()
}

func (c *Console) setMode(m mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

func (c *Console) report(err error) {
	if err == nil {
		c.mu.Lock()
		c.errText = ""
		c.mu.Unlock()
		return
	}
	if errors.Is(err, session.ErrSessionEnded) {
		return
	}
	c.ShowError(err)
}

// ─── Drawing ───────────────────────────────────────────────────────────

func (c *Console) draw() {
	c.mu.Lock()
	sess := c.sess
	if sess == nil || !c.hasLast {
		c.mu.Unlock()
		return
	}
	snap := c.last
	width, _ := c.display.Size()
	view := frame{
		snap:    snap,
		width:   width,
		mode:    c.mode,
		edit:    string(c.edit),
		banner:  c.banner,
		notice:  c.notice,
		errText: c.errText,
	}
	c.mu.Unlock()

	view.question, view.hasQuestion = sess.Exam().Question(snap.Section, snap.Question)
	view.answer, view.answered = sess.Answer(snap.Section, snap.Question)
	view.sections = sess.Exam().SectionTitles()

	var b strings.Builder
	view.writeTo(&b)
	c.display.Draw(b.String())
}

type frame struct {
	snap        session.Snapshot
	width       int
	mode        mode
	edit        string
	banner      *session.Violation
	notice      string
	errText     string
	sections    []string
	question    model.Question
	hasQuestion bool
	answer      model.Answer
	answered    bool
}

func (f *frame) writeTo(b *strings.Builder) {
	s := f.snap
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(b, format, args...)
		b.WriteString("\n")
	}

	timer := s.RemainingText
	if s.TimerState == session.TimerIdle.String() {
		timer = "untimed"
	}
	line("%s%s%s   Time left: %s   Answered: %d/%d   Violations: %d/%d",
		styleBold, s.ExamTitle, styleReset, timer, s.Answered, s.TotalQuestions, s.Violations, s.ViolationLimit)

	if f.banner != nil {
		line("%s %s %s", styleAlert, bannerText(*f.banner), styleReset)
	}
	line("%s", strings.Repeat("─", max(10, min(f.width, 120))))

	if s.SectionCount == 0 {
		line("This test has no questions.")
	} else {
		title := ""
		if s.Section < len(f.sections) {
			title = f.sections[s.Section]
		}
		line("Section %d/%d: %s", s.Section+1, s.SectionCount, title)
		if f.hasQuestion {
			line("Question %d/%d", s.Question+1, s.QuestionCount)
			line("")
			for _, l := range wrap(f.question.Text, f.width) {
				line("%s", l)
			}
			line("")
			f.writeAnswer(line)
		} else {
			line("This section has no questions.")
		}
	}

	line("")
	switch {
	case s.Ending:
		line("%sThe test has ended. Submitting your answers...%s", styleBold, styleReset)
	case s.Saving:
		line("Saving...")
	case f.errText != "":
		line("%sError: %s%s", styleAlert, f.errText, styleReset)
	case f.notice != "":
		line("%s", f.notice)
	}
	line("%s[1-9] answer  [n/p] next/prev  [ [ / ] ] section  [t] type answer  [s] save  [q] finish%s", styleDim, styleReset)
}

func (f *frame) writeAnswer(line func(string, ...interface{})) {
	switch f.question.Type {
	case model.QuestionTypeSingleChoice, model.QuestionTypeMultiChoice:
		for i, opt := range f.question.Options {
			n := i + 1
			line("  %s %d. %s", f.marker(n), n, opt)
		}
	default:
		text := ""
		if ft, ok := f.answer.(model.FreeText); ok && f.answered {
			text = ft.Text
		}
		if f.mode == modeEditing {
			line("Your answer: %s_", f.edit)
			return
		}
		if text == "" {
			line("Your answer: %s(none, press t to type)%s", styleDim, styleReset)
			return
		}
		line("Your answer: %s", text)
	}
}

func (f *frame) marker(option int) string {
	switch a := f.answer.(type) {
	case model.SingleChoice:
		if a.Option == option {
			return "(•)"
		}
	case model.MultiChoice:
		if a.Has(option) {
			return "[x]"
		}
	}
	if f.question.Type == model.QuestionTypeMultiChoice {
		return "[ ]"
	}
	return "( )"
}

func bannerText(v session.Violation) string {
	if v.LimitReached() {
		return fmt.Sprintf("Maximum violations reached (%s). The test will now end.", v.Reason)
	}
	return fmt.Sprintf("Warning: %s. Violation %d of %d.", v.Reason, v.Count, v.Limit)
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	if width < 20 {
		width = 20
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		var cur []rune
		for _, word := range strings.Fields(para) {
			w := []rune(word)
			if len(cur) > 0 && len(cur)+1+len(w) > width {
				out = append(out, string(cur))
				cur = cur[:0]
			}
			if len(cur) > 0 {
				cur = append(cur, ' ')
			}
			cur = append(cur, w...)
		}
		out = append(out, string(cur))
	}
	return out
}
