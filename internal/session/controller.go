package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/host"
	"github.com/stemsi/exstem-proctor/internal/model"
)

const (
	DefaultFinalWarningDelay  = 2 * time.Second
	DefaultViolationHideDelay = 3 * time.Second

	finalSaveTimeout = 10 * time.Second
)

// Saver persists a submission on the exam service.
type Saver interface {
	SaveAnswers(ctx context.Context, sub *model.Submission) error
}

// Presenter is the UI the session drives. Calls may come from the event
// loop, from timers and from save goroutines.
type Presenter interface {
	Render(snap Snapshot)
	ShowViolation(v Violation)
	HideViolation()
	ShowError(err error)
	ShowNotice(msg string)
}

// KeyHandler receives the key events the monitor did not swallow.
type KeyHandler interface {
	HandleKey(ctx context.Context, ev host.KeyEvent)
}

// Options configures a Controller. Zero delays act immediately.
type Options struct {
	Email     string
	Token     string
	TestID    int64
	AttemptID int64
	Exam      *model.Exam
	// Duration is the exam time limit; zero or less means untimed.
	Duration time.Duration

	Saver     Saver
	Host      host.Host
	Presenter Presenter
	Keys      KeyHandler
	Observers []Observer
	Clock     Clock
	Log       zerolog.Logger

	FinalWarningDelay  time.Duration
	ViolationHideDelay time.Duration
}

// Controller owns one exam attempt: navigation, answers, the clock and the
// violation policy. EndSession is the only way a session finishes.
type Controller struct {
	mu sync.Mutex

	id        uuid.UUID
	email     string
	token     string
	testID    int64
	attemptID int64

	exam      *model.Exam
	store     *AnswerStore
	nav       *Navigator
	countdown *Countdown
	monitor   *Monitor

	saver     Saver
	host      host.Host
	presenter Presenter
	keys      KeyHandler
	observers []Observer
	log       zerolog.Logger

	finalWarningDelay time.Duration
	hideDelay         time.Duration

	saving      bool
	ending      bool
	terminating bool
	bannerSeq   int
	done        chan struct{}
}

// NewController creates a session positioned on the first question with no
// answers and no strikes.
func NewController(opts Options) *Controller {
	exam := opts.Exam
	if exam == nil {
		exam = model.EmptyExam()
	}
	presenter := opts.Presenter
	if presenter == nil {
		presenter = nopPresenter{}
	}

	id := uuid.New()
	return &Controller{
		id:        id,
		email:     opts.Email,
		token:     opts.Token,
		testID:    opts.TestID,
		attemptID: opts.AttemptID,

		exam:      exam,
		store:     NewAnswerStore(exam),
		nav:       NewNavigator(exam),
		countdown: NewCountdownSeconds(int(opts.Duration / time.Second)),
		monitor:   NewMonitor(opts.Clock),

		saver:     opts.Saver,
		host:      opts.Host,
		presenter: presenter,
		keys:      opts.Keys,
		observers: opts.Observers,
		log: opts.Log.With().
			Str("component", "session").
			Str("session_id", id.String()).
			Int64("attempt_id", opts.AttemptID).
			Logger(),

		finalWarningDelay: opts.FinalWarningDelay,
		hideDelay:         opts.ViolationHideDelay,
		done:              make(chan struct{}),
	}
}

// ID identifies this session in logs and observer events.
func (c *Controller) ID() uuid.UUID { return c.id }

// Exam returns the read-only question document.
func (c *Controller) Exam() *model.Exam { return c.exam }

// Done is closed once the session has ended.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	section, question := c.nav.Position()
	return Snapshot{
		SessionID:      c.id,
		TestID:         c.testID,
		AttemptID:      c.attemptID,
		ExamTitle:      c.exam.Title,
		Section:        section,
		Question:       question,
		SectionCount:   c.exam.SectionCount(),
		QuestionCount:  len(c.exam.Questions(section)),
		Answered:       c.store.AnsweredCount(),
		TotalQuestions: c.exam.QuestionCount(),
		Remaining:      c.countdown.Remaining(),
		RemainingText:  c.countdown.String(),
		TimerState:     c.countdown.State().String(),
		Violations:     c.monitor.Count(),
		ViolationLimit: c.monitor.Limit(),
		Saving:         c.saving,
		Ending:         c.ending,
	}
}

// Answer returns the stored answer of a slot.
func (c *Controller) Answer(section, question int) (model.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get(section, question)
}

// ─── User interaction ──────────────────────────────────────────────────

func (c *Controller) SelectSection(i int) error {
	return c.mutate(func() error { return c.nav.SelectSection(i) })
}

func (c *Controller) SelectQuestion(i int) error {
	return c.mutate(func() error { return c.nav.SelectQuestion(i) })
}

// Advance moves to the next question of the current section.
func (c *Controller) Advance() (AdvanceResult, error) {
	var res AdvanceResult
	err := c.mutate(func() error {
		res = c.nav.Advance()
		return nil
	})
	return res, err
}

func (c *Controller) SetSingleChoice(section, question, option int) error {
	return c.mutate(func() error { return c.store.SetSingleChoice(section, question, option) })
}

func (c *Controller) ToggleMultiChoice(section, question, option int, selected bool) error {
	return c.mutate(func() error { return c.store.ToggleMultiChoice(section, question, option, selected) })
}

func (c *Controller) SetFreeText(section, question int, text string) error {
	return c.mutate(func() error { return c.store.SetFreeText(section, question, text) })
}

func (c *Controller) mutate(fn func() error) error {
	c.mu.Lock()
	if err := c.interactiveLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	err := fn()
	c.mu.Unlock()

	if err == nil {
		c.render()
	}
	return err
}

func (c *Controller) interactiveLocked() error {
	if c.ending {
		return ErrSessionEnded
	}
	if c.saving {
		return ErrInteractionLocked
	}
	return nil
}

// ─── Save / end ────────────────────────────────────────────────────────

// Save sends the current answers. Interaction is locked until the call
// returns. A failure leaves the session running so the user can retry.
func (c *Controller) Save(ctx context.Context) error {
	if c.saver == nil {
		c.presenter.ShowError(ErrNoSaver)
		return ErrNoSaver
	}

	c.mu.Lock()
	if c.ending {
		c.mu.Unlock()
		return ErrSessionEnded
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	c.saving = true
	sub := c.submissionLocked()
	c.mu.Unlock()

	c.render()
	err := c.saver.SaveAnswers(ctx, sub)

	c.mu.Lock()
	c.saving = false
	remaining := c.countdown.Remaining()
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Msg("Save failed")
		c.notify(Event{Type: EventSaveFailed, Remaining: remaining, Error: err.Error()})
		c.presenter.ShowError(err)
		c.render()
		return fmt.Errorf("save answers: %w", err)
	}

	c.log.Info().Int("sections", len(sub.Answer.Sections)).Msg("Answers saved")
	c.notify(Event{Type: EventSaved, Remaining: remaining})
	c.presenter.ShowNotice("Answers saved.")
	c.render()
	return nil
}

// EndSession finishes the attempt. Only the first call does anything: it
// saves once more, ignoring failure, and terminates the host.
func (c *Controller) EndSession(ctx context.Context, reason EndReason) {
	c.mu.Lock()
	if c.ending {
		c.mu.Unlock()
		return
	}
	c.ending = true
	c.countdown.Stop()
	sub := c.submissionLocked()
	remaining := c.countdown.Remaining()
	c.mu.Unlock()

	defer close(c.done)
	defer c.terminateHost()

	log := c.log.With().Str("reason", string(reason)).Logger()
	log.Info().Int("remaining_seconds", remaining).Msg("Ending session")

	if err := c.finalSave(ctx, sub); err != nil {
		log.Error().Err(err).Msg("Final save failed, terminating anyway")
	}
	c.notify(Event{Type: EventEnded, Remaining: remaining, Reason: reason})
}

func (c *Controller) finalSave(ctx context.Context, sub *model.Submission) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("final save panicked: %v", r)
		}
	}()
	if c.saver == nil {
		return ErrNoSaver
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
	defer cancel()
	return c.saver.SaveAnswers(saveCtx, sub)
}

func (c *Controller) terminateHost() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("Host terminate panicked")
		}
	}()
	if c.host != nil {
		c.host.Terminate()
	}
}

func (c *Controller) submissionLocked() *model.Submission {
	return &model.Submission{
		Email:     c.email,
		Token:     c.token,
		AttemptID: c.attemptID,
		Answer:    c.store.BuildSubmission(),
	}
}

// ─── Clock and host events ─────────────────────────────────────────────

// Tick advances the clock by one second and ends the session on expiry.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	if c.ending {
		c.mu.Unlock()
		return
	}
	expired := c.countdown.Tick()
	remaining := c.countdown.Remaining()
	c.mu.Unlock()

	c.notify(Event{Type: EventTick, Remaining: remaining})
	c.render()

	if expired {
		c.log.Info().Msg("Time is up")
		c.EndSession(ctx, EndReasonTimeUp)
	}
}

// HandleEvent runs a host event through the violation monitor and
// forwards keys it did not swallow to the key handler.
func (c *Controller) HandleEvent(ctx context.Context, ev host.Event) {
	c.mu.Lock()
	if c.ending {
		c.mu.Unlock()
		return
	}

	var verdict Verdict
	switch e := ev.(type) {
	case host.KeyEvent:
		verdict = c.monitor.HandleKey(e)
	case host.FocusEvent:
		verdict = c.monitor.HandleFocus(e)
	}

	var seq int
	var endAfter bool
	if v := verdict.Violation; v != nil {
		c.bannerSeq++
		seq = c.bannerSeq
		if v.LimitReached() && !c.terminating {
			c.terminating = true
			endAfter = true
		}
	}
	c.mu.Unlock()

	if verdict.Restore && c.host != nil {
		if err := c.host.Restore(); err != nil {
			c.log.Warn().Err(err).Msg("Window restore refused")
		}
	}

	if v := verdict.Violation; v != nil {
		c.onViolation(ctx, *v, seq, endAfter)
	}

	if key, ok := ev.(host.KeyEvent); ok && !verdict.Swallow && c.keys != nil {
		c.keys.HandleKey(ctx, key)
	}
}

func (c *Controller) onViolation(ctx context.Context, v Violation, seq int, endAfter bool) {
	c.log.Warn().
		Str("kind", string(v.Kind)).
		Str("reason", v.Reason).
		Int("count", v.Count).
		Int("limit", v.Limit).
		Msg("Violation recorded")

	c.presenter.ShowViolation(v)
	c.notify(Event{Type: EventViolation, Remaining: c.Snapshot().Remaining, Violation: &v})
	c.render()

	if v.LimitReached() {
		if endAfter {
			c.after(c.finalWarningDelay, func() {
				c.EndSession(ctx, EndReasonViolationLimit)
			})
		}
		return
	}
	c.after(c.hideDelay, func() { c.hideViolation(seq) })
}

// hideViolation clears the banner unless a newer one replaced it or the
// session is over.
func (c *Controller) hideViolation(seq int) {
	c.mu.Lock()
	stale := c.ending || seq != c.bannerSeq
	c.mu.Unlock()
	if !stale {
		c.presenter.HideViolation()
	}
}

func (c *Controller) after(d time.Duration, fn func()) {
	if d <= 0 {
		fn()
		return
	}
	time.AfterFunc(d, fn)
}

// Run is the session's event loop. It returns once the session has ended,
// or after ending it when ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info().
		Int64("test_id", c.testID).
		Int("sections", c.exam.SectionCount()).
		Int("questions", c.exam.QuestionCount()).
		Int("duration_seconds", c.countdown.Remaining()).
		Msg("Session started")
	c.render()

	var ticks <-chan time.Time
	if c.countdown.State() == TimerRunning {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		ticks = ticker.C
	}

	var events <-chan host.Event
	if c.host != nil {
		events = c.host.Events()
	}

	for {
		select {
		case <-c.done:
			return nil
		case <-ctx.Done():
			c.EndSession(ctx, EndReasonInterrupted)
			return ctx.Err()
		case <-ticks:
			c.Tick(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.HandleEvent(ctx, ev)
		}
	}
}

func (c *Controller) render() {
	c.presenter.Render(c.Snapshot())
}

func (c *Controller) notify(ev Event) {
	ev.SessionID = c.id
	ev.AttemptID = c.attemptID
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	for _, o := range c.observers {
		o.OnEvent(ev)
	}
}

type nopPresenter struct{}

func (nopPresenter) Render(Snapshot)         {}
func (nopPresenter) ShowViolation(Violation) {}
func (nopPresenter) HideViolation()          {}
func (nopPresenter) ShowError(error)         {}
func (nopPresenter) ShowNotice(string)       {}
