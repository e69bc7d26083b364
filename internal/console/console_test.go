package console

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/host"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	mu     sync.Mutex
	frames []string
}

func (d *fakeDisplay) Draw(frame string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, frame)
}

func (d *fakeDisplay) Size() (int, int) { return 60, 24 }

func (d *fakeDisplay) lastFrame() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frames) == 0 {
		return ""
	}
	return d.frames[len(d.frames)-1]
}

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) SaveAnswers(ctx context.Context, sub *model.Submission) error {
	return m.Called(ctx, sub).Error(0)
}

func examFixture() *model.Exam {
	return &model.Exam{Title: "Physics", Sections: []model.Section{
		{Title: "Mechanics", Questions: []model.Question{
			{Type: model.QuestionTypeSingleChoice, Text: "Unit of force?", Options: []string{"Joule", "Newton"}},
			{Type: model.QuestionTypeMultiChoice, Text: "Vectors?", Options: []string{"Velocity", "Mass", "Force"}},
		}},
		{Title: "Essay", Questions: []model.Question{
			{Type: model.QuestionTypeFreeText, Text: "Explain inertia."},
		}},
	}}
}

func setup(t *testing.T) (*Console, *session.Controller, *fakeDisplay, *MockSaver) {
	t.Helper()
	out := &fakeDisplay{}
	saver := new(MockSaver)
	con := New(out, zerolog.Nop())
	ctrl := session.NewController(session.Options{
		AttemptID: 7,
		Exam:      examFixture(),
		Duration:  30 * time.Minute,
		Saver:     saver,
		Presenter: con,
		Keys:      con,
		Log:       zerolog.Nop(),
	})
	con.Attach(ctrl)
	con.Render(ctrl.Snapshot())
	return con, ctrl, out, saver
}

func press(con *Console, keys ...host.KeyEvent) {
	for _, k := range keys {
		con.HandleKey(context.Background(), k)
	}
}

func r(ch rune) host.KeyEvent { return host.KeyEvent{Key: host.KeyRune, Rune: ch} }

func TestDigitsAnswerChoiceQuestions(t *testing.T) {
	con, ctrl, out, _ := setup(t)

	press(con, r('2'))
	a, ok := ctrl.Answer(0, 0)
	require.True(t, ok)
	assert.Equal(t, model.SingleChoice{Option: 2}, a)
	assert.Contains(t, out.lastFrame(), "(•) 2. Newton")

	press(con, r('n'), r('1'), r('3'), r('1'))
	a, ok = ctrl.Answer(0, 1)
	require.True(t, ok)
	assert.Equal(t, model.MultiChoice{Options: []int{3}}, a)
	assert.Contains(t, out.lastFrame(), "[x] 3. Force")
}

func TestOutOfRangeOptionShowsError(t *testing.T) {
	con, ctrl, out, _ := setup(t)

	press(con, r('5'))

	_, ok := ctrl.Answer(0, 0)
	assert.False(t, ok)
	assert.Contains(t, out.lastFrame(), "Error: That option does not exist for this question.")
}

func TestNavigationKeys(t *testing.T) {
	con, ctrl, out, _ := setup(t)

	press(con, r('n'), r('n'))
	assert.Equal(t, 1, ctrl.Snapshot().Question)
	assert.Contains(t, out.lastFrame(), "End of section")

	press(con, r('p'))
	assert.Equal(t, 0, ctrl.Snapshot().Question)

	press(con, r(']'))
	snap := ctrl.Snapshot()
	assert.Equal(t, 1, snap.Section)
	assert.Contains(t, out.lastFrame(), "Section 2/2: Essay")

	press(con, r(']'))
	assert.Equal(t, 1, ctrl.Snapshot().Section, "no section past the last")

	press(con, r('['))
	assert.Equal(t, 0, ctrl.Snapshot().Section)
}

func TestFreeTextEditing(t *testing.T) {
	con, ctrl, out, _ := setup(t)
	press(con, r(']'), r('t'))
	for _, ch := range "Mass resistx" {
		press(con, r(ch))
	}
	press(con, host.KeyEvent{Key: host.KeyBackspace})
	assert.Contains(t, out.lastFrame(), "Your answer: Mass resist_")

	press(con, host.KeyEvent{Key: host.KeyEnter})
	a, ok := ctrl.Answer(1, 0)
	require.True(t, ok)
	assert.Equal(t, model.FreeText{Text: "Mass resist"}, a)

	press(con, r('t'), r('!'), host.KeyEvent{Key: host.KeyEsc})
	a, _ = ctrl.Answer(1, 0)
	assert.Equal(t, model.FreeText{Text: "Mass resist"}, a, "Esc discards the edit")
}

func TestSaveKeyCallsSaver(t *testing.T) {
	con, _, out, saver := setup(t)
	saved := make(chan struct{})
	saver.On("SaveAnswers", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(saved) }).
		Return(nil).Once()

	press(con, r('1'), r('s'))

	select {
	case <-saved:
	case <-time.After(time.Second):
		t.Fatal("save not triggered")
	}
	assert.Eventually(t, func() bool { return strings.Contains(out.lastFrame(), "Answers saved.") },
		time.Second, 10*time.Millisecond)
}

func TestQuitNeedsConfirmation(t *testing.T) {
	con, ctrl, _, saver := setup(t)
	saver.On("SaveAnswers", mock.Anything, mock.Anything).Return(nil)

	press(con, r('q'), r('n'))
	assert.False(t, ctrl.Snapshot().Ending)

	press(con, r('q'), r('y'))
	select {
	case <-ctrl.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not end after confirmation")
	}
	saver.AssertNumberOfCalls(t, "SaveAnswers", 1)
}

func TestViolationBanner(t *testing.T) {
	con, _, out, _ := setup(t)
	con.Render(session.Snapshot{ExamTitle: "Physics", SectionCount: 1})

	con.ShowViolation(session.Violation{Reason: "Alt+Tab", Count: 1, Limit: 3})
	assert.Contains(t, out.lastFrame(), "Warning: Alt+Tab. Violation 1 of 3.")

	con.ShowViolation(session.Violation{Reason: "Alt+Tab", Count: 3, Limit: 3})
	assert.Contains(t, out.lastFrame(), "Maximum violations reached")

	con.HideViolation()
	assert.NotContains(t, out.lastFrame(), "Maximum violations reached")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{
		"the quick brown fox",
		"jumps over the lazy",
		"dog",
	}, wrap("the quick brown fox jumps over the lazy dog", 20))
	assert.Equal(t, []string{"a", "", "b"}, wrap("a\n\nb", 40))
}
