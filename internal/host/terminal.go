package host

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when stdin is not an interactive terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

const (
	seqRaiseWindow = "\x1b[5t"
	seqDeiconify   = "\x1b[1t"
	seqMaximize    = "\x1b[9;1t"

	// Adds kitty flags 8 (all keys as escape codes, bare modifiers
	// included) and 16 (associated text) to the flags bubbletea pushed.
	// Bubbletea pops its entry on exit, which drops these too.
	seqReportAllKeys = "\x1b[=24;2u"

	quitTimeout = 2 * time.Second
)

type redrawMsg struct{}

// Terminal is a Host backed by a bubbletea program on the controlling
// terminal. Keys, focus changes and kitty keyboard reports arrive as
// bubbletea messages and are handed to the session as Events. The screen
// shows whatever frame was drawn last.
type Terminal struct {
	prog *tea.Program
	out  io.Writer
	log  zerolog.Logger

	events chan Event
	dirty  chan struct{}
	done   chan struct{}
	exited chan struct{}
	once   sync.Once

	mu       sync.Mutex
	frame    string
	width    int
	height   int
	enhanced bool
}

// OpenTerminal starts the bubbletea program on in and out. The program
// owns raw mode, the alternate screen, focus reporting and keyboard
// enhancements until Terminate.
func OpenTerminal(in, out *os.File, log zerolog.Logger) (*Terminal, error) {
	if !term.IsTerminal(int(in.Fd())) {
		return nil, ErrNotTerminal
	}
	t := newTerminal(in, out, log)
	if w, h, err := term.GetSize(int(out.Fd())); err == nil && w > 0 && h > 0 {
		t.width, t.height = w, h
	}
	if _, err := io.WriteString(out, seqMaximize); err != nil {
		t.log.Debug().Err(err).Msg("Maximize request failed")
	}
	t.start()
	return t, nil
}

func newTerminal(in io.Reader, out io.Writer, log zerolog.Logger) *Terminal {
	t := &Terminal{
		out:    out,
		log:    log.With().Str("component", "terminal").Logger(),
		events: make(chan Event, 64),
		dirty:  make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		width:  80,
		height: 24,
	}
	t.prog = tea.NewProgram(screen{t: t},
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)
	return t
}

func (t *Terminal) start() {
	go func() {
		defer close(t.exited)
		defer close(t.events)
		if _, err := t.prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			t.log.Error().Err(err).Msg("Terminal program failed")
		}
	}()
	go t.pump()
}

// pump turns Draw calls into redraws without ever blocking the caller on
// the program's message loop.
func (t *Terminal) pump() {
	for {
		select {
		case <-t.dirty:
			t.prog.Send(redrawMsg{})
		case <-t.exited:
			return
		}
	}
}

func (t *Terminal) Events() <-chan Event { return t.events }

// Draw replaces the screen content with frame.
func (t *Terminal) Draw(frame string) {
	t.mu.Lock()
	t.frame = frame
	t.mu.Unlock()
	select {
	case t.dirty <- struct{}{}:
	default:
	}
}

// Size reports the terminal dimensions, defaulting to 80x24.
func (t *Terminal) Size() (width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width, t.height
}

// Enhanced reports whether the terminal confirmed kitty keyboard
// disambiguation. Without it Ctrl+Esc and the Super key are invisible.
func (t *Terminal) Enhanced() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enhanced
}

// Restore uses xterm window operations, which many emulators ignore. Focus
// reporting stays on for the life of the program.
func (t *Terminal) Restore() error {
	select {
	case <-t.done:
		return nil
	default:
	}
	_, err := io.WriteString(t.out, seqDeiconify+seqRaiseWindow+seqMaximize)
	return err
}

// Terminate stops the program, which puts the terminal back in the mode it
// was found in.
func (t *Terminal) Terminate() {
	t.once.Do(func() {
		close(t.done)
		go t.prog.Quit()
		select {
		case <-t.exited:
		case <-time.After(quitTimeout):
			t.log.Warn().Msg("Terminal program did not quit, killing it")
			t.prog.Kill()
			<-t.exited
		}
		t.log.Info().Msg("Terminal released")
	})
}

func (t *Terminal) emit(ev Event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

func (t *Terminal) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	t.mu.Lock()
	t.width, t.height = w, h
	t.mu.Unlock()
}

func (t *Terminal) enhance(msg tea.KeyboardEnhancementsMsg) {
	ok := msg.SupportsKeyDisambiguation()
	t.mu.Lock()
	t.enhanced = ok
	t.mu.Unlock()
	if !ok {
		t.log.Warn().Msg("Terminal has no keyboard enhancements; Super and Ctrl+Esc cannot be detected")
		return
	}
	if _, err := io.WriteString(t.out, seqReportAllKeys); err != nil {
		t.log.Warn().Err(err).Msg("Failed to request bare modifier reports")
	}
	t.log.Info().Msg("Keyboard enhancements enabled")
}

func (t *Terminal) currentFrame() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame
}

// screen is the bubbletea model. It holds no state of its own.
type screen struct {
	t *Terminal
}

func (s screen) Init() tea.Cmd { return nil }

func (s screen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if ev, ok := KeyFromTea(msg.Key()); ok {
			s.t.emit(ev)
		}
	case tea.FocusMsg:
		s.t.emit(FocusEvent{Active: true})
	case tea.BlurMsg:
		s.t.emit(FocusEvent{Active: false})
	case tea.WindowSizeMsg:
		s.t.resize(msg.Width, msg.Height)
	case tea.KeyboardEnhancementsMsg:
		s.t.enhance(msg)
	}
	return s, nil
}

func (s screen) View() tea.View {
	v := tea.NewView(s.t.currentFrame())
	v.AltScreen = true
	v.ReportFocus = true
	return v
}
