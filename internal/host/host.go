// Package host abstracts the environment the exam runs in: the source of
// raw key and focus events, and the window the session asks to keep in
// front. It can only detect and react to app switching; it cannot prevent
// the operating system from acting on a key combination first.
package host

// Key identifies a non-printable key, or KeyRune for printable input.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEsc
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySuper
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[Key]string{
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyEsc:       "Esc",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeySuper:     "Super",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyF11:       "F11",
	KeyF12:       "F12",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Rune"
}

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Has reports whether all bits of m2 are set in m.
func (m Modifier) Has(m2 Modifier) bool {
	return m&m2 == m2
}

// Event is anything the host delivers to the session.
type Event interface {
	isEvent()
}

// KeyEvent is a raw key press, delivered before any input field sees it.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mods Modifier
}

// FocusEvent reports the application becoming active or inactive.
type FocusEvent struct {
	Active bool
}

func (KeyEvent) isEvent()   {}
func (FocusEvent) isEvent() {}

// Host is the environment the exam session runs in.
type Host interface {
	// Events delivers key and focus events until the host is terminated.
	Events() <-chan Event
	// Restore asks for the window to come back to the foreground in full
	// screen, on top, with keyboard capture. Best effort.
	Restore() error
	// Terminate ends the hosting session. It must be safe to call once
	// from any goroutine.
	Terminate()
}
