package host

import (
	"unicode"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"
)

var teaKeys = map[rune]Key{
	tea.KeyEnter:      KeyEnter,
	tea.KeyTab:        KeyTab,
	tea.KeyBackspace:  KeyBackspace,
	tea.KeyEscape:     KeyEsc,
	tea.KeyUp:         KeyUp,
	tea.KeyDown:       KeyDown,
	tea.KeyLeft:       KeyLeft,
	tea.KeyRight:      KeyRight,
	tea.KeyLeftSuper:  KeySuper,
	tea.KeyRightSuper: KeySuper,
	tea.KeyF1:         KeyF1,
	tea.KeyF2:         KeyF2,
	tea.KeyF3:         KeyF3,
	tea.KeyF4:         KeyF4,
	tea.KeyF5:         KeyF5,
	tea.KeyF6:         KeyF6,
	tea.KeyF7:         KeyF7,
	tea.KeyF8:         KeyF8,
	tea.KeyF9:         KeyF9,
	tea.KeyF10:        KeyF10,
	tea.KeyF11:        KeyF11,
	tea.KeyF12:        KeyF12,
}

var teaMods = []struct {
	tea tea.KeyMod
	mod Modifier
}{
	{tea.ModShift, ModShift},
	{tea.ModCtrl, ModCtrl},
	{tea.ModAlt, ModAlt},
	{tea.ModSuper, ModSuper},
}

// KeyFromTea converts a bubbletea key press. ok is false for keys the
// session has no use for, such as a bare Shift or Ctrl.
func KeyFromTea(k tea.Key) (ev KeyEvent, ok bool) {
	for _, m := range teaMods {
		if k.Mod.Contains(m.tea) {
			ev.Mods |= m.mod
		}
	}

	if key, found := teaKeys[k.Code]; found {
		ev.Key = key
		if key == KeySuper {
			ev.Mods &^= ModSuper
		}
		return ev, true
	}

	r := k.Code
	if k.Text != "" && ev.Mods&(ModCtrl|ModAlt|ModSuper) == 0 {
		r, _ = utf8.DecodeRuneInString(k.Text)
	} else if ev.Mods.Has(ModShift) && k.ShiftedCode != 0 {
		r = k.ShiftedCode
	}
	if r == tea.KeySpace || unicode.IsPrint(r) {
		ev.Key, ev.Rune = KeyRune, r
		return ev, true
	}
	return KeyEvent{}, false
}
