package host

import (
	"io"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, term *Terminal) Event {
	t.Helper()
	select {
	case ev, ok := <-term.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return nil
	}
}

func TestScreenUpdateEmitsEvents(t *testing.T) {
	term := newTerminal(nil, io.Discard, zerolog.Nop())
	s := screen{t: term}

	s.Update(tea.BlurMsg{})
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModAlt})
	s.Update(tea.KeyPressMsg{Code: tea.KeyLeftShift})
	s.Update(tea.FocusMsg{})
	s.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, FocusEvent{Active: false}, nextEvent(t, term))
	assert.Equal(t, KeyEvent{Key: KeyTab, Mods: ModAlt}, nextEvent(t, term))
	assert.Equal(t, FocusEvent{Active: true}, nextEvent(t, term))
	w, h := term.Size()
	assert.Equal(t, 120, w)
	assert.Equal(t, 40, h)
}

func TestScreenViewShowsLastFrame(t *testing.T) {
	term := newTerminal(nil, io.Discard, zerolog.Nop())
	term.Draw("first")
	term.Draw("second")

	v := screen{t: term}.View()
	assert.Equal(t, "second", v.Content)
	assert.True(t, v.AltScreen)
	assert.True(t, v.ReportFocus)
	assert.Len(t, term.dirty, 1, "redraws coalesce")
}

func TestKittyReportsReachTheSession(t *testing.T) {
	in, feed := io.Pipe()
	term := newTerminal(in, io.Discard, zerolog.Nop())
	term.start()
	defer term.Terminate()
	defer feed.Close()

	tests := []struct {
		seq  string
		want KeyEvent
	}{
		{"\x1b[27;5u", KeyEvent{Key: KeyEsc, Mods: ModCtrl}},
		{"\x1b[27;6u", KeyEvent{Key: KeyEsc, Mods: ModCtrl | ModShift}},
		{"\x1b[57444u", KeyEvent{Key: KeySuper}},
		{"\x1b[9;3u", KeyEvent{Key: KeyTab, Mods: ModAlt}},
	}
	for _, tt := range tests {
		_, err := io.WriteString(feed, tt.seq)
		require.NoError(t, err)
		assert.Equal(t, tt.want, nextEvent(t, term), "%q", tt.seq)
	}

	_, err := io.WriteString(feed, "\x1b[O")
	require.NoError(t, err)
	assert.Equal(t, FocusEvent{Active: false}, nextEvent(t, term))
}
