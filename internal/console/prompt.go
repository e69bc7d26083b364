package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stemsi/exstem-proctor/internal/host"
)

// ErrAborted is returned when the user presses Esc or Ctrl+C at a prompt.
var ErrAborted = errors.New("aborted by user")

// Page formats a pre-session screen: a bold title and a wrapped body.
func Page(title, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s%s\n\n", styleBold, title, styleReset)
	if body == "" {
		return b.String()
	}
	for _, l := range wrap(body, 100) {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

// Screen draws a page.
func Screen(d Display, title, body string) {
	d.Draw(Page(title, body))
}

// Prompt reads one line of input from host events, drawn below page.
// Focus events are ignored; the line is echoed as typed.
func Prompt(ctx context.Context, d Display, events <-chan host.Event, page, label string) (string, error) {
	var line []rune
	redraw := func() {
		d.Draw(page + label + string(line) + "_")
	}
	redraw()

	for {
		ev, err := nextKey(ctx, events)
		if err != nil {
			return "", err
		}
		switch {
		case ev.Key == host.KeyEnter:
			return strings.TrimSpace(string(line)), nil
		case isAbort(ev):
			return "", ErrAborted
		case ev.Key == host.KeyBackspace:
			if len(line) > 0 {
				line = line[:len(line)-1]
			}
		case ev.Key == host.KeyRune && ev.Mods&(host.ModCtrl|host.ModAlt|host.ModSuper) == 0:
			line = append(line, ev.Rune)
		}
		redraw()
	}
}

// WaitForEnter blocks until Enter is pressed.
func WaitForEnter(ctx context.Context, events <-chan host.Event) error {
	for {
		ev, err := nextKey(ctx, events)
		if err != nil {
			return err
		}
		if ev.Key == host.KeyEnter {
			return nil
		}
		if isAbort(ev) {
			return ErrAborted
		}
	}
}

func isAbort(ev host.KeyEvent) bool {
	return ev.Key == host.KeyEsc && ev.Mods == 0 ||
		ev.Key == host.KeyRune && ev.Rune == 'c' && ev.Mods == host.ModCtrl
}

func nextKey(ctx context.Context, events <-chan host.Event) (host.KeyEvent, error) {
	for {
		select {
		case <-ctx.Done():
			return host.KeyEvent{}, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return host.KeyEvent{}, io.EOF
			}
			if k, ok := ev.(host.KeyEvent); ok {
				return k, nil
			}
		}
	}
}
