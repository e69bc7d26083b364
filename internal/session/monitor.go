package session

import (
	"time"

	"github.com/stemsi/exstem-proctor/internal/host"
)

const (
	// ViolationLimit is the number of recorded violations that ends a session.
	ViolationLimit = 3
	// ViolationThrottle absorbs the duplicate signals one physical action
	// produces, e.g. Alt+Tab arriving as both a key press and a focus loss.
	ViolationThrottle = 750 * time.Millisecond
)

// Clock supplies monotonic time to the monitor.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns time.Now, whose monotonic reading is what Sub compares.
func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real clock.
var SystemClock Clock = systemClock{}

// ViolationKind tells the two event families apart.
type ViolationKind string

const (
	ViolationFocusLoss    ViolationKind = "focus_loss"
	ViolationForbiddenKey ViolationKind = "forbidden_key"
)

// Violation is one recorded policy breach.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Reason string        `json:"reason"`
	Count  int           `json:"count"`
	Limit  int           `json:"limit"`
	At     time.Time     `json:"at"`
}

// LimitReached reports whether this violation exhausted the strikes.
func (v Violation) LimitReached() bool {
	return v.Count >= v.Limit
}

// Verdict is the monitor's decision about one host event.
type Verdict struct {
	// Swallow is set for forbidden keys; they never reach input handling.
	Swallow bool
	// Violation is set when the event was recorded, nil when it was not a
	// violation or was dropped by the throttle.
	Violation *Violation
	// Restore asks the host to bring the window back.
	Restore bool
}

// Monitor classifies host events into violations and counts strikes.
type Monitor struct {
	clock    Clock
	limit    int
	throttle time.Duration
	count    int
	last     time.Time
	recorded bool
}

// NewMonitor creates a monitor with zero strikes.
func NewMonitor(clock Clock) *Monitor {
	if clock == nil {
		clock = SystemClock
	}
	return &Monitor{
		clock:    clock,
		limit:    ViolationLimit,
		throttle: ViolationThrottle,
	}
}

// Count returns the number of recorded violations.
func (m *Monitor) Count() int { return m.count }

// Limit returns the strike limit.
func (m *Monitor) Limit() int { return m.limit }

// HandleKey swallows and records forbidden key combinations.
func (m *Monitor) HandleKey(ev host.KeyEvent) Verdict {
	reason, forbidden := ClassifyKey(ev)
	if !forbidden {
		return Verdict{}
	}
	return Verdict{
		Swallow:   true,
		Violation: m.record(ViolationForbiddenKey, reason),
	}
}

// HandleFocus records focus loss and always asks for the window back.
func (m *Monitor) HandleFocus(ev host.FocusEvent) Verdict {
	if ev.Active {
		return Verdict{}
	}
	return Verdict{
		Violation: m.record(ViolationFocusLoss, "Application lost focus (switched away from the exam)"),
		Restore:   true,
	}
}

func (m *Monitor) record(kind ViolationKind, reason string) *Violation {
	now := m.clock.Now()
	if m.recorded && now.Sub(m.last) < m.throttle {
		return nil
	}
	m.recorded = true
	m.last = now
	m.count++
	return &Violation{
		Kind:   kind,
		Reason: reason,
		Count:  m.count,
		Limit:  m.limit,
		At:     now,
	}
}

// ClassifyKey reports whether ev is one of the forbidden combinations and
// why.
func ClassifyKey(ev host.KeyEvent) (string, bool) {
	switch {
	case ev.Key == host.KeySuper || ev.Mods.Has(host.ModSuper):
		return "Windows/Meta key pressed (OS menu)", true
	case ev.Mods.Has(host.ModAlt) && ev.Key == host.KeyTab:
		return "Alt+Tab pressed (application switch)", true
	case ev.Mods.Has(host.ModAlt) && ev.Key == host.KeyF4:
		return "Alt+F4 pressed (window close)", true
	case ev.Mods.Has(host.ModCtrl|host.ModShift) && ev.Key == host.KeyEsc:
		return "Ctrl+Shift+Esc pressed (task manager)", true
	case ev.Mods.Has(host.ModCtrl) && ev.Key == host.KeyEsc:
		return "Ctrl+Esc pressed (start menu)", true
	}
	return "", false
}
