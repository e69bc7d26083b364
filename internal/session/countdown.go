package session

import "fmt"

// TimerState is the lifecycle of a Countdown.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerExpired
	TimerStopped
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerExpired:
		return "expired"
	case TimerStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Countdown is the exam clock. It is advanced one second per Tick by its
// owner and has no pause.
type Countdown struct {
	state     TimerState
	remaining int
}

// NewCountdown creates a countdown of the given number of minutes. A
// non-positive duration yields an idle countdown that never runs.
func NewCountdown(minutes int) *Countdown {
	return NewCountdownSeconds(minutes * 60)
}

// NewCountdownSeconds creates a countdown of the given number of seconds.
func NewCountdownSeconds(seconds int) *Countdown {
	if seconds <= 0 {
		return &Countdown{state: TimerIdle}
	}
	return &Countdown{state: TimerRunning, remaining: seconds}
}

// Tick consumes one second. It returns true exactly once, on the tick that
// reaches zero; afterwards the countdown never ticks again.
func (c *Countdown) Tick() bool {
	if c.state != TimerRunning {
		return false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.state = TimerExpired
		return true
	}
	return false
}

// Stop halts a running countdown for good.
func (c *Countdown) Stop() {
	if c.state == TimerRunning {
		c.state = TimerStopped
	}
}

func (c *Countdown) State() TimerState { return c.state }

func (c *Countdown) Remaining() int { return c.remaining }

// String formats the remaining time.
func (c *Countdown) String() string {
	return FormatRemaining(c.remaining)
}

// FormatRemaining renders seconds as H:MM:SS when at least an hour is
// left and MM:SS otherwise.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
