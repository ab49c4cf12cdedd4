package chat

import (
	"fmt"
	"sync"
	"time"
)

// QuotaCountdown tracks the visible state of a rate-limit notice: how long
// until the quota resets, and whether the notice is currently shown.
//
// The countdown and the visibility are independent. Dismissing the notice
// hides it but never stops the clock, so re-showing it later picks up the
// true remaining time rather than restarting from the top. The clock stops
// on its own when it reaches zero; the notice stays up until dismissed.
type QuotaCountdown struct {
	mu        sync.Mutex
	interval  time.Duration
	remaining int
	visible   bool
	ticking   bool
	timer     *time.Timer

	onChange func(remaining int, visible bool)
}

// NewQuotaCountdown creates an inactive countdown ticking at one-second
// resolution.
func NewQuotaCountdown() *QuotaCountdown {
	return &QuotaCountdown{interval: time.Second}
}

// newQuotaCountdownWithInterval is used by tests to tick faster.
func newQuotaCountdownWithInterval(interval time.Duration) *QuotaCountdown {
	return &QuotaCountdown{interval: interval}
}

// SetOnChange registers a callback fired whenever the remaining time or the
// visibility changes. The callback runs without the internal lock held.
func (q *QuotaCountdown) SetOnChange(fn func(remaining int, visible bool)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// Activate starts (or restarts) the countdown from the given number of
// seconds and shows the notice. Activating while a countdown is already
// running replaces it with the new value.
func (q *QuotaCountdown) Activate(seconds int) {
	q.mu.Lock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if seconds < 0 {
		seconds = 0
	}
	q.remaining = seconds
	q.visible = true
	q.ticking = seconds > 0
	if q.ticking {
		q.timer = time.AfterFunc(q.interval, q.tick)
	}
	fn, rem, vis := q.onChange, q.remaining, q.visible
	q.mu.Unlock()
	if fn != nil {
		fn(rem, vis)
	}
}

// Dismiss hides the notice. The countdown, if running, keeps running.
func (q *QuotaCountdown) Dismiss() {
	q.mu.Lock()
	if !q.visible {
		q.mu.Unlock()
		return
	}
	q.visible = false
	fn, rem := q.onChange, q.remaining
	q.mu.Unlock()
	if fn != nil {
		fn(rem, false)
	}
}

// Remaining returns the seconds left on the countdown.
func (q *QuotaCountdown) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remaining
}

// Visible reports whether the notice should be shown.
func (q *QuotaCountdown) Visible() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visible
}

// Active reports whether the countdown is still running.
func (q *QuotaCountdown) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ticking
}

// Display returns the remaining time formatted for the notice.
func (q *QuotaCountdown) Display() string {
	return FormatRemaining(q.Remaining())
}

func (q *QuotaCountdown) tick() {
	q.mu.Lock()
	if !q.ticking {
		q.mu.Unlock()
		return
	}
	q.remaining--
	if q.remaining <= 0 {
		q.remaining = 0
		q.ticking = false
		q.timer = nil
	} else {
		q.timer = time.AfterFunc(q.interval, q.tick)
	}
	fn, rem, vis := q.onChange, q.remaining, q.visible
	q.mu.Unlock()
	if fn != nil {
		fn(rem, vis)
	}
}

// FormatRemaining renders a second count as zero-padded hours, minutes and
// seconds, e.g. 3725 seconds as "01h 02m 05s". Negative values render as
// zero.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02dh %02dm %02ds", h, m, s)
}
