package rate

import "time"

// Window is a trailing-window budget of Limit events per Period.
type Window struct {
	Limit  int
	Period time.Duration
}

// Decision is the result of evaluating a Window.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetAt is set only when Allowed is false.
	ResetAt time.Time
}

// Decide evaluates count events observed inside the window, the oldest of which
// happened at oldest.
func (w Window) Decide(count int, oldest time.Time) Decision {
	remaining := w.Limit - count
	if remaining > 0 {
		return Decision{Allowed: true, Remaining: remaining}
	}

	return Decision{
		Allowed:   false,
		Remaining: 0,
		ResetAt:   oldest.Add(w.Period),
	}
}
