package resilience

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Backoff is a bounded retry schedule. The first attempt is given Initial,
// every later attempt Step.
type Backoff struct {
	Initial time.Duration
	Step    time.Duration
	// MaxAttempts caps the number of attempts. Zero means no cap.
	MaxAttempts int
}

// Wait returns the wait for the given zero-based attempt.
func (b Backoff) Wait(attempt int) time.Duration {
	if attempt == 0 {
		return b.Initial
	}
	return b.Step
}

// Do calls attempt with the scheduled wait until it returns false or the
// attempt cap is reached. It returns the number of attempts made.
func (b Backoff) Do(attempt func(wait time.Duration) bool) int {
	n := 0
	for b.MaxAttempts == 0 || n < b.MaxAttempts {
		wait := b.Wait(n)
		n++
		if !attempt(wait) {
			break
		}
	}
	return n
}

// Stage is one step of an escalation.
type Stage struct {
	Name   string
	Action func() error
	// Grace is how long to wait for the condition before moving on.
	Grace time.Duration
}

// Escalate runs stages in order until done reports true. After each stage's
// action it polls done every tick for up to the stage's grace period.
// It returns the name of the last stage whose action ran, or "" if done held
// from the start, along with every action error.
func Escalate(done func() bool, tick time.Duration, stages ...Stage) (string, error) {
	if tick <= 0 {
		tick = 5 * time.Millisecond
	}

	var (
		last string
		errs error
	)
	for _, s := range stages {
		if done() {
			return last, errs
		}
		last = s.Name
		if s.Action != nil {
			if err := s.Action(); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.Name, err))
			}
		}
		if s.Grace > 0 && waitUntil(done, s.Grace, tick) {
			return last, errs
		}
	}
	return last, errs
}

// waitUntil polls cond every tick for at most d.
func waitUntil(cond func() bool, d, tick time.Duration) bool {
	deadline := time.Now().Add(d)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		if cond() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		<-ticker.C
	}
}
