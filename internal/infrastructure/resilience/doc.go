/*
Package resilience provides bounded retry schedules and escalation helpers.

# Overview

Two shapes of "try, wait, try again, then give up" recur when shutting a
terminal session down: draining output with a shrinking wait, and stopping a
child with progressively harsher signals. This package implements both once.

# Usage

	// Poll with a 50ms first wait and 10ms afterwards until nothing arrives.
	resilience.Backoff{Initial: 50 * time.Millisecond, Step: 10 * time.Millisecond}.
		Do(func(wait time.Duration) bool {
			return readSome(wait)
		})

	// SIGTERM, give it 100ms, then SIGKILL.
	stage, err := resilience.Escalate(exited, 5*time.Millisecond,
		resilience.Stage{Name: "terminate", Action: term, Grace: 100 * time.Millisecond},
		resilience.Stage{Name: "kill", Action: kill},
	)
*/
package resilience
