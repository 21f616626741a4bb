// Package id generates session identifiers for the PTY helper.
//
// IDs are prefixed ULIDs ("pty_01H...") so that log lines and metrics from
// many short-lived helper processes sort by start time and stay unique
// across the hosting server's fleet.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionPrefix marks helper session IDs.
const SessionPrefix = "pty"

// SessionID identifies one helper session in logs and metrics.
type SessionID string

func (id SessionID) String() string { return string(id) }

var (
	entropyMu sync.Mutex
	// Monotonic within a millisecond so IDs minted together still sort.
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewSessionID returns a fresh session ID stamped with the current time.
func NewSessionID() SessionID {
	entropyMu.Lock()
	u := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return SessionID(SessionPrefix + "_" + u.String())
}
