package coordinator

import (
	"sync"
	"time"

	"github.com/mcoot/mpcoord/internal/dependencies/clock"
)

type failureRecord struct {
	count       int
	lastFailure time.Time
}

// LockoutTracker counts consecutive failed logins per username.
// A username is locked once it reaches maxAttempts failures and stays
// locked until duration has passed since the last failure. Records of
// any count are forgotten once duration has passed since their last failure.
type LockoutTracker struct {
	clock       clock.Clock
	maxAttempts int
	duration    time.Duration

	mu       sync.Mutex
	failures map[string]*failureRecord
}

// NewLockoutTracker creates a tracker with no recorded failures
func NewLockoutTracker(clk clock.Clock, maxAttempts int, duration time.Duration) *LockoutTracker {
	return &LockoutTracker{
		clock:       clk,
		maxAttempts: maxAttempts,
		duration:    duration,
		failures:    make(map[string]*failureRecord),
	}
}

// Locked reports whether the username is currently locked out.
// An expired lockout is cleared.
func (t *LockoutTracker) Locked(username string) bool {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lockedLocked(username, now)
}

// RecordFailure counts one failed attempt and returns the consecutive
// failure count and whether the username is now locked
func (t *LockoutTracker) RecordFailure(username string) (int, bool) {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Lapsed records start a fresh count
	t.sweepLocked(now)

	record, ok := t.failures[username]
	if !ok {
		record = &failureRecord{}
		t.failures[username] = record
	}
	record.count++
	record.lastFailure = now
	return record.count, record.count >= t.maxAttempts
}

// Reset clears the failure count. It reports whether anything was cleared.
func (t *LockoutTracker) Reset(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.failures[username]; !ok {
		return false
	}
	delete(t.failures, username)
	return true
}

// Failures returns the current consecutive failure count
func (t *LockoutTracker) Failures(username string) int {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.lockedLocked(username, now)
	if record, ok := t.failures[username]; ok {
		return record.count
	}
	return 0
}

// LockedCount returns the number of usernames currently locked out
func (t *LockoutTracker) LockedCount() int {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked(now)
	n := 0
	for username := range t.failures {
		if t.lockedLocked(username, now) {
			n++
		}
	}
	return n
}

func (t *LockoutTracker) lockedLocked(username string, now time.Time) bool {
	record, ok := t.failures[username]
	if !ok {
		return false
	}
	if t.expired(record, now) {
		delete(t.failures, username)
		return false
	}
	return record.count >= t.maxAttempts
}

func (t *LockoutTracker) sweepLocked(now time.Time) {
	for username, record := range t.failures {
		if t.expired(record, now) {
			delete(t.failures, username)
		}
	}
}

func (t *LockoutTracker) expired(record *failureRecord, now time.Time) bool {
	return t.duration > 0 && now.Sub(record.lastFailure) >= t.duration
}
