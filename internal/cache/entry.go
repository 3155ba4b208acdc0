package cache

import (
	"time"

	"faircamp/internal/cachekey"
)

// State tracks whether an entry was needed by the most recent build. Purged
// entries have no state; purging removes the record entirely.
type State string

const (
	StateFresh State = "fresh"
	StateStale State = "stale"
)

// Entry represents one materialized artifact. Entries are created on first
// successful computation and never mutated afterwards except for the
// freshness bookkeeping below.
type Entry struct {
	Key  cachekey.Key  `json:"key"`
	Kind cachekey.Kind `json:"kind"`
	// Path is relative to the cache directory.
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	// LastUsed is refreshed in every build that requested the entry and
	// found it reusable.
	LastUsed time.Time `json:"last_used"`
	State    State     `json:"state"`
	// StaleSince is set when the entry transitions to stale and cleared on
	// reactivation; the delayed strategy's grace window measures from it.
	StaleSince *time.Time `json:"stale_since,omitempty"`
}

func (e *Entry) valid() bool {
	return e != nil && e.Key.Valid() && e.Kind.Valid() && e.Path != ""
}

func (e *Entry) markStale(now time.Time) {
	e.State = StateStale
	if e.StaleSince == nil {
		staleAt := now
		e.StaleSince = &staleAt
	}
}

func (e *Entry) reactivate(now time.Time) {
	e.State = StateFresh
	e.StaleSince = nil
	e.LastUsed = now
}
