// Package dedup marks installation-history events that were not visible on
// the previous refresh cycle.
//
// A Tracker is an immutable value. Apply returns the marked events together
// with the tracker for the next cycle, so the owner threads it through the
// refresh loop explicitly instead of sharing mutable state.
package dedup

import (
	"encoding/hex"
	"time"

	"github.com/rileyhilliard/patchctl/internal/inventory"
	"golang.org/x/crypto/blake2b"
)

// FutureSkew is how far ahead of the local clock an event timestamp may be
// before Window treats it as bogus.
const FutureSkew = 2 * time.Minute

// Fingerprint identifies a history event across cycles.
type Fingerprint string

// fieldSep cannot appear in ARM resource IDs or status strings.
const fieldSep = "\x1f"

// FingerprintOf hashes (timestamp, resource ID, status, event type).
func FingerprintOf(e inventory.HistoryEvent) Fingerprint {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte(fieldSep))
	h.Write([]byte(e.ResourceID))
	h.Write([]byte(fieldSep))
	h.Write([]byte(e.Status))
	h.Write([]byte(fieldSep))
	h.Write([]byte(e.EventType))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// Marked is a history event with its new-since-last-cycle flag.
type Marked struct {
	inventory.HistoryEvent
	Fingerprint Fingerprint
	IsNew       bool
}

// Tracker holds the fingerprints seen on the previous cycle.
// The zero value is the unseeded baseline: nothing it marks is new.
type Tracker struct {
	seen   map[Fingerprint]struct{}
	seeded bool
}

// Apply marks each event and returns the tracker for the next cycle, which
// holds exactly this cycle's fingerprints. The receiver is not modified.
func (t Tracker) Apply(events []inventory.HistoryEvent) ([]Marked, Tracker) {
	marked := make([]Marked, 0, len(events))
	next := make(map[Fingerprint]struct{}, len(events))

	for _, e := range events {
		fp := FingerprintOf(e)
		_, seen := t.seen[fp]
		marked = append(marked, Marked{
			HistoryEvent: e,
			Fingerprint:  fp,
			IsNew:        t.seeded && !seen,
		})
		next[fp] = struct{}{}
	}

	return marked, Tracker{seen: next, seeded: true}
}

// Seeded reports whether Apply has run at least once.
func (t Tracker) Seeded() bool {
	return t.seeded
}

// Len returns the number of fingerprints carried into the next cycle.
func (t Tracker) Len() int {
	return len(t.seen)
}

// Reset returns an empty, unseeded tracker.
func (t Tracker) Reset() Tracker {
	return Tracker{}
}

// Window drops events older than now-window or further in the future than
// FutureSkew, keeps backend order and truncates to limit (limit <= 0 keeps all).
func Window(events []inventory.HistoryEvent, now time.Time, window time.Duration, limit int) []inventory.HistoryEvent {
	cutoff := now.Add(-window)
	ceiling := now.Add(FutureSkew)

	out := make([]inventory.HistoryEvent, 0, len(events))
	for _, e := range events {
		if e.Timestamp.Before(cutoff) || e.Timestamp.After(ceiling) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
