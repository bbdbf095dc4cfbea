package dedup

import (
	"testing"
	"time"

	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func event(ago time.Duration, name string, status inventory.Status) inventory.HistoryEvent {
	return inventory.HistoryEvent{
		Timestamp:    now.Add(-ago),
		ResourceID:   "/subscriptions/s1/resourceGroups/rgA/providers/Microsoft.Compute/virtualMachines/" + name,
		ResourceName: name,
		EventType:    inventory.EventInstallation,
		Status:       status,
	}
}

func newFlags(marked []Marked) []bool {
	out := make([]bool, len(marked))
	for i, m := range marked {
		out[i] = m.IsNew
	}
	return out
}

func TestFingerprint(t *testing.T) {
	a := event(time.Minute, "vm1", inventory.StatusInProgress)

	assert.Equal(t, FingerprintOf(a), FingerprintOf(a), "deterministic")
	assert.Len(t, string(FingerprintOf(a)), 64, "blake2b-256 hex")

	b := a
	b.Status = inventory.StatusSucceeded
	assert.NotEqual(t, FingerprintOf(a), FingerprintOf(b), "status change is a new event")

	c := a
	c.Timestamp = a.Timestamp.Add(time.Nanosecond)
	assert.NotEqual(t, FingerprintOf(a), FingerprintOf(c))

	d := a
	d.StartedBy = "Platform"
	assert.Equal(t, FingerprintOf(a), FingerprintOf(d), "only identity fields are hashed")

	e := a
	e.Timestamp = a.Timestamp.In(time.FixedZone("x", 3600))
	assert.Equal(t, FingerprintOf(a), FingerprintOf(e), "same instant in another zone")
}

func TestTracker_FirstCycleMarksNothing(t *testing.T) {
	var tr Tracker
	marked, next := tr.Apply([]inventory.HistoryEvent{
		event(time.Minute, "vm1", inventory.StatusInProgress),
		event(2*time.Minute, "vm2", inventory.StatusFailed),
	})

	assert.Equal(t, []bool{false, false}, newFlags(marked))
	assert.True(t, next.Seeded())
	assert.False(t, tr.Seeded(), "receiver is unchanged")
	assert.Equal(t, 2, next.Len())
}

func TestTracker_NewThenNotNew(t *testing.T) {
	e1 := event(time.Minute, "vm1", inventory.StatusInProgress)
	e2 := event(30*time.Second, "vm2", inventory.StatusSucceeded)

	_, tr := Tracker{}.Apply([]inventory.HistoryEvent{e1})

	marked, tr := tr.Apply([]inventory.HistoryEvent{e2, e1})
	assert.Equal(t, []bool{true, false}, newFlags(marked))

	marked, _ = tr.Apply([]inventory.HistoryEvent{e2, e1})
	assert.Equal(t, []bool{false, false}, newFlags(marked))
}

func TestTracker_ReplacesRatherThanMerges(t *testing.T) {
	e1 := event(time.Minute, "vm1", inventory.StatusInProgress)
	e2 := event(30*time.Second, "vm2", inventory.StatusSucceeded)

	_, tr := Tracker{}.Apply([]inventory.HistoryEvent{e1})
	_, tr = tr.Apply([]inventory.HistoryEvent{e2})
	assert.Equal(t, 1, tr.Len())

	// e1 dropped out for a cycle, so it is new again when it reappears.
	marked, _ := tr.Apply([]inventory.HistoryEvent{e1})
	assert.Equal(t, []bool{true}, newFlags(marked))
}

func TestTracker_EmptyCycleStillSeeds(t *testing.T) {
	_, tr := Tracker{}.Apply(nil)
	marked, _ := tr.Apply([]inventory.HistoryEvent{event(time.Minute, "vm1", inventory.StatusFailed)})
	assert.Equal(t, []bool{true}, newFlags(marked))
}

func TestTracker_Reset(t *testing.T) {
	_, tr := Tracker{}.Apply([]inventory.HistoryEvent{event(time.Minute, "vm1", inventory.StatusFailed)})
	tr = tr.Reset()
	assert.False(t, tr.Seeded())
	assert.Zero(t, tr.Len())
}

func TestWindow(t *testing.T) {
	events := []inventory.HistoryEvent{
		event(-5*time.Minute, "future", inventory.StatusInProgress),
		event(time.Minute, "vm1", inventory.StatusInProgress),
		event(19*time.Minute, "vm2", inventory.StatusSucceeded),
		event(25*time.Minute, "stale", inventory.StatusFailed),
		event(2*time.Minute, "vm3", inventory.StatusFailed),
	}

	got := Window(events, now, 20*time.Minute, 20)

	require.Len(t, got, 3)
	assert.Equal(t, "vm1", got[0].ResourceName)
	assert.Equal(t, "vm2", got[1].ResourceName)
	assert.Equal(t, "vm3", got[2].ResourceName)
}

func TestWindow_StaleNeverRenderedRegardlessOfTracker(t *testing.T) {
	stale := event(25*time.Minute, "vm1", inventory.StatusFailed)

	var tr Tracker
	for i := 0; i < 2; i++ {
		var marked []Marked
		marked, tr = tr.Apply(Window([]inventory.HistoryEvent{stale}, now, 20*time.Minute, 20))
		assert.Empty(t, marked)
	}
}

func TestWindow_Limit(t *testing.T) {
	var events []inventory.HistoryEvent
	for i := 0; i < 30; i++ {
		events = append(events, event(time.Duration(i)*time.Second, "vm", inventory.StatusInProgress))
	}

	assert.Len(t, Window(events, now, 20*time.Minute, 20), 20)
	assert.Len(t, Window(events, now, 20*time.Minute, 0), 30)
}
