package monitor

import (
	"testing"
	"time"

	"github.com/rileyhilliard/patchctl/internal/dedup"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/stretchr/testify/assert"
)

func TestView_Gathering(t *testing.T) {
	m := newTestModel(t, &fakeGatherer{}, nil, Session{})
	view := m.View()
	assert.Contains(t, view, "patchctl live")
	assert.Contains(t, view, "Gathering inventory")
	assert.Contains(t, view, "refreshing...")
}

func TestView_Dashboard(t *testing.T) {
	snap := snapshot(
		set(inventory.Pending, vm("a"), vm("b"), vm("c"), vm("d"), vm("e"), vm("f"), vm("g")),
		set(inventory.Failed, vm("x")),
	)
	snap.Warnings = []string{"Rebooting query failed; showing 0"}
	snap.History = []inventory.HistoryEvent{event(3, "a", inventory.StatusSucceeded)}

	g := &fakeGatherer{snaps: []inventory.Snapshot{snap}}
	m := newTestModel(t, g, nil, Session{})
	m = gatherNow(t, m, g)

	view := m.View()
	for _, c := range inventory.Classifications {
		assert.Contains(t, view, c.Label())
	}
	assert.Contains(t, view, "Target (pending, not installing)")
	assert.Contains(t, view, "Rebooting query failed; showing 0")
	assert.Contains(t, view, "... and 2 more")
	assert.Contains(t, view, "3 minutes ago")
	assert.Contains(t, view, "Succeeded")
	assert.Contains(t, view, "No commands issued yet")
	assert.Contains(t, view, "next refresh in 1h0m0s")
	assert.NotContains(t, view, "NEW", "first cycle marks nothing new")
}

func TestView_Prompts(t *testing.T) {
	g := &fakeGatherer{snaps: []inventory.Snapshot{snapshot(
		set(inventory.Failed, vm("x"), vm("y")),
		set(inventory.Deallocated, vm("d")),
	)}}
	m := newTestModel(t, g, nil, Session{})
	m = gatherNow(t, m, g)

	pm, _ := update(t, m, runeKey("x"))
	assert.Contains(t, pm.View(), "Manage 2 failed machines")

	pm, _ = update(t, m, runeKey("s"))
	assert.Contains(t, pm.View(), "Start all 1 deallocated machines? (y/n)")

	pm, _ = update(t, m, runeKey("q"))
	assert.Contains(t, pm.View(), "Emergency exit?")

	pm, _ = update(t, m, runeKey("?"))
	assert.Contains(t, pm.View(), "Keyboard Shortcuts")
	assert.Contains(t, pm.View(), "Manage failed installs")
}

func TestEventLine(t *testing.T) {
	e := dedup.Marked{HistoryEvent: event(2, "web-01", inventory.StatusFailed), IsNew: true}
	e.ErrorCode = "PatchInstallationFailed"

	line := eventLine(e, testNow)
	assert.Contains(t, line, "NEW")
	assert.Contains(t, line, "2 minutes ago")
	assert.Contains(t, line, "Failed")
	assert.Contains(t, line, "web-01")
	assert.Contains(t, line, "PatchInstallationFailed")

	e.IsNew = false
	e.ResourceName = ""
	line = eventLine(e, testNow)
	assert.NotContains(t, line, "NEW")
	assert.Contains(t, line, "web-01", "name falls back to the resource ID")
}

func TestHumanWindow(t *testing.T) {
	assert.Equal(t, "20m", humanWindow(20*time.Minute))
	assert.Equal(t, "1h", humanWindow(time.Hour))
	assert.Equal(t, "24h", humanWindow(24*time.Hour))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n b\tc", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
