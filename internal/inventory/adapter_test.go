package inventory_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	invtesting "github.com/rileyhilliard/patchctl/internal/inventory/testing"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/metrics"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vm1 = resource.ID{Subscription: "s1", ResourceGroup: "rgA", Name: "vm1"}
	vm2 = resource.ID{Subscription: "s1", ResourceGroup: "rgA", Name: "vm2"}
	vm3 = resource.ID{Subscription: "s1", ResourceGroup: "rgB", Name: "vm3"}
)

func newAdapter(exec inventory.Executor, scopes inventory.ScopeLister, opts inventory.Options) (*inventory.Adapter, *logger.BufferLogger) {
	log := logger.NewBufferLogger()
	return inventory.NewAdapter(exec, scopes, opts, log, metrics.New()), log
}

func TestAdapter_ClassificationReturnsOrderedIDs(t *testing.T) {
	exec := invtesting.NewFakeExecutor().
		Respond(inventory.PendingQuery(), invtesting.Rows(vm3, vm1, vm2)...)
	a, _ := newAdapter(exec, nil, inventory.Options{})

	set := a.Pending(context.Background(), []string{"s1"})

	require.NoError(t, set.Err)
	assert.Equal(t, inventory.Pending, set.Classification)
	assert.Equal(t, []resource.ID{vm3, vm1, vm2}, set.IDs)
	require.Len(t, exec.Calls, 1)
	assert.Equal(t, []string{"s1"}, exec.Calls[0].Scopes)
	assert.Equal(t, 1000, exec.Calls[0].First)
}

func TestAdapter_EmptyResultIsNotAnError(t *testing.T) {
	a, log := newAdapter(invtesting.NewFakeExecutor(), nil, inventory.Options{})

	set := a.Rebooting(context.Background(), nil)

	assert.NoError(t, set.Err)
	assert.Zero(t, set.Len())
	assert.False(t, log.HasLevel("warn"))
}

func TestAdapter_FailureDegradesToEmptySet(t *testing.T) {
	exec := invtesting.NewFakeExecutor().
		Respond(inventory.FailedQuery(), invtesting.Rows(vm1)...).
		Fail(inventory.FailedQuery(), stderrors.New("throttled"))
	a, log := newAdapter(exec, nil, inventory.Options{})

	set := a.Failed(context.Background(), nil)

	assert.Error(t, set.Err)
	assert.True(t, errors.IsCode(set.Err, errors.ErrQuery))
	assert.Empty(t, set.IDs)
	assert.True(t, log.HasLevel("warn"))
}

func TestAdapter_DropsUnparseableRows(t *testing.T) {
	exec := invtesting.NewFakeExecutor().
		Respond(inventory.DeallocatedQuery(),
			invtesting.Row(vm1),
			map[string]any{"id": "/subscriptions/s1/resourceGroups/rgA/providers/Microsoft.Compute"},
			invtesting.Row(vm2))
	a, log := newAdapter(exec, nil, inventory.Options{})

	set := a.Deallocated(context.Background(), nil)

	assert.Equal(t, []resource.ID{vm1, vm2}, set.IDs)
	for _, id := range set.IDs {
		assert.NotEmpty(t, id.Name)
	}
	assert.True(t, log.HasLevel("debug"))
}

func TestAdapter_UnassessedUsesConfiguredOSType(t *testing.T) {
	exec := invtesting.NewFakeExecutor().
		Respond(inventory.UnassessedQuery("Linux"), invtesting.Rows(vm2)...)
	a, _ := newAdapter(exec, nil, inventory.Options{UnassessedOSType: "Linux"})

	set := a.Unassessed(context.Background(), nil)
	assert.Equal(t, []resource.ID{vm2}, set.IDs)
}

func TestAdapter_QueryTimeout(t *testing.T) {
	exec := invtesting.NewFakeExecutor().Block(inventory.InProgressQuery())
	a, _ := newAdapter(exec, nil, inventory.Options{QueryTimeout: 20 * time.Millisecond})

	start := time.Now()
	set := a.InProgress(context.Background(), nil)

	assert.Error(t, set.Err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAdapter_Scopes(t *testing.T) {
	tests := []struct {
		name        string
		lister      *invtesting.FakeScopes
		allow       []string
		wantScopes  []string
		wantWarning bool
	}{
		{
			name:       "all enabled",
			lister:     &invtesting.FakeScopes{Subscriptions: []string{"s1", "s2"}},
			wantScopes: []string{"s1", "s2"},
		},
		{
			name:       "allow-list narrows",
			lister:     &invtesting.FakeScopes{Subscriptions: []string{"s1", "s2"}},
			allow:      []string{"s2", "s9"},
			wantScopes: []string{"s2"},
		},
		{
			name:        "allow-list matches nothing",
			lister:      &invtesting.FakeScopes{Subscriptions: []string{"s1"}},
			allow:       []string{"s9"},
			wantWarning: true,
		},
		{
			name:        "listing fails falls back to tenant-wide",
			lister:      &invtesting.FakeScopes{Err: stderrors.New("not logged in")},
			wantWarning: true,
		},
		{
			name:        "listing fails falls back to allow-list",
			lister:      &invtesting.FakeScopes{Err: stderrors.New("not logged in")},
			allow:       []string{"s1"},
			wantScopes:  []string{"s1"},
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newAdapter(invtesting.NewFakeExecutor(), tt.lister, inventory.Options{Subscriptions: tt.allow})
			scopes, warning := a.Scopes(context.Background())
			assert.Equal(t, tt.wantScopes, scopes)
			assert.Equal(t, tt.wantWarning, warning != "")
		})
	}
}

func TestAdapter_ScopesListingIsBounded(t *testing.T) {
	lister := &invtesting.FakeScopes{Block: true}
	a, log := newAdapter(invtesting.NewFakeExecutor(), lister, inventory.Options{
		QueryTimeout:  30 * time.Millisecond,
		Subscriptions: []string{"s1"},
	})

	start := time.Now()
	scopes, warning := a.Scopes(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"s1"}, scopes, "falls back to the allow-list")
	assert.NotEmpty(t, warning)
	assert.True(t, log.HasLevel("warn"))
}

func TestGather_HungScopeListingDoesNotStallCycle(t *testing.T) {
	exec := invtesting.NewFakeExecutor().
		Respond(inventory.PendingQuery(), invtesting.Rows(vm1)...)
	lister := &invtesting.FakeScopes{Block: true}
	a, _ := newAdapter(exec, lister, inventory.Options{QueryTimeout: 50 * time.Millisecond})

	done := make(chan inventory.Snapshot, 1)
	go func() { done <- a.Gather(context.Background()) }()

	select {
	case snap := <-done:
		assert.False(t, snap.Cancelled)
		assert.Equal(t, 1, snap.Set(inventory.Pending).Len())
		assert.Contains(t, snap.Warnings, "Couldn't list subscriptions; querying tenant-wide")
		for _, c := range exec.Calls {
			assert.Nil(t, c.Scopes)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Gather blocked on the subscription listing")
	}
}

func TestAdapter_HistoryDropsUnparseableIDs(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	q := inventory.HistoryQuery(20*time.Minute, 30)
	exec := invtesting.NewFakeExecutor().Respond(q,
		map[string]any{"timestamp": now.Add(-time.Minute).Format(time.RFC3339), "id": "garbage", "status": "Failed"},
		invtesting.HistoryRow(now.Add(-2*time.Minute), vm2, "Succeeded"))
	m := metrics.New()
	a := inventory.NewAdapter(exec, nil, inventory.Options{}, logger.NewBufferLogger(), m)

	events, err := a.History(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "vm2", events[0].ResourceName)
}

func TestAdapter_History(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	q := inventory.HistoryQuery(20*time.Minute, 30)
	exec := invtesting.NewFakeExecutor().Respond(q,
		invtesting.HistoryRow(now.Add(-time.Minute), vm1, "Succeeded"),
		invtesting.HistoryRow(now.Add(-5*time.Minute), vm2, "InProgress"))
	a, _ := newAdapter(exec, nil, inventory.Options{})

	events, err := a.History(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "vm1", events[0].ResourceName)
	assert.Equal(t, inventory.StatusInProgress, events[1].Status)
}

func TestGather_AllUnitsAndSharedScopes(t *testing.T) {
	exec := invtesting.NewFakeExecutor().
		Respond(inventory.PendingQuery(), invtesting.Rows(vm1, vm2, vm3)...).
		Respond(inventory.InProgressQuery(), invtesting.Rows(vm2)...).
		Respond(inventory.RebootingQuery(), invtesting.Rows(vm2)...)
	lister := &invtesting.FakeScopes{Subscriptions: []string{"s1"}}
	a, _ := newAdapter(exec, lister, inventory.Options{})

	snap := a.Gather(context.Background())

	assert.False(t, snap.Cancelled)
	assert.Equal(t, 1, lister.Calls(), "scopes listed once per cycle")
	assert.Equal(t, len(inventory.Classifications)+1, exec.CallCount())
	assert.Len(t, snap.Sets, len(inventory.Classifications))
	assert.Equal(t, 3, snap.Set(inventory.Pending).Len())
	assert.Equal(t, 1, snap.Set(inventory.InProgress).Len())
	assert.Equal(t, 1, snap.Set(inventory.Rebooting).Len())
	assert.Empty(t, snap.Warnings)
	for _, c := range exec.Calls {
		assert.Equal(t, []string{"s1"}, c.Scopes)
	}
}

func TestGather_RunsConcurrently(t *testing.T) {
	exec := invtesting.NewFakeExecutor()
	for _, c := range inventory.Classifications {
		exec.Delay(inventory.QueryFor(c, "Windows"), 50*time.Millisecond)
	}
	a, _ := newAdapter(exec, nil, inventory.Options{MaxParallel: 8})

	start := time.Now()
	a.Gather(context.Background())

	assert.Less(t, time.Since(start), 300*time.Millisecond)
	assert.Greater(t, exec.MaxInFlight, 1)
	assert.LessOrEqual(t, exec.MaxInFlight, 8)
}

func TestGather_OneFailureDegradesOneClassification(t *testing.T) {
	exec := invtesting.NewFakeExecutor().
		Respond(inventory.PendingQuery(), invtesting.Rows(vm1)...).
		Fail(inventory.FailedQuery(), stderrors.New("boom")).
		Block(inventory.RebootingQuery())
	a, _ := newAdapter(exec, nil, inventory.Options{QueryTimeout: 30 * time.Millisecond})

	snap := a.Gather(context.Background())

	assert.False(t, snap.Cancelled)
	assert.Equal(t, 1, snap.Set(inventory.Pending).Len())
	assert.Error(t, snap.Set(inventory.Failed).Err)
	assert.Error(t, snap.Set(inventory.Rebooting).Err)
	assert.NoError(t, snap.Set(inventory.Deallocated).Err)
	assert.Len(t, snap.Warnings, 2)
}

func TestGather_CancelledParent(t *testing.T) {
	exec := invtesting.NewFakeExecutor().Block(inventory.PendingQuery())
	a, _ := newAdapter(exec, nil, inventory.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	snap := a.Gather(ctx)
	assert.True(t, snap.Cancelled)
}

func TestSnapshot_SetMissing(t *testing.T) {
	var snap inventory.Snapshot
	set := snap.Set(inventory.Unassessed)
	assert.Equal(t, inventory.Unassessed, set.Classification)
	assert.Zero(t, set.Len())
}
