package inventory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/metrics"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"golang.org/x/sync/errgroup"
)

// Executor runs a KQL query across the given subscription scopes and returns
// the rows in backend order. A nil or empty scopes slice means tenant-wide.
type Executor interface {
	Query(ctx context.Context, kql string, scopes []string, first int) ([]map[string]any, error)
}

// ScopeLister lists the subscriptions the signed-in account can query.
type ScopeLister interface {
	EnabledSubscriptions(ctx context.Context) ([]string, error)
}

// Options tunes the adapter. Zero values fall back to the defaults below.
type Options struct {
	// Subscriptions narrows the listed scopes to this allow-list.
	Subscriptions    []string
	QueryTimeout     time.Duration
	MaxParallel      int
	HistoryWindow    time.Duration
	HistoryFetch     int
	UnassessedOSType string
	// First is the page size passed to the backend.
	First int
}

const (
	defaultQueryTimeout = 45 * time.Second
	defaultMaxParallel  = 8
	defaultHistoryFetch = 30
	defaultFirst        = 1000
	defaultHistoryAge   = 20 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = defaultQueryTimeout
	}
	if o.MaxParallel <= 0 {
		o.MaxParallel = defaultMaxParallel
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = defaultHistoryAge
	}
	if o.HistoryFetch <= 0 {
		o.HistoryFetch = defaultHistoryFetch
	}
	if o.UnassessedOSType == "" {
		o.UnassessedOSType = "Windows"
	}
	if o.First <= 0 {
		o.First = defaultFirst
	}
	return o
}

// Adapter issues classification queries. Its methods never return errors:
// a failed query degrades to an empty Set with Err populated.
type Adapter struct {
	exec    Executor
	scopes  ScopeLister
	opts    Options
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAdapter creates an adapter. scopes may be nil to always query tenant-wide.
func NewAdapter(exec Executor, scopes ScopeLister, opts Options, log logger.Logger, m *metrics.Metrics) *Adapter {
	if log == nil {
		log = logger.Noop()
	}
	return &Adapter{
		exec:    exec,
		scopes:  scopes,
		opts:    opts.withDefaults(),
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Options returns the effective options.
func (a *Adapter) Options() Options {
	return a.opts
}

// Scopes lists the enabled subscriptions, filtered by the allow-list.
// The listing is bounded by QueryTimeout. On failure it returns the
// allow-list (nil = tenant-wide) plus a warning.
func (a *Adapter) Scopes(ctx context.Context) ([]string, string) {
	if a.scopes == nil {
		return a.opts.Subscriptions, ""
	}

	listCtx, cancel := context.WithTimeout(ctx, a.opts.QueryTimeout)
	subs, err := a.scopes.EnabledSubscriptions(listCtx)
	cancel()
	if err != nil {
		a.log.Warn("listing subscriptions failed: %v", err)
		if len(a.opts.Subscriptions) > 0 {
			return a.opts.Subscriptions, "Couldn't list subscriptions; using the configured allow-list"
		}
		return nil, "Couldn't list subscriptions; querying tenant-wide"
	}

	if len(a.opts.Subscriptions) == 0 {
		return subs, ""
	}

	allowed := make([]string, 0, len(a.opts.Subscriptions))
	for _, s := range subs {
		if slices.Contains(a.opts.Subscriptions, s) {
			allowed = append(allowed, s)
		}
	}
	if len(allowed) == 0 {
		return nil, "None of the configured subscriptions are enabled for this account"
	}
	return allowed, ""
}

// Pending returns machines with available updates.
func (a *Adapter) Pending(ctx context.Context, scopes []string) Set {
	return a.classify(ctx, Pending, scopes)
}

// InProgress returns machines with a running installation.
func (a *Adapter) InProgress(ctx context.Context, scopes []string) Set {
	return a.classify(ctx, InProgress, scopes)
}

// Rebooting returns machines changing power state.
func (a *Adapter) Rebooting(ctx context.Context, scopes []string) Set {
	return a.classify(ctx, Rebooting, scopes)
}

// Deallocated returns stopped and deallocated machines.
func (a *Adapter) Deallocated(ctx context.Context, scopes []string) Set {
	return a.classify(ctx, Deallocated, scopes)
}

// RecentlyCompleted returns machines whose installation finished in the last hour.
func (a *Adapter) RecentlyCompleted(ctx context.Context, scopes []string) Set {
	return a.classify(ctx, RecentlyCompleted, scopes)
}

// Failed returns machines whose installation failed in the last 24h.
func (a *Adapter) Failed(ctx context.Context, scopes []string) Set {
	return a.classify(ctx, Failed, scopes)
}

// Unassessed returns running machines of the configured OS type with no
// recent assessment.
func (a *Adapter) Unassessed(ctx context.Context, scopes []string) Set {
	return a.classify(ctx, Unassessed, scopes)
}

// Classify runs the query for c.
func (a *Adapter) Classify(ctx context.Context, c Classification, scopes []string) Set {
	return a.classify(ctx, c, scopes)
}

func (a *Adapter) classify(ctx context.Context, c Classification, scopes []string) Set {
	q := QueryFor(c, a.opts.UnassessedOSType)

	rows, err := a.run(ctx, q, scopes)
	if err != nil {
		return Set{Classification: c, Err: err}
	}

	records, dropped := decodeRecords(rows)
	if dropped > 0 {
		a.log.Debug("%s: dropped %d rows with unparseable resource IDs", q.Name, dropped)
		a.metrics.ParseDropped(dropped)
	}

	ids := make([]resource.ID, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return Set{Classification: c, IDs: ids, Records: records}
}

// History returns installation events from the configured window, newest
// first. Failure yields no events and a non-nil error for display only.
func (a *Adapter) History(ctx context.Context, scopes []string) ([]HistoryEvent, error) {
	q := HistoryQuery(a.opts.HistoryWindow, a.opts.HistoryFetch)

	rows, err := a.run(ctx, q, scopes)
	if err != nil {
		return nil, err
	}
	events, dropped := decodeHistory(rows)
	if dropped > 0 {
		a.log.Debug("%s: dropped %d events with unparseable resource IDs", q.Name, dropped)
		a.metrics.ParseDropped(dropped)
	}
	return events, nil
}

func (a *Adapter) run(ctx context.Context, q Query, scopes []string) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.QueryTimeout)
	defer cancel()

	a.metrics.QueryIssued(q.Name)
	a.log.Debug("query %s across %d scopes", q.Name, len(scopes))

	rows, err := a.exec.Query(ctx, q.KQL(), scopes, a.opts.First)
	if err != nil {
		a.metrics.QueryFailed(q.Name)
		a.log.Warn("query %s failed: %v", q.Name, err)
		if !errors.IsCode(err, errors.ErrQuery) {
			err = errors.WrapWithCode(err, errors.ErrQuery,
				fmt.Sprintf("The %s query failed", q.Name),
				"It will be retried on the next refresh.")
		}
		return nil, err
	}
	return rows, nil
}

// Gather runs every classification query and the history query concurrently
// and waits for all of them. A failing query never cancels its siblings.
func (a *Adapter) Gather(ctx context.Context) Snapshot {
	started := a.now()
	scopes, scopeWarning := a.Scopes(ctx)

	snap := Snapshot{
		Started: started,
		Sets:    make(map[Classification]Set, len(Classifications)),
	}
	if scopeWarning != "" {
		snap.Warnings = append(snap.Warnings, scopeWarning)
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(a.opts.MaxParallel)

	for _, c := range Classifications {
		g.Go(func() error {
			set := a.classify(ctx, c, scopes)
			mu.Lock()
			snap.Sets[c] = set
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		events, err := a.History(ctx, scopes)
		mu.Lock()
		snap.History = events
		snap.HistoryErr = err
		mu.Unlock()
		return nil
	})

	_ = g.Wait()

	for _, c := range Classifications {
		if err := snap.Sets[c].Err; err != nil {
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("%s query failed; showing 0", c.Label()))
		}
	}
	if snap.HistoryErr != nil {
		snap.Warnings = append(snap.Warnings, "History query failed; event stream is empty")
	}

	snap.Duration = a.now().Sub(started)
	snap.Cancelled = ctx.Err() != nil
	if !snap.Cancelled {
		a.metrics.CycleCompleted()
	}
	return snap
}
