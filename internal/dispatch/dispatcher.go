// Package dispatch fans remediation commands out over a cohort with bounded
// concurrency, and supervises background batches so they can be stopped in
// two phases.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/metrics"
	"github.com/rileyhilliard/patchctl/internal/remediate"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Dispatcher submits commands through a Commander.
type Dispatcher struct {
	cmd     remediate.Commander
	opts    Options
	log     logger.Logger
	metrics *metrics.Metrics
}

// New creates a dispatcher.
func New(cmd remediate.Commander, opts Options, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = logger.Noop()
	}
	return &Dispatcher{cmd: cmd, opts: opts.withDefaults(), log: log, metrics: m}
}

// Options returns the effective options.
func (d *Dispatcher) Options() Options {
	return d.opts
}

// batch tracks counters for one run and serializes progress callbacks.
type batch struct {
	id       string
	progress ProgressFunc

	mu     sync.Mutex
	issued int
	failed int
}

func newBatch(progress ProgressFunc) *batch {
	return &batch{id: uuid.NewString(), progress: progress}
}

func (b *batch) record(err error) (issued, failed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	if err != nil {
		b.failed++
	}
	return b.issued, b.failed
}

func (b *batch) emit(p Progress) {
	if b.progress == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p.BatchID = b.id
	b.progress(p)
}

func (b *batch) counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issued, b.failed
}

// submit issues one command under the kill context and records the outcome.
func (d *Dispatcher) submit(ctx context.Context, b *batch, id resource.ID, kind remediate.Kind, params remediate.InstallParams) error {
	d.metrics.CommandStarted(kind.String())
	err := d.cmd.Submit(submitContext(ctx), id, kind, params)
	d.metrics.CommandFinished(kind.String(), err)

	if err != nil {
		d.log.Warn("[%s] %s %s failed: %v", b.id[:8], kind, id.Key(), err)
	} else {
		d.log.Debug("[%s] %s %s submitted", b.id[:8], kind, id.Key())
	}
	return err
}

// Fanout submits kind for every machine, in cohort order, with at most
// Window submissions in flight. It returns once every launched submission
// has settled. Failures are counted and never cancel siblings.
func (d *Dispatcher) Fanout(ctx context.Context, cohort []resource.ID, kind remediate.Kind, params remediate.InstallParams, progress ProgressFunc) Report {
	b := newBatch(progress)
	start := time.Now()
	d.log.Info("[%s] %s fan-out over %d machines (window %d)", b.id[:8], kind, len(cohort), d.opts.Window)

	cancelled := d.fanout(ctx, b, cohort, kind, params, PhaseSubmit)

	issued, failed := b.counts()
	b.emit(Progress{Phase: PhaseDone, Kind: kind, Done: issued, Total: len(cohort), Failed: failed})
	return Report{
		BatchID:   b.id,
		Action:    kind.String(),
		Cohort:    len(cohort),
		Issued:    issued,
		Failed:    failed,
		Duration:  time.Since(start),
		Cancelled: cancelled,
	}
}

// fanout is the bounded fan-out shared by Fanout and the restart phase.
// It reports whether ctx stopped it before every machine was launched.
func (d *Dispatcher) fanout(ctx context.Context, b *batch, cohort []resource.ID, kind remediate.Kind, params remediate.InstallParams, phase Phase) bool {
	sem := semaphore.NewWeighted(int64(d.opts.Window))
	var wg sync.WaitGroup
	cancelled := false
	base, _ := b.counts()

	for _, id := range cohort {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			cancelled = true
			break
		}
		// Acquire can win a race against cancellation.
		if ctx.Err() != nil {
			sem.Release(1)
			cancelled = true
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			err := d.submit(ctx, b, id, kind, params)
			issued, failed := b.record(err)
			b.emit(Progress{Phase: phase, Kind: kind, Done: issued - base, Total: len(cohort), Failed: failed})
		}()
	}

	wg.Wait()
	return cancelled
}

// RestartThenInstall restarts every machine, waits the settle period with a
// per-second countdown, then submits installs one at a time spaced by
// Stagger. The phases never overlap: a full run issues exactly 2*len(cohort)
// submissions.
func (d *Dispatcher) RestartThenInstall(ctx context.Context, cohort []resource.ID, params remediate.InstallParams, progress ProgressFunc) Report {
	b := newBatch(progress)
	start := time.Now()
	report := func(cancelled bool) Report {
		issued, failed := b.counts()
		b.emit(Progress{Phase: PhaseDone, Kind: remediate.InstallUpdates, Done: issued, Total: 2 * len(cohort), Failed: failed})
		return Report{
			BatchID:   b.id,
			Action:    "restart+install",
			Cohort:    len(cohort),
			Issued:    issued,
			Failed:    failed,
			Duration:  time.Since(start),
			Cancelled: cancelled,
		}
	}

	d.log.Info("[%s] restart+install over %d machines (settle %s, stagger %s)",
		b.id[:8], len(cohort), d.opts.Settle, d.opts.Stagger)

	if d.fanout(ctx, b, cohort, remediate.Restart, params, PhaseRestart) {
		return report(true)
	}

	if err := d.settle(ctx, b); err != nil {
		return report(true)
	}

	limiter := rate.NewLimiter(rate.Every(d.opts.Stagger), 1)
	for i, id := range cohort {
		if err := limiter.Wait(ctx); err != nil {
			return report(true)
		}
		err := d.submit(ctx, b, id, remediate.InstallUpdates, params)
		_, failed := b.record(err)
		b.emit(Progress{Phase: PhaseInstall, Kind: remediate.InstallUpdates, Done: i + 1, Total: len(cohort), Failed: failed})
	}

	return report(false)
}

// settle waits for Settle, emitting a countdown at most once per second.
func (d *Dispatcher) settle(ctx context.Context, b *batch) error {
	remaining := d.opts.Settle
	for remaining > 0 {
		b.emit(Progress{Phase: PhaseSettle, Kind: remediate.Restart, Remaining: remaining})
		step := min(time.Second, remaining)

		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		remaining -= step
	}
	return nil
}
