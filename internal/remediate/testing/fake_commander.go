// Package testing provides test doubles for the remediate package.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/patchctl/internal/remediate"
	"github.com/rileyhilliard/patchctl/internal/resource"
)

// Submission records one Submit call.
type Submission struct {
	ID     resource.ID
	Kind   remediate.Kind
	Params remediate.InstallParams
	At     time.Time
}

// FakeCommander records submissions and tracks peak concurrency.
type FakeCommander struct {
	// Latency is how long each Submit blocks (honoring ctx).
	Latency time.Duration
	// FailFor makes Submit return the mapped error for that machine.
	FailFor map[resource.ID]error
	// IgnoreCancel makes Submit keep sleeping after ctx is cancelled,
	// like a subprocess that ignores SIGTERM.
	IgnoreCancel bool

	mu          sync.Mutex
	submissions []Submission
	inFlight    int
	maxInFlight int
}

// NewFakeCommander creates a commander that succeeds immediately.
func NewFakeCommander() *FakeCommander {
	return &FakeCommander{FailFor: make(map[resource.ID]error)}
}

// Submit implements remediate.Commander.
func (f *FakeCommander) Submit(ctx context.Context, id resource.ID, kind remediate.Kind, params remediate.InstallParams) error {
	if err := remediate.CheckTarget(id); err != nil {
		return err
	}

	f.mu.Lock()
	f.submissions = append(f.submissions, Submission{ID: id, Kind: kind, Params: params, At: time.Now()})
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	err := f.FailFor[id]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.Latency > 0 {
		if f.IgnoreCancel {
			time.Sleep(f.Latency)
		} else {
			select {
			case <-time.After(f.Latency):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// Submissions returns a copy of every recorded submission, in call order.
func (f *FakeCommander) Submissions() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Submission, len(f.submissions))
	copy(out, f.submissions)
	return out
}

// Kinds returns the kind of each submission, in call order.
func (f *FakeCommander) Kinds() []remediate.Kind {
	subs := f.Submissions()
	kinds := make([]remediate.Kind, len(subs))
	for i, s := range subs {
		kinds[i] = s.Kind
	}
	return kinds
}

// MaxInFlight returns the peak number of concurrent Submit calls.
func (f *FakeCommander) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}
