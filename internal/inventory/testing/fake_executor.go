// Package testing provides test doubles for the inventory package.
package testing

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/resource"
)

// response configures what the fake returns for one query.
type response struct {
	rows    []map[string]any
	err     error
	latency time.Duration
	block   bool
}

// Call records one Query invocation.
type Call struct {
	KQL    string
	Scopes []string
	First  int
}

// FakeExecutor answers inventory queries from canned responses keyed by the
// rendered KQL. Unknown queries return no rows.
type FakeExecutor struct {
	mu        sync.Mutex
	responses map[string]response

	inFlight    int
	MaxInFlight int
	Calls       []Call
}

// NewFakeExecutor creates an executor with no canned responses.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{responses: make(map[string]response)}
}

// Respond makes q return rows.
func (f *FakeExecutor) Respond(q inventory.Query, rows ...map[string]any) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.responses[q.KQL()]
	r.rows = rows
	f.responses[q.KQL()] = r
	return f
}

// Fail makes q return err.
func (f *FakeExecutor) Fail(q inventory.Query, err error) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.responses[q.KQL()]
	r.err = err
	f.responses[q.KQL()] = r
	return f
}

// Delay makes q sleep for d (or until ctx ends) before answering.
func (f *FakeExecutor) Delay(q inventory.Query, d time.Duration) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.responses[q.KQL()]
	r.latency = d
	f.responses[q.KQL()] = r
	return f
}

// Block makes q hang until its context is cancelled.
func (f *FakeExecutor) Block(q inventory.Query) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.responses[q.KQL()]
	r.block = true
	f.responses[q.KQL()] = r
	return f
}

// Query implements inventory.Executor.
func (f *FakeExecutor) Query(ctx context.Context, kql string, scopes []string, first int) ([]map[string]any, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, Call{KQL: kql, Scopes: slices.Clone(scopes), First: first})
	f.inFlight++
	if f.inFlight > f.MaxInFlight {
		f.MaxInFlight = f.inFlight
	}
	r := f.responses[kql]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.latency > 0 {
		select {
		case <-time.After(r.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

// CallCount returns how many queries were issued.
func (f *FakeExecutor) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// FakeScopes is a ScopeLister returning fixed subscriptions.
type FakeScopes struct {
	Subscriptions []string
	Err           error
	// Block makes the listing hang until its context ends.
	Block bool

	mu    sync.Mutex
	calls int
}

// EnabledSubscriptions implements inventory.ScopeLister.
func (s *FakeScopes) EnabledSubscriptions(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return slices.Clone(s.Subscriptions), nil
}

// Calls returns how many times subscriptions were listed.
func (s *FakeScopes) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Row builds an identifier-only row for id.
func Row(id resource.ID) map[string]any {
	return map[string]any{"id": id.String()}
}

// Rows builds identifier-only rows for ids, in order.
func Rows(ids ...resource.ID) []map[string]any {
	rows := make([]map[string]any, len(ids))
	for i, id := range ids {
		rows[i] = Row(id)
	}
	return rows
}

// HistoryRow builds a history row the way the backend projects it.
func HistoryRow(ts time.Time, id resource.ID, status string) map[string]any {
	return map[string]any{
		"timestamp": ts.UTC().Format(time.RFC3339Nano),
		"id":        id.String(),
		"status":    status,
		"startedBy": "User",
	}
}
