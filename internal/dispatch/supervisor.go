package dispatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/patchctl/internal/logger"
)

type killKey struct{}

// submitContext returns the context submissions should run under: the
// batch's kill context when supervised, otherwise ctx itself. Stopping a
// batch gracefully cancels ctx but leaves the kill context alive, so
// in-flight submissions finish while nothing new is issued.
func submitContext(ctx context.Context) context.Context {
	if kill, ok := ctx.Value(killKey{}).(context.Context); ok {
		return kill
	}
	return ctx
}

// Handle is one supervised background batch.
type Handle struct {
	ID      string
	Name    string
	Started time.Time

	stop context.CancelFunc
	kill context.CancelFunc
	done chan struct{}

	mu     sync.Mutex
	report Report
}

// Done is closed when the batch function returns.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Stop asks the batch to issue nothing new. In-flight submissions continue.
func (h *Handle) Stop() {
	h.stop()
}

// Kill aborts in-flight submissions as well.
func (h *Handle) Kill() {
	h.kill()
}

// Report returns the batch result. It is only meaningful after Done.
func (h *Handle) Report() Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.report
}

// Wait blocks until the batch returns or ctx ends.
func (h *Handle) Wait(ctx context.Context) (Report, error) {
	select {
	case <-h.done:
		return h.Report(), nil
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

// ShutdownReport describes how background batches ended.
type ShutdownReport struct {
	// Graceful batches returned after the stop signal.
	Graceful int
	// Forced batches returned only after their submissions were killed.
	Forced int
	// Abandoned names batches still running after the forced deadline.
	Abandoned []string
}

// Clean reports whether every batch ended.
func (r ShutdownReport) Clean() bool {
	return len(r.Abandoned) == 0
}

// Supervisor owns background dispatch batches.
type Supervisor struct {
	log logger.Logger

	mu      sync.Mutex
	handles map[string]*Handle
	// finished holds reports not yet collected by Drain, in completion order.
	finished []Report
	wg       sync.WaitGroup
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor(log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.Noop()
	}
	return &Supervisor{log: log, handles: make(map[string]*Handle)}
}

// Go runs fn in the background. fn's context is cancelled by Stop (and by
// Kill); submissions made through a Dispatcher under that context survive
// Stop and are aborted only by Kill.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) Report) *Handle {
	killCtx, kill := context.WithCancel(context.Background())
	stopCtx, stop := context.WithCancel(context.WithValue(killCtx, killKey{}, killCtx))

	h := &Handle{
		ID:      uuid.NewString(),
		Name:    name,
		Started: time.Now(),
		stop:    stop,
		kill:    kill,
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	s.handles[h.ID] = h
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			stop()
			kill()
			s.mu.Lock()
			delete(s.handles, h.ID)
			s.finished = append(s.finished, h.Report())
			s.mu.Unlock()
			close(h.done)
		}()

		r := fn(stopCtx)
		h.mu.Lock()
		h.report = r
		h.mu.Unlock()
	}()

	s.log.Debug("started background batch %s (%s)", name, h.ID[:8])
	return h
}

// Active returns running batches, oldest first.
func (s *Supervisor) Active() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}

// Drain returns the reports of batches that finished since the last call,
// oldest first. A report is returned exactly once.
func (s *Supervisor) Drain() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.finished
	s.finished = nil
	return out
}

// Shutdown stops every batch in two phases: a stop signal and up to grace
// for batches to return, then a kill and up to grace again. Batches still
// running after that are reported as abandoned. Already-submitted Azure
// operations are not undone.
func (s *Supervisor) Shutdown(grace time.Duration) ShutdownReport {
	handles := s.Active()
	var report ShutdownReport
	if len(handles) == 0 {
		return report
	}

	s.log.Info("stopping %d background batches (grace %s)", len(handles), grace)
	for _, h := range handles {
		h.Stop()
	}
	pending := waitAll(handles, grace)
	report.Graceful = len(handles) - len(pending)

	if len(pending) > 0 {
		s.log.Warn("%d batches still running after grace; killing in-flight submissions", len(pending))
		for _, h := range pending {
			h.Kill()
		}
		stuck := waitAll(pending, grace)
		report.Forced = len(pending) - len(stuck)
		for _, h := range stuck {
			report.Abandoned = append(report.Abandoned, h.Name)
		}
	}

	if len(report.Abandoned) > 0 {
		s.log.Error("abandoned batches: %v", report.Abandoned)
	}
	return report
}

// waitAll waits up to d for every handle and returns those still running.
func waitAll(handles []*Handle, d time.Duration) []*Handle {
	deadline := time.NewTimer(d)
	defer deadline.Stop()

	var pending []*Handle
	for i, h := range handles {
		select {
		case <-h.done:
		case <-deadline.C:
			for _, rest := range handles[i:] {
				select {
				case <-rest.done:
				default:
					pending = append(pending, rest)
				}
			}
			return pending
		}
	}
	return pending
}
