package monitor

import (
	"context"
	"time"

	"github.com/rileyhilliard/patchctl/internal/dedup"
	"github.com/rileyhilliard/patchctl/internal/dispatch"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/remediate"
)

// Outcome is how a live-mode entry ended.
type Outcome int

const (
	// OutcomeReturnedToMenu hands control back to the menu.
	OutcomeReturnedToMenu Outcome = iota
	// OutcomeEmergencyExit ends the process after background batches are
	// cancelled.
	OutcomeEmergencyExit
)

// String returns the outcome label.
func (o Outcome) String() string {
	if o == OutcomeEmergencyExit {
		return "emergency-exit"
	}
	return "returned-to-menu"
}

// maxActivity bounds the finished-batch list kept in a session.
const maxActivity = 5

// Session is the state that survives leaving and re-entering live mode.
// It is owned by the caller and threaded through each Model.
type Session struct {
	// Tracker remembers the previous cycle's events. It is only reset at
	// graceful exit.
	Tracker dedup.Tracker
	// Supervisor owns batches launched from the dashboard. They keep
	// running while the operator is in the menu.
	Supervisor *dispatch.Supervisor
	// Activity holds the most recent finished batches, newest last.
	Activity []dispatch.Report
	// LastAction is the most recent operator-facing message.
	LastAction string
}

// NewSession returns an empty session with its own supervisor.
func NewSession(log logger.Logger) Session {
	return Session{Supervisor: dispatch.NewSupervisor(log)}
}

// record appends r to the activity list, keeping the newest entries.
func (s Session) record(r dispatch.Report) Session {
	activity := append(append([]dispatch.Report(nil), s.Activity...), r)
	if len(activity) > maxActivity {
		activity = activity[len(activity)-maxActivity:]
	}
	s.Activity = activity
	return s
}

// Collect records the reports of batches that finished since the last call,
// including ones that ended while the operator was in the menu.
func (s Session) Collect() Session {
	if s.Supervisor == nil {
		return s
	}
	for _, r := range s.Supervisor.Drain() {
		s = s.record(r)
		s.LastAction = r.Summary()
	}
	return s
}

// Gatherer runs one inventory cycle. inventory.Adapter implements it.
type Gatherer interface {
	Gather(ctx context.Context) inventory.Snapshot
}

// Deps are the collaborators a Model needs.
type Deps struct {
	Gatherer   Gatherer
	Dispatcher *dispatch.Dispatcher
	Log        logger.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Options tune the dashboard.
type Options struct {
	// Interval between automatic refreshes.
	Interval time.Duration
	// HistoryWindow drops events older than this.
	HistoryWindow time.Duration
	// HistoryDisplay caps the event stream.
	HistoryDisplay int
	// TargetSample is the number of target rows shown on the dashboard.
	TargetSample int
	// Install is passed to install-patches.
	Install remediate.InstallParams
}

const (
	DefaultInterval       = 30 * time.Second
	DefaultHistoryWindow  = 20 * time.Minute
	DefaultHistoryDisplay = 20
	DefaultTargetSample   = 5
)

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = DefaultHistoryWindow
	}
	if o.HistoryDisplay <= 0 {
		o.HistoryDisplay = DefaultHistoryDisplay
	}
	if o.TargetSample <= 0 {
		o.TargetSample = DefaultTargetSample
	}
	if len(o.Install.Classifications) == 0 {
		o.Install = remediate.DefaultInstallParams()
	}
	return o
}
