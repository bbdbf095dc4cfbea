package dispatch

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/patchctl/internal/remediate"
)

// Phase identifies where a batch is.
type Phase int

const (
	PhaseSubmit Phase = iota
	PhaseRestart
	PhaseSettle
	PhaseInstall
	PhaseDone
)

// String returns the phase label shown on the dashboard.
func (p Phase) String() string {
	switch p {
	case PhaseSubmit:
		return "submitting"
	case PhaseRestart:
		return "restarting"
	case PhaseSettle:
		return "settling"
	case PhaseInstall:
		return "installing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Progress is one update from a running batch.
type Progress struct {
	BatchID string
	Phase   Phase
	Kind    remediate.Kind
	Done    int
	Total   int
	Failed  int
	// Remaining is the settle countdown; zero outside PhaseSettle.
	Remaining time.Duration
}

// String describes the update for progress lines.
func (p Progress) String() string {
	switch p.Phase {
	case PhaseSettle:
		return fmt.Sprintf("settling, installs start in %s", p.Remaining.Round(time.Second))
	case PhaseDone:
		return fmt.Sprintf("done, %d issued", p.Done)
	}
	s := fmt.Sprintf("%s %d/%d", p.Phase, p.Done, p.Total)
	if p.Failed > 0 {
		s += fmt.Sprintf(", %d failed", p.Failed)
	}
	return s
}

// ProgressFunc receives updates. Calls are serialized per batch.
type ProgressFunc func(Progress)

// Report summarizes a finished batch. Individual outcomes are not tracked;
// the next inventory refresh shows what actually happened.
type Report struct {
	BatchID  string
	Action   string
	Cohort   int
	Issued   int
	Failed   int
	Duration time.Duration
	// Cancelled is true when the batch stopped before issuing everything.
	Cancelled bool
}

// Summary renders a one-line description for the activity panel.
func (r Report) Summary() string {
	s := fmt.Sprintf("%s: %d commands issued", r.Action, r.Issued)
	if r.Failed > 0 {
		s += fmt.Sprintf(", %d failed to submit", r.Failed)
	}
	if r.Cancelled {
		s += " (cancelled)"
	}
	return s
}

// Options tunes a Dispatcher. A zero Window falls back to DefaultWindow; a
// zero Settle or Stagger disables that wait. DefaultOptions returns the
// production settings.
type Options struct {
	// Window bounds in-flight submissions.
	Window int
	// Settle is the wait between restarts and installs.
	Settle time.Duration
	// Stagger spaces serial install submissions.
	Stagger time.Duration
}

const (
	DefaultWindow  = 10
	DefaultSettle  = 60 * time.Second
	DefaultStagger = 2 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.Settle < 0 {
		o.Settle = 0
	}
	if o.Stagger < 0 {
		o.Stagger = 0
	}
	return o
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{Window: DefaultWindow, Settle: DefaultSettle, Stagger: DefaultStagger}
}
