package monitor

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/patchctl/internal/dedup"
	"github.com/rileyhilliard/patchctl/internal/dispatch"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/reconcile"
	"github.com/rileyhilliard/patchctl/internal/remediate"
	"github.com/rileyhilliard/patchctl/internal/resource"
)

// Model is the Bubble Tea model for the live dashboard.
type Model struct {
	deps    Deps
	opts    Options
	session Session
	log     logger.Logger
	now     func() time.Time

	machine Machine
	outcome Outcome
	initCmd tea.Cmd

	// cycle numbers gathers; snapshots from older cycles are dropped.
	cycle  int
	gather *gatherRun

	hasData     bool
	snap        inventory.Snapshot
	summary     reconcile.Summary
	events      []dedup.Marked
	lastUpdate  time.Time
	nextRefresh time.Time

	// tickID invalidates pending ticks when the wait restarts.
	tickID int

	batch    *activeBatch
	progress dispatch.Progress

	width          int
	height         int
	detailViewport viewport.Model
	viewportReady  bool
}

// gatherRun is shared between model copies so a quit can cancel the
// in-flight cycle.
type gatherRun struct {
	cancel context.CancelFunc
}

// activeBatch is the dashboard's view of a supervised batch.
type activeBatch struct {
	handle   *dispatch.Handle
	name     string
	progress chan dispatch.Progress
	// adopted batches were launched before this model existed and report
	// only their end.
	adopted bool
}

// snapshotMsg carries a finished gathering cycle.
type snapshotMsg struct {
	cycle int
	snap  inventory.Snapshot
}

// tickMsg fires when the refresh wait elapses.
type tickMsg struct {
	id int
}

// clockMsg redraws relative times once a second.
type clockMsg time.Time

// progressMsg carries one update from the active batch.
type progressMsg struct {
	batch    string
	progress dispatch.Progress
}

// batchDoneMsg is sent when the active batch returns.
type batchDoneMsg struct {
	batch  string
	report dispatch.Report
}

const clockInterval = time.Second

// progressBuffer bounds queued progress updates. Updates beyond it are
// dropped; the final report always arrives through the handle.
const progressBuffer = 64

// NewModel creates a dashboard that starts gathering immediately.
func NewModel(deps Deps, opts Options, sess Session) Model {
	if deps.Log == nil {
		deps.Log = logger.Noop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if sess.Supervisor == nil {
		sess.Supervisor = dispatch.NewSupervisor(deps.Log)
	}

	m := Model{
		deps:    deps,
		opts:    opts.withDefaults(),
		session: sess.Collect(),
		log:     deps.Log,
		now:     deps.Now,
		gather:  &gatherRun{},
	}
	m.adoptActive()
	m.initCmd = tea.Batch(m.apply(Event{Kind: EventEnter}), m.waitBatch())
	return m
}

// adoptActive tracks the newest batch still running in the supervisor so a
// re-entered dashboard stays busy until it ends.
func (m *Model) adoptActive() bool {
	active := m.session.Supervisor.Active()
	if len(active) == 0 {
		return false
	}
	h := active[len(active)-1]
	m.batch = &activeBatch{handle: h, name: h.Name, adopted: true}
	m.machine.Busy = true
	m.log.Debug("tracking running batch %s (%s)", h.Name, h.ID[:8])
	return true
}

// Init starts the first gather and the clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initCmd, clockCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		return m, nil

	case snapshotMsg:
		if msg.cycle != m.cycle || msg.snap.Cancelled {
			m.log.Debug("dropping snapshot from cycle %d (current %d)", msg.cycle, m.cycle)
			return m, nil
		}
		m.apply(Event{Kind: EventGathered})
		if m.machine.State != StateRendered {
			return m, nil
		}
		m.render(msg.snap)
		return m, m.apply(Event{Kind: EventRendered})

	case tickMsg:
		if msg.id != m.tickID {
			return m, nil
		}
		return m, m.apply(Event{Kind: EventTick})

	case progressMsg:
		if m.batch == nil || m.batch.handle.ID != msg.batch {
			return m, nil
		}
		m.progress = msg.progress
		return m, m.waitBatch()

	case batchDoneMsg:
		if m.batch == nil || m.batch.handle.ID != msg.batch {
			return m, nil
		}
		m.batch = nil
		m.session = m.session.Collect()
		if m.adoptActive() {
			return m, m.waitBatch()
		}
		return m, m.apply(Event{Kind: EventDispatchDone})

	case clockMsg:
		if m.machine.State.Terminal() {
			return m, nil
		}
		return m, clockCmd()
	}

	return m, nil
}

// handleKey resolves a keystroke and runs the resulting transition. Any key
// restarts the refresh wait.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyInterrupt {
		return m, m.apply(Event{Kind: EventInterrupt})
	}

	action := ResolveKey(m.machine.Mode, msg)
	if action == ActionNone {
		if m.machine.Mode.IsDetail() && m.viewportReady {
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return m, cmd
		}
		return m, m.restartWait()
	}

	m.log.Debug("key %q -> %s in %s", msg.String(), action, m.machine.State)
	cmd := m.apply(Key(action))
	return m, tea.Batch(cmd, m.restartWait())
}

// restartWait reschedules the refresh tick while the loop is waiting.
func (m *Model) restartWait() tea.Cmd {
	switch m.machine.State {
	case StateAwaitingInput, StateDispatching:
		return m.scheduleTick()
	}
	return nil
}

// apply runs one transition and performs its effect.
func (m *Model) apply(ev Event) tea.Cmd {
	prev := m.machine
	next, effect := Transition(m.machine, ev)
	m.machine = next
	if prev.State != next.State {
		m.log.Debug("state %s -> %s (%s)", prev.State, next.State, effectName(effect))
	}

	switch effect {
	case EffectGather:
		return m.startGather()
	case EffectScheduleTick:
		return m.scheduleTick()
	case EffectOpenDetail:
		m.refreshDetail()
		m.detailViewport.GotoTop()
		return nil
	case EffectRetryFailed, EffectInstallFailed, EffectAssessFailed, EffectStartDeallocated:
		return m.launch(effect)
	case EffectBusy:
		m.session.LastAction = "A batch is already running; wait for it to finish"
		return nil
	case EffectReturnToMenu:
		m.cancelGather()
		m.outcome = OutcomeReturnedToMenu
		return tea.Quit
	case EffectEmergencyExit:
		m.cancelGather()
		m.outcome = OutcomeEmergencyExit
		return tea.Quit
	}
	return nil
}

// startGather begins a new cycle, cancelling any cycle still in flight.
func (m *Model) startGather() tea.Cmd {
	m.cancelGather()
	m.cycle++
	cycle := m.cycle

	ctx, cancel := context.WithCancel(context.Background())
	m.gather.cancel = cancel
	gatherer := m.deps.Gatherer

	return func() tea.Msg {
		if gatherer == nil {
			return snapshotMsg{cycle: cycle}
		}
		return snapshotMsg{cycle: cycle, snap: gatherer.Gather(ctx)}
	}
}

func (m *Model) cancelGather() {
	if m.gather != nil && m.gather.cancel != nil {
		m.gather.cancel()
		m.gather.cancel = nil
	}
}

func (m *Model) scheduleTick() tea.Cmd {
	m.tickID++
	id := m.tickID
	m.nextRefresh = m.now().Add(m.opts.Interval)
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

func clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// render reconciles a snapshot and marks new events.
func (m *Model) render(snap inventory.Snapshot) {
	now := m.now()
	m.snap = snap
	m.summary = reconcile.Summarize(snap)

	// A failed history query keeps the previous fingerprints so the next
	// good cycle does not flag everything as new.
	if snap.HistoryErr == nil {
		windowed := dedup.Window(snap.History, now, m.opts.HistoryWindow, m.opts.HistoryDisplay)
		m.events, m.session.Tracker = m.session.Tracker.Apply(windowed)
	} else {
		m.events = nil
	}

	m.hasData = true
	m.lastUpdate = now
	if m.machine.Mode.IsDetail() {
		m.refreshDetail()
	}
}

// launch starts a supervised batch for a dispatch effect.
func (m *Model) launch(effect Effect) tea.Cmd {
	var (
		ids  []resource.ID
		name string
		run  func(ctx context.Context, ids []resource.ID, progress dispatch.ProgressFunc) dispatch.Report
	)

	d := m.deps.Dispatcher
	params := m.opts.Install
	fanout := func(kind remediate.Kind) func(context.Context, []resource.ID, dispatch.ProgressFunc) dispatch.Report {
		return func(ctx context.Context, ids []resource.ID, progress dispatch.ProgressFunc) dispatch.Report {
			return d.Fanout(ctx, ids, kind, params, progress)
		}
	}

	switch effect {
	case EffectRetryFailed:
		ids, name = m.cohort(inventory.Failed), "restart+install failed"
		run = func(ctx context.Context, ids []resource.ID, progress dispatch.ProgressFunc) dispatch.Report {
			return d.RestartThenInstall(ctx, ids, params, progress)
		}
	case EffectInstallFailed:
		ids, name, run = m.cohort(inventory.Failed), "install failed", fanout(remediate.InstallUpdates)
	case EffectAssessFailed:
		ids, name, run = m.cohort(inventory.Failed), "assess failed", fanout(remediate.TriggerAssessment)
	case EffectStartDeallocated:
		ids, name, run = m.cohort(inventory.Deallocated), "start deallocated", fanout(remediate.Start)
	default:
		return nil
	}

	if d == nil {
		m.session.LastAction = "Dispatch is not available in this session"
		return m.apply(Event{Kind: EventDispatchDone})
	}
	if len(ids) == 0 {
		m.session.LastAction = fmt.Sprintf("Nothing to %s: cohort is empty", name)
		return m.apply(Event{Kind: EventDispatchDone})
	}

	ch := make(chan dispatch.Progress, progressBuffer)
	send := func(p dispatch.Progress) {
		select {
		case ch <- p:
		default:
		}
	}

	h := m.session.Supervisor.Go(name, func(ctx context.Context) dispatch.Report {
		return run(ctx, ids, send)
	})
	m.batch = &activeBatch{handle: h, name: name, progress: ch}
	m.progress = dispatch.Progress{Total: len(ids)}
	m.session.LastAction = fmt.Sprintf("Dispatching %s to %d machines", name, len(ids))
	m.log.Info("dashboard launched %s over %d machines (%s)", name, len(ids), h.ID[:8])
	return m.waitBatch()
}

// cohort copies the IDs of classification c from the current summary.
func (m *Model) cohort(c inventory.Classification) []resource.ID {
	ids, err := reconcile.Cohort(m.summary, c.String())
	if err != nil {
		return nil
	}
	return append([]resource.ID(nil), ids...)
}

// waitBatch polls the active batch for its next progress update or its end.
func (m Model) waitBatch() tea.Cmd {
	b := m.batch
	if b == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case p := <-b.progress:
			return progressMsg{batch: b.handle.ID, progress: p}
		case <-b.handle.Done():
			return batchDoneMsg{batch: b.handle.ID, report: b.handle.Report()}
		}
	}
}

// State returns the current loop state.
func (m Model) State() State {
	return m.machine.State
}

// Mode returns the current overlay.
func (m Model) Mode() Mode {
	return m.machine.Mode
}

// Outcome returns how the loop ended. Only meaningful once State is terminal.
func (m Model) Outcome() Outcome {
	return m.outcome
}

// Session returns the session to thread into the next live-mode entry.
func (m Model) Session() Session {
	return m.session
}

// Summary returns the most recently rendered reconciliation.
func (m Model) Summary() reconcile.Summary {
	return m.summary
}

// Events returns the event stream shown on the dashboard.
func (m Model) Events() []dedup.Marked {
	return m.events
}

// Run shows the dashboard until the operator leaves it. The returned
// session carries the dedup tracker into the next entry. Cancelling ctx ends
// the dashboard as an emergency exit.
func Run(ctx context.Context, deps Deps, opts Options, sess Session) (Outcome, Session, error) {
	p := tea.NewProgram(NewModel(deps, opts, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()

	outcome := OutcomeEmergencyExit
	if fm, ok := final.(Model); ok {
		fm.cancelGather()
		sess = fm.Session()
		if fm.State().Terminal() {
			outcome = fm.Outcome()
		}
	}

	if err != nil {
		if stderrors.Is(err, tea.ErrProgramKilled) {
			return OutcomeEmergencyExit, sess, nil
		}
		return OutcomeEmergencyExit, sess, errors.WrapWithCode(err, errors.ErrExec,
			"Dashboard terminated unexpectedly",
			"Check the log file for details")
	}
	return outcome, sess, nil
}

func effectName(e Effect) string {
	switch e {
	case EffectGather:
		return "gather"
	case EffectScheduleTick:
		return "schedule-tick"
	case EffectOpenDetail:
		return "open-detail"
	case EffectRetryFailed:
		return "retry-failed"
	case EffectInstallFailed:
		return "install-failed"
	case EffectAssessFailed:
		return "assess-failed"
	case EffectStartDeallocated:
		return "start-deallocated"
	case EffectBusy:
		return "busy"
	case EffectReturnToMenu:
		return "return-to-menu"
	case EffectEmergencyExit:
		return "emergency-exit"
	default:
		return "none"
	}
}
