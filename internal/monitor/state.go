package monitor

// State is where the live loop is in its cycle.
type State int

const (
	StateIdle State = iota
	StateGathering
	StateRendered
	StateAwaitingInput
	StateRefreshing
	StateDispatching
	StateReturnedToMenu
	StateEmergencyExit
)

// String returns the state label.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGathering:
		return "gathering"
	case StateRendered:
		return "rendered"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateRefreshing:
		return "refreshing"
	case StateDispatching:
		return "dispatching"
	case StateReturnedToMenu:
		return "returned-to-menu"
	case StateEmergencyExit:
		return "emergency-exit"
	default:
		return "unknown"
	}
}

// Terminal reports whether the loop has ended.
func (s State) Terminal() bool {
	return s == StateReturnedToMenu || s == StateEmergencyExit
}

// Mode is the overlay the operator is looking at.
type Mode int

const (
	ModeDashboard Mode = iota
	ModeHelp
	ModeTargetDetail
	ModeFailedDetail
	ModeDeallocatedDetail
	ModeManageFailed
	ModeConfirmStart
	ModeConfirmQuit
)

// IsDetail reports whether the mode shows a scrollable detail view.
func (m Mode) IsDetail() bool {
	return m == ModeTargetDetail || m == ModeFailedDetail || m == ModeDeallocatedDetail
}

// EventKind tags an Event.
type EventKind int

const (
	EventEnter EventKind = iota
	EventGathered
	EventRendered
	EventTick
	EventKey
	EventInterrupt
	EventDispatchDone
)

// Event is one input to the transition table. Action is only set for
// EventKey.
type Event struct {
	Kind   EventKind
	Action Action
}

// Key wraps a resolved keystroke as an event.
func Key(a Action) Event {
	return Event{Kind: EventKey, Action: a}
}

// Effect is the side effect the model must perform after a transition.
type Effect int

const (
	EffectNone Effect = iota
	EffectGather
	EffectScheduleTick
	EffectOpenDetail
	EffectRetryFailed
	EffectInstallFailed
	EffectAssessFailed
	EffectStartDeallocated
	EffectBusy
	EffectReturnToMenu
	EffectEmergencyExit
)

// IsDispatch reports whether the effect launches a background batch.
func (e Effect) IsDispatch() bool {
	switch e {
	case EffectRetryFailed, EffectInstallFailed, EffectAssessFailed, EffectStartDeallocated:
		return true
	}
	return false
}

// Machine is the complete input of the transition table.
type Machine struct {
	State State
	Mode  Mode
	// Busy is set while a batch launched from the dashboard is running.
	Busy bool
}

// Transition computes the next machine and the effect to run. It is pure:
// all I/O happens in the model based on the returned effect.
func Transition(m Machine, ev Event) (Machine, Effect) {
	if m.State.Terminal() {
		return m, EffectNone
	}

	switch ev.Kind {
	case EventEnter:
		if m.State != StateIdle {
			return m, EffectNone
		}
		return Machine{State: StateGathering, Busy: m.Busy}, EffectGather

	case EventInterrupt:
		// Any interrupt while a batch runs is an emergency exit.
		if m.Mode == ModeConfirmQuit || m.Busy {
			return Machine{State: StateEmergencyExit, Busy: m.Busy}, EffectEmergencyExit
		}
		return Machine{State: StateReturnedToMenu, Busy: m.Busy}, EffectReturnToMenu

	case EventGathered:
		switch m.State {
		case StateGathering, StateRefreshing, StateDispatching:
			m.State = StateRendered
		}
		return m, EffectNone

	case EventRendered:
		if m.State != StateRendered {
			return m, EffectNone
		}
		m.State = StateAwaitingInput
		if m.Busy {
			m.State = StateDispatching
		}
		return m, EffectScheduleTick

	case EventTick:
		switch m.State {
		case StateAwaitingInput, StateDispatching:
			m.State = StateRefreshing
			return m, EffectGather
		}
		return m, EffectNone

	case EventDispatchDone:
		m.Busy = false
		if m.State == StateDispatching {
			m.State = StateRefreshing
			return m, EffectGather
		}
		return m, EffectNone

	case EventKey:
		return keyTransition(m, ev.Action)
	}

	return m, EffectNone
}

// keyTransition handles resolved keystrokes for the current mode.
func keyTransition(m Machine, a Action) (Machine, Effect) {
	switch m.Mode {
	case ModeHelp:
		if a == ActionHelp || a == ActionBack {
			m.Mode = ModeDashboard
		}
		return m, EffectNone

	case ModeTargetDetail, ModeFailedDetail, ModeDeallocatedDetail:
		if a == ActionBack {
			m.Mode = ModeDashboard
		}
		return m, EffectNone

	case ModeManageFailed:
		switch a {
		case ActionBack:
			m.Mode = ModeDashboard
			return m, EffectNone
		case ActionRetryFailed:
			return dispatchTransition(m, EffectRetryFailed)
		case ActionInstallFailed:
			return dispatchTransition(m, EffectInstallFailed)
		case ActionAssessFailed:
			return dispatchTransition(m, EffectAssessFailed)
		}
		return m, EffectNone

	case ModeConfirmStart:
		switch a {
		case ActionConfirm:
			return dispatchTransition(m, EffectStartDeallocated)
		case ActionDeny, ActionBack:
			m.Mode = ModeDashboard
		}
		return m, EffectNone

	case ModeConfirmQuit:
		switch a {
		case ActionConfirm:
			return Machine{State: StateEmergencyExit, Busy: m.Busy}, EffectEmergencyExit
		case ActionDeny, ActionBack:
			m.Mode = ModeDashboard
		}
		return m, EffectNone
	}

	switch a {
	case ActionRefresh:
		switch m.State {
		case StateAwaitingInput, StateDispatching:
			m.State = StateRefreshing
			return m, EffectGather
		}
		return m, EffectNone

	case ActionMenu:
		return Machine{State: StateReturnedToMenu, Busy: m.Busy}, EffectReturnToMenu

	case ActionShowTarget:
		m.Mode = ModeTargetDetail
		return m, EffectOpenDetail

	case ActionShowFailed:
		m.Mode = ModeFailedDetail
		return m, EffectOpenDetail

	case ActionShowDeallocated:
		m.Mode = ModeDeallocatedDetail
		return m, EffectOpenDetail

	case ActionManageFailed:
		m.Mode = ModeManageFailed
		return m, EffectNone

	case ActionStartDeallocated:
		m.Mode = ModeConfirmStart
		return m, EffectNone

	case ActionQuit:
		m.Mode = ModeConfirmQuit
		return m, EffectNone

	case ActionHelp:
		m.Mode = ModeHelp
		return m, EffectNone
	}

	return m, EffectNone
}

// dispatchTransition starts a batch unless one is already running or there
// is no inventory to act on yet.
func dispatchTransition(m Machine, e Effect) (Machine, Effect) {
	m.Mode = ModeDashboard
	if m.State == StateGathering {
		return m, EffectNone
	}
	if m.Busy {
		return m, EffectBusy
	}
	m.Busy = true
	if m.State != StateRefreshing {
		m.State = StateDispatching
	}
	return m, e
}
