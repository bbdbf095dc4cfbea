package monitor

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is a resolved keystroke. The same key means different things in
// different modes, so resolution always takes the current mode.
type Action int

const (
	ActionNone Action = iota
	ActionRefresh
	ActionMenu
	ActionShowTarget
	ActionShowFailed
	ActionManageFailed
	ActionShowDeallocated
	ActionStartDeallocated
	ActionQuit
	ActionHelp
	ActionBack
	ActionConfirm
	ActionDeny
	ActionRetryFailed
	ActionInstallFailed
	ActionAssessFailed
)

// String returns a short name for logs.
func (a Action) String() string {
	switch a {
	case ActionRefresh:
		return "refresh"
	case ActionMenu:
		return "menu"
	case ActionShowTarget:
		return "show-target"
	case ActionShowFailed:
		return "show-failed"
	case ActionManageFailed:
		return "manage-failed"
	case ActionShowDeallocated:
		return "show-deallocated"
	case ActionStartDeallocated:
		return "start-deallocated"
	case ActionQuit:
		return "quit"
	case ActionHelp:
		return "help"
	case ActionBack:
		return "back"
	case ActionConfirm:
		return "confirm"
	case ActionDeny:
		return "deny"
	case ActionRetryFailed:
		return "retry-failed"
	case ActionInstallFailed:
		return "install-failed"
	case ActionAssessFailed:
		return "assess-failed"
	default:
		return "none"
	}
}

// KeyInterrupt is delivered as a key in raw mode and handled as an
// interrupt event rather than an action.
const KeyInterrupt = "ctrl+c"

type dashboardKeys struct {
	Refresh     key.Binding
	Menu        key.Binding
	Target      key.Binding
	Failed      key.Binding
	Manage      key.Binding
	Deallocated key.Binding
	Start       key.Binding
	Quit        key.Binding
	Help        key.Binding
}

type manageKeys struct {
	Retry   key.Binding
	Install key.Binding
	Assess  key.Binding
	Back    key.Binding
}

type confirmKeys struct {
	Yes key.Binding
	No  key.Binding
}

var (
	dashboardKeyMap = dashboardKeys{
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Refresh now")),
		Menu:        key.NewBinding(key.WithKeys("m", "esc"), key.WithHelp("m / Esc", "Return to menu")),
		Target:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "Show target machines")),
		Failed:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "Show failed installs")),
		Manage:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Manage failed installs")),
		Deallocated: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "Show deallocated machines")),
		Start:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "Start all deallocated")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "Quit (emergency exit)")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "Toggle this help")),
	}

	manageKeyMap = manageKeys{
		Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Restart, then retry install")),
		Install: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "Retry install only")),
		Assess:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "Trigger assessment")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Back")),
	}

	confirmKeyMap = confirmKeys{
		Yes: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "Yes")),
		No:  key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "No")),
	}

	backKey = key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Back"))
	helpKey = key.NewBinding(key.WithKeys("?", "esc"))
)

// ResolveKey maps a keystroke to an action for mode. Unknown keys resolve
// to ActionNone and are ignored.
func ResolveKey(mode Mode, msg tea.KeyMsg) Action {
	switch mode {
	case ModeHelp:
		if key.Matches(msg, helpKey) {
			return ActionHelp
		}
		return ActionNone

	case ModeTargetDetail, ModeFailedDetail, ModeDeallocatedDetail:
		if key.Matches(msg, backKey) {
			return ActionBack
		}
		return ActionNone

	case ModeManageFailed:
		switch {
		case key.Matches(msg, manageKeyMap.Retry):
			return ActionRetryFailed
		case key.Matches(msg, manageKeyMap.Install):
			return ActionInstallFailed
		case key.Matches(msg, manageKeyMap.Assess):
			return ActionAssessFailed
		case key.Matches(msg, manageKeyMap.Back):
			return ActionBack
		}
		return ActionNone

	case ModeConfirmStart, ModeConfirmQuit:
		switch {
		case key.Matches(msg, confirmKeyMap.Yes):
			return ActionConfirm
		case key.Matches(msg, confirmKeyMap.No):
			return ActionDeny
		}
		return ActionNone
	}

	k := dashboardKeyMap
	switch {
	case key.Matches(msg, k.Refresh):
		return ActionRefresh
	case key.Matches(msg, k.Menu):
		return ActionMenu
	case key.Matches(msg, k.Target):
		return ActionShowTarget
	case key.Matches(msg, k.Failed):
		return ActionShowFailed
	case key.Matches(msg, k.Manage):
		return ActionManageFailed
	case key.Matches(msg, k.Deallocated):
		return ActionShowDeallocated
	case key.Matches(msg, k.Start):
		return ActionStartDeallocated
	case key.Matches(msg, k.Quit):
		return ActionQuit
	case key.Matches(msg, k.Help):
		return ActionHelp
	}
	return ActionNone
}

// helpBindings lists the dashboard keys in display order.
func helpBindings() []key.Binding {
	k := dashboardKeyMap
	return []key.Binding{k.Refresh, k.Target, k.Failed, k.Manage, k.Deallocated, k.Start, k.Menu, k.Quit, k.Help}
}
