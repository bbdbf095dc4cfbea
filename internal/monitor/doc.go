// Package monitor implements the live patch dashboard.
//
// The dashboard follows The Elm Architecture via Bubble Tea. Its control
// flow is an explicit state machine:
//
//	Idle -> Gathering -> Rendered -> AwaitingInput -> {Refreshing | Dispatching | ReturnedToMenu | EmergencyExit}
//
// Transition is a pure function from (Machine, Event) to (Machine, Effect);
// the Model performs the effect (start a gather, schedule a tick, launch a
// batch, quit). Keystrokes are resolved to an Action for the current Mode
// before they reach the table, so the same key can mean different things in
// the dashboard and in the manage-failed prompt.
//
// # Message Flow
//
//  1. A gather runs every classification query concurrently and returns a
//     snapshotMsg tagged with its cycle number. Snapshots from older or
//     cancelled cycles are dropped.
//  2. The snapshot is reconciled, the event stream is windowed and passed
//     through the dedup tracker, and the refresh tick is scheduled.
//  3. A keypress restarts the wait. When the tick fires, the next gather starts.
//
// Batches launched from the dashboard run under the Session's supervisor and
// report progress on a channel that a tea.Cmd polls.
//
// # Keyboard Shortcuts
//
//	r        - Refresh now
//	t        - Target detail
//	f        - Failed detail
//	x        - Manage failed (r restart+install, i install, a assess, Esc back)
//	d        - Deallocated detail
//	s        - Start all deallocated (confirm y/n)
//	m, Esc   - Return to menu
//	q        - Quit (confirm y/n, emergency exit)
//	?        - Toggle help
//	Ctrl+C   - Return to menu; emergency exit while a batch runs or in the quit prompt
package monitor
