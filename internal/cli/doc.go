// Package cli implements the patchctl command-line interface.
//
// Each cobra command loads the effective config, wires the az backends into
// an app, checks the login and delegates to the domain packages:
//
//	patchctl                        - interactive menu
//	patchctl live                   - live dashboard (internal/monitor)
//	patchctl status [--json]        - one snapshot
//	patchctl dispatch <act> <cohort> - bulk command (internal/dispatch)
//	patchctl export <cohort>        - cohort to a text file
//	patchctl doctor                 - preflight checks
//	patchctl config init            - default config file
//
// # Sessions
//
// The menu and the dashboard share one console. Its monitor.Session keeps
// the dedup tracker and the supervisor of background batches, so batches
// launched from the dashboard keep running while the operator is in the
// menu.
//
// Quitting from the menu waits for background batches and exits 0.
// Ctrl+C at the menu, or an emergency exit from the dashboard, stops every
// batch in two phases (stop issuing, then kill in-flight submissions after
// dispatch.grace) and exits 1. Config and login failures also exit 1
// before anything runs.
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color) are defined on the root
// command and available to all subcommands.
package cli
