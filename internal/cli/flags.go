package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rileyhilliard/patchctl/internal/dispatch"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/remediate"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"github.com/rileyhilliard/patchctl/internal/util"
)

// ActionRestartInstall restarts a cohort, waits for it to settle, then
// installs updates one machine at a time.
const ActionRestartInstall = "restart+install"

// action is a parsed dispatch action.
type action struct {
	name string
	kind remediate.Kind
	// sequenced marks restart+install.
	sequenced bool
}

// actionNames lists every action accepted on the command line.
func actionNames() []string {
	names := make([]string, 0, len(remediate.Kinds)+1)
	for _, k := range remediate.Kinds {
		names = append(names, k.String())
	}
	return append(names, ActionRestartInstall)
}

// parseAction accepts a remediate kind name or restart+install
// (also spelled restart-install).
func parseAction(s string) (action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == ActionRestartInstall || s == "restart-install" {
		return action{name: ActionRestartInstall, kind: remediate.Restart, sequenced: true}, nil
	}

	kind, err := remediate.ParseKind(s)
	if err != nil {
		return action{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown action '%s'", s),
			"Choose one of: "+strings.Join(actionNames(), ", "))
	}
	return action{name: kind.String(), kind: kind}, nil
}

// run returns the batch function for act over ids.
func (act action) run(d *dispatch.Dispatcher, ids []resource.ID, params remediate.InstallParams, progress dispatch.ProgressFunc) func(ctx context.Context) dispatch.Report {
	if act.sequenced {
		return func(ctx context.Context) dispatch.Report {
			return d.RestartThenInstall(ctx, ids, params, progress)
		}
	}
	return func(ctx context.Context) dispatch.Report {
		return d.Fanout(ctx, ids, act.kind, params, progress)
	}
}

// printSoftError reports an error from a menu action without leaving the menu.
func printSoftError(err error) {
	msg := err.Error()
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(os.Stderr, msg)
}

func pluralize(n int) string { return util.Pluralize(n, "", "s") }

func pluralES(n int) string { return util.Pluralize(n, "", "es") }
