package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/patchctl/internal/dispatch"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/monitor"
	"github.com/rileyhilliard/patchctl/internal/ui"
)

// console is one operator session: the app plus state that survives
// trips between the menu and the dashboard.
type console struct {
	app  *app
	sess monitor.Session
	out  io.Writer
}

func newConsole(a *app) *console {
	return &console{
		app:  a,
		sess: monitor.NewSession(logger.NewEnvLogger("[supervisor]")),
		out:  os.Stdout,
	}
}

// live runs the dashboard and folds its session back in.
func (c *console) live(ctx context.Context) (monitor.Outcome, error) {
	outcome, sess, err := monitor.Run(ctx, c.app.monitorDeps(), c.app.monitorOptions(), c.sess)
	c.sess = sess
	c.app.log.Info("dashboard ended: %s", outcome)
	return outcome, err
}

// quit is the graceful path: the dedup tracker is discarded and background
// batches are allowed to finish. A signal while waiting escalates to an
// emergency exit.
func (c *console) quit(ctx context.Context) error {
	c.sess.Tracker = c.sess.Tracker.Reset()

	for _, h := range c.sess.Supervisor.Active() {
		spinner := ui.NewSpinner(fmt.Sprintf("Waiting for %s to finish", h.Name))
		spinner.Start()
		report, err := h.Wait(ctx)
		if err != nil {
			spinner.Fail("interrupted")
			return c.emergencyExit()
		}
		spinner.Success()
		fmt.Fprintf(c.out, "  %s\n", report.Summary())
	}

	c.app.log.Info("graceful quit")
	return nil
}

// emergencyExit stops every batch in two phases and exits with status 1.
func (c *console) emergencyExit() error {
	active := len(c.sess.Supervisor.Active())
	report := c.sess.Supervisor.Shutdown(c.app.cfg.Dispatch.Grace)
	c.app.log.Warn("emergency exit: %d batches, %d graceful, %d forced, %d abandoned",
		active, report.Graceful, report.Forced, len(report.Abandoned))

	if active > 0 {
		fmt.Fprintln(os.Stderr, shutdownSummary(report))
	}
	return errors.NewExitError(1)
}

func shutdownSummary(r dispatch.ShutdownReport) string {
	s := fmt.Sprintf("%s Stopped background commands: %d finished in-flight work, %d were killed",
		ui.SymbolWarning, r.Graceful, r.Forced)
	if !r.Clean() {
		s += fmt.Sprintf(", %d did not stop in time", len(r.Abandoned))
	}
	return s
}
