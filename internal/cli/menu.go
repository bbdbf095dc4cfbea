package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/patchctl/internal/monitor"
	"github.com/rileyhilliard/patchctl/internal/ui"
)

// Menu entries.
const (
	menuLive     = "live"
	menuStatus   = "status"
	menuDispatch = "dispatch"
	menuExport   = "export"
	menuDoctor   = "doctor"
	menuQuit     = "quit"
)

var menuOptions = []huh.Option[string]{
	huh.NewOption("Live dashboard", menuLive),
	huh.NewOption("Status snapshot", menuStatus),
	huh.NewOption("Send a bulk command", menuDispatch),
	huh.NewOption("Export a cohort", menuExport),
	huh.NewOption("Run preflight checks", menuDoctor),
	huh.NewOption("Quit", menuQuit),
}

// menuCommand opens the interactive menu.
func menuCommand(ctx context.Context) error {
	return runConsole(ctx, false)
}

// runConsole loads the app, checks the login, then loops over the menu.
// With startLive the dashboard opens first.
func runConsole(ctx context.Context, startLive bool) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	acct, err := a.requireLogin(ctx)
	if err != nil {
		return err
	}

	c := newConsole(a)
	fmt.Fprintln(c.out, ui.RenderHeader(ui.HeaderInfo{
		Version: formatVersion(version),
		Tagline: "Azure VM patch console",
		Account: acct.Name,
	}))

	if startLive {
		outcome, err := c.live(ctx)
		if err != nil {
			return err
		}
		if outcome == monitor.OutcomeEmergencyExit {
			return c.emergencyExit()
		}
	}

	return c.menuLoop(ctx)
}

// menuLoop shows the menu until the operator quits. Ctrl+C at the menu is an
// emergency exit.
func (c *console) menuLoop(ctx context.Context) error {
	for {
		c.sess = c.sess.Collect()
		choice, err := c.pickMenu()
		if err != nil {
			if stderrors.Is(err, huh.ErrUserAborted) {
				return c.emergencyExit()
			}
			return err
		}

		switch choice {
		case menuLive:
			outcome, err := c.live(ctx)
			if err != nil {
				return err
			}
			if outcome == monitor.OutcomeEmergencyExit {
				return c.emergencyExit()
			}
		case menuStatus:
			if err := statusCommand(ctx, c.app, c.out, false); err != nil {
				printSoftError(err)
			}
		case menuDispatch:
			if err := c.dispatchInteractive(ctx); err != nil {
				if stderrors.Is(err, huh.ErrUserAborted) {
					continue
				}
				printSoftError(err)
			}
		case menuExport:
			if err := c.exportInteractive(ctx); err != nil {
				if stderrors.Is(err, huh.ErrUserAborted) {
					continue
				}
				printSoftError(err)
			}
		case menuDoctor:
			if err := doctorCommand(ctx, c.out); err != nil {
				printSoftError(err)
			}
		case menuQuit:
			return c.quit(ctx)
		}

		if ctx.Err() != nil {
			return c.emergencyExit()
		}
	}
}

func (c *console) pickMenu() (string, error) {
	desc := "What would you like to do?"
	if n := len(c.sess.Supervisor.Active()); n > 0 {
		desc = fmt.Sprintf("%d command batch%s running in the background", n, pluralES(n))
	}
	if c.sess.LastAction != "" {
		desc += "\nLast: " + c.sess.LastAction
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("patchctl").
				Description(desc).
				Options(menuOptions...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}
