package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rileyhilliard/patchctl/internal/azcli"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/util"
)

// GraphExtension is the az extension that provides 'az graph query'.
const GraphExtension = "resource-graph"

// checkTimeout bounds each az call made by a check.
const checkTimeout = 30 * time.Second

// AzureClient is the slice of az that the preflight checks need.
// *azcli.AccountLister satisfies it.
type AzureClient interface {
	CLIVersion(ctx context.Context) (string, error)
	Show(ctx context.Context) (*azcli.Account, error)
	ExtensionVersion(ctx context.Context, name string) (string, error)
	EnabledSubscriptions(ctx context.Context) ([]string, error)
}

// describeErr splits a structured error into message and suggestion.
func describeErr(err error) (string, string) {
	var pe *errors.Error
	if stderrors.As(err, &pe) {
		msg := pe.Message
		if pe.Cause != nil {
			msg += ": " + firstLine(pe.Cause.Error())
		}
		return msg, pe.Suggestion
	}
	return firstLine(err.Error()), ""
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// AzCLICheck verifies az is on PATH and reports its version.
type AzCLICheck struct {
	Client AzureClient
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

func (c *AzCLICheck) Name() string     { return "az_cli" }
func (c *AzCLICheck) Category() string { return "AZURE" }

func (c *AzCLICheck) Run(ctx context.Context) CheckResult {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if _, err := lookPath(azcli.DefaultBinary); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "az not found on PATH",
			Suggestion: "Install the Azure CLI: https://learn.microsoft.com/cli/azure/install-azure-cli",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	version, err := c.Client.CLIVersion(ctx)
	if err != nil || version == "" {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "az found (version unknown)",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("az %s", version),
	}
}

func (c *AzCLICheck) Fix() error {
	return nil // System package installation is out of scope
}

// LoginCheck verifies there is a signed-in account.
type LoginCheck struct {
	Client AzureClient
}

func (c *LoginCheck) Name() string     { return "az_login" }
func (c *LoginCheck) Category() string { return "AZURE" }

func (c *LoginCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	acct, err := c.Client.Show(ctx)
	if err != nil {
		msg, suggestion := describeErr(err)
		if suggestion == "" {
			suggestion = "Run 'az login' and try again"
		}
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	who := acct.User.Name
	if who == "" {
		who = "unknown user"
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Signed in as %s (%s)", who, acct.Name),
	}
}

func (c *LoginCheck) Fix() error {
	return nil // az login is interactive
}

// ExtensionCheck verifies the resource-graph extension is installed.
type ExtensionCheck struct {
	Client AzureClient
}

func (c *ExtensionCheck) Name() string     { return "az_extension_" + GraphExtension }
func (c *ExtensionCheck) Category() string { return "AZURE" }

func (c *ExtensionCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	version, err := c.Client.ExtensionVersion(ctx, GraphExtension)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("az extension %s is not installed", GraphExtension),
			Suggestion: "Run: az extension add --name " + GraphExtension,
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s %s", GraphExtension, version),
	}
}

func (c *ExtensionCheck) Fix() error {
	return nil
}

// SubscriptionsCheck verifies at least one enabled subscription is visible,
// and that every configured subscription is among them.
type SubscriptionsCheck struct {
	Client AzureClient
	// Configured is the subscriptions allow-list from config. Empty means all.
	Configured []string
}

func (c *SubscriptionsCheck) Name() string     { return "az_subscriptions" }
func (c *SubscriptionsCheck) Category() string { return "AZURE" }

func (c *SubscriptionsCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	subs, err := c.Client.EnabledSubscriptions(ctx)
	if err != nil {
		msg, suggestion := describeErr(err)
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	if len(subs) == 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No enabled subscriptions visible to this account",
			Suggestion: "Check your role assignments or run 'az account list --all'",
		}
	}

	enabled := make(map[string]bool, len(subs))
	for _, s := range subs {
		enabled[strings.ToLower(s)] = true
	}
	var unknown []string
	for _, s := range c.Configured {
		if !enabled[strings.ToLower(s)] {
			unknown = append(unknown, s)
		}
	}

	if len(unknown) > 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%d configured subscription%s not enabled or not visible: %s", len(unknown), util.Pluralize(len(unknown), "", "s"), util.JoinOrNone(unknown)),
			Suggestion: "Remove them from 'subscriptions:' or request access",
		}
	}

	scope := len(subs)
	if len(c.Configured) > 0 {
		scope = len(c.Configured)
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%d subscription%s in scope", scope, util.Pluralize(scope, "", "s")),
	}
}

func (c *SubscriptionsCheck) Fix() error {
	return nil
}

// NewAzureChecks returns the az preflight checks in dependency order.
func NewAzureChecks(client AzureClient, configured []string) []Check {
	return []Check{
		&AzCLICheck{Client: client},
		&LoginCheck{Client: client},
		&ExtensionCheck{Client: client},
		&SubscriptionsCheck{Client: client, Configured: configured},
	}
}
