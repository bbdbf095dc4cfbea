package azcli

import (
	"context"
	"encoding/json"

	"github.com/rileyhilliard/patchctl/internal/errors"
)

// Account is the subset of 'az account show' patchctl reports.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TenantID string `json:"tenantId"`
	User     struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"user"`
}

// AccountLister lists subscriptions through 'az account'.
type AccountLister struct {
	Runner *Runner
}

// NewAccountLister creates a lister using r.
func NewAccountLister(r *Runner) *AccountLister {
	return &AccountLister{Runner: r}
}

// EnabledSubscriptions implements inventory.ScopeLister.
func (a *AccountLister) EnabledSubscriptions(ctx context.Context) ([]string, error) {
	out, err := a.Runner.Run(ctx, "account", "list", "--query", "[?state=='Enabled'].id", "-o", "json")
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(out, &ids); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAuth,
			"Couldn't read the subscription list from az",
			"Run 'az account list' by hand to check your login.")
	}
	return ids, nil
}

// Show returns the signed-in account. A failure here means patchctl cannot
// run at all.
func (a *AccountLister) Show(ctx context.Context) (*Account, error) {
	out, err := a.Runner.Run(ctx, "account", "show", "-o", "json")
	if err != nil {
		if errors.IsCode(err, errors.ErrExec) || errors.IsCode(err, errors.ErrAuth) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrAuth,
			"Couldn't determine the signed-in Azure account",
			"Run 'az login' and try again.")
	}

	var acct Account
	if err := json.Unmarshal(out, &acct); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAuth,
			"Couldn't read 'az account show' output",
			"Run 'az account show' by hand to check your login.")
	}
	return &acct, nil
}

// ExtensionVersion returns the installed version of an az extension.
func (a *AccountLister) ExtensionVersion(ctx context.Context, name string) (string, error) {
	out, err := a.Runner.Run(ctx, "extension", "show", "--name", name, "-o", "json")
	if err != nil {
		return "", err
	}
	var ext struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(out, &ext); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't read 'az extension show' output",
			"Run: az extension add --name "+name)
	}
	return ext.Version, nil
}

// CLIVersion returns the installed azure-cli version from 'az version'.
func (a *AccountLister) CLIVersion(ctx context.Context) (string, error) {
	out, err := a.Runner.Run(ctx, "version", "-o", "json")
	if err != nil {
		return "", err
	}
	var v map[string]any
	if err := json.Unmarshal(out, &v); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't read 'az version' output",
			"Run 'az version' by hand to check the installation.")
	}
	s, _ := v["azure-cli"].(string)
	return s, nil
}
