// Package remediate defines the remediation commands patchctl can submit
// against a single machine.
package remediate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/resource"
)

// Kind is a remediation command.
type Kind int

const (
	Start Kind = iota
	Restart
	InstallUpdates
	TriggerAssessment
)

// Kinds lists every command kind.
var Kinds = []Kind{Start, Restart, InstallUpdates, TriggerAssessment}

// String returns the short name used on the command line and in metrics.
func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Restart:
		return "restart"
	case InstallUpdates:
		return "install"
	case TriggerAssessment:
		return "assess"
	default:
		return "unknown"
	}
}

// Verb returns a present-participle label for progress lines.
func (k Kind) Verb() string {
	switch k {
	case Start:
		return "Starting"
	case Restart:
		return "Restarting"
	case InstallUpdates:
		return "Installing updates on"
	case TriggerAssessment:
		return "Assessing"
	default:
		return "Running"
	}
}

// ParseKind maps a command-line name to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = k.String()
	}
	return 0, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown action '%s'", s),
		"Choose one of: "+strings.Join(names, ", "))
}

// InstallParams configures InstallUpdates. Other kinds ignore it.
type InstallParams struct {
	Classifications []string
	// MaxDuration is an ISO-8601 duration such as PT2H.
	MaxDuration   string
	RebootSetting string
	// OSFamily is "windows" or "linux" and picks the classification flag.
	OSFamily string
}

// DefaultInstallParams mirrors the config defaults.
func DefaultInstallParams() InstallParams {
	return InstallParams{
		Classifications: []string{"Critical", "Security", "UpdateRollUp", "Definition", "Updates"},
		MaxDuration:     "PT2H",
		RebootSetting:   "IfRequired",
		OSFamily:        "windows",
	}
}

// Commander submits one asynchronous command. Submit returns once the
// backend has accepted (or rejected) the request; it never waits for the
// operation itself to finish.
type Commander interface {
	Submit(ctx context.Context, id resource.ID, kind Kind, params InstallParams) error
}

// CheckTarget rejects identifiers that must never reach the backend.
func CheckTarget(id resource.ID) error {
	if !id.Valid() {
		return errors.New(errors.ErrDispatch,
			fmt.Sprintf("Refusing to target incomplete resource ID %q", id.Key()),
			"This row should have been filtered out; please report it.")
	}
	return nil
}
