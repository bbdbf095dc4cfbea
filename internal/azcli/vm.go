package azcli

import (
	"context"
	"strings"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/remediate"
	"github.com/rileyhilliard/patchctl/internal/resource"
)

// VMCommander submits remediation commands with 'az vm ... --no-wait'.
type VMCommander struct {
	Runner *Runner
}

// NewVMCommander creates a commander using r.
func NewVMCommander(r *Runner) *VMCommander {
	return &VMCommander{Runner: r}
}

var subcommands = map[remediate.Kind]string{
	remediate.Start:             "start",
	remediate.Restart:           "restart",
	remediate.InstallUpdates:    "install-patches",
	remediate.TriggerAssessment: "assess-patches",
}

// Args builds the az argument list for one command.
func Args(id resource.ID, kind remediate.Kind, params remediate.InstallParams) ([]string, error) {
	if err := remediate.CheckTarget(id); err != nil {
		return nil, err
	}
	sub, ok := subcommands[kind]
	if !ok {
		return nil, errors.New(errors.ErrDispatch,
			"Unknown remediation command "+kind.String(),
			"Use start, restart, install or assess.")
	}

	args := []string{
		"vm", sub,
		"--subscription", id.Subscription,
		"--resource-group", id.ResourceGroup,
		"--name", id.Name,
	}

	if kind == remediate.InstallUpdates {
		args = append(args,
			"--maximum-duration", params.MaxDuration,
			"--reboot-setting", params.RebootSetting,
		)
		flag := "--classifications-to-include-win"
		if strings.EqualFold(params.OSFamily, "linux") {
			flag = "--classifications-to-include-linux"
		}
		if len(params.Classifications) > 0 {
			args = append(args, flag)
			args = append(args, params.Classifications...)
		}
	}

	return append(args, "--no-wait"), nil
}

// Submit implements remediate.Commander. It returns once az has handed the
// request to Azure.
func (c *VMCommander) Submit(ctx context.Context, id resource.ID, kind remediate.Kind, params remediate.InstallParams) error {
	args, err := Args(id, kind, params)
	if err != nil {
		return err
	}
	if _, err := c.Runner.Run(ctx, args...); err != nil {
		if errors.IsCode(err, errors.ErrAuth) {
			return err
		}
		return errors.WrapWithCode(err, errors.ErrDispatch,
			kind.Verb()+" "+id.Name+" failed",
			"The next refresh will show whether the machine changed state.")
	}
	return nil
}
