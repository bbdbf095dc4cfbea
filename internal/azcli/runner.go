// Package azcli reaches Azure through the az command-line tool: Resource
// Graph queries, subscription listing and asynchronous VM commands.
package azcli

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/util"
)

// DefaultBinary is looked up on PATH.
const DefaultBinary = "az"

// DefaultGrace is how long a cancelled az process gets after SIGTERM
// before it is killed.
const DefaultGrace = 5 * time.Second

// maxLoggedArg caps each argument in logged command lines so KQL text
// stays readable.
const maxLoggedArg = 80

// Runner executes az subcommands and captures their output.
type Runner struct {
	Binary string
	// Grace is the delay between SIGTERM and SIGKILL once ctx is done.
	Grace time.Duration
	Log   logger.Logger
}

// NewRunner returns a runner for the az binary on PATH.
func NewRunner(grace time.Duration, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Noop()
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Runner{Binary: DefaultBinary, Grace: grace, Log: log}
}

// Run executes az with args and returns stdout. Cancelling ctx sends SIGTERM
// first and kills the process if it is still alive after Grace.
func (r *Runner) Run(ctx context.Context, args ...string) ([]byte, error) {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.Grace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if r.Log != nil {
		r.Log.Debug("az %s (%s)", summarizeArgs(args), time.Since(start).Round(time.Millisecond))
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if r.Log != nil {
			r.Log.Debug("failed: %s", util.CommandLine(binary, args, maxLoggedArg))
		}
		return nil, classify(args, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

// summarizeArgs keeps the subcommand words and drops the (long) KQL text.
func summarizeArgs(args []string) string {
	var words []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			break
		}
		words = append(words, a)
	}
	return strings.Join(words, " ")
}

var (
	loginPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)please run 'az login'`),
		regexp.MustCompile(`(?i)az login`),
		regexp.MustCompile(`(?i)AADSTS\d+`),
		regexp.MustCompile(`(?i)refresh token .* expired`),
	}
	missingExtensionPattern = regexp.MustCompile(`(?i)'graph' is misspelled or not recognized|extension .*resource-graph.* not installed`)
	throttledPattern        = regexp.MustCompile(`(?i)(RateLimiting|TooManyRequests|throttl)`)
)

// classify turns a failed az invocation into a structured error with a
// suggestion the operator can act on.
func classify(args []string, stderr string, runErr error) error {
	sub := summarizeArgs(args)
	detail := firstLine(stderr)

	if stderrors.Is(runErr, exec.ErrNotFound) {
		return errors.WrapWithCode(runErr, errors.ErrExec,
			"The Azure CLI (az) isn't installed or isn't on PATH",
			"Install it from https://aka.ms/installazurecli and run 'az login'.")
	}

	for _, p := range loginPatterns {
		if p.MatchString(stderr) {
			return errors.WrapWithCode(fmt.Errorf("%s", detail), errors.ErrAuth,
				"The Azure CLI isn't logged in (or the session expired)",
				"Run 'az login' and try again.")
		}
	}

	if missingExtensionPattern.MatchString(stderr) {
		return errors.WrapWithCode(fmt.Errorf("%s", detail), errors.ErrExec,
			"The resource-graph extension for az isn't installed",
			"Run: az extension add --name resource-graph")
	}

	if throttledPattern.MatchString(stderr) {
		return errors.WrapWithCode(fmt.Errorf("%s", detail), errors.ErrQuery,
			fmt.Sprintf("'az %s' was throttled", sub),
			"Increase refresh.interval or lower refresh.max_parallel_queries.")
	}

	if detail == "" {
		detail = runErr.Error()
	}
	return errors.WrapWithCode(fmt.Errorf("%s", detail), errors.ErrExec,
		fmt.Sprintf("'az %s' failed", sub),
		"Run the command by hand with --debug to see the full response.")
}

// firstLine returns the first non-empty stderr line, minus az's "ERROR: " prefix.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimPrefix(line, "ERROR: ")
	}
	return ""
}
