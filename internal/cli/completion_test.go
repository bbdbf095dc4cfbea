package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRootCmd creates a fresh root command for testing.
func resetRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patchctl",
		Short: "Watch Azure VM patching and remediate machines in bulk",
	}
}

func TestCompletionBashGeneration(t *testing.T) {
	cmd := resetRootCmd()

	var buf bytes.Buffer
	require.NoError(t, cmd.GenBashCompletion(&buf))
	output := buf.String()

	assert.Contains(t, output, "# bash completion for patchctl")
	assert.Contains(t, output, "__patchctl_debug")
	assert.Contains(t, output, "complete -o default -F __start_patchctl patchctl")
}

func TestCompletionZshGeneration(t *testing.T) {
	cmd := resetRootCmd()

	var buf bytes.Buffer
	require.NoError(t, cmd.GenZshCompletion(&buf))
	output := buf.String()

	assert.Contains(t, output, "#compdef patchctl")
	assert.Contains(t, output, "_patchctl()")
}

func TestCompletionFishGeneration(t *testing.T) {
	cmd := resetRootCmd()

	var buf bytes.Buffer
	require.NoError(t, cmd.GenFishCompletion(&buf, true))
	output := buf.String()

	assert.Contains(t, output, "fish completion for patchctl")
	assert.Contains(t, output, "complete -c patchctl")
}

func TestCompletionPowershellGeneration(t *testing.T) {
	cmd := resetRootCmd()

	var buf bytes.Buffer
	require.NoError(t, cmd.GenPowerShellCompletion(&buf))
	output := buf.String()

	assert.Contains(t, strings.ToLower(output), "powershell completion")
	assert.Contains(t, output, "Register-ArgumentCompleter")
}

func TestCompletionIncludesBuiltinCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rootCmd.GenBashCompletion(&buf))
	output := buf.String()

	assert.Contains(t, output, "__completeNoDesc", "should use dynamic completion")
	assert.Contains(t, output, "__start_patchctl", "should have start function")
	assert.Contains(t, output, "_patchctl_root_command", "should have root command function")

	// Commands with local flags get their own functions.
	assert.Contains(t, output, "_patchctl_status()")
	assert.Contains(t, output, "_patchctl_dispatch()")
	assert.Contains(t, output, "_patchctl_doctor()")
	assert.Contains(t, output, "_patchctl_completion()")
}

func TestCompletionBashSyntaxValid(t *testing.T) {
	cmd := resetRootCmd()
	cmd.AddCommand(&cobra.Command{Use: "live", Short: "Open the dashboard"})
	cmd.AddCommand(&cobra.Command{Use: "status", Short: "Print one snapshot"})

	var buf bytes.Buffer
	require.NoError(t, cmd.GenBashCompletion(&buf))
	output := buf.String()

	assert.Equal(t, strings.Count(output, "{"), strings.Count(output, "}"), "braces should be balanced")
	assert.Contains(t, output, "__start_patchctl()")
}

func TestCompletionCommandValidArgs(t *testing.T) {
	assert.ElementsMatch(t, []string{"bash", "zsh", "fish", "powershell"}, completionCmd.ValidArgs)
}

func TestRootRegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"live", "status", "dispatch", "export", "doctor", "config", "version", "completion"} {
		assert.True(t, names[want], "missing %s", want)
	}

	for _, flag := range []string{"config", "verbose", "no-color"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestDispatchCompletion(t *testing.T) {
	actions, _ := dispatchCmd.ValidArgsFunction(dispatchCmd, nil, "")
	assert.Contains(t, actions, ActionRestartInstall)

	cohorts, _ := dispatchCmd.ValidArgsFunction(dispatchCmd, []string{"install"}, "")
	assert.Contains(t, cohorts, "target")
	assert.Contains(t, cohorts, "deallocated")

	none, _ := dispatchCmd.ValidArgsFunction(dispatchCmd, []string{"install", "target"}, "")
	assert.Empty(t, none)
}
