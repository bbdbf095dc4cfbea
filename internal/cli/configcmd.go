package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/patchctl/internal/config"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	configInitForce  bool
	configInitGlobal bool
)

// configCmd groups config subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the patchctl config file",
}

// configInitCmd writes a default config.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .patchctl.yaml",
	Long: `Write a config file with every setting at its default value.

By default the file is written to ./.patchctl.yaml. With --global it goes to
~/.config/patchctl/config.yaml instead.

Examples:
  patchctl config init
  patchctl config init --global
  patchctl config init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configInitPath(configInitGlobal)
		if err != nil {
			return err
		}
		return configInitCommand(path, configInitForce)
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite existing config")
	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "write the global config instead")
	configCmd.AddCommand(configInitCmd)
}

func configInitPath(global bool) (string, error) {
	if !global {
		return config.ConfigFileName, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine your home directory",
			"Write a project config instead: patchctl config init")
	}
	return filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile), nil
}

func configInitCommand(path string, force bool) error {
	if err := config.WriteDefault(path, force); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write "+path,
			"Use --force to overwrite an existing file.")
	}
	fmt.Printf("%s Wrote %s\n", ui.SymbolSuccess, path)
	return nil
}
