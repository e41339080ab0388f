// SPDX-License-Identifier: MIT
package gitsync

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/gitsync/internal/cliio"
	"github.com/skaphos/gitsync/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter gitsync configuration",
	Long:  "Creates a gitsync config file in the current directory by default.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfgPath, err := config.InitConfigPath(flagConfig, cwd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfgPath); err == nil && !force {
			ok, err := cliio.ConfirmOverwrite(cmd.ErrOrStderr(), cmd.InOrStdin(), cfgPath)
			if err != nil {
				return err
			}
			if !ok {
				infof(cmd, "init cancelled")
				return nil
			}
		}

		cfg := config.StarterConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", cfgPath); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing config without prompting")
	rootCmd.AddCommand(initCmd)
}
