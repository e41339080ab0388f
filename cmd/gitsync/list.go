package gitsync

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/gitsync/internal/cliio"
	"github.com/skaphos/gitsync/internal/config"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/planner"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured categories in run order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfgPath, err := config.ResolveConfigPath(flagConfig, cwd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		names, err := planner.Select(cfg, nil)
		if err != nil {
			return err
		}
		noHeaders, _ := cmd.Flags().GetBool("no-headers")

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			cat := cfg.Categories[name]
			rows = append(rows, []string{name, string(cat.Mode()), strings.Join(cat.Into, ","), categorySource(cat)})
		}
		return cliio.WriteTable(cmd.OutOrStdout(), false, noHeaders, []string{"CATEGORY", "MODE", "INTO", "SOURCE"}, rows)
	},
}

func init() {
	listCmd.Flags().Bool("no-headers", false, "do not print headers")
	rootCmd.AddCommand(listCmd)
}

// categorySource describes where a category's repositories come from.
func categorySource(cat config.Category) string {
	switch cat.Mode() {
	case model.ModeForge:
		accounts := append([]string(nil), cat.GitHub...)
		sort.Strings(accounts)
		kind := "github"
		if cat.Organization {
			kind = "github org"
		}
		return kind + ":" + strings.Join(accounts, ",")
	case model.ModeRemote:
		paths := make([]string, 0, len(cat.Path))
		for _, p := range cat.Path {
			if cat.Host != "" && !strings.Contains(p, ":") {
				p = cat.Host + ":" + p
			}
			paths = append(paths, p)
		}
		return strings.Join(paths, ",")
	default:
		return "-"
	}
}
