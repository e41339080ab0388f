package gitsync

import "github.com/spf13/cobra"

const formatUsage = "output format: text, json or yaml"

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "report what would change without fetching, cloning or integrating")
	cmd.Flags().Bool("log", false, "show one-line commit logs for incoming and outgoing commits")
	cmd.Flags().Bool("no-log", false, "hide commit logs even when the config enables them")
	cmd.Flags().Bool("stash", false, "report stash entries")
	cmd.Flags().Bool("gc", false, "run git gc --auto after each update")
	cmd.Flags().Bool("no-summary", false, "do not print the summary table")
	cmd.Flags().StringP("format", "o", "text", formatUsage)
	cmd.Flags().String("exclude", "", "comma-separated glob patterns to skip in addition to the configured ones")
}

// boolFlag returns the flag when set on the command line, else fallback.
func boolFlag(cmd *cobra.Command, name string, fallback bool) bool {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetBool(name)
	return v
}
