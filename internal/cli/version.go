package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "droplet-freeze %s\n", build.Version)
		fmt.Fprintf(out, "  Build time: %s\n", build.BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", build.GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
