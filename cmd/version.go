package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print tsqlspec version and engine operation versions",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tsqlspec %s (commit: %s, built: %s)\n\n", Version, CommitSHA, BuildDate)
		fmt.Fprintln(out, "Engine operation versions:")
		fmt.Fprintln(out, "  analyze                       0.6")
		fmt.Fprintln(out, "  callers                       2.1.0")
		fmt.Fprintln(out, "  external-deps / reusability   2.2.0")
		fmt.Fprintln(out, "  rules-template                2.3.0")
		fmt.Fprintln(out, "  call-graph                    2.4.0")
		fmt.Fprintln(out, "  mapping-strategy              3.1.0")
		fmt.Fprintln(out, "  transaction-boundary          3.2.0")
		fmt.Fprintln(out, "  mybatis-difficulty            3.3.0")
		fmt.Fprintln(out, "  performance-risk              4.1.0")
		fmt.Fprintln(out, "  db-dependency                 4.2.0")
		fmt.Fprintln(out, "  standardize/spec              5.1.0")
		fmt.Fprintln(out, "  standardize/spec-with-evidence 5.2.0")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
