package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tsqlspec/tsqlspec/internal/engine"
	"github.com/tsqlspec/tsqlspec/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:          "analyze <file|->",
	Short:        "Run the six primitive analyzers over a T-SQL object definition",
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := readSQLInput(args[0])
		if err != nil {
			return err
		}

		result := engine.Analyze(sql)

		renderer := output.NewRenderer(viper.GetString("format"), os.Stdout)
		renderer.Render("Analyze", result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
