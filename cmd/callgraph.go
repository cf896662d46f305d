package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tsqlspec/tsqlspec/internal/callgraph"
	"github.com/tsqlspec/tsqlspec/internal/engine"
	"github.com/tsqlspec/tsqlspec/internal/output"
)

var (
	callGraphIgnoreDynamicExec bool
	callGraphExcludeProcedures bool
	callGraphExcludeFunctions  bool
)

var callGraphCmd = &cobra.Command{
	Use:          "call-graph <corpus files...>",
	Short:        "Build the static call graph across a corpus of T-SQL objects",
	SilenceUsage: true,
	Args:         cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, err := loadCorpus(args)
		if err != nil {
			return err
		}

		result := engine.CallGraph(corpus, callgraph.GraphOptions{
			IncludeProcedures: !callGraphExcludeProcedures,
			IncludeFunctions:  !callGraphExcludeFunctions,
			SchemaSensitive:   true,
			IgnoreDynamicExec: callGraphIgnoreDynamicExec,
		})

		renderer := output.NewRenderer(viper.GetString("format"), os.Stdout)
		renderer.Render("Call Graph", result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callGraphCmd)
	callGraphCmd.Flags().BoolVar(&callGraphIgnoreDynamicExec, "ignore-dynamic-exec", false, "Don't add edges discovered only via dynamic SQL")
	callGraphCmd.Flags().BoolVar(&callGraphExcludeProcedures, "exclude-procedures", false, "Exclude procedure nodes from the graph")
	callGraphCmd.Flags().BoolVar(&callGraphExcludeFunctions, "exclude-functions", false, "Exclude function nodes from the graph")
}
