package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tsqlspec/tsqlspec/internal/engine"
	"github.com/tsqlspec/tsqlspec/internal/output"
	"github.com/tsqlspec/tsqlspec/internal/spec"
)

var (
	standardizeSections []string
	standardizeEvidence bool
)

var standardizeCmd = &cobra.Command{
	Use:          "standardize <file|->",
	Short:        "Assemble a standardized, deterministic spec for a T-SQL object",
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := readSQLInput(args[0])
		if err != nil {
			return err
		}
		obj := objectFromSQL(sql)

		opts := spec.Options{
			Sections:           standardizeSections,
			MaxItemsPerSection: viper.GetInt("max_items_per_section"),
		}

		renderer := output.NewRenderer(viper.GetString("format"), os.Stdout)

		if !standardizeEvidence {
			renderer.Render("Standardized Spec", engine.StandardizeSpec(obj, opts))
			return nil
		}

		evOpts := engine.EvidenceOptions{
			DocsDir:         viper.GetString("docs_dir"),
			TopK:            viper.GetInt("top_k"),
			MaxSnippetChars: viper.GetInt("max_snippet_chars"),
		}
		renderer.Render("Standardized Spec With Evidence", engine.StandardizeSpecWithEvidence(obj, opts, evOpts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(standardizeCmd)
	standardizeCmd.Flags().StringSliceVar(&standardizeSections, "sections", nil, "Restrict assembly to these sections (default: all)")
	standardizeCmd.Flags().BoolVar(&standardizeEvidence, "evidence", false, "Attach retrieval evidence from --docs-dir")
}
