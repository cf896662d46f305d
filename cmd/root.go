package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tsqlspec",
	Short: "Deterministic static analysis for T-SQL stored procedures, functions, triggers, and views",
	Long: `tsqlspec analyzes T-SQL object definitions and reports references,
transaction boundaries, control flow, performance risk, MyBatis migration
difficulty, and a standardized spec suitable for a downstream migration
pipeline.

It never connects to a database; every analysis runs statically against
the object's source text.`,
}

// Execute is called by main.main(). It adds all child commands to the root
// command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tsqlspec/config.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "json", "Output format: json, text, markdown, plain")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show additional debug info")
	rootCmd.PersistentFlags().Int("max-items-per-section", 50, "Per-section cap for the standardized spec")
	rootCmd.PersistentFlags().Int("top-k", 5, "Number of evidence snippets to retrieve")
	rootCmd.PersistentFlags().Int("max-snippet-chars", 280, "Maximum characters per evidence snippet")
	rootCmd.PersistentFlags().String("docs-dir", "", "Directory of migration-guidance documents for evidence retrieval")

	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("max_items_per_section", rootCmd.PersistentFlags().Lookup("max-items-per-section"))
	viper.BindPFlag("top_k", rootCmd.PersistentFlags().Lookup("top-k"))
	viper.BindPFlag("max_snippet_chars", rootCmd.PersistentFlags().Lookup("max-snippet-chars"))
	viper.BindPFlag("docs_dir", rootCmd.PersistentFlags().Lookup("docs-dir"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.AddConfigPath(home + "/.tsqlspec")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TSQLSPEC")
	viper.AutomaticEnv()

	// Silently ignore missing config file, it's optional.
	_ = viper.ReadInConfig()

	if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
