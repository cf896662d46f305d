package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tsqlspec configuration",
}

var configInitCmd = &cobra.Command{
	Use:          "init",
	Short:        "Create config file interactively",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		configDir := filepath.Join(home, ".tsqlspec")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists at %s\n", configPath)
			fmt.Fprint(cmd.OutOrStdout(), "Overwrite? [y/N]: ")
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if strings.TrimSpace(strings.ToLower(answer)) != "y" {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		if err := os.MkdirAll(configDir, 0700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		reader := bufio.NewReader(os.Stdin)

		fmt.Fprintln(cmd.OutOrStdout(), "tsqlspec configuration setup")
		fmt.Fprintln(cmd.OutOrStdout(), "----------------------------")
		fmt.Fprintln(cmd.OutOrStdout())

		fmt.Fprint(cmd.OutOrStdout(), "Default output format [json]: ")
		format, _ := reader.ReadString('\n')
		format = strings.TrimSpace(format)
		if format == "" {
			format = "json"
		}

		fmt.Fprint(cmd.OutOrStdout(), "Evidence docs directory (optional): ")
		docsDir, _ := reader.ReadString('\n')
		docsDir = strings.TrimSpace(docsDir)

		fmt.Fprint(cmd.OutOrStdout(), "Evidence top_k [5]: ")
		topK, _ := reader.ReadString('\n')
		topK = strings.TrimSpace(topK)
		if topK == "" {
			topK = "5"
		}

		var config strings.Builder
		config.WriteString("# tsqlspec configuration\n\n")
		config.WriteString("defaults:\n")
		config.WriteString(fmt.Sprintf("  format: %s\n", format))
		config.WriteString("  max_items_per_section: 50\n")
		config.WriteString(fmt.Sprintf("  top_k: %s\n", topK))
		config.WriteString("  max_snippet_chars: 280\n")
		if docsDir != "" {
			config.WriteString(fmt.Sprintf("  docs_dir: %s\n", docsDir))
		}

		if err := os.WriteFile(configPath, []byte(config.String()), 0600); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nConfig written to %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := viper.ConfigFileUsed()
		if configFile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No config file found.")
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'tsqlspec config init' to create one.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n\n", configFile)

		data, err := os.ReadFile(configFile)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
