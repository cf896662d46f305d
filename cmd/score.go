package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tsqlspec/tsqlspec/internal/engine"
	"github.com/tsqlspec/tsqlspec/internal/output"
)

var (
	scoreKind        string
	scoreTargetStyle string
)

// scoreKinds maps --kind values to the engine scoring operation and the
// heading used for rendering, one entry per spec §6 scoring operation.
var scoreKinds = map[string]struct {
	heading string
	run     func(sql string) any
}{
	"reusability": {"Reusability", func(sql string) any {
		return engine.Reusability(objectFromSQL(sql))
	}},
	"rules-template": {"Rules Template", func(sql string) any {
		return engine.RulesTemplate(objectFromSQL(sql))
	}},
	"mapping-strategy": {"Mapping Strategy", func(sql string) any {
		return engine.MappingStrategy(objectFromSQL(sql), scoreTargetStyle)
	}},
	"transaction-boundary": {"Transaction Boundary", func(sql string) any {
		return engine.TransactionBoundary(objectFromSQL(sql))
	}},
	"mybatis-difficulty": {"MyBatis Difficulty", func(sql string) any {
		return engine.MyBatisDifficulty(objectFromSQL(sql))
	}},
	"performance-risk": {"Performance Risk", func(sql string) any {
		return engine.PerformanceRisk(objectFromSQL(sql))
	}},
	"db-dependency": {"Db Dependency", func(sql string) any {
		return engine.DbDependency(objectFromSQL(sql))
	}},
	"external-deps": {"External Deps", func(sql string) any {
		return engine.ExternalDeps(objectFromSQL(sql))
	}},
}

var scoreCmd = &cobra.Command{
	Use:          "score <file|->",
	Short:        "Run one of the eight scoring analyzers over a T-SQL object definition",
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, ok := scoreKinds[scoreKind]
		if !ok {
			return fmt.Errorf("unknown --kind %q, want one of: reusability, rules-template, mapping-strategy, transaction-boundary, mybatis-difficulty, performance-risk, db-dependency, external-deps", scoreKind)
		}

		sql, err := readSQLInput(args[0])
		if err != nil {
			return err
		}

		result := entry.run(sql)

		renderer := output.NewRenderer(viper.GetString("format"), os.Stdout)
		renderer.Render(entry.heading, result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVar(&scoreKind, "kind", "", "Scoring analyzer to run (required)")
	scoreCmd.Flags().StringVar(&scoreTargetStyle, "target-style", "", "Target MyBatis mapping style hint for mapping-strategy")
	scoreCmd.MarkFlagRequired("kind")
}
