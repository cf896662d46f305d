package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tsqlspec/tsqlspec/internal/callgraph"
	"github.com/tsqlspec/tsqlspec/internal/engine"
	"github.com/tsqlspec/tsqlspec/internal/model"
	"github.com/tsqlspec/tsqlspec/internal/output"
)

var (
	callersTarget      string
	callersTargetType  string
	callersIncludeSelf bool
)

var callersCmd = &cobra.Command{
	Use:          "callers <corpus files...>",
	Short:        "Find every object in a corpus that calls a target object",
	SilenceUsage: true,
	Args:         cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if callersTarget == "" {
			return fmt.Errorf("--target is required")
		}

		corpus, err := loadCorpus(args)
		if err != nil {
			return err
		}

		target := model.SqlObject{Name: callersTarget, Type: model.Procedure}
		targetType := callersTargetType
		for _, obj := range corpus {
			if obj.Name == callersTarget {
				target = obj
				if targetType == "" {
					targetType = string(obj.Type)
				}
				break
			}
		}
		if targetType == "" {
			targetType = string(target.Type)
		}

		result := engine.Callers(target, targetType, corpus, callgraph.CallersOptions{
			SchemaSensitive: true,
			IncludeSelf:     callersIncludeSelf,
		})

		renderer := output.NewRenderer(viper.GetString("format"), os.Stdout)
		renderer.Render("Callers", result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callersCmd)
	callersCmd.Flags().StringVar(&callersTarget, "target", "", "Name of the object to find callers of")
	callersCmd.Flags().StringVar(&callersTargetType, "target-type", "", "Object type of the target (procedure, function, trigger, view)")
	callersCmd.Flags().BoolVar(&callersIncludeSelf, "include-self", false, "Include self-recursive calls")
}
