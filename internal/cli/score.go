package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluscope/fluscope/internal/pipeline"
	"github.com/fluscope/fluscope/internal/style"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Cross-validate the classifiers without writing a submission",
	Long: `Load and preprocess the training data, then report per-target mean ROC AUC
from stratified k-fold cross-validation. No test data is read and no
submission file is written, which makes this the fast loop while tuning
forest hyperparameters.

Examples:
  fluscope score --train-features train_x.csv --train-labels train_y.csv
  fluscope score ... --trees 300 --folds 10
  fluscope score ... --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		scoreTargets(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	addDataFlags(scoreCmd)
	addModelFlags(scoreCmd)
}

func scoreTargets(cmd *cobra.Command) {
	cfg := pipelineConfig()
	progress, stop := stageProgress(cmd)
	result, err := pipeline.Evaluate(cfg, progress)
	stop()
	if err != nil {
		style.Error(cmd.ErrOrStderr(), fmt.Sprintf("evaluation failed: %v", err))
		os.Exit(1)
	}
	printResult(cmd, result)
}
