package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluscope/fluscope/internal/pipeline"
	"github.com/fluscope/fluscope/internal/style"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full scoring pipeline and write a submission file",
	Long: `Run the full pipeline: load the training and test CSVs, preprocess the
feature columns, fit one random forest per target label, report
cross-validated ROC AUC, and write per-respondent probabilities.

The submission file is only written after every stage succeeds; a failure in
any stage aborts the run without producing output.

Examples:
  fluscope run --train-features train_x.csv --train-labels train_y.csv \
      --test-features test_x.csv --out submission.csv
  fluscope run ... --trees 200 --max-depth 12   # heavier forest
  fluscope run ... --skip-eval                  # skip cross-validation
  fluscope run ... --output json                # JSON summary for automation`,
	Run: func(cmd *cobra.Command, args []string) {
		runPipeline(cmd)
	},
}

var (
	trainFeatures string
	trainLabels   string
	testFeatures  string
	outPath       string

	trees           int
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	folds           int
	seed            int64
	skipEval        bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	addDataFlags(runCmd)
	addModelFlags(runCmd)
	runCmd.Flags().StringVar(&testFeatures, "test-features", "test_set_features.csv", "test feature CSV")
	runCmd.Flags().StringVar(&outPath, "out", "submission.csv", "submission file to write")
	runCmd.Flags().BoolVar(&skipEval, "skip-eval", false, "skip cross-validation before training")
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&trainFeatures, "train-features", "training_set_features.csv", "training feature CSV")
	cmd.Flags().StringVar(&trainLabels, "train-labels", "training_set_labels.csv", "training label CSV")
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&trees, "trees", 100, "trees per forest")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum tree depth (0 = unlimited)")
	cmd.Flags().IntVar(&minSamplesSplit, "min-samples-split", 2, "minimum samples required to split a node")
	cmd.Flags().IntVar(&maxFeatures, "max-features", 0, "features considered per split (0 = sqrt of feature count)")
	cmd.Flags().IntVar(&folds, "folds", 5, "cross-validation folds")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
}

func pipelineConfig() pipeline.Config {
	return pipeline.Config{
		TrainFeatures:   trainFeatures,
		TrainLabels:     trainLabels,
		TestFeatures:    testFeatures,
		OutPath:         outPath,
		Trees:           trees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MaxFeatures:     maxFeatures,
		Folds:           folds,
		Seed:            seed,
		SkipEval:        skipEval,
	}
}

func runPipeline(cmd *cobra.Command) {
	cfg := pipelineConfig()
	log.Info().
		Str("train_features", cfg.TrainFeatures).
		Str("test_features", cfg.TestFeatures).
		Msg("starting pipeline")

	progress, stop := stageProgress(cmd)
	result, err := pipeline.Run(cfg, progress)
	stop()
	if err != nil {
		style.Error(cmd.ErrOrStderr(), fmt.Sprintf("pipeline failed: %v", err))
		os.Exit(1)
	}

	printResult(cmd, result)
}

// stageProgress returns a progress callback driving a spinner, or a no-op in
// quiet and structured-output modes, plus a stop function for the caller to
// invoke once the pipeline returns.
func stageProgress(cmd *cobra.Command) (pipeline.ProgressFunc, func()) {
	if viper.GetBool("quiet") || viper.GetString("output") != "text" {
		return nil, func() {}
	}
	sp := style.NewSpinner(cmd.OutOrStdout())
	sp.Start()
	return func(stage string) {
		sp.SetSuffix(" " + style.StageNameStyle.Render(stage))
	}, sp.Stop
}

func printResult(cmd *cobra.Command, result *pipeline.Result) {
	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(cmd.OutOrStdout(), result)
	case "yaml":
		style.PrintYAML(cmd.OutOrStdout(), result)
	default:
		printResultText(cmd, result)
	}
}

func printResultText(cmd *cobra.Command, result *pipeline.Result) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	for _, tr := range result.Targets {
		if tr.CV == nil {
			continue
		}
		fmt.Fprintf(w, "  %s mean ROC AUC %s %s\n",
			style.StageNameStyle.Render(tr.Target),
			style.MetricStyle.Render(fmt.Sprintf("%.4f", tr.CV.Mean)),
			style.DurationStyle.Render(fmt.Sprintf("(%d folds)", len(tr.CV.Folds))))
	}
	if result.SubmissionPath != "" {
		style.Success(w, fmt.Sprintf("wrote %d rows to %s", result.TestRows, result.SubmissionPath))
	}
	fmt.Fprintf(w, "  %s\n", style.DurationStyle.Render(result.Duration.Round(time.Millisecond).String()))
}
