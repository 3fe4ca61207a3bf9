package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluscope/fluscope/internal/dataset"
	"github.com/fluscope/fluscope/internal/style"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [file.csv]",
	Short: "Summarize the columns of a tabular input file",
	Long: `Load a CSV file and print a per-column summary: inferred type, missing
value count, distinct value count, and a few sample values. Useful to sanity
check an input before running the pipeline.

Examples:
  fluscope inspect training_set_features.csv
  fluscope inspect test_set_features.csv --output json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inspectFile(cmd, args[0])
	},
}

var maxSamples int

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&maxSamples, "samples", 5, "sample values to show per column")
}

// FileSummary is the inspect command output for one file.
type FileSummary struct {
	File    string                  `json:"file" yaml:"file"`
	Rows    int                     `json:"rows" yaml:"rows"`
	Columns []dataset.ColumnSummary `json:"columns" yaml:"columns"`
}

func inspectFile(cmd *cobra.Command, path string) {
	table, err := dataset.Load(path)
	if err != nil {
		style.Error(cmd.ErrOrStderr(), err.Error())
		os.Exit(1)
	}

	summary := FileSummary{
		File:    path,
		Rows:    table.NumRows(),
		Columns: table.Summarize(maxSamples),
	}

	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(cmd.OutOrStdout(), summary)
	case "yaml":
		style.PrintYAML(cmd.OutOrStdout(), summary)
	default:
		printFileSummary(cmd, summary)
	}
}

func printFileSummary(cmd *cobra.Command, summary FileSummary) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", style.FormatFilePath(summary.File),
		style.DurationStyle.Render(fmt.Sprintf("(%d rows, %d columns)", summary.Rows, len(summary.Columns))))

	headers := []string{"column", "type", "missing", "unique", "samples"}
	rows := make([][]string, 0, len(summary.Columns))
	for _, c := range summary.Columns {
		rows = append(rows, []string{
			c.Name,
			c.Type,
			strconv.Itoa(c.Missing),
			strconv.Itoa(c.Unique),
			strings.Join(c.Samples, ", "),
		})
	}
	printTable(w, headers, rows)
}
