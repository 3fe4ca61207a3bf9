// Package dataset loads delimited survey tables into column-typed, in-memory
// tables. Tables are immutable after load; all downstream stages read from
// them without copying.
package dataset

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog/log"
)

// IDColumn is the respondent identifier column present in every input file.
const IDColumn = "respondent_id"

// Values treated as missing markers regardless of the inferred column type.
var missingMarkers = map[string]bool{
	"":    true,
	"NA":  true,
	"NaN": true,
	"nan": true,
}

// Table is a loaded tabular dataset keyed by column name.
type Table struct {
	path string
	df   dataframe.DataFrame
}

// Load reads a CSV file with a header row into a Table. Column types are
// inferred from the data; anything that does not parse as an int or float is
// kept as a string column. A LoadError is returned for unreadable files or
// malformed rows (inconsistent column counts, bare quotes).
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"", "NA", "NaN", "nan"}),
	)
	if df.Error() != nil {
		return nil, &LoadError{Path: path, Err: df.Error()}
	}
	if df.Nrow() == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("no data rows")}
	}

	log.Debug().
		Str("path", path).
		Int("rows", df.Nrow()).
		Int("columns", df.Ncol()).
		Msg("loaded table")

	return &Table{path: path, df: df}, nil
}

// Path returns the file the table was loaded from.
func (t *Table) Path() string { return t.path }

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return t.df.Nrow() }

// NumColumns returns the number of columns, including the identifier column.
func (t *Table) NumColumns() int { return t.df.Ncol() }

// ColumnNames returns all column names in file order.
func (t *Table) ColumnNames() []string { return t.df.Names() }

// HasColumn reports whether name is a column of the table.
func (t *Table) HasColumn(name string) bool {
	for _, n := range t.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// FeatureColumns returns every column except the respondent identifier, in
// file order.
func (t *Table) FeatureColumns() []string {
	names := t.df.Names()
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != IDColumn {
			out = append(out, n)
		}
	}
	return out
}

// IsNumeric reports whether the named column was inferred as an int or float
// column. Boolean and string columns are categorical.
func (t *Table) IsNumeric(name string) bool {
	names := t.df.Names()
	types := t.df.Types()
	for i, n := range names {
		if n == name {
			return types[i] == series.Int || types[i] == series.Float
		}
	}
	return false
}

// NumericColumn returns the named column as float64 values with NaN in place
// of missing entries.
func (t *Table) NumericColumn(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("dataset %s: no column %q", t.path, name)
	}
	col := t.df.Col(name)
	vals := col.Float()
	// series.Float maps unparsable entries to NaN already; normalise the
	// explicit markers too in case the column was kept as strings.
	for i, raw := range col.Records() {
		if missingMarkers[raw] {
			vals[i] = math.NaN()
		}
	}
	return vals, nil
}

// StringColumn returns the named column as raw string values plus a parallel
// mask marking missing entries.
func (t *Table) StringColumn(name string) ([]string, []bool, error) {
	if !t.HasColumn(name) {
		return nil, nil, fmt.Errorf("dataset %s: no column %q", t.path, name)
	}
	recs := t.df.Col(name).Records()
	missing := make([]bool, len(recs))
	for i, v := range recs {
		missing[i] = missingMarkers[v]
	}
	return recs, missing, nil
}

// RespondentIDs returns the identifier column as strings, preserving file
// order.
func (t *Table) RespondentIDs() ([]string, error) {
	if !t.HasColumn(IDColumn) {
		return nil, fmt.Errorf("dataset %s: no column %q", t.path, IDColumn)
	}
	return t.df.Col(IDColumn).Records(), nil
}

// LabelVector returns the named column as a 0/1 vector. Any value other than
// 0 or 1, or a missing entry, is an error: labels are never imputed.
func (t *Table) LabelVector(name string) ([]int, error) {
	recs, missing, err := t.StringColumn(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(recs))
	for i, v := range recs {
		if missing[i] {
			return nil, fmt.Errorf("dataset %s: label %q missing at row %d", t.path, name, i)
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || (n != 0 && n != 1) {
			return nil, fmt.Errorf("dataset %s: label %q has non-binary value %q at row %d", t.path, name, v, i)
		}
		out[i] = int(n)
	}
	return out, nil
}

// CheckAligned verifies that features and labels have the same row count and
// the same respondent_id sequence in the same order.
func CheckAligned(features, labels *Table) error {
	if features.NumRows() != labels.NumRows() {
		return fmt.Errorf("row count mismatch: %d feature rows vs %d label rows",
			features.NumRows(), labels.NumRows())
	}
	fids, err := features.RespondentIDs()
	if err != nil {
		return err
	}
	lids, err := labels.RespondentIDs()
	if err != nil {
		return err
	}
	for i := range fids {
		if fids[i] != lids[i] {
			return fmt.Errorf("respondent_id mismatch at row %d: %q vs %q", i, fids[i], lids[i])
		}
	}
	return nil
}

// ColumnSummary describes one column for diagnostic output.
type ColumnSummary struct {
	Name    string   `json:"name" yaml:"name"`
	Type    string   `json:"type" yaml:"type"`
	Missing int      `json:"missing" yaml:"missing"`
	Unique  int      `json:"unique" yaml:"unique"`
	Samples []string `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// Summarize returns a per-column summary of the table, in file order.
func (t *Table) Summarize(maxSamples int) []ColumnSummary {
	names := t.df.Names()
	types := t.df.Types()
	out := make([]ColumnSummary, 0, len(names))
	for i, name := range names {
		recs := t.df.Col(name).Records()
		missing := 0
		distinct := map[string]bool{}
		for _, v := range recs {
			if missingMarkers[v] {
				missing++
				continue
			}
			distinct[v] = true
		}
		samples := make([]string, 0, len(distinct))
		for v := range distinct {
			samples = append(samples, v)
		}
		sort.Strings(samples)
		if len(samples) > maxSamples {
			samples = samples[:maxSamples]
		}
		out = append(out, ColumnSummary{
			Name:    name,
			Type:    string(types[i]),
			Missing: missing,
			Unique:  len(distinct),
			Samples: samples,
		})
	}
	return out
}
