// Package submission assembles and writes the scored output table.
package submission

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Table is the output of a pipeline run: one row per test respondent, in test
// input order, with one probability column per target.
type Table struct {
	IDs     []string
	Targets []string
	// Probs is indexed [target][row], aligned with Targets and IDs.
	Probs [][]float64
}

// New validates alignment and probability ranges and builds a Table.
func New(ids []string, targets []string, probs [][]float64) (*Table, error) {
	if len(targets) != len(probs) {
		return nil, fmt.Errorf("submission: %d targets but %d probability vectors", len(targets), len(probs))
	}
	for ti, column := range probs {
		if len(column) != len(ids) {
			return nil, fmt.Errorf("submission: target %s has %d probabilities for %d rows",
				targets[ti], len(column), len(ids))
		}
		for i, p := range column {
			if p < 0 || p > 1 {
				return nil, fmt.Errorf("submission: target %s row %d probability %g outside [0,1]",
					targets[ti], i, p)
			}
		}
	}
	return &Table{IDs: ids, Targets: targets, Probs: probs}, nil
}

// Write persists the table as CSV. Any create or flush failure is a
// WriteError and leaves no usable output behind.
func (t *Table) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"respondent_id"}, t.Targets...)
	if err := w.Write(header); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	record := make([]string, len(header))
	for i, id := range t.IDs {
		record[0] = id
		for ti := range t.Targets {
			record[ti+1] = strconv.FormatFloat(t.Probs[ti][i], 'f', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	log.Debug().Str("path", path).Int("rows", len(t.IDs)).Msg("wrote submission")
	return nil
}

// WriteError reports an unwritable output destination.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
