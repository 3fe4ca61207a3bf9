// Package preprocess turns a mixed-type feature table into a dense numeric
// matrix. Parameters are fit once on training data and applied, without
// refitting, to any later table with the same feature columns.
package preprocess

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/fluscope/fluscope/internal/dataset"
)

// numericParams holds the fitted state for one numeric column: the training
// mean doubles as the imputation fill and the centering term.
type numericParams struct {
	Name string
	Mean float64
	// Scale is the population standard deviation, or 1 for a zero-variance
	// column so the value stays centered but unscaled.
	Scale float64
}

// categoricalParams holds the fitted state for one categorical column.
type categoricalParams struct {
	Name string
	// Fill is the most frequent training value, lexically smallest on ties.
	Fill string
	// Categories is the sorted training vocabulary; each entry becomes one
	// indicator column.
	Categories []string
	index      map[string]int
}

// ColumnTransformer imputes, standardizes, and one-hot encodes feature
// columns. The output column order is numeric columns in table order followed
// by one indicator block per categorical column, vocabularies sorted, and is
// identical for every Transform call on the same fitted transformer.
type ColumnTransformer struct {
	numeric     []numericParams
	categorical []categoricalParams
	fitted      bool
}

// NewColumnTransformer returns an unfitted transformer.
func NewColumnTransformer() *ColumnTransformer {
	return &ColumnTransformer{}
}

// Fit derives imputation, scaling, and vocabulary parameters from the given
// table. Columns inferred as int or float are numeric; everything else is
// categorical. Fitting again replaces all previous state.
func (ct *ColumnTransformer) Fit(t *dataset.Table) error {
	ct.numeric = ct.numeric[:0]
	ct.categorical = ct.categorical[:0]

	for _, name := range t.FeatureColumns() {
		if t.IsNumeric(name) {
			vals, err := t.NumericColumn(name)
			if err != nil {
				return err
			}
			ct.numeric = append(ct.numeric, fitNumeric(name, vals))
			continue
		}
		recs, missing, err := t.StringColumn(name)
		if err != nil {
			return err
		}
		ct.categorical = append(ct.categorical, fitCategorical(name, recs, missing))
	}

	ct.fitted = true
	log.Debug().
		Int("numeric", len(ct.numeric)).
		Int("categorical", len(ct.categorical)).
		Int("output_columns", ct.numColumns()).
		Msg("fitted column transformer")
	return nil
}

func fitNumeric(name string, vals []float64) numericParams {
	observed := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	p := numericParams{Name: name, Mean: 0, Scale: 1}
	if len(observed) == 0 {
		return p
	}
	p.Mean = stat.Mean(observed, nil)
	if sd := stat.PopStdDev(observed, nil); sd > 0 {
		p.Scale = sd
	}
	return p
}

func fitCategorical(name string, recs []string, missing []bool) categoricalParams {
	counts := map[string]int{}
	for i, v := range recs {
		if !missing[i] {
			counts[v]++
		}
	}
	p := categoricalParams{Name: name, index: map[string]int{}}
	for v := range counts {
		p.Categories = append(p.Categories, v)
	}
	sort.Strings(p.Categories)
	for i, v := range p.Categories {
		p.index[v] = i
		if p.Fill == "" || counts[v] > counts[p.Fill] {
			p.Fill = v
		}
	}
	return p
}

// Transform applies the fitted parameters to a table and returns the dense
// feature matrix. The table must contain every fitted feature column with a
// compatible type; extra columns are ignored. Unseen categorical values map
// to an all-zero indicator block.
func (ct *ColumnTransformer) Transform(t *dataset.Table) (*mat.Dense, error) {
	if !ct.fitted {
		return nil, fmt.Errorf("transform called before fit")
	}

	rows := t.NumRows()
	out := mat.NewDense(rows, ct.numColumns(), nil)

	for j, p := range ct.numeric {
		if !t.HasColumn(p.Name) {
			return nil, &SchemaMismatchError{Column: p.Name}
		}
		if !t.IsNumeric(p.Name) {
			return nil, &SchemaMismatchError{Column: p.Name, TypeChanged: true}
		}
		vals, err := t.NumericColumn(p.Name)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				v = p.Mean
			}
			out.Set(i, j, (v-p.Mean)/p.Scale)
		}
	}

	offset := len(ct.numeric)
	for _, p := range ct.categorical {
		if !t.HasColumn(p.Name) {
			return nil, &SchemaMismatchError{Column: p.Name}
		}
		recs, missing, err := t.StringColumn(p.Name)
		if err != nil {
			return nil, err
		}
		for i, v := range recs {
			if missing[i] {
				v = p.Fill
			}
			if k, ok := p.index[v]; ok {
				out.Set(i, offset+k, 1)
			}
		}
		offset += len(p.Categories)
	}

	return out, nil
}

// FitTransform fits the transformer on the table and returns its matrix.
func (ct *ColumnTransformer) FitTransform(t *dataset.Table) (*mat.Dense, error) {
	if err := ct.Fit(t); err != nil {
		return nil, err
	}
	return ct.Transform(t)
}

// FeatureNames returns the output column names in matrix order. Indicator
// columns are named column=value.
func (ct *ColumnTransformer) FeatureNames() []string {
	names := make([]string, 0, ct.numColumns())
	for _, p := range ct.numeric {
		names = append(names, p.Name)
	}
	for _, p := range ct.categorical {
		for _, v := range p.Categories {
			names = append(names, p.Name+"="+v)
		}
	}
	return names
}

// NumericNames returns the fitted numeric column names in matrix order.
func (ct *ColumnTransformer) NumericNames() []string {
	names := make([]string, len(ct.numeric))
	for i, p := range ct.numeric {
		names[i] = p.Name
	}
	return names
}

func (ct *ColumnTransformer) numColumns() int {
	n := len(ct.numeric)
	for _, p := range ct.categorical {
		n += len(p.Categories)
	}
	return n
}
