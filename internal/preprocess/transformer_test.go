package preprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/fluscope/fluscope/internal/dataset"
)

func loadCSV(t *testing.T, content string) *dataset.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	table, err := dataset.Load(path)
	require.NoError(t, err)
	return table
}

const trainCSV = "respondent_id,score,grade\n" +
	"1,1,a\n" +
	"2,2,b\n" +
	"3,,a\n"

func TestFitTransform_ImputeScaleEncode(t *testing.T) {
	train := loadCSV(t, trainCSV)

	ct := NewColumnTransformer()
	x, err := ct.FitTransform(train)
	require.NoError(t, err)

	rows, cols := x.Dims()
	assert.Equal(t, 3, rows)
	// score + grade=a + grade=b
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"score", "grade=a", "grade=b"}, ct.FeatureNames())

	// mean 1.5, population std 0.5
	assert.InDelta(t, -1.0, x.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, x.At(1, 0), 1e-12)
	// missing entry imputed with the mean, which scales to zero
	assert.InDelta(t, 0.0, x.At(2, 0), 1e-12)

	assert.Equal(t, []float64{1, 0}, mat.Row(nil, 0, x)[1:])
	assert.Equal(t, []float64{0, 1}, mat.Row(nil, 1, x)[1:])
	assert.Equal(t, []float64{1, 0}, mat.Row(nil, 2, x)[1:])
}

func TestTransform_UnseenCategoryAndMissing(t *testing.T) {
	train := loadCSV(t, trainCSV)
	test := loadCSV(t, "respondent_id,score,grade\n9,,c\n")

	ct := NewColumnTransformer()
	_, err := ct.FitTransform(train)
	require.NoError(t, err)

	x, err := ct.Transform(test)
	require.NoError(t, err)

	rows, cols := x.Dims()
	assert.Equal(t, 1, rows)
	assert.Equal(t, 3, cols)
	// missing numeric maps to the training mean, i.e. zero after scaling
	assert.InDelta(t, 0.0, x.At(0, 0), 1e-12)
	// unseen category "c" encodes as an all-zero indicator block
	assert.Equal(t, []float64{0, 0}, mat.Row(nil, 0, x)[1:])
}

func TestTransform_SchemaStability(t *testing.T) {
	train := loadCSV(t, trainCSV)
	test := loadCSV(t, "respondent_id,score,grade\n9,5,b\n8,1,a\n")

	ct := NewColumnTransformer()
	xTrain, err := ct.FitTransform(train)
	require.NoError(t, err)
	xTest, err := ct.Transform(test)
	require.NoError(t, err)

	_, trainCols := xTrain.Dims()
	_, testCols := xTest.Dims()
	assert.Equal(t, trainCols, testCols)
}

func TestTransform_Idempotent(t *testing.T) {
	train := loadCSV(t, trainCSV)

	ct := NewColumnTransformer()
	require.NoError(t, ct.Fit(train))

	first, err := ct.Transform(train)
	require.NoError(t, err)
	second, err := ct.Transform(train)
	require.NoError(t, err)
	assert.True(t, mat.Equal(first, second))
}

func TestFit_NoTestLeakage(t *testing.T) {
	train := loadCSV(t, trainCSV)
	testA := loadCSV(t, "respondent_id,score,grade\n9,100,b\n")
	testB := loadCSV(t, "respondent_id,score,grade\n9,-100,z\n")

	ct := NewColumnTransformer()
	require.NoError(t, ct.Fit(train))
	before, err := ct.Transform(train)
	require.NoError(t, err)

	// Transforming wildly different test tables must not move the fitted
	// parameters.
	_, err = ct.Transform(testA)
	require.NoError(t, err)
	_, err = ct.Transform(testB)
	require.NoError(t, err)

	after, err := ct.Transform(train)
	require.NoError(t, err)
	assert.True(t, mat.Equal(before, after))
}

func TestTransform_MissingColumn(t *testing.T) {
	train := loadCSV(t, trainCSV)
	test := loadCSV(t, "respondent_id,score\n9,5\n")

	ct := NewColumnTransformer()
	require.NoError(t, ct.Fit(train))

	_, err := ct.Transform(test)
	require.Error(t, err)
	var schemaErr *SchemaMismatchError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "grade", schemaErr.Column)
}

func TestFit_ZeroVarianceColumn(t *testing.T) {
	train := loadCSV(t, "respondent_id,constant,grade\n1,7,a\n2,7,b\n")

	ct := NewColumnTransformer()
	x, err := ct.FitTransform(train)
	require.NoError(t, err)

	// centered but unscaled: no division by a zero standard deviation
	assert.Equal(t, 0.0, x.At(0, 0))
	assert.Equal(t, 0.0, x.At(1, 0))
}

func TestTransform_BeforeFit(t *testing.T) {
	train := loadCSV(t, trainCSV)
	_, err := NewColumnTransformer().Transform(train)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before fit")
}

func TestFit_BooleanColumnIsCategorical(t *testing.T) {
	train := loadCSV(t, "respondent_id,flag\n1,true\n2,false\n3,true\n")

	ct := NewColumnTransformer()
	x, err := ct.FitTransform(train)
	require.NoError(t, err)

	_, cols := x.Dims()
	assert.Equal(t, 2, cols)
	assert.Equal(t, []string{"flag=false", "flag=true"}, ct.FeatureNames())
	assert.Empty(t, ct.NumericNames())
}
