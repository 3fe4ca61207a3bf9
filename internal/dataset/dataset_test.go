package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Basic(t *testing.T) {
	path := writeCSV(t, "features.csv",
		"respondent_id,age,income,sex\n"+
			"1,34,50000.5,female\n"+
			"2,29,,male\n"+
			"3,NA,61000,female\n")

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())
	assert.Equal(t, 4, table.NumColumns())
	assert.Equal(t, []string{"age", "income", "sex"}, table.FeatureColumns())
	assert.True(t, table.IsNumeric("age"))
	assert.True(t, table.IsNumeric("income"))
	assert.False(t, table.IsNumeric("sex"))

	ids, err := table.RespondentIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestLoad_MissingValues(t *testing.T) {
	path := writeCSV(t, "features.csv",
		"respondent_id,score,grade\n"+
			"1,1.5,a\n"+
			"2,,b\n"+
			"3,2.5,NA\n")

	table, err := Load(path)
	require.NoError(t, err)

	vals, err := table.NumericColumn("score")
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, 1.5, vals[0])
	assert.True(t, vals[1] != vals[1], "missing numeric should be NaN")
	assert.Equal(t, 2.5, vals[2])

	_, missing, err := table.StringColumn("grade")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true}, missing)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "unreadable file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
			wantErr: "failed to load",
		},
		{
			name: "inconsistent column count",
			path: func(t *testing.T) string {
				return writeCSV(t, "bad.csv", "respondent_id,a,b\n1,2\n")
			},
			wantErr: "failed to load",
		},
		{
			name: "no data rows",
			path: func(t *testing.T) string {
				return writeCSV(t, "empty.csv", "respondent_id,a\n")
			},
			wantErr: "failed to load",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path(t))
			require.Error(t, err)
			var loadErr *LoadError
			assert.ErrorAs(t, err, &loadErr)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLabelVector(t *testing.T) {
	path := writeCSV(t, "labels.csv",
		"respondent_id,xyz_vaccine,seasonal_vaccine\n"+
			"1,0,1\n"+
			"2,1,1\n"+
			"3,0,0\n")

	table, err := Load(path)
	require.NoError(t, err)

	y, err := table.LabelVector("xyz_vaccine")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, y)

	y, err = table.LabelVector("seasonal_vaccine")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0}, y)
}

func TestLabelVector_NonBinary(t *testing.T) {
	path := writeCSV(t, "labels.csv",
		"respondent_id,xyz_vaccine\n1,2\n")

	table, err := Load(path)
	require.NoError(t, err)

	_, err = table.LabelVector("xyz_vaccine")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-binary")
}

func TestCheckAligned(t *testing.T) {
	features, err := Load(writeCSV(t, "x.csv", "respondent_id,a\n1,1\n2,2\n"))
	require.NoError(t, err)

	aligned, err := Load(writeCSV(t, "y.csv", "respondent_id,xyz_vaccine\n1,0\n2,1\n"))
	require.NoError(t, err)
	assert.NoError(t, CheckAligned(features, aligned))

	reordered, err := Load(writeCSV(t, "y2.csv", "respondent_id,xyz_vaccine\n2,1\n1,0\n"))
	require.NoError(t, err)
	err = CheckAligned(features, reordered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "respondent_id mismatch")

	short, err := Load(writeCSV(t, "y3.csv", "respondent_id,xyz_vaccine\n1,0\n"))
	require.NoError(t, err)
	err = CheckAligned(features, short)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row count mismatch")
}

func TestSummarize(t *testing.T) {
	path := writeCSV(t, "features.csv",
		"respondent_id,age,sex\n"+
			"1,34,female\n"+
			"2,,male\n"+
			"3,29,female\n")

	table, err := Load(path)
	require.NoError(t, err)

	summary := table.Summarize(2)
	require.Len(t, summary, 3)

	age := summary[1]
	assert.Equal(t, "age", age.Name)
	assert.Equal(t, 1, age.Missing)
	assert.Equal(t, 2, age.Unique)

	sex := summary[2]
	assert.Equal(t, "sex", sex.Name)
	assert.Equal(t, 0, sex.Missing)
	assert.Equal(t, []string{"female", "male"}, sex.Samples)
}
