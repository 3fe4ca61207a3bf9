package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := executeCommand(t, "version", "--output", "json")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.Platform)
}

func TestInspectCommand_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"respondent_id,age,sex\n1,30,female\n2,,male\n"), 0o644))

	out, err := executeCommand(t, "inspect", path, "--output", "json")
	require.NoError(t, err)

	var summary FileSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, path, summary.File)
	assert.Equal(t, 2, summary.Rows)
	require.Len(t, summary.Columns, 3)
	assert.Equal(t, "age", summary.Columns[1].Name)
	assert.Equal(t, 1, summary.Columns[1].Missing)
}

func TestRunCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	trainX := write("train_x.csv",
		"respondent_id,signal\n1,10\n2,-10\n3,11\n4,-11\n5,12\n6,-12\n7,13\n8,-13\n9,14\n10,-14\n")
	trainY := write("train_y.csv",
		"respondent_id,xyz_vaccine,seasonal_vaccine\n1,1,0\n2,0,1\n3,1,0\n4,0,1\n5,1,0\n6,0,1\n7,1,0\n8,0,1\n9,1,0\n10,0,1\n")
	testX := write("test_x.csv", "respondent_id,signal\n21,15\n22,-15\n")
	out := filepath.Join(dir, "submission.csv")

	_, err := executeCommand(t, "run",
		"--train-features", trainX,
		"--train-labels", trainY,
		"--test-features", testX,
		"--out", out,
		"--trees", "20",
		"--quiet", "--output", "json")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"respondent_id", "xyz_vaccine", "seasonal_vaccine"}, records[0])
	assert.Equal(t, "21", records[1][0])
	assert.Equal(t, "22", records[2][0])
}

func TestPrintTable(t *testing.T) {
	buf := new(bytes.Buffer)
	printTable(buf,
		[]string{"column", "type"},
		[][]string{{"age", "float"}, {"sex", "string"}})

	out := buf.String()
	assert.Contains(t, out, "column")
	assert.Contains(t, out, "------")
	assert.Contains(t, out, "age")
	assert.Contains(t, out, "sex")
}
