package submission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		ids     []string
		targets []string
		probs   [][]float64
		wantErr string
	}{
		{
			name:    "target count mismatch",
			ids:     []string{"1"},
			targets: []string{"a", "b"},
			probs:   [][]float64{{0.5}},
			wantErr: "probability vectors",
		},
		{
			name:    "row count mismatch",
			ids:     []string{"1", "2"},
			targets: []string{"a"},
			probs:   [][]float64{{0.5}},
			wantErr: "for 2 rows",
		},
		{
			name:    "probability above one",
			ids:     []string{"1"},
			targets: []string{"a"},
			probs:   [][]float64{{1.5}},
			wantErr: "outside [0,1]",
		},
		{
			name:    "negative probability",
			ids:     []string{"1"},
			targets: []string{"a"},
			probs:   [][]float64{{-0.1}},
			wantErr: "outside [0,1]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.ids, tc.targets, tc.probs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestWrite(t *testing.T) {
	table, err := New(
		[]string{"10", "11", "12"},
		[]string{"xyz_vaccine", "seasonal_vaccine"},
		[][]float64{{0.25, 0.5, 1}, {0, 0.75, 0.125}},
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "submission.csv")
	require.NoError(t, table.Write(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"respondent_id,xyz_vaccine,seasonal_vaccine\n"+
			"10,0.25,0\n"+
			"11,0.5,0.75\n"+
			"12,1,0.125\n",
		string(content))
}

func TestWrite_UnwritableDestination(t *testing.T) {
	table, err := New([]string{"1"}, []string{"xyz_vaccine"}, [][]float64{{0.5}})
	require.NoError(t, err)

	err = table.Write(filepath.Join(t.TempDir(), "missing", "submission.csv"))
	require.Error(t, err)
	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}
