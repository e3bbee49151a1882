package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunPasses(t *testing.T) {
	file := filepath.Join(t.TempDir(), "results.json")
	out, err := execute(t, "run", "--pow", "10", "--print=false", "--block-size", "64", "--json", file)
	require.NoError(t, err, out)

	assert.Contains(t, out, "** SCAN TESTS **")
	assert.Contains(t, out, "==== work-efficient compact, non-power-of-two ====")
	assert.NotContains(t, out, "FAIL")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var results []Result
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Len(t, results, 15)
	for _, r := range results {
		assert.Equal(t, "pass", r.Status, r.Name)
	}
}

func TestRunRejectsBadPower(t *testing.T) {
	_, err := execute(t, "run", "--pow", "1")
	assert.Error(t, err)
}

func TestSweep(t *testing.T) {
	out, err := execute(t, "sweep", "--min-pow", "0", "--max-pow", "6")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, sweepHeader, rows[0])
	for _, row := range rows[1:] {
		assert.Len(t, row, len(sweepHeader))
	}
	assert.Equal(t, "6", rows[7][0])
}

func TestPrintArray(t *testing.T) {
	var buf bytes.Buffer
	printArray(&buf, []int32{1, 2, 3}, true)
	assert.Equal(t, "    [   1   2   3 ]\n", buf.String())

	long := make([]int32, 20)
	long[18], long[19] = 8, 9
	buf.Reset()
	printArray(&buf, long, true)
	assert.True(t, strings.HasSuffix(buf.String(), "...   8   9 ]\n"), buf.String())
}

func TestCheckSorted(t *testing.T) {
	assert.NoError(t, checkSorted([]int32{3, 1, 2}, []int32{1, 2, 3}))
	assert.Error(t, checkSorted([]int32{3, 1, 2}, []int32{1, 3, 2}))
	assert.Error(t, checkSorted([]int32{3, 1, 2}, []int32{1, 1, 3}), "not a permutation")
}
