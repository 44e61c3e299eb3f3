package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpm.lopezb.com/internal/fpm"
	"fpm.lopezb.com/internal/fpm/itemset"
	"fpm.lopezb.com/internal/fpm/mining"
	"fpm.lopezb.com/internal/fpm/sampling"
)

// writeInput lays out the example database over two files.
func writeInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1 2 3\n1,2\n\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("1, 3\n2 3\n"), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func readReport(t *testing.T, dir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "frequent_itemsets_*.txt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMine(t *testing.T) {
	input := writeInput(t)
	output := filepath.Join(t.TempDir(), "out")

	stdout, _, err := execute(t, "mine", input, "0.5", "--output", output, "--verify")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Transactions: 4\n")
	assert.Contains(t, stdout, "Freq itemsets count: 6\n")

	rep := readReport(t, output)
	assert.Contains(t, rep, "Minimum Support Count: 2\n")
	assert.Contains(t, rep, "Frequent items count: 3\n")
	assert.Contains(t, rep, "[1, 3] appears 2 times.\n")
	assert.Contains(t, rep, "[2, 3] appears 2 times.\n")
	assert.NotContains(t, rep, "[1, 2, 3]")
	assert.NotContains(t, rep, "Sample Size")
}

func TestApprox(t *testing.T) {
	input := writeInput(t)
	output := t.TempDir()

	_, _, err := execute(t, "approx", "-i", input, "-s", "0.5", "-o", output, "--seed", "7")
	require.NoError(t, err)

	rep := readReport(t, output)
	assert.Contains(t, rep, "Sample Size (VC): 4\n")
	assert.Contains(t, rep, "Minimum Frequency Threshold: 2\n")
	assert.Contains(t, rep, "d-bound (q): 2\n")
	assert.Contains(t, rep, "epsilon: 0.1\n")
	assert.Contains(t, rep, "[1, 2] appears 2 times.\n")
}

func TestCompare(t *testing.T) {
	input := writeInput(t)
	output := t.TempDir()

	stdout, _, err := execute(t, "compare", input, "0.5", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rules compared: 6\n")

	data, err := os.ReadFile(filepath.Join(output, "ar_errors.txt"))
	require.NoError(t, err)
	assert.Equal(t, "ArFreqEr: 0\nArConfEr: 0\nRules compared: 6\n", string(data))
}

func TestBlankInput(t *testing.T) {
	input := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(input, "a.txt"), []byte("\n  \n\n"), 0o644))

	for _, mode := range []string{"mine", "approx", "compare"} {
		t.Run(mode, func(t *testing.T) {
			output := t.TempDir()
			_, _, err := execute(t, mode, input, "0.5", "-o", output)
			require.NoError(t, err)

			if mode != "compare" {
				assert.Contains(t, readReport(t, output), "Frequent itemsets count: 0\n")
				return
			}
			data, err := os.ReadFile(filepath.Join(output, "ar_errors.txt"))
			require.NoError(t, err)
			assert.Equal(t, "ArFreqEr: 0\nArConfEr: 0\nRules compared: 0\n", string(data))
		})
	}
}

func TestConfigFileAndFlags(t *testing.T) {
	input := writeInput(t)
	output := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"input: "+input+"\nmin_support: 0.9\noutput: "+output+"\nlog_format: json\n"), 0o644))

	// The flag wins over the file.
	_, stderr, err := execute(t, "mine", "--config", cfgPath, "--min-support", "0.5")
	require.NoError(t, err)
	assert.Contains(t, readReport(t, output), "Minimum Support: 0.5\n")

	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	require.NotEmpty(t, lines)
	runIDs := make(map[string]bool)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		runIDs[entry["run_id"].(string)] = true
	}
	assert.Len(t, runIDs, 1, "one run id per run")
}

func TestValidationFailsBeforeWork(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out")

	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{name: "support of one", args: []string{"mine", writeInput(t), "1"}, field: "min_support"},
		{name: "not a number", args: []string{"mine", writeInput(t), "half"}, field: "min_support"},
		{name: "missing support", args: []string{"mine", writeInput(t)}, field: "min_support"},
		{name: "missing input", args: []string{"approx", "-s", "0.2"}, field: "input"},
		{name: "bad epsilon", args: []string{"approx", writeInput(t), "0.2", "--epsilon", "1.5"}, field: "epsilon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append(tt.args, "-o", output)...)
			var vErr *fpm.ValidationError
			require.True(t, errors.As(err, &vErr), "%v", err)
			assert.Equal(t, tt.field, vErr.Field)

			_, statErr := os.Stat(output)
			assert.True(t, os.IsNotExist(statErr), "no output on failure")
		})
	}
}

func TestMissingInputDirectory(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out")
	metricsPath := filepath.Join(t.TempDir(), "run.prom")

	_, _, err := execute(t, "mine", filepath.Join(t.TempDir(), "nope"), "0.5",
		"-o", output, "--metrics-file", metricsPath)
	var inErr *fpm.InputError
	require.True(t, errors.As(err, &inErr))

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fpgrowth_runs_total{mode="exact",result="failure"} 1`)
}

func TestMetricsFile(t *testing.T) {
	input := writeInput(t)
	metricsPath := filepath.Join(t.TempDir(), "run.prom")

	_, _, err := execute(t, "mine", input, "0.5", "-o", t.TempDir(), "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "fpgrowth_itemsets 6\n")
	assert.Contains(t, text, "fpgrowth_transactions 4\n")
	assert.Contains(t, text, `fpgrowth_runs_total{mode="exact",result="success"} 1`)
}

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics()
	res := itemset.New()
	res.Add([]string{"a"}, 10)
	desc := sampling.NewDescriptor(4, 100, 0.3, sampling.DefaultParams())

	m.Observe(modeApprox, &mining.Outcome{
		Transactions:  100,
		FrequentItems: 1,
		TreeNodes:     1,
		Itemsets:      res,
		Sample:        &desc,
	})
	m.Fail(modeExact)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Itemsets))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DBound))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.SampleSize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(modeApprox, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(modeExact, "failure")))
}
