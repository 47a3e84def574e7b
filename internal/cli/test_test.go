package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

func runTestCmd(t *testing.T, opts *TestOptions, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(opts.RootOptions)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	if opts.Update {
		args = append(args, "--update")
	}
	if opts.Filter != "" {
		args = append(args, "--filter", opts.Filter)
	}
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestTestCommand_Usage(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}

func TestTestCommand_MissingPath(t *testing.T) {
	buf, err := runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}}, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "scenarios not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	buf, err := runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found.")
}

func TestTestCommand_Scenarios(t *testing.T) {
	buf, err := runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}}, scenariosDir)
	require.NoError(t, err, buf.String())
	assert.Contains(t, buf.String(), "ok proof_basics")
	assert.Contains(t, buf.String(), "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, buf.String(), "All scenarios passed")
}

func TestTestCommand_JSON(t *testing.T) {
	buf, err := runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "json"}}, scenariosDir)
	require.NoError(t, err)

	var raw struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "ok", raw.Status)
	assert.Equal(t, 3, raw.Data.Total)
	assert.Equal(t, 3, raw.Data.Passed)
}

func TestTestCommand_Filter(t *testing.T) {
	buf, err := runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}, Filter: "proof_*"}, scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")

	_, err = runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}, Filter: "[bad"}, scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_Failing(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong
description: expects the wrong tactic
steps:
  - parse: "Qed."
    stack: [proof]
    expect: {tactic: Let}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0644))

	buf, err := runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}}, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "FAIL wrong")
	assert.Contains(t, buf.String(), "0 passed, 1 failed")
}

func TestTestCommand_UpdateGolden(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: tiny
description: one parse step
steps:
  - parse: "Qed."
    stack: [proof]
    expect: {tactic: Qed}
`
	path := filepath.Join(dir, "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0644))

	buf, err := runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}, Update: true}, dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "golden updated")

	golden := goldenFilePath(path)
	assert.Equal(t, filepath.Join(dir, "golden", "tiny.golden"), golden)
	_, err = os.Stat(golden)
	require.NoError(t, err)

	// a second run compares against the written file
	buf, err = runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}}, dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "golden match")

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0644))
	buf, err = runTestCmd(t, &TestOptions{RootOptions: &RootOptions{Format: "text"}}, dir)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "does not match golden")
}

func TestFilterScenarios(t *testing.T) {
	files := []string{"a/proof_one.yaml", "a/check_two.yaml", "b/proof_three.yml"}

	got, err := filterScenarios(files, "")
	require.NoError(t, err)
	assert.Equal(t, files, got)

	got, err = filterScenarios(files, "proof_*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/proof_one.yaml", "b/proof_three.yml"}, got)
}
