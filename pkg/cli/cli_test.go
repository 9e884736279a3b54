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

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.yaml")
	content := `
departments:
  ringframe:
    product_column: count_ne
    mandatory_columns: [date, shift_id, platform_shift_id, lot_number, asset_id]
    default_grouping_columns: [date, lot_number, asset_id, machine_name]
column_definitions:
  count_ne:
    name: Count
    sort_order: -3
  production_kg:
    name: Production
    unit: Kg
    behavior: aggregate
    sort_order: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	content := `date,shift_id,platform_shift_id,lot_number,asset_id,machine_name,count_ne,production_kg
2024-03-01,1,SFA,L1,A1,RF-01,30,100
2024-03-01,2,SFB,L1,A1,RF-01,30,150
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTypesCommand(t *testing.T) {
	out, err := runCLI(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "daywise")
	assert.Contains(t, out, "shiftwise")
	assert.Contains(t, out, "instantaneous")
}

func TestTypesCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "types", "--output", "json")
	require.NoError(t, err)

	var parsed struct {
		ReportTypes []string `json:"report_types"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed.ReportTypes, "monthwise")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "millreport version")
}

func TestRootCommand_RejectsBadOutputFormat(t *testing.T) {
	_, err := runCLI(t, "types", "--output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestValidateCommand_ValidConfig(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCLI(t, "validate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")
}

func TestValidateCommand_BrokenFormula(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := `
formulas:
  efficiency:
    formula: a /
    parameters:
      a: production_kg
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := runCLI(t, "validate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "efficiency")
}

func TestMergeCommand_LaterLayerWins(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	override := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(base, []byte("constants:\n  shift_minutes: 480\n"), 0o644))
	require.NoError(t, os.WriteFile(override, []byte("constants:\n  shift_minutes: 420\n"), 0o644))

	out, err := runCLI(t, "merge", "--no-defaults", "--config", base, "--config", override, "--output", "json")
	require.NoError(t, err)

	var parsed struct {
		Constants map[string]float64 `json:"constants"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, 420.0, parsed.Constants["shift_minutes"])
}

func TestGenerateCommand_CSVToStdout(t *testing.T) {
	out, err := runCLI(t, "generate",
		"--config", writeTestConfig(t),
		"--no-defaults",
		"--department", "ringframe",
		"--type", "daywise",
		"--input", writeTestCSV(t),
	)
	require.NoError(t, err)

	var rpt struct {
		ReportType string         `json:"report_type"`
		Summary    map[string]any `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rpt))
	assert.Equal(t, "daywise", rpt.ReportType)
	assert.Equal(t, 250.0, rpt.Summary["production_kg"])
}

func TestGenerateCommand_MultipleTypesToDir(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "reports")

	_, err := runCLI(t, "generate",
		"--config", writeTestConfig(t),
		"--no-defaults",
		"--department", "ringframe",
		"--type", "daywise,shiftwise",
		"--input", writeTestCSV(t),
		"--out", outDir,
	)
	require.NoError(t, err)

	for _, name := range []string{"ringframe_daywise.json", "ringframe_shiftwise.json"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.True(t, json.Valid(data), name)
	}
}

func TestGenerateCommand_UnknownType(t *testing.T) {
	_, err := runCLI(t, "generate",
		"--config", writeTestConfig(t),
		"--no-defaults",
		"--department", "ringframe",
		"--type", "quarterly",
		"--input", writeTestCSV(t),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quarterly")
}

// === commands ===

func TestCommandsCommand_ListsLeafCommands(t *testing.T) {
	out, err := runCLI(t, "commands")
	require.NoError(t, err)
	assert.Contains(t, out, "generate")
	assert.Contains(t, out, "validate")
	assert.Contains(t, out, "merge")
	assert.NotContains(t, out, "help")
}

func TestCommandsCommand_FilterAndJSON(t *testing.T) {
	out, err := runCLI(t, "commands", "--filter", "generate", "--output", "json")
	require.NoError(t, err)

	var entries []CommandEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "generate", entries[0].Path)

	var deptFlag *FlagEntry
	for i := range entries[0].Flags {
		if entries[0].Flags[i].Name == "department" {
			deptFlag = &entries[0].Flags[i]
		}
	}
	require.NotNil(t, deptFlag)
	assert.True(t, deptFlag.Required)
	assert.Equal(t, "d", deptFlag.Short)
}
