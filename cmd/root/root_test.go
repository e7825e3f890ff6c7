package root

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/optionlab/internal/models"
)

const testSnapshot = `
underlyings:
  TEST:
    spot: 100
    flat_volatility: 0.2
`

const testConfig = `
provider: snapshot
treasury:
  static_curve:
    1Y: 0.05
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "snapshot.yaml")
	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(snapshot, []byte(testSnapshot), 0o600))
	require.NoError(t, os.WriteFile(config, []byte(testConfig), 0o600))

	var out bytes.Buffer
	cmd := NewRootCommand(context.Background())
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args,
		"--config", config,
		"--snapshot", snapshot,
		"--log-level", "error",
		"--log-file", filepath.Join(dir, "optionlab.log"),
	))
	err := cmd.Execute()
	return out.String(), err
}

func TestStrategyCommand(t *testing.T) {
	out, err := run(t, "strategy", "test", "long_straddle", "--years", "1", "--samples", "11")
	require.NoError(t, err)

	var rep models.StrategyReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Legs, 2)
	assert.Equal(t, "TEST", rep.Summary["ticker"].Display)
	assert.Equal(t, "5.00%", rep.Summary["risk_free_rate"].Display)
	require.NotNil(t, rep.Payoff)
	assert.Len(t, rep.Payoff.Samples, 11)
	assert.Len(t, rep.Payoff.BreakEvens, 2)
}

func TestStrategyCommandRejectsUnknownRecipe(t *testing.T) {
	_, err := run(t, "strategy", "TEST", "calendar_spread", "--years", "1")
	assert.True(t, models.IsInvalidInput(err))
}

func TestPriceCommandOffline(t *testing.T) {
	out, err := run(t, "price", "--spot", "100", "--strike", "100", "--volatility", "0.2", "--years", "1", "--rate", "0.05")
	require.NoError(t, err)

	var row models.FormattedRow
	require.NoError(t, json.Unmarshal([]byte(out), &row))
	assert.Equal(t, "$10.45", row["price"].Display)
	assert.Equal(t, "5.00%", row["risk_free_rate"].Display)
}

func TestDigitalCommand(t *testing.T) {
	out, err := run(t, "digital", "TEST", "--strike", "100", "--payoff", "10", "--years", "1")
	require.NoError(t, err)

	var row models.FormattedRow
	require.NoError(t, json.Unmarshal([]byte(out), &row))
	assert.Equal(t, "$5.32", row["price"].Display)
	assert.Equal(t, "$100.00", row["spot"].Display)
}

func TestYieldCommand(t *testing.T) {
	out, err := run(t, "yield", "--years", "2")
	require.NoError(t, err)
	var row models.FormattedRow
	require.NoError(t, json.Unmarshal([]byte(out), &row))
	assert.Equal(t, "5.00%", row["risk_free_rate"].Display)

	out, err = run(t, "yield")
	require.NoError(t, err)
	var rows []models.FormattedRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 13)
	assert.Equal(t, "1M", rows[0]["tenor"].Display)
}

func TestSkewCommand(t *testing.T) {
	out, err := run(t, "skew", "TEST", "--strike", "100", "--years", "0.5", "--strikes", "90,100,110")
	require.NoError(t, err)

	var res skewResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 0.0, res.Skew)
	assert.Len(t, res.Curve, 3)
}

func TestStrategiesAndVersion(t *testing.T) {
	out, err := run(t, "strategies")
	require.NoError(t, err)
	var list recipeList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, 26, list.Count)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: 0.0.0+unknown")
}

func TestStrategyCommandRejectsZeroOffset(t *testing.T) {
	_, err := run(t, "strategy", "TEST", "bull_call_spread", "--years", "1", "--offset", "0")
	assert.True(t, models.IsInvalidInput(err))
}
