// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/landreport/internal/reporttype"
	"github.com/pdiddy/landreport/pkg/types"
)

func TestReportTypesFromFlag(t *testing.T) {
	ids, err := reportTypesFromFlag("all")
	require.NoError(t, err)
	assert.Equal(t, reporttype.IDs(), ids)

	ids, err = reportTypesFromFlag("quick_check, executive_summary")
	require.NoError(t, err)
	assert.Equal(t, []types.ReportTypeID{types.ReportQuickCheck, types.ReportExecutiveSummary}, ids)

	_, err = reportTypesFromFlag("quick_check,monthly")
	assert.ErrorIs(t, err, reporttype.ErrUnknownReportType)
}

func TestParseCashflows(t *testing.T) {
	got, err := parseCashflows("30000, 35000,,40000")
	require.NoError(t, err)
	assert.Equal(t, []float64{30000, 35000, 40000}, got)

	_, err = parseCashflows("1,two")
	assert.Error(t, err)
}

func TestSummaryLine(t *testing.T) {
	line := summaryLine(map[string]any{"irr": 15.8, "npv": 1000}, 80)
	assert.Equal(t, "irr=15.8 npv=1000", line)

	line = summaryLine(map[string]any{"a_long_key": "a long value that will not fit"}, 20)
	assert.Len(t, line, 20)
	assert.Contains(t, line, "...")
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))

	l, err = newLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}

func TestCashflowInputFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("upfront_cost: 100\ndiscount_rate: 0.1\ncashflows: [60, 60]\n"), 0o644))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("upfront_cost: 100\ncashflows: [60, 60]\n"), 0o644))

	cmd := &cobra.Command{}
	cmd.Flags().String("input", good, "")
	in, err := cashflowInput(cmd)
	require.NoError(t, err)
	assert.Equal(t, types.CashflowInput{UpfrontCost: 100, DiscountRate: 0.1, Cashflows: []float64{60, 60}}, in)

	require.NoError(t, cmd.Flags().Set("input", bad))
	_, err = cashflowInput(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discount_rate")
}
