package main

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/faturas/pkg/config"
	"github.com/yurifrl/faturas/pkg/export"
	"github.com/yurifrl/faturas/pkg/models"
	"github.com/yurifrl/faturas/pkg/parser"
	"github.com/yurifrl/faturas/pkg/plan"
)

func TestPrintTableCountsFilteredRows(t *testing.T) {
	result := &parser.Result{
		Issuer: parser.Nubank,
		Transactions: []*models.Transaction{
			tx(t, "10/03", "IFOOD", "35,90"),
			tx(t, "11/03", "UBER", "12,00"),
		},
		Stats: parser.Stats{Lines: 4},
	}
	f := &filters{description: "ifood"}
	fn, err := f.toFilterFunc()
	require.NoError(t, err)

	var out bytes.Buffer
	printTable(&out, result, export.Rows(result.Transactions, export.Options{Filter: fn}))

	assert.Contains(t, out.String(), "Nubank: 1 of 2 transactions")
	assert.Contains(t, out.String(), "IFOOD")
	assert.NotContains(t, out.String(), "UBER")

	out.Reset()
	printTable(&out, result, export.Rows(result.Transactions, export.Options{}))
	assert.Contains(t, out.String(), "Nubank: 2 transactions")
}

func planFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("output-dir", "o", "", "")
	flags.StringP("format", "f", string(export.CSV), "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestApplyPlan(t *testing.T) {
	p := &plan.Plan{OutputDir: "/plan/out", Format: "xlsx"}

	cfg := config.Default()
	require.NoError(t, applyPlan(cfg, p, planFlags(t)))
	assert.Equal(t, "/plan/out", cfg.OutputDir)
	assert.Equal(t, export.XLSX, cfg.Format)

	cfg = config.Default()
	cfg.Format = export.CSV
	cfg.OutputDir = "/flag/out"
	require.NoError(t, applyPlan(cfg, p, planFlags(t, "--format", "csv", "-o", "/flag/out")))
	assert.Equal(t, "/flag/out", cfg.OutputDir)
	assert.Equal(t, export.CSV, cfg.Format)

	assert.Error(t, applyPlan(config.Default(), &plan.Plan{Format: "pdf"}, planFlags(t)))
}
