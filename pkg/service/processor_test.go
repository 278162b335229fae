package service

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/faturas/pkg/config"
	"github.com/yurifrl/faturas/pkg/document"
	"github.com/yurifrl/faturas/pkg/document/documenttest"
	"github.com/yurifrl/faturas/pkg/export"
	"github.com/yurifrl/faturas/pkg/models"
	"github.com/yurifrl/faturas/pkg/parser"
	"github.com/yurifrl/faturas/pkg/plan"
)

type trackedDoc struct {
	document.Pages
	closed *int
}

func (d trackedDoc) Close() error {
	*d.closed++
	return nil
}

type fixture struct {
	dir    string
	docs   map[string]document.Pages
	closed int
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		dir: t.TempDir(),
		docs: map[string]document.Pages{
			"caixa.pdf":   document.FromPages("CAIXA ECONOMICA FEDERAL\n02/05 POSTO XYZ 50,00\n01/05 MERCADO ABC 123,45"),
			"nubank.pdf":  document.FromPages("Nubank\nTRANSAÇÕES DE 01 MAR A 31 MAR\n10/03 IFOOD 35,90\nPagamentos\n11/03 PAGAMENTO RECEBIDO 100,00"),
			"empty.pdf":   document.FromPages("NUBANK\n01/03 FORA 1,00"),
			"unknown.pdf": document.FromPages("BANCO X\n01/03 LOJA 1,00"),
		},
	}
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func (f *fixture) open(path string) (document.Document, error) {
	pages, ok := f.docs[filepath.Base(path)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return trackedDoc{Pages: pages, closed: &f.closed}, nil
}

func (f *fixture) processor(cfg *config.Config, opts ...Option) *Processor {
	logger := log.New(io.Discard)
	opts = append([]Option{WithOpener(f.open)}, opts...)
	return NewProcessor(cfg, logger, parser.New(logger), opts...)
}

func TestProcessFile(t *testing.T) {
	f := newFixture(t)
	p := f.processor(config.Default())

	outcome, err := p.ProcessFile(f.path("caixa.pdf"))
	require.NoError(t, err)
	assert.Equal(t, f.path("caixa.csv"), outcome.Output)
	assert.Equal(t, "caixa", outcome.Result.Issuer.Name)
	assert.Equal(t, 1, f.closed)

	data, err := os.ReadFile(outcome.Output)
	require.NoError(t, err)
	assert.Equal(t, "date,description,amount,installments,card,type\n"+
		"01/05,MERCADO ABC,123.45,,Caixa,debit\n"+
		"02/05,POSTO XYZ,50,,Caixa,debit\n", string(data))
}

func TestProcessPDFFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "fatura.pdf")
	pdf := documenttest.PDF("CAIXA", "02/05 POSTO XYZ 50,00", "01/05 MERCADO ABC 123,45")
	require.NoError(t, os.WriteFile(input, pdf, 0644))

	logger := log.New(io.Discard)
	p := NewProcessor(config.Default(), logger, parser.New(logger))

	outcome, err := p.ProcessFile(input)
	require.NoError(t, err)
	assert.Equal(t, "caixa", outcome.Result.Issuer.Name)
	require.Len(t, outcome.Result.Transactions, 2)
	assert.Equal(t, 3, outcome.Result.Stats.Lines)

	data, err := os.ReadFile(outcome.Output)
	require.NoError(t, err)
	assert.Equal(t, "date,description,amount,installments,card,type\n"+
		"01/05,MERCADO ABC,123.45,,Caixa,debit\n"+
		"02/05,POSTO XYZ,50,,Caixa,debit\n", string(data))
}

func TestProcessStatementYearAndOutputDir(t *testing.T) {
	f := newFixture(t)
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(f.dir, "out")

	p := f.processor(cfg)
	outcome, err := p.ProcessStatement(Statement{Path: f.path("nubank.pdf"), Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "out", "nubank.csv"), outcome.Output)

	data, err := os.ReadFile(outcome.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2025-03-10,IFOOD,35.9,,Nubank,debit")
	assert.NotContains(t, string(data), "PAGAMENTO RECEBIDO")
}

func TestProcessFileErrors(t *testing.T) {
	f := newFixture(t)
	p := f.processor(config.Default())

	_, err := p.ProcessFile(f.path("unknown.pdf"))
	assert.ErrorIs(t, err, parser.ErrUnrecognizedIssuer)

	_, err = p.ProcessFile(f.path("empty.pdf"))
	assert.ErrorIs(t, err, ErrNoTransactions)
	assert.NotErrorIs(t, err, parser.ErrUnrecognizedIssuer)

	_, err = p.ProcessFile(f.path("missing.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Equal(t, 2, f.closed)
	assert.NoFileExists(t, f.path("unknown.csv"))
	assert.NoFileExists(t, f.path("empty.csv"))
}

func TestForcedIssuer(t *testing.T) {
	f := newFixture(t)
	cfg := config.Default()
	cfg.Issuer = "caixa"
	p := f.processor(cfg)

	outcome, err := p.ProcessFile(f.path("unknown.pdf"))
	require.NoError(t, err)
	require.Len(t, outcome.Result.Transactions, 1)
	assert.Equal(t, "Caixa", outcome.Result.Transactions[0].Card())

	cfg.Issuer = "itau"
	_, err = p.ProcessFile(f.path("unknown.pdf"))
	assert.ErrorIs(t, err, parser.ErrUnknownIssuer)
}

func TestDetect(t *testing.T) {
	f := newFixture(t)
	p := f.processor(config.Default())

	issuer, err := p.Detect(f.path("nubank.pdf"))
	require.NoError(t, err)
	assert.Equal(t, parser.Nubank, issuer)
	assert.Equal(t, 1, f.closed)
}

func TestFilterAndXLSX(t *testing.T) {
	f := newFixture(t)
	cfg := config.Default()
	cfg.Format = export.XLSX
	p := f.processor(cfg, WithFilter(func(tx *models.Transaction) bool {
		return strings.Contains(tx.Description(), "POSTO")
	}))

	outcome, err := p.ProcessFile(f.path("caixa.pdf"))
	require.NoError(t, err)
	assert.Equal(t, f.path("caixa.xlsx"), outcome.Output)
	assert.FileExists(t, outcome.Output)
}

func TestProcessDirectory(t *testing.T) {
	f := newFixture(t)
	for name := range f.docs {
		require.NoError(t, os.WriteFile(f.path(name), nil, 0644))
	}
	require.NoError(t, os.WriteFile(f.path("notes.txt"), nil, 0644))

	p := f.processor(config.Default())
	require.NoError(t, p.ProcessDirectory(f.dir))

	assert.FileExists(t, f.path("caixa.csv"))
	assert.FileExists(t, f.path("nubank.csv"))
	assert.NoFileExists(t, f.path("empty.csv"))
	assert.NoFileExists(t, f.path("notes.csv"))
}

func TestRunPlan(t *testing.T) {
	f := newFixture(t)
	p := f.processor(config.Default())

	outcomes, err := p.RunPlan(&plan.Plan{Statements: []plan.Statement{
		{File: f.path("caixa.pdf"), Year: 2024},
		{File: f.path("unknown.pdf")},
		{File: f.path("nubank.pdf"), Issuer: "nubank"},
	}})
	assert.ErrorIs(t, err, parser.ErrUnrecognizedIssuer)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "caixa", outcomes[0].Result.Issuer.Name)
	assert.Equal(t, "nubank", outcomes[1].Result.Issuer.Name)
}
