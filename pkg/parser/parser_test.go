package parser

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/faturas/pkg/document"
	"github.com/yurifrl/faturas/pkg/models"
)

func newTestParser(opts ...Option) *Parser {
	return New(log.New(io.Discard), opts...)
}

func dates(txs []*models.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Date().String()
	}
	return out
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize(" \n\t "))
	assert.Equal(t, "01/05 MERCADO ABC 123,45", Normalize("  01/05\tMERCADO   ABC\n123,45  "))
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want LineResult
	}{
		{
			line: "01/05 MERCADO ABC 123,45",
			want: LineResult{Fields: LineFields{DateToken: "01/05", Description: "MERCADO ABC", AmountToken: "123,45"}},
		},
		{
			line: "15/12 UBER *TRIP 1.234,56",
			want: LineResult{Fields: LineFields{DateToken: "15/12", Description: "UBER *TRIP", AmountToken: "1.234,56"}},
		},
		{
			line: "02/05 50,00",
			want: LineResult{Fields: LineFields{DateToken: "02/05", AmountToken: "50,00"}},
		},
		{
			line: "03/05",
			want: LineResult{Fields: LineFields{DateToken: "03/05", AmountToken: "05"}},
		},
		{line: "MERCADO ABC 123,45", want: LineResult{Skip: SkipNoDate}},
		{line: "1/05 MERCADO 12,00", want: LineResult{Skip: SkipNoDate}},
		{line: "01/05 MERCADO ABC", want: LineResult{Skip: SkipNoAmount}},
		{line: "", want: LineResult{Skip: SkipNoDate}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLine(tt.line))
		})
	}
}

func TestClassifyLineReconstructs(t *testing.T) {
	lines := []string{
		"01/05 MERCADO ABC 123,45",
		"28/02 PADARIA 9,90",
		"10/10 IFD*RESTAURANTE DO ZE LTDA 1.045,00",
	}
	for _, line := range lines {
		res := ClassifyLine(line)
		require.True(t, res.OK(), line)
		got := strings.Join([]string{res.Fields.DateToken, res.Fields.Description, res.Fields.AmountToken}, " ")
		assert.Equal(t, line, got)
	}
}

func TestDetect(t *testing.T) {
	p := newTestParser()

	issuer, err := p.Detect(document.FromPages("Olá, Maria\nEsta é a sua fatura Nubank", "CAIXA"))
	require.NoError(t, err)
	assert.Equal(t, Nubank, issuer)

	issuer, err = p.Detect(document.FromPages("CAIXA ECONÔMICA FEDERAL\nFatura do cartão"))
	require.NoError(t, err)
	assert.Equal(t, Caixa, issuer)
}

func TestDetectPriority(t *testing.T) {
	p := newTestParser()

	issuer, ok := p.DetectText("pagamento via caixa eletrônico - fatura nubank")
	require.True(t, ok)
	assert.Equal(t, "nubank", issuer.Name)

	reversed := newTestParser(WithRegistry(Registry{Caixa, Nubank}))
	issuer, ok = reversed.DetectText("pagamento via caixa eletrônico - fatura nubank")
	require.True(t, ok)
	assert.Equal(t, "caixa", issuer.Name)
}

func TestDetectUnrecognized(t *testing.T) {
	p := newTestParser()

	_, err := p.Detect(document.FromPages("BANCO QUALQUER S.A.\n01/05 MERCADO 10,00", "NUBANK"))
	assert.ErrorIs(t, err, ErrUnrecognizedIssuer)

	_, err = p.Detect(document.FromPages())
	assert.ErrorIs(t, err, ErrUnrecognizedIssuer)
}

func TestExtractUnsectioned(t *testing.T) {
	p := newTestParser()
	doc := document.FromPages("CAIXA\n02/05 POSTO XYZ 50,00\n01/05 MERCADO ABC 123,45\n")

	res, err := p.Process(doc)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)

	first, second := res.Transactions[0], res.Transactions[1]
	assert.Equal(t, "01/05", first.Date().String())
	assert.Equal(t, "MERCADO ABC", first.Description())
	assert.True(t, first.Amount().Equal(decimal.RequireFromString("123.45")))
	assert.Equal(t, "02/05", second.Date().String())
	assert.Equal(t, "POSTO XYZ", second.Description())
	assert.True(t, second.Amount().Equal(decimal.RequireFromString("50")))

	for _, tx := range res.Transactions {
		assert.Equal(t, "Caixa", tx.Card())
		assert.Equal(t, models.TypeDebit, tx.Type())
		assert.Empty(t, tx.Installments())
	}
}

func TestExtractSortsStable(t *testing.T) {
	p := newTestParser()
	doc := document.FromPages(
		"05/03 LOJA A 1,00\n01/03 LOJA B 2,00",
		"10/03 LOJA C 3,00\n01/03 LOJA D 4,00",
	)

	res, err := p.Extract(doc, Caixa)
	require.NoError(t, err)
	assert.Equal(t, []string{"01/03", "01/03", "05/03", "10/03"}, dates(res.Transactions))
	assert.Equal(t, "LOJA B", res.Transactions[0].Description())
	assert.Equal(t, "LOJA D", res.Transactions[1].Description())
	assert.Equal(t, 2, res.Stats.Pages)
}

func TestExtractSectioned(t *testing.T) {
	p := newTestParser()
	doc := document.FromPages(
		"NUBANK\n01/01 FORA DA SECAO 10,00\n20/02 TRANSAÇÕES DE 20 FEV A 20 MAR 99,00\n05/03 MERCADO 12,34",
		"01/03 FARMACIA 1.000,00\n10/03 PAGAMENTOS 500,00\n11/03 DEPOIS DO FIM 1,00\nTransações de 20 fev\n12/03 NOVA SECAO 2,50",
	)

	res, err := p.Extract(doc, Nubank)
	require.NoError(t, err)

	var descriptions []string
	for _, tx := range res.Transactions {
		descriptions = append(descriptions, tx.Description())
		assert.Equal(t, "Nubank", tx.Card())
	}
	assert.Equal(t, []string{"FARMACIA", "MERCADO", "NOVA SECAO"}, descriptions)
	assert.Equal(t, []string{"01/03", "05/03", "12/03"}, dates(res.Transactions))

	assert.Equal(t, 3, res.Stats.Skipped[SkipSectionMarker])
	assert.Equal(t, 3, res.Stats.Skipped[SkipOutsideSection])
}

func TestExtractWithoutStartMarker(t *testing.T) {
	p := newTestParser()
	doc := document.FromPages("NUBANK\n01/03 MERCADO 10,00\n02/03 FARMACIA 20,00")

	res, err := p.Process(doc)
	require.NoError(t, err)
	assert.Equal(t, "nubank", res.Issuer.Name)
	assert.True(t, res.Empty())
	assert.NotNil(t, res.Transactions)
}

func TestExtractSkipsMalformedRows(t *testing.T) {
	p := newTestParser()
	doc := document.FromPages(strings.Join([]string{
		"CAIXA ECONOMICA",
		"31/02 DATA INVALIDA 10,00",
		"32/13 OUTRA DATA 10,00",
		"03/04 VALOR INVALIDO 1,2,3",
		"04/04 SEM VALOR",
		"29/02 BISSEXTO 7,00",
		"05/04 OK 1.234,56",
	}, "\n"))

	res, err := p.Extract(doc, Caixa)
	require.NoError(t, err)
	assert.Equal(t, []string{"29/02", "05/04"}, dates(res.Transactions))

	assert.Equal(t, 7, res.Stats.Lines)
	assert.Equal(t, 2, res.Stats.Transactions)
	assert.Equal(t, 2, res.Stats.Skipped[SkipBadDate])
	assert.Equal(t, 1, res.Stats.Skipped[SkipBadAmount])
	assert.Equal(t, 1, res.Stats.Skipped[SkipNoAmount])
	assert.Equal(t, 1, res.Stats.Skipped[SkipNoDate])
	assert.Equal(t, 5, res.Stats.SkippedTotal())
}

func TestExtractIdempotent(t *testing.T) {
	p := newTestParser()
	doc := document.FromPages("NUBANK\nTRANSAÇÕES DE MARÇO\n10/03 A 1,00\n01/03 B 2,00\n05/03 C 3,00")

	first, err := p.Process(doc)
	require.NoError(t, err)
	second, err := p.Process(doc)
	require.NoError(t, err)

	assert.Equal(t, first.Transactions, second.Transactions)
	assert.Equal(t, []string{"01/03", "05/03", "10/03"}, dates(first.Transactions))
}

type failingDoc struct {
	document.Pages
}

func (failingDoc) PageText(n int) (string, error) {
	if n == 1 {
		return "CAIXA\n01/01 A 1,00", nil
	}
	return "", io.ErrUnexpectedEOF
}

func TestExtractPageError(t *testing.T) {
	p := newTestParser()
	_, err := p.Process(failingDoc{document.FromPages("", "")})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type recordingObserver struct {
	issuers      []string
	stats        []Stats
	unrecognized int
}

func (o *recordingObserver) ObserveExtraction(issuer string, stats Stats) {
	o.issuers = append(o.issuers, issuer)
	o.stats = append(o.stats, stats)
}

func (o *recordingObserver) ObserveUnrecognized() {
	o.unrecognized++
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestParser(WithObserver(obs))

	_, err := p.Process(document.FromPages("CAIXA\n01/01 A 1,00\nrodapé"))
	require.NoError(t, err)
	_, err = p.Process(document.FromPages("nada aqui"))
	require.ErrorIs(t, err, ErrUnrecognizedIssuer)

	assert.Equal(t, []string{"caixa"}, obs.issuers)
	assert.Equal(t, 1, obs.stats[0].Transactions)
	assert.Equal(t, 2, obs.stats[0].Skipped[SkipNoDate])
	assert.Equal(t, 1, obs.unrecognized)
}

func TestRegistryLookup(t *testing.T) {
	issuer, err := DefaultRegistry.Lookup("NuBank")
	require.NoError(t, err)
	assert.Equal(t, Nubank, issuer)

	_, err = DefaultRegistry.Lookup("itau")
	assert.ErrorIs(t, err, ErrUnknownIssuer)

	assert.Equal(t, []string{"nubank", "caixa"}, DefaultRegistry.Names())
}
