package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yurifrl/faturas/pkg/document"
	"github.com/yurifrl/faturas/pkg/models"
)

// Extract reads every page of doc with the layout rules of issuer and returns
// the transactions sorted by date. Lines that cannot be parsed are counted in
// the result stats and otherwise ignored. Only page read failures are errors.
func (p *Parser) Extract(doc document.Document, issuer Issuer) (*Result, error) {
	stats := newStats()
	transactions := make([]*models.Transaction, 0)
	section := newSectionGate(issuer)

	for n := 1; n <= doc.NumPages(); n++ {
		raw, err := doc.PageText(n)
		if err != nil {
			return nil, fmt.Errorf("error reading page %d: %w", n, err)
		}
		stats.Pages++

		for _, line := range splitLines(raw) {
			stats.Lines++

			if reason, ok := section.admit(line); !ok {
				stats.skip(reason)
				continue
			}

			tx, reason := p.buildTransaction(line, issuer)
			if tx == nil {
				p.logger.Debug("skipping line", "issuer", issuer.Name, "page", n, "reason", reason, "line", line)
				stats.skip(reason)
				continue
			}
			transactions = append(transactions, tx)
		}
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date().Before(transactions[j].Date())
	})
	stats.Transactions = len(transactions)

	p.logger.Debug("extraction complete",
		"issuer", issuer.Name,
		"pages", stats.Pages,
		"lines", stats.Lines,
		"transactions", stats.Transactions,
		"skipped", stats.SkippedTotal())

	if p.observer != nil {
		p.observer.ObserveExtraction(issuer.Name, stats)
	}

	return &Result{Issuer: issuer, Transactions: transactions, Stats: stats}, nil
}

func (p *Parser) buildTransaction(line string, issuer Issuer) (*models.Transaction, SkipReason) {
	res := ClassifyLine(line)
	if !res.OK() {
		return nil, res.Skip
	}

	tx, err := models.NewTransaction(res.Fields.Description).
		SetAmount(res.Fields.AmountToken).
		SetDate(res.Fields.DateToken).
		SetCard(issuer.Card).
		Build()
	switch {
	case err == nil:
		return tx, ""
	case errors.Is(err, models.ErrInvalidAmount):
		return nil, SkipBadAmount
	default:
		return nil, SkipBadDate
	}
}

// sectionGate tracks whether the current line lies between the issuer's
// start and end markers. It lives for one extraction run.
type sectionGate struct {
	issuer Issuer
	start  string
	end    string
	inside bool
}

func newSectionGate(issuer Issuer) *sectionGate {
	return &sectionGate{
		issuer: issuer,
		start:  strings.ToUpper(issuer.SectionStart),
		end:    strings.ToUpper(issuer.SectionEnd),
	}
}

// admit reports whether line is a transaction candidate. Marker lines are
// never candidates.
func (g *sectionGate) admit(line string) (SkipReason, bool) {
	if !g.issuer.Sectioned() {
		return "", true
	}

	upper := strings.ToUpper(line)
	if strings.Contains(upper, g.start) {
		g.inside = true
		return SkipSectionMarker, false
	}
	if g.end != "" && strings.Contains(upper, g.end) {
		g.inside = false
		return SkipSectionMarker, false
	}
	if !g.inside {
		return SkipOutsideSection, false
	}
	return "", true
}
