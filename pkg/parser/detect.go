package parser

import (
	"fmt"
	"strings"

	"github.com/yurifrl/faturas/pkg/document"
)

// Detect inspects the first page and returns the first registered issuer
// whose marker it contains.
func (p *Parser) Detect(doc document.Document) (Issuer, error) {
	if doc.NumPages() == 0 {
		p.notifyUnrecognized()
		return Issuer{}, fmt.Errorf("%w: document has no pages", ErrUnrecognizedIssuer)
	}

	raw, err := doc.PageText(1)
	if err != nil {
		return Issuer{}, fmt.Errorf("error reading first page: %w", err)
	}

	issuer, ok := p.DetectText(raw)
	if !ok {
		p.logger.Debug("no issuer marker on first page", "markers", len(p.registry))
		p.notifyUnrecognized()
		return Issuer{}, ErrUnrecognizedIssuer
	}

	p.logger.Debug("detected issuer", "issuer", issuer.Name)
	return issuer, nil
}

// DetectText runs detection over already extracted first page text.
func (p *Parser) DetectText(text string) (Issuer, bool) {
	text = strings.ToUpper(Normalize(text))

	p.mu.Lock()
	hits := p.matcher.Match([]byte(text))
	p.mu.Unlock()

	if len(hits) == 0 {
		return Issuer{}, false
	}

	best := hits[0]
	for _, idx := range hits[1:] {
		if idx < best {
			best = idx
		}
	}
	return p.registry[best], true
}

func (p *Parser) notifyUnrecognized() {
	if p.observer != nil {
		p.observer.ObserveUnrecognized()
	}
}
