package parser

import (
	"fmt"
	"strings"
)

// Issuer describes the layout of one bank's statement.
type Issuer struct {
	// Name identifies the issuer on the command line and in plans.
	Name string
	// Card is the label written to every transaction.
	Card string
	// Marker is searched in the upper-cased first page to detect the issuer.
	Marker string
	// SectionStart and SectionEnd delimit the lines that hold transactions.
	// Issuers without a start marker treat every line as a candidate.
	SectionStart string
	SectionEnd   string
}

func (i Issuer) Sectioned() bool {
	return i.SectionStart != ""
}

var (
	Nubank = Issuer{
		Name:         "nubank",
		Card:         "Nubank",
		Marker:       "NUBANK",
		SectionStart: "TRANSAÇÕES DE",
		SectionEnd:   "PAGAMENTOS",
	}
	Caixa = Issuer{
		Name:   "caixa",
		Card:   "Caixa",
		Marker: "CAIXA",
	}
)

// Registry is the ordered list of known issuers. Detection prefers earlier
// entries when several markers are present.
type Registry []Issuer

// DefaultRegistry holds every supported issuer in detection order.
var DefaultRegistry = Registry{Nubank, Caixa}

// Lookup finds an issuer by name, ignoring case.
func (r Registry) Lookup(name string) (Issuer, error) {
	for _, issuer := range r {
		if strings.EqualFold(issuer.Name, name) {
			return issuer, nil
		}
	}
	return Issuer{}, fmt.Errorf("%w: %q", ErrUnknownIssuer, name)
}

func (r Registry) Names() []string {
	names := make([]string, len(r))
	for i, issuer := range r {
		names[i] = issuer.Name
	}
	return names
}
