package parser

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cloudflare/ahocorasick"

	"github.com/yurifrl/faturas/pkg/document"
	"github.com/yurifrl/faturas/pkg/models"
)

var (
	// ErrUnrecognizedIssuer means no issuer marker was found on the first page.
	ErrUnrecognizedIssuer = errors.New("unrecognized issuer")
	// ErrUnknownIssuer means an issuer name is not in the registry.
	ErrUnknownIssuer = errors.New("unknown issuer")
)

// Result is the ordered transaction table extracted from one document.
type Result struct {
	Issuer       Issuer
	Transactions []*models.Transaction
	Stats        Stats
}

// Empty reports whether no transaction was extracted.
func (r *Result) Empty() bool {
	return len(r.Transactions) == 0
}

type Parser struct {
	logger   *log.Logger
	registry Registry
	observer Observer

	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

type Option func(*Parser)

// WithRegistry replaces the default issuer list.
func WithRegistry(registry Registry) Option {
	return func(p *Parser) {
		p.registry = registry
	}
}

// WithObserver reports every run to o.
func WithObserver(o Observer) Option {
	return func(p *Parser) {
		p.observer = o
	}
}

func New(logger *log.Logger, opts ...Option) *Parser {
	p := &Parser{
		logger:   logger,
		registry: DefaultRegistry,
	}
	for _, opt := range opts {
		opt(p)
	}

	markers := make([]string, len(p.registry))
	for i, issuer := range p.registry {
		markers[i] = issuer.Marker
	}
	p.matcher = ahocorasick.NewStringMatcher(markers)
	return p
}

func (p *Parser) Registry() Registry {
	return p.registry
}

// Process detects the issuer of doc and extracts its transactions.
func (p *Parser) Process(doc document.Document) (*Result, error) {
	issuer, err := p.Detect(doc)
	if err != nil {
		return nil, err
	}
	return p.Extract(doc, issuer)
}
