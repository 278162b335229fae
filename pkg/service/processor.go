package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/faturas/pkg/config"
	"github.com/yurifrl/faturas/pkg/document"
	"github.com/yurifrl/faturas/pkg/export"
	"github.com/yurifrl/faturas/pkg/parser"
	"github.com/yurifrl/faturas/pkg/plan"
)

// ErrNoTransactions means the issuer was recognized but nothing was extracted.
var ErrNoTransactions = errors.New("no transactions found")

// Opener opens a statement file.
type Opener func(path string) (document.Document, error)

func openPDF(path string) (document.Document, error) {
	return document.Open(path)
}

// Statement is one file to convert with its per-file settings.
type Statement struct {
	Path   string
	Issuer string
	Year   int
}

// Outcome describes a converted statement.
type Outcome struct {
	Input  string
	Output string
	Result *parser.Result
}

type Processor struct {
	config *config.Config
	logger *log.Logger
	parser *parser.Parser
	open   Opener
	filter export.FilterFunc
}

type Option func(*Processor)

func WithOpener(open Opener) Option {
	return func(p *Processor) {
		p.open = open
	}
}

// WithFilter drops exported rows rejected by filter.
func WithFilter(filter export.FilterFunc) Option {
	return func(p *Processor) {
		p.filter = filter
	}
}

func NewProcessor(cfg *config.Config, logger *log.Logger, prs *parser.Parser, opts ...Option) *Processor {
	p := &Processor{
		config: cfg,
		logger: logger,
		parser: prs,
		open:   openPDF,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDirectory converts every PDF in dir. Failures are logged per file.
func (p *Processor) ProcessDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("error reading directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		if _, err := p.ProcessFile(filepath.Join(dir, entry.Name())); err != nil {
			p.logger.Error("failed to process file", "file", entry.Name(), "error", err)
		}
	}

	return nil
}

// ProcessFile converts one statement using the configured issuer and year.
func (p *Processor) ProcessFile(path string) (*Outcome, error) {
	return p.ProcessStatement(Statement{Path: path, Issuer: p.config.Issuer, Year: p.config.Year})
}

// ProcessStatement extracts st and writes the export file.
func (p *Processor) ProcessStatement(st Statement) (*Outcome, error) {
	result, err := p.Extract(st.Path, st.Issuer)
	if err != nil {
		return nil, err
	}

	outPath := export.OutputPath(st.Path, p.config.OutputDir, p.config.Format)
	if err := p.write(outPath, result, st.Year); err != nil {
		return nil, err
	}

	p.logger.Info("processed file successfully",
		"input", st.Path,
		"output", outPath,
		"issuer", result.Issuer.Name,
		"transactions", len(result.Transactions),
		"skipped", result.Stats.SkippedTotal())
	return &Outcome{Input: st.Path, Output: outPath, Result: result}, nil
}

// Extract opens path and returns its transactions. An empty issuer name
// means auto detection. The document is closed before returning.
func (p *Processor) Extract(path, issuerName string) (*parser.Result, error) {
	doc, err := p.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	var result *parser.Result
	if issuerName == "" {
		result, err = p.parser.Process(doc)
	} else {
		var issuer parser.Issuer
		issuer, err = p.parser.Registry().Lookup(issuerName)
		if err != nil {
			return nil, err
		}
		result, err = p.parser.Extract(doc, issuer)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	p.logger.Debug("extracted statement", "file", path, "issuer", result.Issuer.Name, "stats", result.Stats)

	if result.Empty() {
		return result, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoTransactions)
	}
	return result, nil
}

// Detect returns the issuer of the statement at path.
func (p *Processor) Detect(path string) (parser.Issuer, error) {
	doc, err := p.open(path)
	if err != nil {
		return parser.Issuer{}, err
	}
	defer doc.Close()

	return p.parser.Detect(doc)
}

// RunPlan converts every statement of pl. It keeps going after failures and
// returns them joined.
func (p *Processor) RunPlan(pl *plan.Plan) ([]*Outcome, error) {
	var (
		outcomes []*Outcome
		errs     []error
	)
	for _, st := range pl.Statements {
		outcome, err := p.ProcessStatement(Statement{Path: st.File, Issuer: st.Issuer, Year: st.Year})
		if err != nil {
			p.logger.Error("failed to process statement", "file", st.File, "error", err)
			errs = append(errs, err)
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, errors.Join(errs...)
}

func (p *Processor) write(outPath string, result *parser.Result, year int) error {
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	output, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer output.Close()

	opts := export.Options{Year: year, Filter: p.filter}
	if err := export.Write(output, p.config.Format, result.Transactions, opts); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	return output.Close()
}
