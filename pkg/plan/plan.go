package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan is a batch of statements converted in one run.
type Plan struct {
	OutputDir  string      `yaml:"output_dir"`
	Format     string      `yaml:"format"`
	Statements []Statement `yaml:"statements"`
}

// Statement is one statement file. Issuer forces an extractor instead of
// detection, Year anchors the DD/MM dates of the export.
type Statement struct {
	File   string `yaml:"file"`
	Issuer string `yaml:"issuer"`
	Year   int    `yaml:"year"`
}

func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Statements) == 0 {
		return nil, fmt.Errorf("plan has no statements")
	}
	for i, st := range p.Statements {
		if strings.TrimSpace(st.File) == "" {
			return nil, fmt.Errorf("statement %d has no file", i+1)
		}
		if st.Year < 0 {
			return nil, fmt.Errorf("statement %d has invalid year %d", i+1, st.Year)
		}
	}

	// Relative statement paths are resolved against the plan's directory.
	base := filepath.Dir(path)
	for i := range p.Statements {
		p.Statements[i].File = resolve(base, p.Statements[i].File)
	}
	if p.OutputDir != "" {
		p.OutputDir = resolve(base, p.OutputDir)
	}
	return &p, nil
}

// resolve expands ~ and makes relative paths relative to base.
func resolve(base, path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func (p *Plan) Print(w io.Writer) {
	fmt.Fprintf(w, "output: %s (%s)\n", p.OutputDir, p.Format)
	for i, st := range p.Statements {
		issuer := st.Issuer
		if issuer == "" {
			issuer = "auto"
		}
		fmt.Fprintf(w, "[%d] file=%s issuer=%s year=%d\n", i+1, st.File, issuer, st.Year)
	}
}
