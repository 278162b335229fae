package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yurifrl/faturas/pkg/config"
	"github.com/yurifrl/faturas/pkg/export"
	"github.com/yurifrl/faturas/pkg/metrics"
	"github.com/yurifrl/faturas/pkg/parser"
	"github.com/yurifrl/faturas/pkg/plan"
	"github.com/yurifrl/faturas/pkg/service"
)

var (
	cliFilters filters
	cfgFile    string
	debug      bool
)

// app holds everything a command needs once flags are parsed.
type app struct {
	config    *config.Config
	logger    *log.Logger
	recorder  *metrics.Recorder
	processor *service.Processor
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level := cfg.Level()
	if debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    level == log.DebugLevel,
		Prefix:          "faturas",
		Level:           level,
	})

	cliFilters.markChanged(cmd.Flags())
	filter, err := cliFilters.toFilterFunc()
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	prs := parser.New(logger, parser.WithObserver(recorder))
	processor := service.NewProcessor(cfg, logger, prs, service.WithFilter(filter))

	return &app{config: cfg, logger: logger, recorder: recorder, processor: processor}, nil
}

// finish writes the metrics file when one is configured.
func (a *app) finish() {
	if a.config.MetricsFile == "" {
		return
	}
	if err := a.recorder.WriteFile(a.config.MetricsFile); err != nil {
		a.logger.Warn("failed to write metrics file", "error", err, "file", a.config.MetricsFile)
	}
}

// describe turns document level failures into the messages shown to users.
func describe(err error) string {
	switch {
	case errors.Is(err, parser.ErrUnrecognizedIssuer):
		return "unsupported document: could not identify the statement issuer"
	case errors.Is(err, service.ErrNoTransactions):
		return "no transactions found in the statement"
	default:
		return err.Error()
	}
}

var rootCmd = &cobra.Command{
	Use:           "faturas",
	Short:         "Extract credit card statement transactions from PDF faturas",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <input_path>",
	Short: "Convert statements to CSV or XLSX",
	Long:  "Convert a PDF statement, every PDF of a directory, or every file matching a glob.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.finish()

		matches, err := filepath.Glob(args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files found matching pattern %s", args[0])
		}

		var failed int
		for _, match := range matches {
			fileInfo, err := os.Stat(match)
			if err != nil {
				a.logger.Warn("failed to stat file", "error", err, "file", match)
				failed++
				continue
			}

			if fileInfo.IsDir() {
				if err := a.processor.ProcessDirectory(match); err != nil {
					a.logger.Warn("failed to process directory", "error", err, "dir", match)
					failed++
				}
				continue
			}

			outcome, err := a.processor.ProcessFile(match)
			if err != nil {
				a.logger.Error(describe(err), "file", match)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d transactions)\n", match, outcome.Output, len(outcome.Result.Transactions))
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d inputs failed", failed, len(matches))
		}
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Print the issuer of a statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.finish()

		issuer, err := a.processor.Detect(args[0])
		if err != nil {
			return errors.New(describe(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), issuer.Name)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the transactions of a statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.finish()

		result, err := a.processor.Extract(args[0], a.config.Issuer)
		if err != nil {
			return errors.New(describe(err))
		}

		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			pp.Println(result.Stats)
			pp.Println(export.Rows(result.Transactions, export.Options{Year: a.config.Year}))
			return nil
		}

		filter, err := cliFilters.toFilterFunc()
		if err != nil {
			return err
		}
		rows := export.Rows(result.Transactions, export.Options{Year: a.config.Year, Filter: filter})
		printTable(cmd.OutOrStdout(), result, rows)
		return nil
	},
}

// printTable lists the rows that survived the filters under a header
// counting them.
func printTable(out io.Writer, result *parser.Result, rows []export.Row) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	amountStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	header := fmt.Sprintf("%s: %d transactions", result.Issuer.Card, len(rows))
	if len(rows) != len(result.Transactions) {
		header = fmt.Sprintf("%s: %d of %d transactions", result.Issuer.Card, len(rows), len(result.Transactions))
	}
	fmt.Fprintln(out, headerStyle.Render(header))
	for _, row := range rows {
		fmt.Fprintf(out, "%-10s | %-40s | %s\n", row.Date, row.Description, amountStyle.Render(row.Amount))
	}
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d lines read, %d skipped", result.Stats.Lines, result.Stats.SkippedTotal())))
}

var batchCmd = &cobra.Command{
	Use:   "batch <plan_file>",
	Short: "Convert every statement listed in a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.finish()

		if err := applyPlan(a.config, p, cmd.Flags()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Plan %s\n", args[0])
		p.Print(out)

		outcomes, err := a.processor.RunPlan(p)
		for _, o := range outcomes {
			fmt.Fprintf(out, "  - %s -> %s (%d transactions)\n", o.Input, o.Output, len(o.Result.Transactions))
		}
		if err != nil {
			return fmt.Errorf("%d of %d statements failed: %w", len(p.Statements)-len(outcomes), len(p.Statements), err)
		}
		return nil
	},
}

// applyPlan lets the plan's output settings fill in whatever the command line
// did not set explicitly.
func applyPlan(cfg *config.Config, p *plan.Plan, flags *pflag.FlagSet) error {
	if p.OutputDir != "" && !flags.Changed("output-dir") {
		cfg.OutputDir = p.OutputDir
	}
	if p.Format != "" && !flags.Changed("format") {
		format, err := export.ParseFormat(p.Format)
		if err != nil {
			return err
		}
		cfg.Format = format
	}
	return nil
}

func init() {
	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (default is faturas.yaml)")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.StringP("output-dir", "o", "", "Output directory (default: next to the input file)")
	flags.StringP("format", "f", string(export.CSV), "Export format: csv or xlsx")
	flags.Int("year", 0, "Statement year used to anchor DD/MM dates")
	flags.String("issuer", "", "Force an issuer instead of detecting it (nubank, caixa)")
	flags.String("log-level", "info", "Log level")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file when done")

	// Filter flags (global)
	flags.StringVar(&cliFilters.startDate, "start", "", "Start date (DD/MM)")
	flags.StringVar(&cliFilters.endDate, "end", "", "End date (DD/MM)")
	flags.Float64Var(&cliFilters.minAmount, "min", 0, "Minimum amount")
	flags.Float64Var(&cliFilters.maxAmount, "max", 0, "Maximum amount")
	flags.StringVar(&cliFilters.description, "description", "", "Filter by description (case insensitive)")

	showCmd.Flags().Bool("dump", false, "Pretty print the raw extraction result")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
