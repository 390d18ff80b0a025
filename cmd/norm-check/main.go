package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"norm-check/internal/config"
	"norm-check/internal/engine"
	"norm-check/internal/extractor"
	"norm-check/internal/logger"
	"norm-check/internal/reporter"
	"norm-check/internal/scanner"
	"norm-check/internal/server"
)

var (
	configPath string
	logLevel   string
	reportFmt  string
	outputFile string
	excludes   []string
	workers    int
	port       int
)

// set by loadSettings before any subcommand runs
var (
	cfg    *config.Config
	appLog *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "norm-check",
	Short: "A normalization checker for PostgreSQL schemas",
	Long: `norm-check reads PostgreSQL DDL files and pg_dump output, rebuilds every
table definition and scores each schema against the first three normal forms.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLog != nil {
			_ = appLog.Sync()
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Scan files and directories and report normal form compliance",
	RunE:  runAnalyze,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a DDL file only uses supported statements",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var extractCmd = &cobra.Command{
	Use:   "extract <dump>",
	Short: "List the CREATE TABLE blocks found in a dump",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Print the supported dialects, statements and rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(engine.New(engine.WithLogger(appLog)).SupportedFeatures())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	analyzeCmd.Flags().StringVarP(&reportFmt, "report", "r", "console", "Report format (console, json, yaml)")
	analyzeCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringSliceVarP(&excludes, "exclude", "e", nil, "Glob patterns to exclude from scan")
	analyzeCmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of files analysed concurrently")

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")

	rootCmd.AddCommand(analyzeCmd, validateCmd, extractCmd, featuresCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings reads the config file and lets explicitly set flags override it.
func loadSettings(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if configPath != "" {
		var err error
		if c, err = config.Load(configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("report") {
		c.Report.Format = reportFmt
	}
	if flags.Changed("out") {
		c.Report.Output = outputFile
	}
	if flags.Changed("exclude") {
		c.Scan.Excludes = excludes
	}
	if flags.Changed("workers") {
		c.Scan.Workers = workers
	}
	if flags.Changed("port") {
		c.Server.Port = port
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.New(c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}
	cfg, appLog = c, l
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	eng := engine.New(engine.WithLogger(appLog))
	walker := scanner.NewFileWalker(cfg.Scan.Extensions, cfg.Scan.Excludes)
	pool := scanner.NewWorkerPool(cfg.Scan.Workers, scanner.EngineProcessor(eng))

	appLog.Info("scan started", zap.Strings("roots", roots), zap.Int("workers", pool.Concurrency))
	reports, scanErr := scanner.Scan(cmd.Context(), walker, pool, roots)
	appLog.Info("scan complete", zap.Int("files", len(reports)))

	out := cmd.OutOrStdout()
	if cfg.Report.Output != "" {
		f, err := os.Create(cfg.Report.Output)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	rpt, err := reporter.New(cfg.Report.Format, out)
	if err != nil {
		return err
	}
	if err := rpt.Report(reports); err != nil {
		return fmt.Errorf("reporting failed: %w", err)
	}

	err = scanErr
	for _, fr := range reports {
		if fr.Error != "" {
			err = multierr.Append(err, fmt.Errorf("%s: %s", fr.Path, fr.Error))
		}
	}
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	res := engine.New(engine.WithLogger(appLog)).ValidateDDL(string(content))
	out := cmd.OutOrStdout()
	for _, e := range res.Errors {
		color.New(color.FgRed).Fprintf(out, "error: %s\n", e)
	}
	for _, w := range res.Warnings {
		color.New(color.FgYellow).Fprintf(out, "warning: %s\n", w)
	}
	if !res.IsValid {
		return &engine.ValidationError{Result: res}
	}
	color.New(color.FgGreen).Fprintf(out, "%s is valid\n", args[0])
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	dump := extractor.NewDumpExtractor()
	mgr := extractor.NewManager()
	for _, ext := range cfg.Scan.Extensions {
		mgr.Register(ext, dump)
	}

	res, err := mgr.Extract(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s dump\n", args[0], res.Metadata.DetectedFormat)
	for _, t := range res.Tables {
		fmt.Fprintf(out, "  %s.%s (line %d)\n", t.Schema, t.Name, t.Line)
	}
	for _, e := range res.Errors {
		color.New(color.FgYellow).Fprintf(out, "  warning: %s\n", e)
	}
	fmt.Fprintf(out, "%d table(s), %d of %d bytes extracted\n", len(res.Tables), res.Metadata.ExtractedSize, res.Metadata.TotalSize)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(engine.New(engine.WithLogger(appLog)), appLog)
	return srv.ListenAndServe(ctx, cfg.Server.Port)
}
