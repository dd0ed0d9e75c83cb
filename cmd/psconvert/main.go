package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"unicode/utf8"

	"github.com/alexflint/go-arg"

	"psconvert/internal/app"
	"psconvert/internal/config"
	"psconvert/internal/exporter"
	"psconvert/internal/files"
	"psconvert/internal/infrastructure"
	"psconvert/internal/services"
	"psconvert/pkg/contracts"
	"psconvert/pkg/contracts/domain"
)

// Exit codes
const (
	exitOK           = 0
	exitParseFailure = 1
	exitExportFailed = 2
	exitUsage        = 3
)

type convertCmd struct {
	Input     string `arg:"positional,required" help:"PStouch CSV export"`
	Output    string `arg:"-o,--output" help:"output file (default: input name with the format's extension)"`
	Format    string `arg:"-f,--format" help:"csv, excel, txt or chi (default from config)"`
	Scan      *int   `arg:"-s,--scan" help:"export only this scan (0-based)"`
	Encoding  string `arg:"-e,--encoding" help:"input encoding, e.g. utf-16, utf-8, windows-1252"`
	Delimiter string `arg:"-d,--delimiter" help:"cell delimiter; \\t for tab"`
}

type batchCmd struct {
	Inputs    []string `arg:"positional,required" help:"PStouch CSV exports, directories or glob patterns"`
	OutDir    string   `arg:"--out-dir,required" help:"directory receiving the converted files"`
	Format    string   `arg:"-f,--format" help:"csv, excel, txt or chi (default from config)"`
	Scan      *int     `arg:"-s,--scan" help:"export only this scan of every file"`
	Jobs      int      `arg:"-j,--jobs" help:"files converted concurrently (default from config)"`
	Encoding  string   `arg:"-e,--encoding" help:"input encoding"`
	Delimiter string   `arg:"-d,--delimiter" help:"cell delimiter"`
}

type inspectCmd struct {
	Inputs    []string `arg:"positional,required" help:"PStouch CSV exports, directories or glob patterns"`
	JSON      bool     `arg:"--json" help:"print summaries as JSON"`
	Encoding  string   `arg:"-e,--encoding" help:"input encoding"`
	Delimiter string   `arg:"-d,--delimiter" help:"cell delimiter"`
}

type serveCmd struct {
	Addr string `arg:"--addr" help:"listen address (default from config)"`
}

type cliArgs struct {
	Convert *convertCmd `arg:"subcommand:convert" help:"convert one export"`
	Batch   *batchCmd   `arg:"subcommand:batch" help:"convert many exports concurrently"`
	Inspect *inspectCmd `arg:"subcommand:inspect" help:"list the scans of exports"`
	Serve   *serveCmd   `arg:"subcommand:serve" help:"run the HTTP conversion service"`

	Config      string `arg:"--config,env:PSCONVERT_CONFIG" help:"YAML configuration file"`
	LogLevel    string `arg:"--log-level" help:"debug, info, warn or error"`
	MetricsFile string `arg:"--metrics-file" help:"write Prometheus metrics to this file on exit"`
}

func (cliArgs) Version() string {
	return contracts.GetVersionString()
}

func (cliArgs) Description() string {
	return "Convert PalmSens PStouch CSV exports to Excel, CSV, TXT and CHI."
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli carries what every subcommand needs.
type cli struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	service   *services.ConvertService
	stdout    io.Writer
	stderr    io.Writer
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	var args cliArgs
	p, err := arg.NewParser(arg.Config{Program: "psconvert"}, &args)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	switch err := p.Parse(argv); {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(stdout)
		return exitOK
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(stdout, args.Version())
		return exitOK
	case err != nil:
		p.WriteUsage(stderr)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if p.Subcommand() == nil {
		p.WriteUsage(stderr)
		fmt.Fprintln(stderr, "error: a command is required")
		return exitUsage
	}

	cfg, err := config.Load(args.Config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if args.LogLevel != "" {
		cfg.Logging.Level = args.LogLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
	}

	logger, err := infrastructure.CreateLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer infrastructure.CloseLogFile()
	slog.SetDefault(logger)

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, stderr, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	metrics, err := infrastructure.CreateConversionMetrics(telemetry.Meter)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	c := &cli{
		cfg:       cfg,
		logger:    logger,
		telemetry: telemetry,
		service:   services.NewConvertService(cfg, telemetry.Tracer, metrics, logger),
		stdout:    stdout,
		stderr:    stderr,
	}

	var code int
	switch {
	case args.Convert != nil:
		code = c.convert(infrastructure.StartRun(ctx, "convert"), args.Convert)
	case args.Batch != nil:
		code = c.batch(infrastructure.StartRun(ctx, "batch"), args.Batch)
	case args.Inspect != nil:
		code = c.inspect(infrastructure.StartRun(ctx, "inspect"), args.Inspect)
	case args.Serve != nil:
		code = c.serve(ctx, args.Serve)
	}

	if args.MetricsFile != "" {
		if err := telemetry.WriteMetricsFile(args.MetricsFile); err != nil {
			fmt.Fprintf(stderr, "error: writing metrics file: %v\n", err)
		}
	}
	if args.Serve == nil {
		if err := telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.WarnContext(ctx, "telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
	return code
}

func (c *cli) convert(ctx context.Context, cmd *convertCmd) int {
	format, opts, code := c.conversionOptions(cmd.Format, cmd.Encoding, cmd.Delimiter)
	if code != exitOK {
		return code
	}

	fmt.Fprintf(c.stdout, "Loading file %s...\n", cmd.Input)
	result, err := c.service.Convert(ctx, services.ConvertRequest{
		InputPath:  cmd.Input,
		OutputPath: cmd.Output,
		Format:     format,
		ScanIndex:  cmd.Scan,
		Parse:      opts,
	})
	if result.Summary != nil {
		printScanList(c.stdout, result.Summary)
	}
	if err != nil {
		return c.reportFailure(result.InputPath, err)
	}

	fmt.Fprintf(c.stdout, "Exported %s to %s\n", format, result.OutputPath)
	return exitOK
}

func (c *cli) batch(ctx context.Context, cmd *batchCmd) int {
	format, opts, code := c.conversionOptions(cmd.Format, cmd.Encoding, cmd.Delimiter)
	if code != exitOK {
		return code
	}

	inputs, code := c.expandInputs(cmd.Inputs)
	if code != exitOK {
		return code
	}
	if err := files.EnsureOutputDir(c.logger, cmd.OutDir); err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return exitExportFailed
	}

	reqs := make([]services.ConvertRequest, 0, len(inputs))
	for _, input := range inputs {
		reqs = append(reqs, services.ConvertRequest{
			InputPath:  input,
			OutputPath: exporter.OutputPath(input, format, cmd.OutDir),
			Format:     format,
			ScanIndex:  cmd.Scan,
			Parse:      opts,
		})
	}

	results := c.service.ConvertBatch(ctx, reqs, cmd.Jobs)

	code = exitOK
	for _, r := range results {
		if r.Failed() {
			code = max(code, c.reportFailure(r.InputPath, r.Err))
			continue
		}
		fmt.Fprintln(c.stdout, r.String())
	}
	return code
}

func (c *cli) inspect(ctx context.Context, cmd *inspectCmd) int {
	opts, code := parseOptions(cmd.Encoding, cmd.Delimiter, c.stderr)
	if code != exitOK {
		return code
	}

	inputs, code := c.expandInputs(cmd.Inputs)
	if code != exitOK {
		return code
	}

	summaries := make([]*domain.DocumentSummary, 0, len(inputs))
	for _, input := range inputs {
		summary, err := c.service.Inspect(ctx, input, opts)
		if err != nil {
			code = max(code, c.reportFailure(input, err))
			continue
		}
		summaries = append(summaries, summary)
	}

	if cmd.JSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			fmt.Fprintf(c.stderr, "error: %v\n", err)
			return exitExportFailed
		}
		return code
	}

	for _, s := range summaries {
		fmt.Fprintf(c.stdout, "%s\n", s.SourcePath)
		if s.RecordedAt != "" {
			fmt.Fprintf(c.stdout, "Recorded at %s\n", s.RecordedAt)
		}
		printScanList(c.stdout, s)
	}
	return code
}

func (c *cli) serve(ctx context.Context, cmd *serveCmd) int {
	if cmd.Addr != "" {
		c.cfg.Server.Addr = cmd.Addr
	}

	application, err := app.NewApplication(c.cfg, c.logger, c.telemetry)
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return exitUsage
	}
	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return exitUsage
	}
	return exitOK
}

// expandInputs resolves directories and glob patterns into file paths.
func (c *cli) expandInputs(args []string) ([]string, int) {
	found, err := files.NewDiscovery("").Expand(args)
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return nil, exitUsage
	}
	if len(found) == 0 {
		fmt.Fprintln(c.stderr, "error: no input files")
		return nil, exitUsage
	}
	return files.Paths(found), exitOK
}

// conversionOptions resolves the output format and parse overrides given on
// the command line, falling back to the configured format.
func (c *cli) conversionOptions(formatName, encoding, delimiter string) (exporter.Format, services.ParseOptions, int) {
	if formatName == "" {
		formatName = c.cfg.Export.Format
	}
	format, err := exporter.ParseFormat(formatName)
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return "", services.ParseOptions{}, exitUsage
	}
	opts, code := parseOptions(encoding, delimiter, c.stderr)
	return format, opts, code
}

func parseOptions(encoding, delimiter string, stderr io.Writer) (services.ParseOptions, int) {
	opts := services.ParseOptions{Encoding: encoding}
	switch delimiter {
	case "":
	case `\t`, "tab":
		opts.Delimiter = '\t'
	default:
		if utf8.RuneCountInString(delimiter) != 1 {
			fmt.Fprintf(stderr, "error: delimiter must be a single character, got %q\n", delimiter)
			return opts, exitUsage
		}
		opts.Delimiter, _ = utf8.DecodeRuneInString(delimiter)
	}
	return opts, exitOK
}

// reportFailure prints err naming the file and maps it to an exit code.
func (c *cli) reportFailure(input string, err error) int {
	if services.ParseFailure(err) {
		fmt.Fprintf(c.stderr, "error: cannot read %s: %v\n", filepath.Base(input), err)
		return exitParseFailure
	}
	fmt.Fprintf(c.stderr, "error: cannot export %s: %v\n", filepath.Base(input), err)
	return exitExportFailed
}

func printScanList(w io.Writer, s *domain.DocumentSummary) {
	fmt.Fprintf(w, "Loaded %d scans:\n", s.ScanCount)
	for _, scan := range s.Scans {
		fmt.Fprintf(w, "  %d: %s (%d points)\n", scan.Index, scan.Name, scan.Points)
	}
}
