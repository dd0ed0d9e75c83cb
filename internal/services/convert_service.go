package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"psconvert/internal/config"
	"psconvert/internal/dataprocessing"
	apperrors "psconvert/internal/errors"
	"psconvert/internal/exporter"
	"psconvert/internal/infrastructure"
	"psconvert/pkg/contracts/domain"
)

// ParseOptions overrides the configured decoding of one input.
type ParseOptions struct {
	Encoding  string
	Delimiter rune
}

// ConvertRequest describes one file conversion.
type ConvertRequest struct {
	InputPath string
	// OutputPath defaults to the input name with the format's extension,
	// placed in the configured output directory.
	OutputPath string
	Format     exporter.Format
	ScanIndex  *int
	Parse      ParseOptions
}

// ConvertResult reports the outcome of one conversion.
type ConvertResult struct {
	InputPath  string                  `json:"input_path"`
	OutputPath string                  `json:"output_path,omitempty"`
	Format     exporter.Format         `json:"format"`
	Summary    *domain.DocumentSummary `json:"summary,omitempty"`
	Duration   time.Duration           `json:"duration"`
	Err        error                   `json:"-"`
}

// Failed reports whether the conversion failed.
func (r ConvertResult) Failed() bool {
	return r.Err != nil
}

// ConvertService orchestrates parsing and exporting with tracing and metrics.
type ConvertService struct {
	parser      *dataprocessing.Parser
	exporter    *exporter.Exporter
	outputDir   string
	concurrency int
	tracer      trace.Tracer
	metrics     *infrastructure.ConversionMetrics
	logger      *slog.Logger
}

// NewConvertService creates a conversion service. A nil tracer disables
// spans and nil metrics disables recording.
func NewConvertService(cfg *config.Config, tracer trace.Tracer, metrics *infrastructure.ConversionMetrics, logger *slog.Logger) *ConvertService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("psconvert")
	}
	return &ConvertService{
		parser:      dataprocessing.NewParser(cfg.Parser, infrastructure.WithComponent(logger, "parser")),
		exporter:    exporter.New(cfg.Export, infrastructure.WithComponent(logger, "exporter")),
		outputDir:   cfg.Export.OutputDir,
		concurrency: cfg.Export.Concurrency,
		tracer:      tracer,
		metrics:     metrics,
		logger:      infrastructure.WithComponent(logger, "convert_service"),
	}
}

// WithExporter replaces the exporter, mainly to pin the Excel clock in tests.
func (s *ConvertService) WithExporter(e *exporter.Exporter) *ConvertService {
	s.exporter = e
	return s
}

func (s *ConvertService) parserFor(opts ParseOptions) *dataprocessing.Parser {
	return s.parser.WithEncoding(opts.Encoding).WithDelimiter(opts.Delimiter)
}

// Load parses the file at path.
func (s *ConvertService) Load(ctx context.Context, path string, opts ParseOptions) (*domain.Document, error) {
	return s.parse(ctx, path, func(ctx context.Context, p *dataprocessing.Parser) (*domain.Document, error) {
		return p.ParseFile(ctx, path)
	}, opts)
}

// LoadReader parses the content of r, naming it source.
func (s *ConvertService) LoadReader(ctx context.Context, source string, r io.Reader, opts ParseOptions) (*domain.Document, error) {
	return s.parse(ctx, source, func(ctx context.Context, p *dataprocessing.Parser) (*domain.Document, error) {
		return p.ParseReader(ctx, source, r)
	}, opts)
}

func (s *ConvertService) parse(ctx context.Context, source string, run func(context.Context, *dataprocessing.Parser) (*domain.Document, error), opts ParseOptions) (*domain.Document, error) {
	p := s.parserFor(opts)
	ctx = infrastructure.EnsureTraceID(ctx)

	ctx, span := s.tracer.Start(ctx, "psconvert.parse", trace.WithAttributes(
		attribute.String("source", source),
		attribute.String("encoding", p.Encoding()),
	))
	defer span.End()

	start := time.Now()
	doc, err := run(ctx, p)
	scans, points := 0, 0
	if err == nil {
		scans = doc.ScanCount()
		for _, sc := range doc.Scans {
			points += sc.Len()
		}
		span.SetAttributes(attribute.Int("scans", scans), attribute.Int("points", points))
	} else {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).ErrorContext(ctx, "parse failed",
			slog.String("source", source))
	}
	s.metrics.RecordParse(ctx, err, scans, points, time.Since(start))
	return doc, err
}

// Inspect parses the file at path and returns its summary.
func (s *ConvertService) Inspect(ctx context.Context, path string, opts ParseOptions) (*domain.DocumentSummary, error) {
	doc, err := s.Load(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	summary := doc.Summary()
	return &summary, nil
}

// Export writes doc to w and records the outcome.
func (s *ConvertService) Export(ctx context.Context, doc *domain.Document, req exporter.Request, w io.Writer) error {
	ctx, span := s.tracer.Start(ctx, "psconvert.export", trace.WithAttributes(
		attribute.String("source", doc.SourcePath),
		attribute.String("format", string(req.Format)),
	))
	defer span.End()

	err := s.exporter.Export(ctx, doc, req, w)
	s.recordExport(ctx, req.Format, err)
	return err
}

func (s *ConvertService) exportFile(ctx context.Context, doc *domain.Document, req exporter.Request, path string) error {
	ctx, span := s.tracer.Start(ctx, "psconvert.export", trace.WithAttributes(
		attribute.String("source", doc.SourcePath),
		attribute.String("format", string(req.Format)),
		attribute.String("output", path),
	))
	defer span.End()

	err := s.exporter.ExportFile(ctx, doc, req, path)
	s.recordExport(ctx, req.Format, err)
	return err
}

func (s *ConvertService) recordExport(ctx context.Context, format exporter.Format, err error) {
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).ErrorContext(ctx, "export failed",
			slog.String("format", string(format)))
	}
	s.metrics.RecordExport(ctx, string(format), err)
}

// Convert parses one file and writes the requested output file. A parse
// failure and an export failure can be told apart with apperrors.TypeOf:
// export failures are EXPORT or INDEX_OUT_OF_RANGE.
func (s *ConvertService) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	start := time.Now()
	ctx = infrastructure.EnsureTraceID(ctx)
	result := &ConvertResult{
		InputPath:  req.InputPath,
		OutputPath: req.OutputPath,
		Format:     req.Format,
	}
	if result.OutputPath == "" {
		result.OutputPath = exporter.OutputPath(req.InputPath, req.Format, s.outputDir)
	}

	doc, err := s.Load(ctx, req.InputPath, req.Parse)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result, err
	}
	summary := doc.Summary()
	result.Summary = &summary

	err = s.exportFile(ctx, doc, exporter.Request{Format: req.Format, ScanIndex: req.ScanIndex}, result.OutputPath)
	result.Err = err
	result.Duration = time.Since(start)
	return result, err
}

// ConvertReader parses r and writes the converted output to w.
func (s *ConvertService) ConvertReader(ctx context.Context, source string, r io.Reader, req ConvertRequest, w io.Writer) (*domain.Document, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	doc, err := s.LoadReader(ctx, source, r, req.Parse)
	if err != nil {
		return nil, err
	}
	if err := s.Export(ctx, doc, exporter.Request{Format: req.Format, ScanIndex: req.ScanIndex}, w); err != nil {
		return doc, err
	}
	return doc, nil
}

// ConvertBatch converts every request with at most concurrency files in
// flight (the configured value when concurrency < 1). A failing file does
// not stop the others; results keep the order of reqs.
func (s *ConvertService) ConvertBatch(ctx context.Context, reqs []ConvertRequest, concurrency int) []ConvertResult {
	if concurrency < 1 {
		concurrency = max(s.concurrency, 1)
	}

	ctx, span := s.tracer.Start(ctx, "psconvert.batch", trace.WithAttributes(
		attribute.Int("files", len(reqs)),
		attribute.Int("concurrency", concurrency),
	))
	defer span.End()

	results := make([]ConvertResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ConvertResult{InputPath: req.InputPath, Format: req.Format, Err: err}
				return nil
			}
			res, _ := s.Convert(ctx, req)
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("failed", failed))
	s.logger.InfoContext(ctx, "batch finished",
		slog.Int("files", len(reqs)),
		slog.Int("failed", failed))
	return results
}

// ParseFailure reports whether err came from reading or parsing input
// rather than from writing output.
func ParseFailure(err error) bool {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeExport, apperrors.ErrTypeIndexOutOfRange:
		return false
	}
	return err != nil
}

// String renders a one-line description of the result.
func (r ConvertResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", filepath.Base(r.InputPath), r.Err)
	}
	scans := 0
	if r.Summary != nil {
		scans = r.Summary.ScanCount
	}
	return fmt.Sprintf("%s -> %s (%d scans, %s)", r.InputPath, r.OutputPath, scans, r.Duration.Round(time.Millisecond))
}
