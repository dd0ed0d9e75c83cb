package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"psconvert/internal/config"
	apperrors "psconvert/internal/errors"
	"psconvert/pkg/contracts/domain"
)

// Parser turns PStouch exports into Documents. A Parser holds no state
// between calls and is safe for concurrent use.
type Parser struct {
	encoding  string
	delimiter rune
	detect    DetectOptions
	extract   ExtractOptions
	logger    *slog.Logger
}

// NewParser creates a parser from the parser section of the configuration.
func NewParser(cfg config.ParserConfig, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		encoding:  cfg.Encoding,
		delimiter: cfg.DelimiterRune(),
		detect:    DetectOptions{HeaderSearchRows: cfg.HeaderSearchRows},
		extract: ExtractOptions{
			Decimal:     DecimalMode(cfg.DecimalSeparator),
			NameMarkers: cfg.NameMarkers,
			DateMarkers: cfg.DateMarkers,
		},
		logger: logger,
	}
}

// WithEncoding returns a copy of the parser reading raw input as encoding.
// An empty name keeps the current encoding.
func (p *Parser) WithEncoding(encoding string) *Parser {
	cp := *p
	if encoding != "" {
		cp.encoding = encoding
	}
	return &cp
}

// WithDelimiter returns a copy of the parser splitting cells on delimiter.
// The zero rune keeps the current delimiter.
func (p *Parser) WithDelimiter(delimiter rune) *Parser {
	cp := *p
	if delimiter != 0 {
		cp.delimiter = delimiter
	}
	return &cp
}

// Encoding returns the encoding used for raw input.
func (p *Parser) Encoding() string {
	return p.encoding
}

// ParseText parses already-decoded text. The resulting Document has an
// empty Encoding.
func (p *Parser) ParseText(source, text string) (*domain.Document, error) {
	start := time.Now()

	rows, err := SplitRows(text, p.delimiter)
	if err != nil {
		return nil, err
	}

	layout, err := Detect(rows, p.detect)
	if err != nil {
		p.logger.Warn("layout detection failed",
			slog.String("source", source),
			slog.Int("rows", len(rows)),
			slog.String("error", err.Error()))
		return nil, err
	}

	p.logger.Debug("layout detected",
		slog.String("source", source),
		slog.Int("header_row", layout.HeaderRow),
		slog.Any("scan_starts", layout.ScanStarts))

	scans, err := Extract(rows, layout, p.extract)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		SourcePath: source,
		RecordedAt: DocumentDate(rows, layout),
		Scans:      scans,
	}

	p.logger.Info("document parsed",
		slog.String("source", source),
		slog.Int("scans", doc.ScanCount()),
		slog.Duration("duration", time.Since(start)))
	return doc, nil
}

// ParseBytes decodes raw with the parser's encoding and parses the text.
func (p *Parser) ParseBytes(source string, raw []byte) (*domain.Document, error) {
	text, err := Decode(raw, p.encoding)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			return nil, appErr.WithContext("source", source)
		}
		return nil, err
	}

	doc, err := p.ParseText(source, text)
	if err != nil {
		return nil, err
	}
	doc.Encoding = p.encoding
	return doc, nil
}

// ParseReader reads r to the end and parses its content.
func (p *Parser) ParseReader(ctx context.Context, source string, r io.Reader) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", source), err)
	}
	return p.ParseBytes(source, raw)
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}
	return p.ParseBytes(path, raw)
}
