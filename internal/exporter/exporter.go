package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"psconvert/internal/config"
	apperrors "psconvert/internal/errors"
	"psconvert/pkg/contracts/domain"
)

// Request selects the output format and scan.
type Request struct {
	Format Format
	// ScanIndex selects one scan. Nil means every scan for CSV and Excel and
	// the first scan for TXT and CHI.
	ScanIndex *int
}

// Exporter serialises parsed documents. It never modifies the document.
type Exporter struct {
	technique    string
	txtDelimiter string
	excel        *ExcelWriter
	logger       *slog.Logger
}

// New creates an exporter from the export section of the configuration.
func New(cfg config.ExportConfig, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		technique:    cfg.Technique,
		txtDelimiter: cfg.TXTDelimiter,
		excel:        NewExcelWriter(nil),
		logger:       logger,
	}
}

// WithClock returns a copy of the exporter whose Excel import date comes from now.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	cp := *e
	cp.excel = NewExcelWriter(now)
	return &cp
}

// Export writes doc to w in the requested format.
func (e *Exporter) Export(ctx context.Context, doc *domain.Document, req Request, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	scans, err := selectScans(doc, req)
	if err != nil {
		return err
	}

	switch req.Format {
	case FormatCSV:
		if req.ScanIndex != nil {
			err = WriteScanCSV(w, scans[0].Scan)
		} else {
			err = WriteWideCSV(w, plainScans(scans))
		}
	case FormatTXT:
		err = WriteTXT(w, scans[0].Scan, e.txtDelimiter)
	case FormatCHI:
		err = WriteCHI(w, CHIHeader{Technique: e.technique, SourceFile: doc.SourcePath}, scans[0].Scan)
	case FormatExcel:
		err = e.excel.Write(w, doc, scans)
	default:
		return apperrors.NewAppValidationError(fmt.Sprintf("unknown output format %q", req.Format))
	}
	if err != nil {
		return apperrors.NewExportError(fmt.Sprintf("failed to write %s output", req.Format), err)
	}

	e.logger.Debug("document exported",
		slog.String("source", doc.SourcePath),
		slog.String("format", string(req.Format)),
		slog.Int("scans", len(scans)))
	return nil
}

// ExportFile writes doc to path, creating parent directories. The file is
// only created once the output has been rendered.
func (e *Exporter) ExportFile(ctx context.Context, doc *domain.Document, req Request, path string) error {
	var buf bytes.Buffer
	if err := e.Export(ctx, doc, req, &buf); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.NewExportError("failed to create output directory", err).
				WithContext("path", path)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return apperrors.NewExportError("failed to write output file", err).
			WithContext("path", path)
	}

	e.logger.Info("output written",
		slog.String("path", path),
		slog.String("format", string(req.Format)),
		slog.Int("bytes", buf.Len()))
	return nil
}

// OutputPath derives an output file name from the input name and format,
// placed in dir when dir is not empty.
func OutputPath(input string, format Format, dir string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + format.Extension()
	if dir == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	return filepath.Join(dir, name)
}

func selectScans(doc *domain.Document, req Request) ([]IndexedScan, error) {
	if req.ScanIndex != nil || req.Format.SingleScan() {
		index := 0
		if req.ScanIndex != nil {
			index = *req.ScanIndex
		}
		scan, err := doc.Scan(index)
		if err != nil {
			return nil, err
		}
		return []IndexedScan{{Index: index, Scan: scan}}, nil
	}

	scans := make([]IndexedScan, doc.ScanCount())
	for i := range scans {
		scans[i] = IndexedScan{Index: i, Scan: doc.Scans[i]}
	}
	return scans, nil
}

func plainScans(scans []IndexedScan) []domain.Scan {
	out := make([]domain.Scan, len(scans))
	for i, s := range scans {
		out[i] = s.Scan
	}
	return out
}
