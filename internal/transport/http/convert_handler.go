package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "psconvert/internal/errors"
	"psconvert/internal/exporter"
	"psconvert/internal/services"
	api "psconvert/pkg/contracts/api/v1"
)

// defaultUploadName names request bodies that come without a filename.
const defaultUploadName = "upload.csv"

// ConvertHandler serves inspection and conversion of uploaded exports.
type ConvertHandler struct {
	service  *services.ConvertService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewConvertHandler creates a new convert handler
func NewConvertHandler(service *services.ConvertService, logger *slog.Logger) *ConvertHandler {
	return &ConvertHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With(slog.String("handler", "convert")),
	}
}

// Inspect handles POST /api/inspect
func (h *ConvertHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	var req api.InspectRequest
	query, apiErr := parseQuery(r)
	if apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}
	bindParseOptions(query, &req.ParseOptionsRequest)
	if apiErr := h.validateRequest(&req); apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}

	body, apiErr := readBody(r)
	if apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}

	doc, err := h.service.LoadReader(r.Context(), uploadName(req.ParseOptionsRequest), bytes.NewReader(body), parseOptions(req.ParseOptionsRequest))
	if err != nil {
		h.writeError(w, r, apperrors.FromError(err))
		return
	}

	render.JSON(w, r, api.InspectResponse{Success: true, Data: doc.Summary()})
}

// Convert handles POST /api/convert. The converted file is rendered in
// memory first so a failing export still produces a JSON error.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	req, apiErr := bindConvertRequest(r)
	if apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}
	if apiErr := h.validateRequest(&req); apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}

	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.writeError(w, r, apperrors.FromError(err))
		return
	}

	body, apiErr := readBody(r)
	if apiErr != nil {
		h.writeError(w, r, apiErr)
		return
	}

	source := uploadName(req.ParseOptionsRequest)
	var out bytes.Buffer
	doc, err := h.service.ConvertReader(r.Context(), source, bytes.NewReader(body), services.ConvertRequest{
		Format:    format,
		ScanIndex: req.Scan,
		Parse:     parseOptions(req.ParseOptionsRequest),
	}, &out)
	if err != nil {
		h.writeError(w, r, apperrors.FromError(err))
		return
	}

	filename := filepath.Base(exporter.OutputPath(source, format, ""))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.Header().Set("X-Scan-Count", strconv.Itoa(doc.ScanCount()))
	w.WriteHeader(http.StatusOK)
	if _, err := out.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write response", slog.String("error", err.Error()))
	}
}

func (h *ConvertHandler) validateRequest(req interface{}) *apperrors.APIError {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.InvalidRequestWithError(err)
	}
	fields := make([]apperrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		})
	}
	return apperrors.NewValidationErrors(fields)
}

func (h *ConvertHandler) writeError(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", apiErr.StatusCode),
		slog.String("error_code", apiErr.ErrorCode))
	if err := render.Render(w, r, apperrors.NewErrorResponse(apiErr)); err != nil {
		apperrors.WriteError(w, apperrors.ErrInternalServer)
	}
}

// parseQuery rejects a query string that url.ParseQuery cannot fully parse,
// such as one holding an unescaped ";".
func parseQuery(r *http.Request) (url.Values, *apperrors.APIError) {
	q, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return nil, apperrors.ErrValidation("query",
			fmt.Sprintf("malformed query string (escape ';' as %%3B): %v", err))
	}
	return q, nil
}

func bindParseOptions(q url.Values, opts *api.ParseOptionsRequest) {
	opts.Filename = q.Get("filename")
	opts.Encoding = q.Get("encoding")
	opts.Delimiter = q.Get("delimiter")
}

func bindConvertRequest(r *http.Request) (api.ConvertRequest, *apperrors.APIError) {
	var req api.ConvertRequest
	q, apiErr := parseQuery(r)
	if apiErr != nil {
		return req, apiErr
	}
	bindParseOptions(q, &req.ParseOptionsRequest)
	req.Format = q.Get("format")

	if raw := q.Get("scan"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil {
			return req, apperrors.ErrValidation("scan", "scan must be an integer")
		}
		req.Scan = &index
	}
	return req, nil
}

// readBody reads the whole upload. The body size is bounded by the
// MaxBodySize middleware.
func readBody(r *http.Request) ([]byte, *apperrors.APIError) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.ErrPayloadTooLarge
		}
		return nil, apperrors.InvalidRequestWithError(err)
	}
	if len(body) == 0 {
		return nil, apperrors.ErrEmptyBody
	}
	return body, nil
}

func uploadName(opts api.ParseOptionsRequest) string {
	if opts.Filename == "" {
		return defaultUploadName
	}
	return filepath.Base(opts.Filename)
}

func parseOptions(opts api.ParseOptionsRequest) services.ParseOptions {
	po := services.ParseOptions{Encoding: opts.Encoding}
	if opts.Delimiter != "" {
		po.Delimiter, _ = utf8.DecodeRuneInString(opts.Delimiter)
	}
	return po
}
