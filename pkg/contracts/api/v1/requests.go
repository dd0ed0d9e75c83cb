// Package api contains the HTTP contract of the psconvert service.
// Version v1 represents the current stable API version.
package api

import (
	"psconvert/pkg/contracts/domain"
)

// ParseOptionsRequest carries the query parameters that override how an
// uploaded export is decoded and split.
type ParseOptionsRequest struct {
	Filename  string `json:"filename,omitempty" query:"filename" validate:"omitempty,max=255"`
	Encoding  string `json:"encoding,omitempty" query:"encoding" validate:"omitempty,max=32"`
	Delimiter string `json:"delimiter,omitempty" query:"delimiter" validate:"omitempty,len=1"`
}

// InspectRequest represents POST /api/inspect query parameters
type InspectRequest struct {
	ParseOptionsRequest
}

// ConvertRequest represents POST /api/convert query parameters
type ConvertRequest struct {
	ParseOptionsRequest
	Format string `json:"format" query:"format" validate:"required,oneof=csv excel xlsx txt chi"`
	Scan   *int   `json:"scan,omitempty" query:"scan" validate:"omitempty,min=0"`
}

// InspectResponse is the body returned by POST /api/inspect
type InspectResponse struct {
	Success bool                   `json:"success"`
	Data    domain.DocumentSummary `json:"data"`
}

// HealthResponse is the body returned by GET /api/health
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
}
