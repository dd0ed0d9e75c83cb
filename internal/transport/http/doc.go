// Package http implements the HTTP handlers of the psconvert service.
//
// Handlers stay thin: they bind and validate query parameters, hand the
// request body to services.ConvertService and translate errors into
// apperrors.APIError responses.
//
// # Endpoints
//
//	GET  /api/health    liveness and runtime statistics
//	POST /api/inspect   parse the body and return the scan listing
//	POST /api/convert   parse the body and stream the converted file
//
// Both POST endpoints take the raw export as the request body. Query
// parameters select the output format, the scan and decoding overrides:
//
//	POST /api/convert?format=chi&scan=1&encoding=utf-16&filename=run.csv
package http
