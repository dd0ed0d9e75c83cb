// Package app wires configuration, telemetry, services and the HTTP router
// into a runnable psconvert server.
//
// # Initialization Flow
//
//	1. Load configuration from file and environment (done by the caller)
//	2. Initialize logging and telemetry (done by the caller)
//	3. Create the conversion and health services
//	4. Set up middleware, handlers and the metrics endpoint
//	5. Start the HTTP server and shut it down when the context ends
package app
