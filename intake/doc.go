// Package intake exposes the workflow pipeline over HTTP. One endpoint
// accepts natural-language requests and returns the pipeline's terminal
// outcome; a health endpoint aggregates component status. The server is
// Gin-backed with request-id, recovery and request-logging middleware.
package intake
