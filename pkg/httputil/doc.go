// Package httputil holds the JSON helpers and middleware shared by the HTTP API.
//
// Error replies always have the shape of ErrorResponse and carry the request
// id assigned by RequestIDMiddleware:
//
//	{"error": "unknown format \"xml\"", "request_id": "5f0c..."}
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(log),
//		httputil.LoggingMiddleware,
//		httputil.ContentTypeMiddleware,
//		httputil.MaxBytesMiddleware(1<<20),
//	)(router)
package httputil
