package observability

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanic recovers from a panic and logs it with the stack trace.
// It must be called directly in a defer statement:
//
//	defer observability.RecoverPanic(log, "descriptor reload")
//
// The panic is not re-raised.
func RecoverPanic(log logrus.FieldLogger, where string) {
	if r := recover(); r != nil {
		log.WithFields(logrus.Fields{
			"panic":   fmt.Sprint(r),
			"stack":   string(debug.Stack()),
			"context": where,
		}).Error("PANIC recovered")
	}
}

// MustRecover converts a recovered value into an error, nil when r is nil
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}

// PanicMiddleware turns a panicking handler into a 500 response
func PanicMiddleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(logrus.Fields{
						"panic":      fmt.Sprint(rec),
						"stack":      string(debug.Stack()),
						"method":     r.Method,
						"path":       r.URL.Path,
						"request_id": GetRequestID(r.Context()),
					}).Error("PANIC recovered")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
