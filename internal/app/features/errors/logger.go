// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs handler errors with request context and then renders the
// matching user-facing error page. Handlers get one call instead of a
// log-then-render pair.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

// LogServerError logs at error level and renders the 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	if e != nil && e.log != nil {
		e.log.Error(logMsg, e.fields(r, err)...)
	}
	RenderServerError(w, r, userMsg, backURL)
}

// LogBadRequest logs at warn level and renders the 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	if e != nil && e.log != nil {
		e.log.Warn(logMsg, e.fields(r, err)...)
	}
	RenderBadRequest(w, r, userMsg, backURL)
}

// LogNotFound logs at info level and renders the 404 page.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, logMsg string, userMsg, backURL string) {
	if e != nil && e.log != nil {
		e.log.Info(logMsg, e.fields(r, nil)...)
	}
	RenderNotFound(w, r, userMsg, backURL)
}
