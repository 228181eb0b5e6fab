// internal/app/features/errors/errorlogger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs a handler failure and answers the user with a friendly
// page. The detailed error goes to the log only.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs err at error level and renders a 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	renderStatus(w, r, http.StatusInternalServerError, "Erro interno", userMsg, backURL)
}

// LogBadRequest logs err at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	renderStatus(w, r, http.StatusBadRequest, "Requisição inválida", userMsg, backURL)
}

// NotFound renders a 404 page; nothing is logged.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request, userMsg, backURL string) {
	renderStatus(w, r, http.StatusNotFound, "Não encontrado", userMsg, backURL)
}
