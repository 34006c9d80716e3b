package yaginapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID carries the request UUID back to the client.
	HeaderRequestID = "X-Request-ID"
	// ContextLogger is the gin context key of the request-scoped logger.
	ContextLogger = "logger"
)

// Middleware is implemented by every Gin middleware of this package.
type Middleware interface {
	Handle(ctx *gin.Context)
}

// RequestLogger tags each request with a random UUID and logs its outcome.
type RequestLogger struct {
	log yalogger.Logger
}

func NewRequestLogger(log yalogger.Logger) *RequestLogger {
	return &RequestLogger{log: yalogger.OrDefault(log)}
}

func (m *RequestLogger) Handle(ctx *gin.Context) {
	id := uuid.New()
	log := m.log.WithRequestUUID(id)
	start := time.Now()

	ctx.Set(ContextLogger, log)
	ctx.Header(HeaderRequestID, id.String())

	ctx.Next()

	log.WithFields(map[string]any{
		"status":  ctx.Writer.Status(),
		"latency": time.Since(start).String(),
	}).Infof("%s %s", ctx.Request.Method, ctx.FullPath())
}

// ErrorHandler turns the last error attached with ctx.Error into a JSON
// response whose status is the yaerrors code.
type ErrorHandler struct{}

func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

func (m *ErrorHandler) Handle(ctx *gin.Context) {
	ctx.Next()

	last := ctx.Errors.Last()
	if last == nil {
		return
	}

	var yaerr yaerrors.Error
	if !errors.As(last.Err, &yaerr) {
		yaerr = yaerrors.FromError(http.StatusInternalServerError, last.Err, "[API] unexpected error")
	}

	log := requestLogger(ctx)
	if yaerr.Code() >= http.StatusInternalServerError {
		log.Error(yaerr.Error())
	} else {
		log.Debug(yaerr.Error())
	}

	if ctx.Writer.Written() {
		return
	}

	ctx.JSON(yaerr.Code(), errorResponse{Error: yaerr.Error()})
}

// requestLogger returns the logger installed by RequestLogger.
func requestLogger(ctx *gin.Context) yalogger.Logger {
	if value, ok := ctx.Get(ContextLogger); ok {
		if log, ok := value.(yalogger.Logger); ok {
			return log
		}
	}

	return yalogger.NewDefaultLogger()
}
