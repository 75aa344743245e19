package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger attaches a request-scoped logger to the request context and
// logs every completed request.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), entry))

		c.Next()

		fields := logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		if id := UserID(c); id != nil {
			fields["user_id"] = id.String()
		}
		done := entry.WithFields(fields)
		if len(c.Errors) > 0 {
			done = done.WithField("errors", c.Errors.String())
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			done.Error("request failed")
		case status >= http.StatusBadRequest:
			done.Warn("request rejected")
		default:
			done.Info("request completed")
		}
	}
}

// Recovery turns a panic into a JSON 500 and logs the stack.
func Recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logging.FromContext(c.Request.Context(), log).WithFields(logrus.Fields{
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("panic recovered")
				abort(c, http.StatusInternalServerError, "internal", "internal server error")
			}
		}()
		c.Next()
	}
}
