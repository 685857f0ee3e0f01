// README: Panic recovery middleware; a panicking handler answers 500 and the agent keeps running.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

func Recovery(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error("handler panicked",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"request_id", c.Writer.Header().Get(HeaderRequestID),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
		}()
		c.Next()
	}
}
