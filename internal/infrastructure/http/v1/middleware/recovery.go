// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"policyhub/internal/core/apperror"
	"policyhub/pkg/logger"
)

// Recovery turns a panic into a 500 problem body. The stack is logged, never
// returned. A panic unwinds past ErrorHandler, so the response is written here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"error", rec,
				"stack", string(debug.Stack()),
			)

			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
				WithDetail("request_id", c.GetString(ctxRequestID))
			_ = c.Error(appErr)

			body := problemBody(appErr)
			failIdempotency(c, false, appErr.HTTPStatus, body)
			c.AbortWithStatusJSON(appErr.HTTPStatus, body)
		}()
		c.Next()
	}
}
