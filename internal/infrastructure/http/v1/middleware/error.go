package middleware

import (
	"github.com/gin-gonic/gin"

	"policyhub/internal/core/apperror"
	"policyhub/pkg/logger"
)

// ErrorHandler renders the last error attached to the context as the JSON
// problem body. Non-AppErrors are logged and reported as INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			appErr = apperror.NewInternal(err).WithDetail("request_id", c.GetString(ctxRequestID))
		} else if appErr.Err != nil {
			logger.Error(c.Request.Context(), "request error", "code", appErr.Code, "cause", appErr.Err)
		}

		body := problemBody(appErr)
		failIdempotency(c, apperror.Retryable(appErr), appErr.HTTPStatus, body)
		c.JSON(appErr.HTTPStatus, body)
	}
}

func problemBody(appErr *apperror.AppError) gin.H {
	return gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	}
}

// failIdempotency stores the error response under the request's idempotency
// key. A retryable failure releases the key instead, so the retry runs again.
func failIdempotency(c *gin.Context, retryable bool, status int, body gin.H) {
	store, key, ok := idempotencyFrom(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if retryable {
		if err := store.ReleaseKey(ctx, key); err != nil {
			logger.Warn(ctx, "failed to release idempotency key", "key", key, "error", err)
		}
		return
	}
	if err := store.FailKey(ctx, key, status, "application/json", body); err != nil {
		logger.Warn(ctx, "failed to record idempotent error response", "key", key, "error", err)
	}
}
