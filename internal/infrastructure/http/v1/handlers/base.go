package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"policyhub/internal/core/apperror"
	"policyhub/internal/infrastructure/http/v1/middleware"
)

// BaseHandler holds the request and response helpers shared by API handlers.
type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON decodes the body into obj. On failure it registers a validation
// error and returns false.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err and aborts. middleware.ErrorHandler writes the body.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// QueryLimit reads the "limit" query parameter. Missing, malformed or
// non-positive values give def; larger values are clamped to ceiling.
func (h *BaseHandler) QueryLimit(c *gin.Context, def, ceiling int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	switch {
	case err != nil || n <= 0:
		return def
	case n > ceiling:
		return ceiling
	}
	return n
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, data)
}

func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, data)
}

// respond writes data and stores it under the request's idempotency key.
func (h *BaseHandler) respond(c *gin.Context, status int, data any) {
	middleware.CompleteIdempotency(c, status, "application/json", data)
	c.JSON(status, data)
}
