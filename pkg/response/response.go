// Package response writes the JSON envelope every endpoint of the service uses:
// {"success": true, "data": ...} or {"success": false, "error": "..."}.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rohitbhanushali/uber-clone-source-code/pkg/domain"
)

// Envelope is the wire shape of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a 200 response carrying data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response carrying data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Error: message})
}

// Unauthorized writes a 401 response with the given message.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Envelope{Error: message})
}

// NotFound writes a 404 response with the given message.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Envelope{Error: message})
}

// Failure writes an error envelope with an explicit status code.
func Failure(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Error: message})
}

// Error maps a domain error to its status code. Unknown errors become a 500
// with a generic message so internal details do not leak to the browser.
func Error(c *gin.Context, err error) {
	var (
		validation   *domain.ValidationError
		notFound     *domain.NotFoundError
		conflict     *domain.ConflictError
		forbidden    *domain.ForbiddenError
		unauthorized *domain.UnauthorizedError
		invalidState *domain.InvalidStateError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, Envelope{Error: validation.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, Envelope{Error: notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, Envelope{Error: conflict.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, Envelope{Error: forbidden.Error()})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, Envelope{Error: unauthorized.Error()})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusUnprocessableEntity, Envelope{Error: invalidState.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Envelope{Error: "internal server error"})
	}
}
