package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/auth"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/geocoding"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/upstream"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/response"
)

// writeError maps provider and sign-in failures to their status codes and
// hands everything else to response.Error.
func writeError(c *gin.Context, err error) {
	var upErr *upstream.Error
	switch {
	case errors.Is(err, geocoding.ErrNoResults):
		response.NotFound(c, err.Error())
	case errors.Is(err, upstream.ErrMissingToken):
		response.Failure(c, http.StatusServiceUnavailable, upstream.ErrMissingToken.Error())
	case errors.Is(err, auth.ErrSignInFailed):
		response.Unauthorized(c, auth.ErrSignInFailed.Error())
	case errors.As(err, &upErr):
		response.Failure(c, http.StatusBadGateway, upErr.API+" service unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		response.Failure(c, http.StatusGatewayTimeout, "upstream request timed out")
	default:
		response.Error(c, err)
	}
}

// userMessage is the text shown to the user for a failure on a socket.
func userMessage(err error) string {
	var upErr *upstream.Error
	switch {
	case errors.Is(err, geocoding.ErrNoResults),
		errors.Is(err, upstream.ErrMissingToken),
		errors.Is(err, auth.ErrSignInFailed):
		return err.Error()
	case errors.As(err, &upErr):
		return upErr.API + " service unavailable"
	default:
		return "something went wrong, please try again"
	}
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
