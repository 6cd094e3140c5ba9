package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/application"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/auth"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/middleware"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/response"
)

// RideHandler handles HTTP requests for ride requests.
type RideHandler struct {
	service *application.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(service *application.RideService) *RideHandler {
	return &RideHandler{service: service}
}

// RegisterRoutes registers all ride routes on the given router group.
func (h *RideHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	rides := r.Group("/api/v1/rides")
	rides.Use(middleware.AuthMiddleware(jwtManager))
	{
		rides.POST("", h.RequestRide)
		rides.GET("", h.ListRides)
		rides.GET("/:id", h.GetRide)
		rides.POST("/:id/cancel", h.CancelRide)
	}
}

// RequestRide handles POST /api/v1/rides.
func (h *RideHandler) RequestRide(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RequestRide(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// ListRides handles GET /api/v1/rides.
func (h *RideHandler) ListRides(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListRides(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetRide handles GET /api/v1/rides/:id.
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetRide(c.Request.Context(), rideID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelRide handles POST /api/v1/rides/:id/cancel.
func (h *RideHandler) CancelRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CancelRideRequest
	// The body is optional.
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.CancelRide(c.Request.Context(), rideID, userID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
