package request

import (
	"net/http"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/middleware"
	"bloodconnect/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/requests")
	{
		g.POST("", middleware.RequireRole(domain.RoleRecipient, domain.RoleHospital, domain.RoleAdmin), h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PATCH("/:id", h.Update)
		g.POST("/:id/complete", h.Complete)
		g.POST("/:id/cancel", h.Cancel)
	}
}

// Create opens a blood request for the caller.
// @Summary		Create blood request
// @Tags		Requests
// @Security	BearerAuth
// @Param		request	body	CreateRequest	true	"Request"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}	"Validation error"
// @Router		/requests [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !response.BindJSON(c, &req) {
		return
	}
	r, err := h.service.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, r)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	filter, err := FilterFromQuery(q, middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"requests": items, "count": len(items)})
}

func (h *Handler) Get(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, r)
}

func (h *Handler) authorized(c *gin.Context) bool {
	r, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err == nil {
		err = Authorize(r, middleware.UserID(c), middleware.Role(c))
	}
	if err != nil {
		response.FromError(c, err)
		return false
	}
	return true
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if !response.BindJSON(c, &req) {
		return
	}
	if !h.authorized(c) {
		return
	}
	r, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, r)
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, domain.RequestCompleted)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, domain.RequestCancelled)
}

func (h *Handler) transition(c *gin.Context, to domain.RequestStatus) {
	if !h.authorized(c) {
		return
	}
	r, err := h.service.Transition(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, r)
}
