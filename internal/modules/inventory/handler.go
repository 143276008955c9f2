package inventory

import (
	"net/http"
	"strconv"

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
	g := protected.Group("/hospitals/:id")
	{
		g.GET("", h.GetHospital)
		g.GET("/inventory", h.GetInventory)
		g.GET("/inventory/alerts", h.Alerts)
		g.GET("/inventory/movements", h.owner, h.Movements)
		g.POST("/inventory/initialize", h.owner, h.Initialize)
		g.POST("/inventory/adjust", h.owner, h.Adjust)
		g.PUT("/inventory/:group/expiring", h.owner, h.SetExpiring)
	}
}

// owner aborts unless the caller is the hospital in the path or an admin.
func (h *Handler) owner(c *gin.Context) {
	if err := Authorize(middleware.UserID(c), middleware.Role(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) GetHospital(c *gin.Context) {
	hospital, err := h.service.Hospital(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hospital)
}

func (h *Handler) GetInventory(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Alerts returns low-stock and expiry alerts.
// @Summary		Inventory alerts
// @Tags		Inventory
// @Security	BearerAuth
// @Param		id	path	string	true	"Hospital ID"
// @Success		200	{object}	map[string]interface{}
// @Router		/hospitals/{id}/inventory/alerts [GET]
func (h *Handler) Alerts(c *gin.Context) {
	alerts, err := h.service.Alerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// Adjust adds or removes units of one blood group.
// @Summary		Adjust inventory
// @Tags		Inventory
// @Security	BearerAuth
// @Param		id	path	string	true	"Hospital ID"
// @Param		request	body	AdjustRequest	true	"Adjustment"
// @Success		200	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}	"Not this hospital"
// @Router		/hospitals/{id}/inventory/adjust [POST]
func (h *Handler) Adjust(c *gin.Context) {
	var req AdjustRequest
	if !response.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Adjust(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Initialize(c *gin.Context) {
	items, err := h.service.Initialize(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

func (h *Handler) SetExpiring(c *gin.Context) {
	group, err := domain.ParseBloodGroup(c.Param("group"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req ExpiringRequest
	if !response.BindJSON(c, &req) {
		return
	}
	item, err := h.service.SetExpiring(c.Request.Context(), middleware.UserID(c), c.Param("id"), group, *req.Units)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

func (h *Handler) Movements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.service.Movements(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"movements": items})
}
