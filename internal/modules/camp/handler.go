package camp

import (
	"net/http"
	"strings"

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
	g := protected.Group("/camps")
	{
		g.POST("", middleware.RequireRole(domain.RoleHospital), h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("/:id/register", middleware.RequireRole(domain.RoleDonor), h.Register)
		g.DELETE("/:id/register", middleware.RequireRole(domain.RoleDonor), h.Unregister)
		g.PATCH("/:id/status", middleware.RequireRole(domain.RoleHospital, domain.RoleAdmin), h.UpdateStatus)
	}
}

// Create schedules a donation camp for the calling hospital.
// @Summary		Create camp
// @Tags		Camps
// @Security	BearerAuth
// @Param		request	body	CreateCampRequest	true	"Camp"
// @Success		201	{object}	map[string]interface{}
// @Router		/camps [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateCampRequest
	if !response.BindJSON(c, &req) {
		return
	}
	camp, err := h.service.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, camp)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	var (
		camps []domain.BloodCamp
		err   error
	)
	if q.Mine {
		camps, err = h.service.ListForDonor(c.Request.Context(), middleware.UserID(c))
	} else {
		camps, err = h.service.List(c.Request.Context(), domain.CampFilter{
			HospitalID: q.HospitalID,
			City:       strings.TrimSpace(q.City),
			Status:     domain.CampStatus(q.Status),
			FromDate:   q.FromDate,
			Limit:      q.Limit,
		})
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"camps": camps, "count": len(camps)})
}

func (h *Handler) Get(c *gin.Context) {
	camp, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, camp)
}

// Register books a slot for the calling donor.
// @Summary		Register for camp
// @Tags		Camps
// @Security	BearerAuth
// @Param		id	path	string	true	"Camp ID"
// @Success		200	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}	"Already registered or camp full"
// @Router		/camps/{id}/register [POST]
func (h *Handler) Register(c *gin.Context) {
	camp, err := h.service.Register(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, camp)
}

func (h *Handler) Unregister(c *gin.Context) {
	camp, err := h.service.Unregister(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, camp)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if !response.BindJSON(c, &req) {
		return
	}
	camp, err := h.service.UpdateStatus(c.Request.Context(), middleware.UserID(c), middleware.Role(c), c.Param("id"), req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, camp)
}
