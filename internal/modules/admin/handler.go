package admin

import (
	"net/http"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/middleware"
	"bloodconnect/internal/modules/notification"
	"bloodconnect/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the admin API. The group must already require the
// admin role.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	// users moderation
	admin.GET("/users", h.ListUsers)
	admin.PATCH("/users/:id/status", h.SetUserStatus)
	admin.POST("/users/:id/verify", h.VerifyUser)
	admin.POST("/users/:id/notify", h.NotifyUser)

	// hospitals
	admin.GET("/hospitals", h.ListHospitals)
	admin.PATCH("/hospitals/:id/verification", h.SetHospitalVerification)

	// analytics
	admin.GET("/analytics", h.Analytics)
}

// ListUsers returns users filtered by role and status.
// @Summary		List users
// @Tags		Admin
// @Security	BearerAuth
// @Param		role	query	string	false	"donor|recipient|hospital|admin"
// @Param		status	query	string	false	"active|suspended"
// @Success		200	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}	"Admin access required"
// @Router		/admin/users [GET]
func (h *Handler) ListUsers(c *gin.Context) {
	var q UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	users, err := h.service.ListUsers(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users, "total": len(users)})
}

func (h *Handler) SetUserStatus(c *gin.Context) {
	var req SetStatusRequest
	if !response.BindJSON(c, &req) {
		return
	}
	u, err := h.service.SetUserStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

func (h *Handler) VerifyUser(c *gin.Context) {
	u, err := h.service.VerifyUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

func (h *Handler) NotifyUser(c *gin.Context) {
	var req notification.SendRequest
	if !response.BindJSON(c, &req) {
		return
	}
	n, err := h.service.NotifyUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, n)
}

func (h *Handler) ListHospitals(c *gin.Context) {
	items, err := h.service.ListHospitals(c.Request.Context(), domain.VerificationStatus(c.Query("status")))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"hospitals": items, "total": len(items)})
}

func (h *Handler) SetHospitalVerification(c *gin.Context) {
	var req VerificationRequest
	if !response.BindJSON(c, &req) {
		return
	}
	hospital, err := h.service.SetHospitalVerification(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hospital)
}

// Analytics returns the platform overview.
// @Summary		Platform analytics
// @Tags		Admin
// @Security	BearerAuth
// @Success		200	{object}	Analytics
// @Router		/admin/analytics [GET]
func (h *Handler) Analytics(c *gin.Context) {
	a, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}
