package matching

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
	protected.POST("/requests/:id/match",
		middleware.RequireRole(domain.RoleRecipient, domain.RoleHospital, domain.RoleAdmin),
		h.Match)
}

// Match finds donors for a pending request.
// @Summary		Match donors
// @Tags		Requests
// @Security	BearerAuth
// @Param		id	path	string	true	"Request ID"
// @Success		200	{object}	map[string]interface{}	"Match result, donor_ids may be empty"
// @Failure		403	{object}	map[string]interface{}	"Another recipient's request"
// @Failure		422	{object}	map[string]interface{}	"Request is completed or cancelled"
// @Router		/requests/{id}/match [POST]
func (h *Handler) Match(c *gin.Context) {
	res, err := h.service.MatchAs(c.Request.Context(), c.Param("id"), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
