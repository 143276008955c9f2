package donor

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
	donors := protected.Group("/donors")
	{
		donors.GET("", h.Search)
		donors.PATCH("/me", middleware.RequireRole(domain.RoleDonor), h.UpdateMe)
		donors.PATCH("/me/availability", middleware.RequireRole(domain.RoleDonor), h.SetAvailability)
		donors.GET("/:id", h.Get)
		donors.GET("/:id/donations", h.History)
		donors.POST("/:id/contact", h.Contact)
	}
	protected.POST("/donations", middleware.RequireRole(domain.RoleHospital, domain.RoleAdmin), h.RecordDonation)
}

// Search lists donors matching the query filters.
// @Summary		Search donors
// @Tags		Donors
// @Param		blood_group	query	string	false	"A+, O- ..."
// @Param		city	query	string	false	"Case-insensitive substring"
// @Param		available	query	bool	false	"Only available donors"
// @Param		min_days_since_last_donation	query	int	false	"Minimum rest period in days"
// @Success		200	{object}	map[string]interface{}
// @Router		/donors [GET]
func (h *Handler) Search(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	filter, err := FilterFromQuery(q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	donors, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"donors": donors, "count": len(donors)})
}

func (h *Handler) Get(c *gin.Context) {
	d, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if !response.BindJSON(c, &req) {
		return
	}
	d, err := h.service.UpdateProfile(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if !response.BindJSON(c, &req) {
		return
	}
	d, err := h.service.SetAvailability(c.Request.Context(), middleware.UserID(c), *req.Available)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) History(c *gin.Context) {
	items, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"donations": items})
}

// RecordDonation stores a completed donation on behalf of the calling hospital.
// @Summary		Record a donation
// @Tags		Donors
// @Security	BearerAuth
// @Param		request	body	RecordDonationRequest	true	"Donation"
// @Success		201	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}	"Donor not found"
// @Router		/donations [POST]
func (h *Handler) RecordDonation(c *gin.Context) {
	var req RecordDonationRequest
	if !response.BindJSON(c, &req) {
		return
	}
	rec, err := h.service.RecordDonation(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rec)
}

func (h *Handler) Contact(c *gin.Context) {
	var req ContactRequest
	if !response.BindJSON(c, &req) {
		return
	}
	n, err := h.service.Contact(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Message)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"notification_id": n.ID})
}
