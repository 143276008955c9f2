package response

import (
	"net/http"

	"bloodconnect/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// BindJSON decodes the body into req and runs struct validation. On failure
// it writes the error envelope and returns false.
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", errs)
		return false
	}
	return true
}
