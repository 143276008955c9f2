package inventory

import (
	"time"

	"bloodconnect/internal/domain"
)

type AdjustRequest struct {
	BloodGroup domain.BloodGroup `json:"blood_group" validate:"required,blood_group"`
	Delta      int               `json:"delta" validate:"gte=-10000,lte=10000"`
	Reason     string            `json:"reason" validate:"max=200"`
	ExpiryDate *time.Time        `json:"expiry_date"`
}

type ExpiringRequest struct {
	Units *int `json:"units" validate:"required,gte=0"`
}

type AdjustResult struct {
	Item        *domain.InventoryItem `json:"item"`
	UnitsBefore int                   `json:"units_before"`
}

// InventoryView is the listing returned to clients.
type InventoryView struct {
	HospitalID string                 `json:"hospital_id"`
	Items      []domain.InventoryItem `json:"items"`
	TotalUnits int                    `json:"total_units"`
}
