package domain

import (
	"fmt"
	"time"
)

// LowStockThreshold is the unit count under which a group raises a warning.
const LowStockThreshold = 10

type InventoryItem struct {
	ID             string     `json:"id"`
	HospitalID     string     `json:"hospital_id"`
	BloodGroup     BloodGroup `json:"blood_group"`
	UnitsAvailable int        `json:"units_available"`
	ExpiringUnits  int        `json:"expiring_units"`
	LastUpdated    time.Time  `json:"last_updated"`
	UpdatedBy      string     `json:"updated_by"`
}

// InventoryMovement records one adjustment for audit.
type InventoryMovement struct {
	ID          string     `json:"id"`
	HospitalID  string     `json:"hospital_id"`
	BloodGroup  BloodGroup `json:"blood_group"`
	Delta       int        `json:"delta"`
	UnitsBefore int        `json:"units_before"`
	UnitsAfter  int        `json:"units_after"`
	Reason      string     `json:"reason,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Actor       string     `json:"actor"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AlertSeverity string

const (
	AlertCritical AlertSeverity = "critical"
	AlertWarning  AlertSeverity = "warning"
)

type Alert struct {
	Severity   AlertSeverity `json:"severity"`
	BloodGroup BloodGroup    `json:"blood_group"`
	Message    string        `json:"message"`
}

// BuildAlerts derives stock alerts for all eight groups. A group with no
// stored item counts as zero units.
func BuildAlerts(items []InventoryItem) []Alert {
	byGroup := make(map[BloodGroup]InventoryItem, len(items))
	for _, it := range items {
		byGroup[it.BloodGroup] = it
	}

	alerts := make([]Alert, 0)
	for _, g := range bloodGroups {
		it := byGroup[g]
		switch {
		case it.UnitsAvailable <= 0:
			alerts = append(alerts, Alert{
				Severity:   AlertCritical,
				BloodGroup: g,
				Message:    fmt.Sprintf("%s blood is out of stock", g),
			})
		case it.UnitsAvailable < LowStockThreshold:
			alerts = append(alerts, Alert{
				Severity:   AlertWarning,
				BloodGroup: g,
				Message:    fmt.Sprintf("%s blood is running low (%d units remaining)", g, it.UnitsAvailable),
			})
		}
		if it.ExpiringUnits > 0 {
			alerts = append(alerts, Alert{
				Severity:   AlertWarning,
				BloodGroup: g,
				Message:    fmt.Sprintf("%d units of %s blood expiring soon", it.ExpiringUnits, g),
			})
		}
	}
	return alerts
}
