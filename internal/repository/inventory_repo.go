package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/gateway"

	"github.com/google/uuid"
)

const (
	TableInventory          = "blood_inventory"
	TableInventoryMovements = "inventory_movements"

	// maxCASAttempts bounds optimistic retries on a contended row.
	maxCASAttempts = 8
)

type InventoryRepository struct {
	gw gateway.Gateway
}

func NewInventoryRepository(gw gateway.Gateway) *InventoryRepository {
	return &InventoryRepository{gw: gw}
}

type inventoryModel struct {
	ID             string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	HospitalID     string    `gorm:"column:hospital_id;type:varchar(36);uniqueIndex:idx_inventory_hospital_group;not null" json:"hospital_id"`
	BloodGroup     string    `gorm:"column:blood_group;uniqueIndex:idx_inventory_hospital_group;not null" json:"blood_group"`
	UnitsAvailable int       `gorm:"column:units_available;not null" json:"units_available"`
	ExpiringUnits  int       `gorm:"column:expiring_units;not null" json:"expiring_units"`
	LastUpdated    time.Time `gorm:"column:last_updated" json:"last_updated"`
	UpdatedBy      string    `gorm:"column:updated_by" json:"updated_by"`
}

func (inventoryModel) TableName() string { return TableInventory }

type movementModel struct {
	ID          string     `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	HospitalID  string     `gorm:"column:hospital_id;type:varchar(36);index;not null" json:"hospital_id"`
	BloodGroup  string     `gorm:"column:blood_group;not null" json:"blood_group"`
	Delta       int        `gorm:"column:delta" json:"delta"`
	UnitsBefore int        `gorm:"column:units_before" json:"units_before"`
	UnitsAfter  int        `gorm:"column:units_after" json:"units_after"`
	Reason      string     `gorm:"column:reason" json:"reason"`
	ExpiryDate  *time.Time `gorm:"column:expiry_date" json:"expiry_date"`
	Actor       string     `gorm:"column:actor" json:"actor"`
	CreatedAt   time.Time  `gorm:"column:created_at;index" json:"created_at"`
}

func (movementModel) TableName() string { return TableInventoryMovements }

func toDomainInventory(m inventoryModel) domain.InventoryItem {
	return domain.InventoryItem{
		ID:             m.ID,
		HospitalID:     m.HospitalID,
		BloodGroup:     domain.BloodGroup(m.BloodGroup),
		UnitsAvailable: m.UnitsAvailable,
		ExpiringUnits:  m.ExpiringUnits,
		LastUpdated:    m.LastUpdated,
		UpdatedBy:      m.UpdatedBy,
	}
}

func (r *InventoryRepository) List(ctx context.Context, hospitalID string) ([]domain.InventoryItem, error) {
	rows, err := r.gw.Select(ctx, TableInventory,
		gateway.Where(gateway.Eq("hospital_id", hospitalID)).OrderBy("blood_group", false))
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[inventoryModel](rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InventoryItem, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainInventory(m))
	}
	return out, nil
}

func (r *InventoryRepository) find(ctx context.Context, hospitalID string, group domain.BloodGroup) (*inventoryModel, error) {
	rows, err := r.gw.Select(ctx, TableInventory, gateway.Where(
		gateway.Eq("hospital_id", hospitalID),
		gateway.Eq("blood_group", string(group)),
	).WithLimit(1))
	if err != nil {
		return nil, mapErr(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var m inventoryModel
	if err := decodeRow(rows[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *InventoryRepository) insert(ctx context.Context, hospitalID string, group domain.BloodGroup, units, expiring int, actor string, now time.Time) (*inventoryModel, error) {
	m := inventoryModel{
		ID:             uuid.NewString(),
		HospitalID:     hospitalID,
		BloodGroup:     string(group),
		UnitsAvailable: units,
		ExpiringUnits:  expiring,
		LastUpdated:    now,
		UpdatedBy:      actor,
	}
	row, err := encodeRow(m)
	if err != nil {
		return nil, err
	}
	if _, err := r.gw.Insert(ctx, TableInventory, row); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

// Adjust adds delta to the unit count of (hospitalID, group), clamping at
// zero and creating the row when missing. The update is a compare-and-set
// on units_available, so concurrent adjustments are never lost. It returns
// the stored item and the count before the change.
func (r *InventoryRepository) Adjust(ctx context.Context, hospitalID string, group domain.BloodGroup, delta int, actor string) (*domain.InventoryItem, int, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		now := utcNow()
		cur, err := r.find(ctx, hospitalID, group)
		if err != nil {
			return nil, 0, err
		}

		if cur == nil {
			m, err := r.insert(ctx, hospitalID, group, max(0, delta), 0, actor, now)
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, 0, err
			}
			item := toDomainInventory(*m)
			return &item, 0, nil
		}

		next := max(0, cur.UnitsAvailable+delta)
		n, err := r.gw.UpdateWhere(ctx, TableInventory, gateway.Where(
			gateway.Eq("id", cur.ID),
			gateway.Eq("units_available", cur.UnitsAvailable),
		), gateway.Row{
			"units_available": next,
			"last_updated":    now,
			"updated_by":      actor,
		})
		if err != nil {
			return nil, 0, mapErr(err)
		}
		if n == 1 {
			before := cur.UnitsAvailable
			cur.UnitsAvailable = next
			cur.LastUpdated = now
			cur.UpdatedBy = actor
			item := toDomainInventory(*cur)
			return &item, before, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: inventory %s/%s is too contended", domain.ErrConflict, hospitalID, group)
}

// SetExpiring overwrites the expiring-unit count, creating the row if needed.
func (r *InventoryRepository) SetExpiring(ctx context.Context, hospitalID string, group domain.BloodGroup, units int, actor string) (*domain.InventoryItem, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		now := utcNow()
		cur, err := r.find(ctx, hospitalID, group)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			m, err := r.insert(ctx, hospitalID, group, 0, units, actor, now)
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			item := toDomainInventory(*m)
			return &item, nil
		}
		row, err := r.gw.Update(ctx, TableInventory, cur.ID, gateway.Row{
			"expiring_units": units,
			"last_updated":   now,
			"updated_by":     actor,
		})
		if err != nil {
			return nil, mapErr(err)
		}
		var m inventoryModel
		if err := decodeRow(row, &m); err != nil {
			return nil, err
		}
		item := toDomainInventory(m)
		return &item, nil
	}
	return nil, fmt.Errorf("%w: inventory %s/%s is too contended", domain.ErrConflict, hospitalID, group)
}

// Initialize creates a zero row for every group the hospital lacks.
func (r *InventoryRepository) Initialize(ctx context.Context, hospitalID, actor string) ([]domain.InventoryItem, error) {
	existing, err := r.List(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	have := make(map[domain.BloodGroup]bool, len(existing))
	for _, it := range existing {
		have[it.BloodGroup] = true
	}
	now := utcNow()
	for _, g := range domain.AllBloodGroups() {
		if have[g] {
			continue
		}
		if _, err := r.insert(ctx, hospitalID, g, 0, 0, actor, now); err != nil && !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
	}
	return r.List(ctx, hospitalID)
}

func (r *InventoryRepository) RecordMovement(ctx context.Context, mv *domain.InventoryMovement) error {
	if mv.ID == "" {
		mv.ID = uuid.NewString()
	}
	if mv.CreatedAt.IsZero() {
		mv.CreatedAt = utcNow()
	}
	row, err := encodeRow(movementModel{
		ID:          mv.ID,
		HospitalID:  mv.HospitalID,
		BloodGroup:  string(mv.BloodGroup),
		Delta:       mv.Delta,
		UnitsBefore: mv.UnitsBefore,
		UnitsAfter:  mv.UnitsAfter,
		Reason:      mv.Reason,
		ExpiryDate:  mv.ExpiryDate,
		Actor:       mv.Actor,
		CreatedAt:   mv.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, err = r.gw.Insert(ctx, TableInventoryMovements, row)
	return mapErr(err)
}

func (r *InventoryRepository) ListMovements(ctx context.Context, hospitalID string, limit int) ([]domain.InventoryMovement, error) {
	rows, err := r.gw.Select(ctx, TableInventoryMovements,
		gateway.Where(gateway.Eq("hospital_id", hospitalID)).OrderBy("created_at", true).WithLimit(limit))
	if err != nil {
		return nil, mapErr(err)
	}
	models, err := decodeRows[movementModel](rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InventoryMovement, 0, len(models))
	for _, m := range models {
		out = append(out, domain.InventoryMovement{
			ID:          m.ID,
			HospitalID:  m.HospitalID,
			BloodGroup:  domain.BloodGroup(m.BloodGroup),
			Delta:       m.Delta,
			UnitsBefore: m.UnitsBefore,
			UnitsAfter:  m.UnitsAfter,
			Reason:      m.Reason,
			ExpiryDate:  m.ExpiryDate,
			Actor:       m.Actor,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}
