package inventory

import (
	"context"
	"fmt"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/pkg/degrade"

	"go.uber.org/zap"
)

const defaultMovementLimit = 50

type Service struct {
	inventory InventoryRepository
	hospitals HospitalReader
	logger    *zap.Logger
}

func NewService(inventory InventoryRepository, hospitals HospitalReader, logger *zap.Logger) *Service {
	return &Service{inventory: inventory, hospitals: hospitals, logger: logger}
}

// Authorize allows the hospital itself and admins to change its stock.
func Authorize(actorID string, role domain.Role, hospitalID string) error {
	if role == domain.RoleAdmin || (role == domain.RoleHospital && actorID == hospitalID) {
		return nil
	}
	return fmt.Errorf("%w: inventory of hospital %s", domain.ErrForbidden, hospitalID)
}

func (s *Service) Hospital(ctx context.Context, id string) (*domain.Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, hospitalID string) (*InventoryView, error) {
	items, err := s.inventory.List(ctx, hospitalID)
	items, err = degrade.List(s.logger, "inventory.get", items, err)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, it := range items {
		total += it.UnitsAvailable
	}
	return &InventoryView{HospitalID: hospitalID, Items: items, TotalUnits: total}, nil
}

// Adjust applies delta to one blood group and appends an audit movement.
// A zero delta leaves the count unchanged and refreshes last_updated.
// A failed audit write is logged and does not undo the adjustment.
func (s *Service) Adjust(ctx context.Context, actorID, hospitalID string, req AdjustRequest) (*AdjustResult, error) {
	if !req.BloodGroup.Valid() {
		return nil, domain.Validationf("unknown blood group %q", req.BloodGroup)
	}
	item, before, err := s.inventory.Adjust(ctx, hospitalID, req.BloodGroup, req.Delta, actorID)
	if err != nil {
		return nil, err
	}

	mv := &domain.InventoryMovement{
		HospitalID:  hospitalID,
		BloodGroup:  req.BloodGroup,
		Delta:       req.Delta,
		UnitsBefore: before,
		UnitsAfter:  item.UnitsAvailable,
		Reason:      req.Reason,
		ExpiryDate:  req.ExpiryDate,
		Actor:       actorID,
	}
	if err := s.inventory.RecordMovement(ctx, mv); err != nil {
		s.logger.Warn("inventory movement not recorded",
			zap.String("hospital_id", hospitalID),
			zap.String("blood_group", string(req.BloodGroup)),
			zap.Error(err),
		)
	}

	s.logger.Info("inventory adjusted",
		zap.String("hospital_id", hospitalID),
		zap.String("blood_group", string(req.BloodGroup)),
		zap.Int("delta", req.Delta),
		zap.Int("units", item.UnitsAvailable),
		zap.String("actor", actorID),
	)
	return &AdjustResult{Item: item, UnitsBefore: before}, nil
}

// Alerts evaluates stock levels for every blood group of the hospital.
func (s *Service) Alerts(ctx context.Context, hospitalID string) ([]domain.Alert, error) {
	items, err := s.inventory.List(ctx, hospitalID)
	if err != nil {
		// an unreachable store yields no alerts rather than eight "out of stock"
		return degrade.List[domain.Alert](s.logger, "inventory.alerts", nil, err)
	}
	return domain.BuildAlerts(items), nil
}

func (s *Service) Initialize(ctx context.Context, actorID, hospitalID string) ([]domain.InventoryItem, error) {
	return s.inventory.Initialize(ctx, hospitalID, actorID)
}

func (s *Service) SetExpiring(ctx context.Context, actorID, hospitalID string, group domain.BloodGroup, units int) (*domain.InventoryItem, error) {
	if !group.Valid() {
		return nil, domain.Validationf("unknown blood group %q", group)
	}
	if units < 0 {
		return nil, domain.Validationf("expiring units must not be negative")
	}
	return s.inventory.SetExpiring(ctx, hospitalID, group, units, actorID)
}

func (s *Service) Movements(ctx context.Context, hospitalID string, limit int) ([]domain.InventoryMovement, error) {
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	items, err := s.inventory.ListMovements(ctx, hospitalID, limit)
	return degrade.List(s.logger, "inventory.movements", items, err)
}
