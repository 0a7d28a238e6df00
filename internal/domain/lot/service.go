package lot

import (
	"context"
	"fmt"

	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
	"stockpit/pkg/logger"
)

// Service provides lot store operations. Allocation planning and plan
// application are separate steps; both must run inside the caller's
// transaction so the FOR UPDATE read and the decrement are atomic with
// respect to other writers.
type Service struct {
	repo Repository
}

// NewService creates a new lot store service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Allocate reads the available lots for the scope with row locks and plans
// a FIFO allocation for need. Nothing is mutated; the caller applies the
// returned plan with Apply once every line of its operation has a plan.
func (s *Service) Allocate(ctx context.Context, companyID, warehouseID, materialID id.ID, need types.Quantity) ([]Take, error) {
	lots, err := s.repo.ListAvailableForUpdate(ctx, companyID, warehouseID, materialID)
	if err != nil {
		return nil, fmt.Errorf("list available lots: %w", err)
	}
	return PlanTakes(materialID, lots, need)
}

// Apply decrements the planned lots.
func (s *Service) Apply(ctx context.Context, takes []Take) error {
	if len(takes) == 0 {
		return nil
	}
	if err := s.repo.ApplyTakes(ctx, takes); err != nil {
		return fmt.Errorf("apply takes: %w", err)
	}
	return nil
}

// CreateLot validates the lot invariant and persists a new lot.
func (s *Service) CreateLot(ctx context.Context, l *Lot) error {
	if err := l.CheckInvariant(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return fmt.Errorf("create lot: %w", err)
	}

	logger.Debug(ctx, "lot created",
		"lot_code", l.LotCode,
		"material_id", l.MaterialID,
		"quantity", l.Quantity,
	)
	return nil
}

// ListByReceipt returns the lots a receipt created.
func (s *Service) ListByReceipt(ctx context.Context, receiptID id.ID) ([]*Lot, error) {
	return s.repo.ListByReceipt(ctx, receiptID)
}

// DeleteByReceipt removes the lots a receipt created.
func (s *Service) DeleteByReceipt(ctx context.Context, receiptID id.ID) error {
	if err := s.repo.DeleteByReceipt(ctx, receiptID); err != nil {
		return fmt.Errorf("delete lots by receipt: %w", err)
	}
	return nil
}

// Availability returns the total remaining quantity for a material in a
// warehouse.
func (s *Service) Availability(ctx context.Context, companyID, warehouseID, materialID id.ID) (types.Quantity, error) {
	lots, err := s.repo.ListByMaterial(ctx, companyID, warehouseID, materialID)
	if err != nil {
		return 0, fmt.Errorf("list lots: %w", err)
	}

	var total types.Quantity
	for _, l := range lots {
		total += l.Remain
	}
	return total, nil
}

// LotsByMaterial returns all lots for a material in a warehouse.
func (s *Service) LotsByMaterial(ctx context.Context, companyID, warehouseID, materialID id.ID) ([]*Lot, error) {
	return s.repo.ListByMaterial(ctx, companyID, warehouseID, materialID)
}

// LotsByWarehouse returns all lots in a warehouse.
func (s *Service) LotsByWarehouse(ctx context.Context, companyID, warehouseID id.ID) ([]*Lot, error) {
	return s.repo.ListByWarehouse(ctx, companyID, warehouseID)
}
