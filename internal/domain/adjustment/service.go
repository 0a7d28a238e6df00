package adjustment

import (
	"context"
	"fmt"
	"time"

	"stockpit/internal/core/id"
	"stockpit/internal/core/tx"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/codes"
	"stockpit/internal/domain/lot"
	"stockpit/internal/domain/material"
	"stockpit/pkg/logger"
)

// Materials is the catalog surface the adjustment workflow needs.
// Satisfied by material.Service.
type Materials interface {
	Get(ctx context.Context, companyID, materialID id.ID) (*material.Material, error)
}

// Lots is the lot store surface the adjustment workflow needs.
// Satisfied by lot.Service.
type Lots interface {
	CreateLot(ctx context.Context, l *lot.Lot) error
	Allocate(ctx context.Context, companyID, warehouseID, materialID id.ID, need types.Quantity) ([]lot.Take, error)
	Apply(ctx context.Context, takes []lot.Take) error
}

// Service provides the stock adjustment workflow.
type Service struct {
	repo      Repository
	materials Materials
	lots      Lots
	generator *codes.Generator
	txManager tx.Manager
}

// NewService creates a new adjustment service.
func NewService(repo Repository, materials Materials, lots Lots, generator *codes.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		materials: materials,
		lots:      lots,
		generator: generator,
		txManager: txManager,
	}
}

// Create applies a signed stock correction. Positive deltas originate a
// lot priced from the material master; negative deltas consume lots FIFO
// and fail with InsufficientStock when the warehouse cannot cover the
// delta. The audit row and the lot mutation commit together.
func (s *Service) Create(ctx context.Context, a *StockAdjustment) error {
	if err := a.Validate(ctx); err != nil {
		return err
	}

	return codes.RetryOnDuplicate(ctx, codes.DefaultRetryAttempts, func(ctx context.Context) error {
		number, err := s.generator.Next(ctx, a.CompanyID, codes.FamilyAdjustment, time.Now())
		if err != nil {
			return err
		}
		a.Number = number

		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if a.Quantity.IsPositive() {
				if err := s.createLot(ctx, a); err != nil {
					return err
				}
			} else {
				takes, err := s.lots.Allocate(ctx, a.CompanyID, a.WarehouseID, a.MaterialID, a.Quantity.Abs())
				if err != nil {
					return err
				}
				if err := s.lots.Apply(ctx, takes); err != nil {
					return err
				}
			}

			if err := s.repo.Create(ctx, a); err != nil {
				return err
			}

			logger.Info(ctx, "stock adjusted",
				"adjustment_id", a.ID,
				"number", a.Number,
				"material_id", a.MaterialID,
				"quantity", a.Quantity,
			)
			return nil
		})
	})
}

func (s *Service) createLot(ctx context.Context, a *StockAdjustment) error {
	m, err := s.materials.Get(ctx, a.CompanyID, a.MaterialID)
	if err != nil {
		return fmt.Errorf("load material: %w", err)
	}

	a.LotCode = fmt.Sprintf("ADJ-%s-%d", a.Number, time.Now().UnixNano())
	l := lot.NewLot(a.CompanyID, a.WarehouseID, a.MaterialID, a.LotCode, a.Quantity, m.Price, lot.SourceAdjustment)
	return s.lots.CreateLot(ctx, l)
}

// Get returns one adjustment.
func (s *Service) Get(ctx context.Context, companyID, adjustmentID id.ID) (*StockAdjustment, error) {
	return s.repo.GetByID(ctx, companyID, adjustmentID)
}

// List returns the adjustment audit trail matching the filter.
func (s *Service) List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*StockAdjustment, error) {
	return s.repo.List(ctx, companyID, filter)
}
