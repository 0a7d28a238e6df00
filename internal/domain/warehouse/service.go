package warehouse

import (
	"context"
	"fmt"

	"stockpit/internal/core/id"
	"stockpit/pkg/logger"
)

// Service provides business logic for the warehouses catalog.
type Service struct {
	repo Repository
}

// NewService creates a new warehouses service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new warehouse.
func (s *Service) Create(ctx context.Context, w *Warehouse) error {
	if err := w.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}
	logger.Info(ctx, "warehouse created", "warehouse_id", w.ID, "code", w.Code)
	return nil
}

// Get returns a warehouse by id.
func (s *Service) Get(ctx context.Context, companyID, warehouseID id.ID) (*Warehouse, error) {
	return s.repo.GetByID(ctx, companyID, warehouseID)
}

// List returns all warehouses of a company.
func (s *Service) List(ctx context.Context, companyID id.ID) ([]*Warehouse, error) {
	return s.repo.List(ctx, companyID)
}
