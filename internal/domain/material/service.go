package material

import (
	"context"
	"fmt"

	"stockpit/internal/core/id"
	"stockpit/pkg/logger"
)

// Service provides business logic for the materials catalog.
type Service struct {
	repo Repository
}

// NewService creates a new materials service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new material.
func (s *Service) Create(ctx context.Context, m *Material) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	logger.Info(ctx, "material created", "material_id", m.ID, "code", m.Code)
	return nil
}

// Update validates and persists changes to an existing material.
func (s *Service) Update(ctx context.Context, m *Material) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}
	m.UpdatedAt = m.UpdatedAt.UTC()
	if err := s.repo.Update(ctx, m); err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// Get returns a material by id.
func (s *Service) Get(ctx context.Context, companyID, materialID id.ID) (*Material, error) {
	return s.repo.GetByID(ctx, companyID, materialID)
}

// GetByCode returns a material by catalog code.
func (s *Service) GetByCode(ctx context.Context, companyID id.ID, code string) (*Material, error) {
	return s.repo.GetByCode(ctx, companyID, code)
}

// List returns all materials of a company.
func (s *Service) List(ctx context.Context, companyID id.ID) ([]*Material, error) {
	return s.repo.List(ctx, companyID)
}
