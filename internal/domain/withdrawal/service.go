package withdrawal

import (
	"context"
	"fmt"
	"time"

	"stockpit/internal/core/id"
	"stockpit/internal/core/tx"
	"stockpit/internal/domain/codes"
	"stockpit/pkg/logger"
)

// Service provides business operations for withdrawal requests.
type Service struct {
	repo      Repository
	generator *codes.Generator
	txManager tx.Manager
}

// NewService creates a new withdrawal request service.
func NewService(repo Repository, generator *codes.Generator, txManager tx.Manager) *Service {
	return &Service{repo: repo, generator: generator, txManager: txManager}
}

// Create validates and persists a new open request with a generated WR
// number.
func (s *Service) Create(ctx context.Context, r *Request) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	return codes.RetryOnDuplicate(ctx, codes.DefaultRetryAttempts, func(ctx context.Context) error {
		number, err := s.generator.Next(ctx, r.CompanyID, codes.FamilyWithdrawal, time.Now())
		if err != nil {
			return err
		}
		r.Number = number

		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, r); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, r.ID, r.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}

			logger.Info(ctx, "withdrawal request created",
				"request_id", r.ID,
				"number", r.Number,
				"lines", len(r.Lines),
			)
			return nil
		})
	})
}

// Get returns a request with its lines.
func (s *Service) Get(ctx context.Context, companyID, requestID id.ID) (*Request, error) {
	r, err := s.repo.GetByID(ctx, companyID, requestID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	r.Lines = lines
	return r, nil
}

// List returns requests matching the filter, headers only.
func (s *Service) List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*Request, error) {
	return s.repo.List(ctx, companyID, filter)
}

// MarkIssued flips the request to issued. Called by the issue workflow
// inside its transaction.
func (s *Service) MarkIssued(ctx context.Context, companyID, requestID id.ID) error {
	if err := s.repo.UpdateStatus(ctx, companyID, requestID, StatusIssued); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}
