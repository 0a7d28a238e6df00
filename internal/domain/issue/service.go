package issue

import (
	"context"
	"fmt"
	"time"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/tx"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/codes"
	"stockpit/internal/domain/lot"
	"stockpit/internal/domain/withdrawal"
	"stockpit/pkg/logger"
)

// Requests is the withdrawal request surface the issue workflow needs.
// Satisfied by withdrawal.Service.
type Requests interface {
	Get(ctx context.Context, companyID, requestID id.ID) (*withdrawal.Request, error)
	MarkIssued(ctx context.Context, companyID, requestID id.ID) error
}

// Allocator is the lot store surface the issue workflow needs.
// Satisfied by lot.Service.
type Allocator interface {
	Allocate(ctx context.Context, companyID, warehouseID, materialID id.ID, need types.Quantity) ([]lot.Take, error)
	Apply(ctx context.Context, takes []lot.Take) error
}

// Service provides the issue workflow. Every request line is planned
// before anything is written, so a shortfall on the last line aborts the
// whole issue with no stock moved.
type Service struct {
	repo      Repository
	requests  Requests
	allocator Allocator
	generator *codes.Generator
	txManager tx.Manager
}

// NewService creates a new issue service.
func NewService(repo Repository, requests Requests, allocator Allocator, generator *codes.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		requests:  requests,
		allocator: allocator,
		generator: generator,
		txManager: txManager,
	}
}

// Create issues stock against an open withdrawal request. The lot reads
// are locked, so two concurrent issues against overlapping stock
// serialize; two issues against the same request race on the request_id
// unique index and the loser gets AlreadyIssued.
func (s *Service) Create(ctx context.Context, companyID, requestID id.ID) (*Issue, error) {
	if id.IsNil(companyID) {
		return nil, apperror.NewMissingCompany()
	}
	if id.IsNil(requestID) {
		return nil, apperror.NewInvalidInput("request is required").WithDetail("field", "requestId")
	}

	var created *Issue
	err := codes.RetryOnDuplicate(ctx, codes.DefaultRetryAttempts, func(ctx context.Context) error {
		number, err := s.generator.Next(ctx, companyID, codes.FamilyIssue, time.Now())
		if err != nil {
			return err
		}

		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			exists, err := s.repo.ExistsForRequest(ctx, companyID, requestID)
			if err != nil {
				return fmt.Errorf("check existing issue: %w", err)
			}
			if exists {
				return apperror.NewAlreadyIssued(requestID.String())
			}

			req, err := s.requests.Get(ctx, companyID, requestID)
			if err != nil {
				return err
			}
			if req.Status != withdrawal.StatusOpen {
				return apperror.NewAlreadyIssued(requestID.String())
			}

			// Plan every line before touching anything.
			type plannedLine struct {
				materialID id.ID
				takes      []lot.Take
			}
			planned := make([]plannedLine, 0, len(req.Lines))
			for _, line := range req.Lines {
				takes, err := s.allocator.Allocate(ctx, companyID, req.WarehouseID, line.MaterialID, line.Quantity)
				if err != nil {
					return err
				}
				planned = append(planned, plannedLine{materialID: line.MaterialID, takes: takes})
			}

			doc := NewIssue(companyID, requestID, req.WarehouseID)
			doc.Number = number
			for _, pl := range planned {
				for _, take := range pl.takes {
					doc.Lines = append(doc.Lines, Line{
						LineID:     id.New(),
						LineNo:     len(doc.Lines) + 1,
						MaterialID: pl.materialID,
						LotID:      take.LotID,
						LotCode:    take.LotCode,
						Quantity:   take.Quantity,
					})
				}
			}

			if err := s.repo.Create(ctx, doc); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			for _, pl := range planned {
				if err := s.allocator.Apply(ctx, pl.takes); err != nil {
					return err
				}
			}
			if err := s.requests.MarkIssued(ctx, companyID, requestID); err != nil {
				return err
			}

			created = doc
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "issue created",
		"issue_id", created.ID,
		"number", created.Number,
		"request_id", requestID,
		"lines", len(created.Lines),
	)
	return created, nil
}

// Get returns an issue with its lines.
func (s *Service) Get(ctx context.Context, companyID, issueID id.ID) (*Issue, error) {
	doc, err := s.repo.GetByID(ctx, companyID, issueID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// List returns issues matching the filter, headers only.
func (s *Service) List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*Issue, error) {
	return s.repo.List(ctx, companyID, filter)
}
