package purchaseorder

import (
	"context"
	"fmt"
	"time"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/tx"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/codes"
	"stockpit/pkg/logger"
)

// Service provides business operations for purchase orders, including the
// fulfillment engine driven by receipt post-effects.
type Service struct {
	repo      Repository
	generator *codes.Generator
	txManager tx.Manager
}

// NewService creates a new purchase order service.
func NewService(repo Repository, generator *codes.Generator, txManager tx.Manager) *Service {
	return &Service{repo: repo, generator: generator, txManager: txManager}
}

// Create validates and persists a new draft purchase order with a
// generated PO number.
func (s *Service) Create(ctx context.Context, po *PurchaseOrder) error {
	if err := po.Validate(ctx); err != nil {
		return err
	}
	po.RecalculateTotal()

	return codes.RetryOnDuplicate(ctx, codes.DefaultRetryAttempts, func(ctx context.Context) error {
		number, err := s.generator.Next(ctx, po.CompanyID, codes.FamilyPurchaseOrder, time.Now())
		if err != nil {
			return err
		}
		po.Number = number

		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, po); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, po.ID, po.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}

			logger.Info(ctx, "purchase order created",
				"po_id", po.ID,
				"number", po.Number,
				"lines", len(po.Lines),
			)
			return nil
		})
	})
}

// Get returns a purchase order with its lines.
func (s *Service) Get(ctx context.Context, companyID, poID id.ID) (*PurchaseOrder, error) {
	po, err := s.repo.GetByID(ctx, companyID, poID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, poID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	po.Lines = lines
	return po, nil
}

// List returns purchase orders matching the filter, headers only.
func (s *Service) List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*PurchaseOrder, error) {
	return s.repo.List(ctx, companyID, filter)
}

// MarkSent moves a draft order to sent.
func (s *Service) MarkSent(ctx context.Context, companyID, poID id.ID) error {
	return s.transition(ctx, companyID, poID, StatusSent)
}

// MarkConfirmed moves a sent order to confirmed.
func (s *Service) MarkConfirmed(ctx context.Context, companyID, poID id.ID) error {
	return s.transition(ctx, companyID, poID, StatusConfirmed)
}

// Cancel cancels an order. Received orders cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, companyID, poID id.ID) error {
	return s.transition(ctx, companyID, poID, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, companyID, poID id.ID, to Status) error {
	po, err := s.repo.GetByID(ctx, companyID, poID)
	if err != nil {
		return err
	}
	if !canTransition(po.Status, to) {
		return apperror.NewStatusTransition(string(po.Status), string(to))
	}
	if err := s.repo.UpdateStatus(ctx, companyID, poID, to); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	logger.Info(ctx, "purchase order status changed",
		"po_id", poID,
		"from", po.Status,
		"to", to,
	)
	return nil
}

// ReplaceLines swaps the full table part. Allowed only while no receipt
// references the order; after the first receipt the allowance is live and
// line edits would invalidate received quantities.
func (s *Service) ReplaceLines(ctx context.Context, companyID, poID id.ID, lines []Line) error {
	po, err := s.repo.GetByID(ctx, companyID, poID)
	if err != nil {
		return err
	}

	has, err := s.repo.HasReceipts(ctx, poID)
	if err != nil {
		return fmt.Errorf("check receipts: %w", err)
	}
	if has {
		return apperror.NewInvalidInput("cannot replace lines of an order that has receipts").
			WithDetail("po_id", poID.String())
	}

	for i := range lines {
		if id.IsNil(lines[i].LineID) {
			lines[i].LineID = id.New()
		}
		lines[i].LineNo = i + 1
	}
	po.Lines = lines
	if err := po.Validate(ctx); err != nil {
		return err
	}
	po.RecalculateTotal()
	po.Touch()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, po.ID, po.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// ReceivedQuantities sums receipt line quantities against the order per
// material. excludeReceiptID, when set, leaves one receipt out of the sum.
func (s *Service) ReceivedQuantities(ctx context.Context, poID id.ID, excludeReceiptID *id.ID) (map[id.ID]types.Quantity, error) {
	return s.repo.ReceivedQuantities(ctx, poID, excludeReceiptID)
}

// RecomputeFulfillment re-derives the order status from received
// quantities. All lines fully covered moves the order to received; any
// uncovered line moves a received order back to confirmed. Idempotent, no
// side effect beyond the status column. Draft, sent, and cancelled orders
// are left alone.
func (s *Service) RecomputeFulfillment(ctx context.Context, companyID, poID id.ID) error {
	po, err := s.Get(ctx, companyID, poID)
	if err != nil {
		return err
	}

	switch po.Status {
	case StatusConfirmed, StatusReceived:
	default:
		return nil
	}

	received, err := s.repo.ReceivedQuantities(ctx, poID, nil)
	if err != nil {
		return fmt.Errorf("received quantities: %w", err)
	}

	target := StatusReceived
	for materialID, ordered := range po.OrderedByMaterial() {
		if received[materialID] < ordered {
			target = StatusConfirmed
			break
		}
	}

	if target == po.Status {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, companyID, poID, target); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	logger.Info(ctx, "purchase order fulfillment recomputed",
		"po_id", poID,
		"from", po.Status,
		"to", target,
	)
	return nil
}
