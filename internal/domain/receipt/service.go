package receipt

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
	"stockpit/internal/domain/purchaseorder"
	"stockpit/pkg/logger"
)

// Orders is the purchase order surface the receipt workflow needs.
// Satisfied by purchaseorder.Service.
type Orders interface {
	Get(ctx context.Context, companyID, poID id.ID) (*purchaseorder.PurchaseOrder, error)
	ReceivedQuantities(ctx context.Context, poID id.ID, excludeReceiptID *id.ID) (map[id.ID]types.Quantity, error)
	RecomputeFulfillment(ctx context.Context, companyID, poID id.ID) error
}

// Lots is the lot store surface the receipt workflow needs.
// Satisfied by lot.Service.
type Lots interface {
	CreateLot(ctx context.Context, l *lot.Lot) error
	ListByReceipt(ctx context.Context, receiptID id.ID) ([]*lot.Lot, error)
	DeleteByReceipt(ctx context.Context, receiptID id.ID) error
}

// Service provides the receipt workflow: validate against the order
// allowance, create header, lines and lots in one transaction, then
// recompute order fulfillment as a post-effect.
type Service struct {
	repo      Repository
	orders    Orders
	lots      Lots
	generator *codes.Generator
	txManager tx.Manager
}

// NewService creates a new receipt service.
func NewService(repo Repository, orders Orders, lots Lots, generator *codes.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		lots:      lots,
		generator: generator,
		txManager: txManager,
	}
}

// Create receives goods against a purchase order. The whole mutation is
// one transaction; a commit-time code collision retries the transaction
// with a fresh number. Fulfillment recompute runs after commit and never
// fails the receipt.
func (s *Service) Create(ctx context.Context, companyID id.ID, in CreateInput) (*Receipt, error) {
	if id.IsNil(companyID) {
		return nil, apperror.NewMissingCompany()
	}
	if id.IsNil(in.PurchaseOrderID) {
		return nil, apperror.NewInvalidInput("purchase order is required").WithDetail("field", "purchaseOrderId")
	}
	if id.IsNil(in.WarehouseID) {
		return nil, apperror.NewMissingWarehouse()
	}
	if err := validateLineInputs(in.Lines); err != nil {
		return nil, err
	}

	var created *Receipt
	err := codes.RetryOnDuplicate(ctx, codes.DefaultRetryAttempts, func(ctx context.Context) error {
		number, err := s.generator.Next(ctx, companyID, codes.FamilyReceipt, time.Now())
		if err != nil {
			return err
		}

		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			po, err := s.orders.Get(ctx, companyID, in.PurchaseOrderID)
			if err != nil {
				return err
			}
			if !po.IsReceivable() {
				return apperror.NewInvalidInput("order does not accept receipts").
					WithDetail("po_id", po.ID.String()).
					WithDetail("status", string(po.Status))
			}

			received, err := s.orders.ReceivedQuantities(ctx, po.ID, nil)
			if err != nil {
				return fmt.Errorf("received quantities: %w", err)
			}

			lines, err := buildLines(po, received, in.Lines)
			if err != nil {
				return err
			}

			r := NewReceipt(companyID, po.ID, in.WarehouseID, in.ReceivedAt)
			r.Number = number
			r.CreatedBy = in.CreatedBy
			r.Lines = lines
			r.RecalculateTotal()

			if err := s.repo.Create(ctx, r); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, r.ID, r.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			if err := s.createLots(ctx, r); err != nil {
				return err
			}

			created = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, companyID, created.PurchaseOrderID)

	logger.Info(ctx, "receipt created",
		"receipt_id", created.ID,
		"number", created.Number,
		"po_id", created.PurchaseOrderID,
		"total", created.TotalPrice,
	)
	return created, nil
}

// Replace swaps a receipt's lines wholesale: re-validate the new lines
// against the order allowance with this receipt excluded, reverse the old
// lots and create fresh ones. Rejected when any originated lot has been
// partially issued, since reversing it would strand consumed stock.
func (s *Service) Replace(ctx context.Context, companyID, receiptID id.ID, lines []LineInput) (*Receipt, error) {
	if id.IsNil(companyID) {
		return nil, apperror.NewMissingCompany()
	}
	if err := validateLineInputs(lines); err != nil {
		return nil, err
	}

	var updated *Receipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByID(ctx, companyID, receiptID)
		if err != nil {
			return err
		}
		if err := s.guardLotsUntouched(ctx, r.ID); err != nil {
			return err
		}

		po, err := s.orders.Get(ctx, companyID, r.PurchaseOrderID)
		if err != nil {
			return err
		}
		received, err := s.orders.ReceivedQuantities(ctx, po.ID, &r.ID)
		if err != nil {
			return fmt.Errorf("received quantities: %w", err)
		}

		newLines, err := buildLines(po, received, lines)
		if err != nil {
			return err
		}

		r.Lines = newLines
		r.RecalculateTotal()
		r.Touch()

		if err := s.repo.Update(ctx, r); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, r.ID, r.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.lots.DeleteByReceipt(ctx, r.ID); err != nil {
			return err
		}
		if err := s.createLots(ctx, r); err != nil {
			return err
		}

		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, companyID, updated.PurchaseOrderID)

	logger.Info(ctx, "receipt replaced",
		"receipt_id", updated.ID,
		"number", updated.Number,
		"lines", len(updated.Lines),
	)
	return updated, nil
}

// Delete reverses a receipt: removes its lots, lines and header. Rejected
// when any originated lot has been partially issued.
func (s *Service) Delete(ctx context.Context, companyID, receiptID id.ID) error {
	if id.IsNil(companyID) {
		return apperror.NewMissingCompany()
	}
	var poID id.ID
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByID(ctx, companyID, receiptID)
		if err != nil {
			return err
		}
		if err := s.guardLotsUntouched(ctx, r.ID); err != nil {
			return err
		}

		if err := s.lots.DeleteByReceipt(ctx, r.ID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, companyID, r.ID); err != nil {
			return err
		}

		poID = r.PurchaseOrderID
		return nil
	})
	if err != nil {
		return err
	}

	s.recompute(ctx, companyID, poID)

	logger.Info(ctx, "receipt deleted", "receipt_id", receiptID, "po_id", poID)
	return nil
}

// Get returns a receipt with its lines.
func (s *Service) Get(ctx context.Context, companyID, receiptID id.ID) (*Receipt, error) {
	r, err := s.repo.GetByID(ctx, companyID, receiptID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	r.Lines = lines
	return r, nil
}

// List returns receipts matching the filter, headers only.
func (s *Service) List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*Receipt, error) {
	return s.repo.List(ctx, companyID, filter)
}

// guardLotsUntouched rejects the mutation when any lot originated by the
// receipt has issued quantity.
func (s *Service) guardLotsUntouched(ctx context.Context, receiptID id.ID) error {
	lots, err := s.lots.ListByReceipt(ctx, receiptID)
	if err != nil {
		return fmt.Errorf("list lots: %w", err)
	}
	for _, l := range lots {
		if l.Issue.IsPositive() {
			return apperror.NewConflict("receipt has issued stock and cannot be reversed").
				WithDetail("receipt_id", receiptID.String()).
				WithDetail("lot_code", l.LotCode)
		}
	}
	return nil
}

// createLots originates one lot per receipt line.
func (s *Service) createLots(ctx context.Context, r *Receipt) error {
	for i := range r.Lines {
		line := &r.Lines[i]
		l := lot.NewLot(r.CompanyID, r.WarehouseID, line.MaterialID,
			lotCode(r.Number, line.MaterialID, line.LineNo),
			line.Quantity, line.UnitPrice, lot.SourceReceipt)
		l.ReceiptID = &r.ID
		l.ReceiptLineID = &line.LineID
		if err := s.lots.CreateLot(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// lotCode derives a unique lot code from the receipt number, material and
// line position. The nanosecond suffix disambiguates replaced lines.
func lotCode(number string, materialID id.ID, lineNo int) string {
	return fmt.Sprintf("%s-%s-%d-%d", number, materialID.String()[:8], lineNo, time.Now().UnixNano())
}

// recompute runs the fulfillment engine after a committed receipt
// mutation. Failures are logged, never surfaced: the receipt itself is
// already durable and recompute is re-derivable.
func (s *Service) recompute(ctx context.Context, companyID, poID id.ID) {
	if err := s.orders.RecomputeFulfillment(ctx, companyID, poID); err != nil {
		logger.Warn(ctx, "fulfillment recompute failed",
			"po_id", poID,
			"error", err,
		)
	}
}

// buildLines validates each requested quantity against the order
// allowance (ordered minus already received) and prices each line from
// its order line. Inputs carry at most one line per material, enforced
// by validateLineInputs.
func buildLines(po *purchaseorder.PurchaseOrder, received map[id.ID]types.Quantity, inputs []LineInput) ([]Line, error) {
	ordered := po.OrderedByMaterial()

	lines := make([]Line, 0, len(inputs))
	for i, in := range inputs {
		allowance := ordered[in.MaterialID] - received[in.MaterialID]
		if allowance.IsNegative() {
			allowance = 0
		}
		if in.Quantity > allowance {
			return nil, apperror.NewExceedsOrder(
				in.MaterialID.String(),
				in.Quantity.String(),
				allowance.String(),
			)
		}

		poLine, err := resolveOrderLine(po, in)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			LineID:     id.New(),
			LineNo:     i + 1,
			MaterialID: in.MaterialID,
			POLineID:   poLine.LineID,
			Quantity:   in.Quantity,
			UnitPrice:  poLine.UnitPrice,
		})
	}
	return lines, nil
}

func resolveOrderLine(po *purchaseorder.PurchaseOrder, in LineInput) (*purchaseorder.Line, error) {
	if !id.IsNil(in.POLineID) {
		poLine := po.LineByID(in.POLineID)
		if poLine == nil || poLine.MaterialID != in.MaterialID {
			return nil, apperror.NewInvalidInput("order line does not match material").
				WithDetail("po_line_id", in.POLineID.String()).
				WithDetail("material_id", in.MaterialID.String())
		}
		return poLine, nil
	}
	for i := range po.Lines {
		if po.Lines[i].MaterialID == in.MaterialID {
			return &po.Lines[i], nil
		}
	}
	return nil, apperror.NewInvalidInput("material is not on the order").
		WithDetail("material_id", in.MaterialID.String())
}
