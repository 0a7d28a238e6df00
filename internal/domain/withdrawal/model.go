// Package withdrawal provides the WithdrawalRequest document: a demand
// for materials to be issued from a warehouse.
package withdrawal

import (
	"context"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/entity"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// Status is the withdrawal request lifecycle state.
type Status string

const (
	StatusOpen   Status = "open"
	StatusIssued Status = "issued"
)

// Request is a withdrawal request document.
type Request struct {
	entity.Document

	// WarehouseID is the warehouse the materials are requested from
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// Status flips to issued exactly once, by the issue workflow
	Status Status `db:"status" json:"status"`

	// Requester is a free-form reference to who asked for the materials
	Requester string `db:"requester" json:"requester,omitempty"`

	// Lines is the table part: requested materials
	Lines []Line `db:"-" json:"lines"`
}

// Line is one requested material position.
type Line struct {
	LineID     id.ID          `db:"line_id" json:"lineId"`
	LineNo     int            `db:"line_no" json:"lineNo"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

// NewRequest creates a new open withdrawal request.
func NewRequest(companyID, warehouseID id.ID) *Request {
	return &Request{
		Document:    entity.NewDocument(companyID),
		WarehouseID: warehouseID,
		Status:      StatusOpen,
		Lines:       make([]Line, 0),
	}
}

// AddLine appends a requested position.
func (r *Request) AddLine(materialID id.ID, quantity types.Quantity) {
	r.Lines = append(r.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(r.Lines) + 1,
		MaterialID: materialID,
		Quantity:   quantity,
	})
}

// Validate implements entity.Validatable.
func (r *Request) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(r.WarehouseID) {
		return apperror.NewMissingWarehouse()
	}
	if len(r.Lines) == 0 {
		return apperror.NewInvalidInput("at least one line is required").WithDetail("field", "lines")
	}
	for _, line := range r.Lines {
		if id.IsNil(line.MaterialID) {
			return apperror.NewInvalidInput("material is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewInvalidInput("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
	}
	return nil
}
