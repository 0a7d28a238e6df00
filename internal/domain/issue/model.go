// Package issue provides the Issue document: stock leaving the warehouse
// against a withdrawal request, allocated FIFO from lots.
package issue

import (
	"time"

	"stockpit/internal/core/entity"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// Issue records materials issued against a withdrawal request. At most
// one issue per request, enforced by a unique index on request_id.
type Issue struct {
	entity.Document

	// RequestID references the withdrawal request being fulfilled
	RequestID id.ID `db:"request_id" json:"requestId"`

	// WarehouseID is the warehouse stock was taken from
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// IssuedAt is the physical issue time
	IssuedAt time.Time `db:"issued_at" json:"issuedAt"`

	// Lines is the table part: one row per lot take
	Lines []Line `db:"-" json:"lines"`
}

// Line records one take from one lot. A single request line expands into
// as many issue lines as lots were drawn from.
type Line struct {
	LineID     id.ID          `db:"line_id" json:"lineId"`
	LineNo     int            `db:"line_no" json:"lineNo"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	LotID      id.ID          `db:"lot_id" json:"lotId"`
	LotCode    string         `db:"lot_code" json:"lotCode"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

// NewIssue creates a new issue header.
func NewIssue(companyID, requestID, warehouseID id.ID) *Issue {
	i := &Issue{
		Document:    entity.NewDocument(companyID),
		RequestID:   requestID,
		WarehouseID: warehouseID,
		Lines:       make([]Line, 0),
	}
	i.IssuedAt = i.CreatedAt
	return i
}
