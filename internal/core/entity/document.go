// Package entity provides base types shared by all business documents.
package entity

import (
	"context"
	"time"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants without database access.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Document is the base type for business documents (purchase orders,
// receipts, withdrawal requests, issues, adjustments).
type Document struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// CompanyID is the owning tenant; every document row carries it and
	// every query filters by it.
	CompanyID id.ID `db:"company_id" json:"companyId"`

	// Number is the running document code (e.g. RC-20250101-0001),
	// unique per company.
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewDocument creates a new Document with generated ID and timestamps.
func NewDocument(companyID id.ID) Document {
	now := time.Now().UTC()
	return Document{
		ID:        id.New(),
		CompanyID: companyID,
		Date:      now,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.CompanyID) {
		return apperror.NewMissingCompany()
	}
	if d.Date.IsZero() {
		return apperror.NewInvalidInput("date is required").WithDetail("field", "date")
	}
	return nil
}

// Touch updates the UpdatedAt timestamp and increments version.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
	d.Version++
}
