// Package codes generates daily running document codes of the form
// PREFIX-YYYYMMDD-NNNN, scoped per company.
//
// The next sequence is never held in memory: it is derived from the
// persisted maximum existing code for the day prefix, and a unique index
// on (company_id, number) is the correctness backstop. Callers wrap code
// generation plus document creation in RetryOnDuplicate so a race between
// two concurrent creators probing the same next number resolves by
// regenerating and retrying the whole transaction.
package codes

import (
	"context"
	"fmt"
	"time"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
)

// Family identifies a document code family.
type Family string

const (
	FamilyPurchaseOrder Family = "PO"
	FamilyReceipt       Family = "RC"
	FamilyWithdrawal    Family = "WR"
	FamilyIssue         Family = "IS"
	FamilyAdjustment    Family = "SA"
)

// Prefix returns the code prefix for the family.
func (f Family) Prefix() string { return string(f) }

// maxSequence is the daily 4-digit code space.
const maxSequence = 9999

// DefaultRetryAttempts bounds the create-retry loop on commit-time
// uniqueness collisions.
const DefaultRetryAttempts = 5

// Store queries persisted codes. Implementations live in
// infrastructure/storage/postgres and read the actual document tables.
type Store interface {
	// MaxSequence returns the highest NNNN among existing codes of the
	// family sharing dayPrefix (e.g. "RC-20250101-") for the company,
	// or 0 when none exist.
	MaxSequence(ctx context.Context, companyID id.ID, family Family, dayPrefix string) (int, error)

	// Exists reports whether the exact code is already used by a document
	// of the family for the company.
	Exists(ctx context.Context, companyID id.ID, family Family, code string) (bool, error)
}

// Generator produces running document codes.
type Generator struct {
	store Store
}

// NewGenerator creates a code generator backed by the given store.
func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// DayPrefix returns the shared prefix of all codes of a family for a day.
func DayPrefix(family Family, day time.Time) string {
	return fmt.Sprintf("%s-%s-", family.Prefix(), day.UTC().Format("20060102"))
}

// Format builds the full code for a sequence number.
func Format(family Family, day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", DayPrefix(family, day), seq)
}

// Next produces an unused code for the family and day. It probes upward
// from max+1, skipping any code that already exists, and fails with
// SequenceExhausted once the 4-digit space is used up. Uniqueness is
// ultimately enforced by the persistence layer at commit time.
func (g *Generator) Next(ctx context.Context, companyID id.ID, family Family, day time.Time) (string, error) {
	if id.IsNil(companyID) {
		return "", apperror.NewMissingCompany()
	}

	prefix := DayPrefix(family, day)
	maxSeq, err := g.store.MaxSequence(ctx, companyID, family, prefix)
	if err != nil {
		return "", fmt.Errorf("max sequence for %s: %w", prefix, err)
	}

	for seq := maxSeq + 1; seq <= maxSequence; seq++ {
		code := Format(family, day, seq)
		used, err := g.store.Exists(ctx, companyID, family, code)
		if err != nil {
			return "", fmt.Errorf("check code %s: %w", code, err)
		}
		if !used {
			return code, nil
		}
	}

	return "", apperror.NewSequenceExhausted(prefix)
}

// RetryOnDuplicate runs fn up to attempts times, retrying only on
// DuplicateCode errors. All other failures are terminal for the request.
// Exhausted retries surface the last DuplicateCode error.
func RetryOnDuplicate(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn(ctx)
		if err == nil || !apperror.IsCode(err, apperror.CodeDuplicateCode) {
			return err
		}
	}
	return err
}
