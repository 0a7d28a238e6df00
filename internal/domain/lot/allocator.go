package lot

import (
	"sort"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// PlanTakes builds a FIFO allocation plan covering need from the given lots.
//
// Lots are consumed oldest-first, tie-broken by lot id so the order is
// deterministic when creation times collide. The plan is pure: no lot is
// mutated, and on failure no partial plan is returned. Callers apply the
// plan inside the same transaction that read the lots.
func PlanTakes(materialID id.ID, lots []*Lot, need types.Quantity) ([]Take, error) {
	if !need.IsPositive() {
		return nil, apperror.NewInvalidInput("needed quantity must be positive").
			WithDetail("material_id", materialID.String())
	}

	ordered := make([]*Lot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	var takes []Take
	remaining := need
	var available types.Quantity

	for _, l := range ordered {
		if !l.Remain.IsPositive() {
			continue
		}
		available += l.Remain
		if !remaining.IsPositive() {
			continue
		}

		take := l.Remain
		if take > remaining {
			take = remaining
		}
		takes = append(takes, Take{LotID: l.ID, LotCode: l.LotCode, Quantity: take})
		remaining -= take
	}

	if remaining.IsPositive() {
		return nil, apperror.NewInsufficientStock(
			materialID.String(),
			need.String(),
			available.String(),
			remaining.String(),
		)
	}

	return takes, nil
}
