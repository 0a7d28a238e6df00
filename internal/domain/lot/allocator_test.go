package lot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

func qty(v int64) types.Quantity {
	return types.NewQuantityFromInt(v)
}

func testLot(remain int64, createdAt time.Time) *Lot {
	l := NewLot(id.New(), id.New(), id.New(), "L-"+createdAt.Format("150405"), qty(remain), types.ZeroMoney(), SourceReceipt)
	l.CreatedAt = createdAt
	return l
}

func TestPlanTakes_OldestFirst(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	oldest := testLot(5, t1)
	newest := testLot(10, t2)
	materialID := id.New()

	// Deliberately pass newest first; the planner must reorder.
	takes, err := PlanTakes(materialID, []*Lot{newest, oldest}, qty(8))
	require.NoError(t, err)
	require.Len(t, takes, 2)

	assert.Equal(t, oldest.ID, takes[0].LotID)
	assert.Equal(t, qty(5), takes[0].Quantity)
	assert.Equal(t, newest.ID, takes[1].LotID)
	assert.Equal(t, qty(3), takes[1].Quantity)
}

func TestPlanTakes_TieBrokenByID(t *testing.T) {
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	a := testLot(4, at)
	b := testLot(4, at)

	first, second := a, b
	if b.ID.String() < a.ID.String() {
		first, second = b, a
	}

	takes, err := PlanTakes(id.New(), []*Lot{a, b}, qty(6))
	require.NoError(t, err)
	require.Len(t, takes, 2)
	assert.Equal(t, first.ID, takes[0].LotID)
	assert.Equal(t, second.ID, takes[1].LotID)
}

func TestPlanTakes_ExactDrain(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	lots := []*Lot{
		testLot(60, t1),
		testLot(40, t1.Add(time.Minute)),
	}

	takes, err := PlanTakes(id.New(), lots, qty(100))
	require.NoError(t, err)
	require.Len(t, takes, 2)

	var total types.Quantity
	for _, take := range takes {
		total += take.Quantity
	}
	assert.Equal(t, qty(100), total)
}

func TestPlanTakes_InsufficientReportsShortfall(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	lots := []*Lot{
		testLot(60, t1),
		testLot(40, t1.Add(time.Minute)),
	}
	materialID := id.New()

	takes, err := PlanTakes(materialID, lots, qty(101))
	assert.Nil(t, takes, "failed allocation must not return a partial plan")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, qty(1).String(), appErr.Details["shortfall"])
	assert.Equal(t, qty(100).String(), appErr.Details["available"])
	assert.Equal(t, materialID.String(), appErr.Details["material_id"])
}

func TestPlanTakes_SkipsDrainedLots(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	drained := testLot(10, t1)
	drained.Issue = drained.Quantity
	drained.Remain = 0
	live := testLot(10, t1.Add(time.Minute))

	takes, err := PlanTakes(id.New(), []*Lot{drained, live}, qty(7))
	require.NoError(t, err)
	require.Len(t, takes, 1)
	assert.Equal(t, live.ID, takes[0].LotID)
	assert.Equal(t, qty(7), takes[0].Quantity)
}

func TestPlanTakes_RejectsNonPositiveNeed(t *testing.T) {
	_, err := PlanTakes(id.New(), nil, qty(0))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

func TestLotInvariant(t *testing.T) {
	l := testLot(10, time.Now())
	require.NoError(t, l.CheckInvariant())

	l.Remain = qty(4)
	l.Issue = qty(6)
	require.NoError(t, l.CheckInvariant())

	l.Remain = qty(-1)
	require.Error(t, l.CheckInvariant())

	l.Remain = qty(5)
	l.Issue = qty(6)
	require.Error(t, l.CheckInvariant())
}
