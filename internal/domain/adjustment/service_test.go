package adjustment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/codes"
	"stockpit/internal/domain/lot"
	"stockpit/internal/domain/material"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memCodeStore struct{ codes map[string]bool }

func (s *memCodeStore) MaxSequence(context.Context, id.ID, codes.Family, string) (int, error) {
	return len(s.codes), nil
}

func (s *memCodeStore) Exists(_ context.Context, _ id.ID, _ codes.Family, code string) (bool, error) {
	return s.codes[code], nil
}

type memMaterials struct{ byID map[id.ID]*material.Material }

func (m *memMaterials) Get(_ context.Context, companyID, materialID id.ID) (*material.Material, error) {
	mat, ok := m.byID[materialID]
	if !ok || mat.CompanyID != companyID {
		return nil, apperror.NewNotFound("material", materialID.String())
	}
	return mat, nil
}

// memLots tracks created lots and serves FIFO allocation over them.
type memLots struct{ lots []*lot.Lot }

func (m *memLots) CreateLot(_ context.Context, l *lot.Lot) error {
	if err := l.CheckInvariant(); err != nil {
		return err
	}
	m.lots = append(m.lots, l)
	return nil
}

func (m *memLots) Allocate(_ context.Context, companyID, warehouseID, materialID id.ID, need types.Quantity) ([]lot.Take, error) {
	var available []*lot.Lot
	for _, l := range m.lots {
		if l.CompanyID == companyID && l.WarehouseID == warehouseID && l.MaterialID == materialID && l.Remain.IsPositive() {
			available = append(available, l)
		}
	}
	return lot.PlanTakes(materialID, available, need)
}

func (m *memLots) Apply(_ context.Context, takes []lot.Take) error {
	for _, take := range takes {
		for _, l := range m.lots {
			if l.ID == take.LotID {
				l.Remain -= take.Quantity
				l.Issue += take.Quantity
			}
		}
	}
	return nil
}

type memRepo struct{ rows []*StockAdjustment }

func (r *memRepo) Create(_ context.Context, a *StockAdjustment) error {
	r.rows = append(r.rows, a)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, companyID, adjustmentID id.ID) (*StockAdjustment, error) {
	for _, a := range r.rows {
		if a.ID == adjustmentID && a.CompanyID == companyID {
			return a, nil
		}
	}
	return nil, apperror.NewNotFound("stock_adjustment", adjustmentID.String())
}

func (r *memRepo) List(_ context.Context, companyID id.ID, _ ListFilter) ([]*StockAdjustment, error) {
	var out []*StockAdjustment
	for _, a := range r.rows {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

type fixture struct {
	svc        *Service
	repo       *memRepo
	lots       *memLots
	companyID  id.ID
	warehouse  id.ID
	materialID id.ID
}

func newFixture(t *testing.T) *fixture {
	companyID := id.New()
	mat := material.NewMaterial(companyID, "M-001", "Widget", "pcs", types.MustMoney("4.20"))

	f := &fixture{
		repo:       &memRepo{},
		lots:       &memLots{},
		companyID:  companyID,
		warehouse:  id.New(),
		materialID: mat.ID,
	}
	materials := &memMaterials{byID: map[id.ID]*material.Material{mat.ID: mat}}
	gen := codes.NewGenerator(&memCodeStore{codes: make(map[string]bool)})
	f.svc = NewService(f.repo, materials, f.lots, gen, nopTxManager{})
	return f
}

func (f *fixture) seedLot(remain int64, createdAt time.Time) *lot.Lot {
	l := lot.NewLot(f.companyID, f.warehouse, f.materialID, "L-"+createdAt.Format("150405"), qty(remain), types.ZeroMoney(), lot.SourceReceipt)
	l.CreatedAt = createdAt
	f.lots.lots = append(f.lots.lots, l)
	return l
}

func (f *fixture) adjustment(quantity int64) *StockAdjustment {
	return NewStockAdjustment(f.companyID, f.warehouse, f.materialID, qty(quantity), "cycle count")
}

func TestCreate_PositiveOriginatesLotAtMasterPrice(t *testing.T) {
	f := newFixture(t)

	a := f.adjustment(15)
	require.NoError(t, f.svc.Create(context.Background(), a))

	assert.Regexp(t, `^SA-\d{8}-\d{4}$`, a.Number)
	assert.Regexp(t, `^ADJ-`, a.LotCode)

	require.Len(t, f.lots.lots, 1)
	l := f.lots.lots[0]
	assert.Equal(t, qty(15), l.Remain)
	assert.True(t, l.Price.Equal(types.MustMoney("4.20")), "priced from the material master")
	assert.Equal(t, lot.SourceAdjustment, l.Source)
	assert.Equal(t, a.LotCode, l.LotCode)

	require.Len(t, f.repo.rows, 1, "audit row always written")
}

func TestCreate_NegativeConsumesFIFO(t *testing.T) {
	f := newFixture(t)
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	older := f.seedLot(5, t1)
	newer := f.seedLot(10, t1.Add(time.Hour))

	a := f.adjustment(-8)
	require.NoError(t, f.svc.Create(context.Background(), a))

	assert.Equal(t, qty(0), older.Remain)
	assert.Equal(t, qty(7), newer.Remain)
	assert.Empty(t, a.LotCode, "negative adjustment originates no lot")
	require.Len(t, f.repo.rows, 1)
	assert.Equal(t, qty(-8), f.repo.rows[0].Quantity)
}

func TestCreate_NegativeShortfallRejected(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedLot(5, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))

	a := f.adjustment(-6)
	err := f.svc.Create(context.Background(), a)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, qty(5), seeded.Remain, "nothing consumed on rejection")
	assert.Empty(t, f.repo.rows, "no audit row on rejection")
}

func TestCreate_ZeroRejected(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Create(context.Background(), f.adjustment(0))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

func TestCreate_MissingReasonRejected(t *testing.T) {
	f := newFixture(t)

	a := f.adjustment(5)
	a.Reason = ""
	err := f.svc.Create(context.Background(), a)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}
