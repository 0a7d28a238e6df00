package receipt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/codes"
	"stockpit/internal/domain/lot"
	"stockpit/internal/domain/purchaseorder"
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

type mockRepo struct {
	receipts map[id.ID]*Receipt
	lines    map[id.ID][]Line
}

func newMockRepo() *mockRepo {
	return &mockRepo{receipts: make(map[id.ID]*Receipt), lines: make(map[id.ID][]Line)}
}

func (r *mockRepo) Create(_ context.Context, rec *Receipt) error {
	cp := *rec
	r.receipts[rec.ID] = &cp
	return nil
}

func (r *mockRepo) Update(_ context.Context, rec *Receipt) error {
	cp := *rec
	r.receipts[rec.ID] = &cp
	return nil
}

func (r *mockRepo) GetByID(_ context.Context, companyID, receiptID id.ID) (*Receipt, error) {
	rec, ok := r.receipts[receiptID]
	if !ok || rec.CompanyID != companyID {
		return nil, apperror.NewNotFound("receipt", receiptID.String())
	}
	cp := *rec
	return &cp, nil
}

func (r *mockRepo) GetLines(_ context.Context, receiptID id.ID) ([]Line, error) {
	return r.lines[receiptID], nil
}

func (r *mockRepo) SaveLines(_ context.Context, receiptID id.ID, lines []Line) error {
	r.lines[receiptID] = append([]Line(nil), lines...)
	return nil
}

func (r *mockRepo) Delete(_ context.Context, _, receiptID id.ID) error {
	delete(r.receipts, receiptID)
	delete(r.lines, receiptID)
	return nil
}

func (r *mockRepo) List(_ context.Context, companyID id.ID, _ ListFilter) ([]*Receipt, error) {
	var out []*Receipt
	for _, rec := range r.receipts {
		if rec.CompanyID == companyID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// mockOrders serves one purchase order and tracks recompute calls.
type mockOrders struct {
	po         *purchaseorder.PurchaseOrder
	received   map[id.ID]types.Quantity
	recomputes int
	recomputeE error
}

func (o *mockOrders) Get(_ context.Context, companyID, poID id.ID) (*purchaseorder.PurchaseOrder, error) {
	if o.po == nil || o.po.ID != poID || o.po.CompanyID != companyID {
		return nil, apperror.NewNotFound("purchase_order", poID.String())
	}
	return o.po, nil
}

func (o *mockOrders) ReceivedQuantities(context.Context, id.ID, *id.ID) (map[id.ID]types.Quantity, error) {
	return o.received, nil
}

func (o *mockOrders) RecomputeFulfillment(context.Context, id.ID, id.ID) error {
	o.recomputes++
	return o.recomputeE
}

type mockLots struct {
	created []*lot.Lot
	deleted []id.ID
}

func (l *mockLots) CreateLot(_ context.Context, lo *lot.Lot) error {
	if err := lo.CheckInvariant(); err != nil {
		return err
	}
	l.created = append(l.created, lo)
	return nil
}

func (l *mockLots) ListByReceipt(_ context.Context, receiptID id.ID) ([]*lot.Lot, error) {
	var out []*lot.Lot
	for _, lo := range l.created {
		if lo.ReceiptID != nil && *lo.ReceiptID == receiptID && !contains(l.deleted, lo.ID) {
			out = append(out, lo)
		}
	}
	return out, nil
}

func (l *mockLots) DeleteByReceipt(_ context.Context, receiptID id.ID) error {
	for _, lo := range l.created {
		if lo.ReceiptID != nil && *lo.ReceiptID == receiptID {
			l.deleted = append(l.deleted, lo.ID)
		}
	}
	return nil
}

func contains(ids []id.ID, target id.ID) bool {
	for _, v := range ids {
		if v == target {
			return true
		}
	}
	return false
}

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

type fixture struct {
	svc        *Service
	repo       *mockRepo
	orders     *mockOrders
	lots       *mockLots
	companyID  id.ID
	warehouse  id.ID
	materialID id.ID
	po         *purchaseorder.PurchaseOrder
}

func newFixture(orderedQty int64) *fixture {
	companyID := id.New()
	materialID := id.New()

	po := purchaseorder.NewPurchaseOrder(companyID, id.New())
	po.Number = "PO-20250101-0001"
	po.Status = purchaseorder.StatusConfirmed
	po.AddLine(materialID, qty(orderedQty), types.MustMoney("2.50"), "pcs")

	repo := newMockRepo()
	orders := &mockOrders{po: po, received: map[id.ID]types.Quantity{}}
	lots := &mockLots{}
	gen := codes.NewGenerator(&memCodeStore{codes: make(map[string]bool)})

	return &fixture{
		svc:        NewService(repo, orders, lots, gen, nopTxManager{}),
		repo:       repo,
		orders:     orders,
		lots:       lots,
		companyID:  companyID,
		warehouse:  id.New(),
		materialID: materialID,
		po:         po,
	}
}

func (f *fixture) createInput(quantity int64) CreateInput {
	return CreateInput{
		PurchaseOrderID: f.po.ID,
		WarehouseID:     f.warehouse,
		Lines:           []LineInput{{MaterialID: f.materialID, Quantity: qty(quantity)}},
	}
}

func TestCreate_OriginatesLotPerLine(t *testing.T) {
	f := newFixture(100)

	r, err := f.svc.Create(context.Background(), f.companyID, f.createInput(40))
	require.NoError(t, err)

	assert.Regexp(t, `^RC-\d{8}-\d{4}$`, r.Number)
	assert.True(t, r.TotalPrice.Equal(types.MustMoney("100")), "40 x 2.50 priced from the order")

	require.Len(t, f.lots.created, 1)
	l := f.lots.created[0]
	assert.Equal(t, qty(40), l.Quantity)
	assert.Equal(t, qty(40), l.Remain)
	assert.True(t, l.Price.Equal(types.MustMoney("2.50")))
	assert.Equal(t, lot.SourceReceipt, l.Source)
	require.NotNil(t, l.ReceiptID)
	assert.Equal(t, r.ID, *l.ReceiptID)

	assert.Equal(t, 1, f.orders.recomputes)
}

func TestCreate_ExactAllowancePasses(t *testing.T) {
	f := newFixture(100)
	f.orders.received[f.materialID] = qty(60)

	_, err := f.svc.Create(context.Background(), f.companyID, f.createInput(40))
	require.NoError(t, err)
}

func TestCreate_ExceedsOrderByOne(t *testing.T) {
	f := newFixture(100)
	f.orders.received[f.materialID] = qty(60)

	_, err := f.svc.Create(context.Background(), f.companyID, f.createInput(41))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeExceedsOrder, appErr.Code)
	assert.Equal(t, qty(40).String(), appErr.Details["allowance"])
	assert.Empty(t, f.lots.created, "no lot on rejected receipt")
	assert.Zero(t, f.orders.recomputes)
}

func TestCreate_DuplicateMaterialRejected(t *testing.T) {
	f := newFixture(100)

	in := f.createInput(30)
	in.Lines = append(in.Lines, LineInput{MaterialID: f.materialID, Quantity: qty(20)})

	_, err := f.svc.Create(context.Background(), f.companyID, in)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput), "one line per material")
	assert.Empty(t, f.repo.receipts)
	assert.Empty(t, f.lots.created)
}

func TestCreate_MaterialNotOnOrder(t *testing.T) {
	f := newFixture(100)

	in := f.createInput(10)
	in.Lines[0].MaterialID = id.New()

	_, err := f.svc.Create(context.Background(), f.companyID, in)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeExceedsOrder))
}

func TestCreate_DraftOrderRejected(t *testing.T) {
	f := newFixture(100)
	f.po.Status = purchaseorder.StatusDraft

	_, err := f.svc.Create(context.Background(), f.companyID, f.createInput(10))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

func TestCreate_SentOrderRejected(t *testing.T) {
	f := newFixture(100)
	f.po.Status = purchaseorder.StatusSent
	f.orders.received[f.materialID] = qty(100)

	_, err := f.svc.Create(context.Background(), f.companyID, f.createInput(10))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
	assert.Zero(t, f.orders.recomputes, "a sent order never reaches the fulfillment engine")
}

func TestCreate_RejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(100)

	in := f.createInput(0)
	_, err := f.svc.Create(context.Background(), f.companyID, in)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

func TestCreate_RecomputeFailureDoesNotFailReceipt(t *testing.T) {
	f := newFixture(100)
	f.orders.recomputeE = apperror.NewInternal(assert.AnError)

	r, err := f.svc.Create(context.Background(), f.companyID, f.createInput(10))
	require.NoError(t, err)
	assert.Contains(t, f.repo.receipts, r.ID)
}

func TestReplace_ExcludesSelfFromAllowance(t *testing.T) {
	f := newFixture(100)

	r, err := f.svc.Create(context.Background(), f.companyID, f.createInput(100))
	require.NoError(t, err)

	// The mock excludes nothing, so simulate the self-exclusion the real
	// repository performs: received without this receipt is zero.
	f.orders.received = map[id.ID]types.Quantity{}

	updated, err := f.svc.Replace(context.Background(), f.companyID, r.ID, []LineInput{
		{MaterialID: f.materialID, Quantity: qty(80)},
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalPrice.Equal(types.MustMoney("200")))
	assert.Greater(t, updated.Version, r.Version)

	live, err := f.lots.ListByReceipt(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, live, 1, "old lot reversed, one fresh lot")
	assert.Equal(t, qty(80), live[0].Quantity)
}

func TestReplace_RejectedWhenLotIssued(t *testing.T) {
	f := newFixture(100)

	r, err := f.svc.Create(context.Background(), f.companyID, f.createInput(50))
	require.NoError(t, err)

	f.lots.created[0].Issue = qty(5)
	f.lots.created[0].Remain = qty(45)

	_, err = f.svc.Replace(context.Background(), f.companyID, r.ID, []LineInput{
		{MaterialID: f.materialID, Quantity: qty(30)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestDelete_ReversesLots(t *testing.T) {
	f := newFixture(100)

	r, err := f.svc.Create(context.Background(), f.companyID, f.createInput(50))
	require.NoError(t, err)
	recomputesBefore := f.orders.recomputes

	require.NoError(t, f.svc.Delete(context.Background(), f.companyID, r.ID))

	assert.NotContains(t, f.repo.receipts, r.ID)
	live, err := f.lots.ListByReceipt(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Empty(t, live)
	assert.Equal(t, recomputesBefore+1, f.orders.recomputes)
}

func TestReplace_MissingCompanyRejected(t *testing.T) {
	f := newFixture(100)

	_, err := f.svc.Replace(context.Background(), id.Nil(), id.New(), []LineInput{
		{MaterialID: f.materialID, Quantity: qty(10)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeMissingCompany))
}

func TestDelete_MissingCompanyRejected(t *testing.T) {
	f := newFixture(100)

	err := f.svc.Delete(context.Background(), id.Nil(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeMissingCompany))
}

func TestDelete_RejectedWhenLotIssued(t *testing.T) {
	f := newFixture(100)

	r, err := f.svc.Create(context.Background(), f.companyID, f.createInput(50))
	require.NoError(t, err)

	f.lots.created[0].Issue = qty(1)
	f.lots.created[0].Remain = qty(49)

	err = f.svc.Delete(context.Background(), f.companyID, r.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
	assert.Contains(t, f.repo.receipts, r.ID, "receipt survives the rejected delete")
}
