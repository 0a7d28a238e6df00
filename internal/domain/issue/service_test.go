package issue

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/codes"
	"stockpit/internal/domain/lot"
	"stockpit/internal/domain/withdrawal"
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

// memLotRepo is an in-memory lot.Repository so the test exercises the
// real allocation path through lot.Service.
type memLotRepo struct{ lots []*lot.Lot }

func (r *memLotRepo) Create(_ context.Context, l *lot.Lot) error {
	r.lots = append(r.lots, l)
	return nil
}

func (r *memLotRepo) ListAvailableForUpdate(_ context.Context, companyID, warehouseID, materialID id.ID) ([]*lot.Lot, error) {
	var out []*lot.Lot
	for _, l := range r.lots {
		if l.CompanyID == companyID && l.WarehouseID == warehouseID && l.MaterialID == materialID && l.Remain.IsPositive() {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *memLotRepo) ApplyTakes(_ context.Context, takes []lot.Take) error {
	for _, take := range takes {
		for _, l := range r.lots {
			if l.ID == take.LotID {
				l.Remain -= take.Quantity
				l.Issue += take.Quantity
				if err := l.CheckInvariant(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *memLotRepo) ListByReceipt(context.Context, id.ID) ([]*lot.Lot, error) { return nil, nil }
func (r *memLotRepo) DeleteByReceipt(context.Context, id.ID) error            { return nil }

func (r *memLotRepo) ListByMaterial(_ context.Context, companyID, warehouseID, materialID id.ID) ([]*lot.Lot, error) {
	var out []*lot.Lot
	for _, l := range r.lots {
		if l.CompanyID == companyID && l.WarehouseID == warehouseID && l.MaterialID == materialID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLotRepo) ListByWarehouse(context.Context, id.ID, id.ID) ([]*lot.Lot, error) {
	return nil, nil
}

type memIssueRepo struct {
	issues map[id.ID]*Issue
	lines  map[id.ID][]Line
}

func newMemIssueRepo() *memIssueRepo {
	return &memIssueRepo{issues: make(map[id.ID]*Issue), lines: make(map[id.ID][]Line)}
}

func (r *memIssueRepo) Create(_ context.Context, i *Issue) error {
	r.issues[i.ID] = i
	return nil
}

func (r *memIssueRepo) GetByID(_ context.Context, companyID, issueID id.ID) (*Issue, error) {
	i, ok := r.issues[issueID]
	if !ok || i.CompanyID != companyID {
		return nil, apperror.NewNotFound("issue", issueID.String())
	}
	return i, nil
}

func (r *memIssueRepo) GetLines(_ context.Context, issueID id.ID) ([]Line, error) {
	return r.lines[issueID], nil
}

func (r *memIssueRepo) SaveLines(_ context.Context, issueID id.ID, lines []Line) error {
	r.lines[issueID] = append([]Line(nil), lines...)
	return nil
}

func (r *memIssueRepo) List(_ context.Context, companyID id.ID, _ ListFilter) ([]*Issue, error) {
	var out []*Issue
	for _, i := range r.issues {
		if i.CompanyID == companyID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *memIssueRepo) ExistsForRequest(_ context.Context, companyID, requestID id.ID) (bool, error) {
	for _, i := range r.issues {
		if i.CompanyID == companyID && i.RequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

type memRequests struct {
	requests map[id.ID]*withdrawal.Request
}

func (m *memRequests) Get(_ context.Context, companyID, requestID id.ID) (*withdrawal.Request, error) {
	req, ok := m.requests[requestID]
	if !ok || req.CompanyID != companyID {
		return nil, apperror.NewNotFound("withdrawal_request", requestID.String())
	}
	return req, nil
}

func (m *memRequests) MarkIssued(_ context.Context, _, requestID id.ID) error {
	m.requests[requestID].Status = withdrawal.StatusIssued
	return nil
}

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

type fixture struct {
	svc       *Service
	lots      *memLotRepo
	repo      *memIssueRepo
	requests  *memRequests
	companyID id.ID
	warehouse id.ID
}

func newFixture() *fixture {
	lots := &memLotRepo{}
	repo := newMemIssueRepo()
	requests := &memRequests{requests: make(map[id.ID]*withdrawal.Request)}
	gen := codes.NewGenerator(&memCodeStore{codes: make(map[string]bool)})

	return &fixture{
		svc:       NewService(repo, requests, lot.NewService(lots), gen, nopTxManager{}),
		lots:      lots,
		repo:      repo,
		requests:  requests,
		companyID: id.New(),
		warehouse: id.New(),
	}
}

func (f *fixture) seedLot(materialID id.ID, quantity int64, createdAt time.Time) *lot.Lot {
	l := lot.NewLot(f.companyID, f.warehouse, materialID, "L-"+createdAt.Format("150405"), qty(quantity), types.ZeroMoney(), lot.SourceReceipt)
	l.CreatedAt = createdAt
	f.lots.lots = append(f.lots.lots, l)
	return l
}

func (f *fixture) seedRequest(lines ...withdrawal.Line) *withdrawal.Request {
	req := withdrawal.NewRequest(f.companyID, f.warehouse)
	req.Number = "WR-20250101-0001"
	req.Lines = lines
	f.requests.requests[req.ID] = req
	return req
}

func TestCreate_ExpandsLineAcrossLots(t *testing.T) {
	f := newFixture()
	materialID := id.New()
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	older := f.seedLot(materialID, 5, t1)
	newer := f.seedLot(materialID, 10, t1.Add(time.Hour))
	req := f.seedRequest(withdrawal.Line{LineID: id.New(), LineNo: 1, MaterialID: materialID, Quantity: qty(8)})

	doc, err := f.svc.Create(context.Background(), f.companyID, req.ID)
	require.NoError(t, err)

	assert.Regexp(t, `^IS-\d{8}-\d{4}$`, doc.Number)
	require.Len(t, doc.Lines, 2, "one request line, two lots drawn")
	assert.Equal(t, older.ID, doc.Lines[0].LotID)
	assert.Equal(t, qty(5), doc.Lines[0].Quantity)
	assert.Equal(t, newer.ID, doc.Lines[1].LotID)
	assert.Equal(t, qty(3), doc.Lines[1].Quantity)

	assert.Equal(t, qty(0), older.Remain)
	assert.Equal(t, qty(5), older.Issue)
	assert.Equal(t, qty(7), newer.Remain)
	assert.Equal(t, qty(3), newer.Issue)

	assert.Equal(t, withdrawal.StatusIssued, f.requests.requests[req.ID].Status)
}

func TestCreate_ShortfallOnSecondLineAbortsAll(t *testing.T) {
	f := newFixture()
	covered := id.New()
	scarce := id.New()
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	coveredLot := f.seedLot(covered, 50, t1)
	f.seedLot(scarce, 2, t1)
	req := f.seedRequest(
		withdrawal.Line{LineID: id.New(), LineNo: 1, MaterialID: covered, Quantity: qty(10)},
		withdrawal.Line{LineID: id.New(), LineNo: 2, MaterialID: scarce, Quantity: qty(3)},
	)

	_, err := f.svc.Create(context.Background(), f.companyID, req.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, qty(1).String(), appErr.Details["shortfall"])

	assert.Equal(t, qty(50), coveredLot.Remain, "first line planned but never applied")
	assert.Empty(t, f.repo.issues)
	assert.Equal(t, withdrawal.StatusOpen, f.requests.requests[req.ID].Status)
}

func TestCreate_SecondIssueRejected(t *testing.T) {
	f := newFixture()
	materialID := id.New()
	f.seedLot(materialID, 100, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	req := f.seedRequest(withdrawal.Line{LineID: id.New(), LineNo: 1, MaterialID: materialID, Quantity: qty(10)})

	_, err := f.svc.Create(context.Background(), f.companyID, req.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.companyID, req.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyIssued))
	assert.Len(t, f.repo.issues, 1)
}

func TestCreate_IssuedRequestRejected(t *testing.T) {
	f := newFixture()
	req := f.seedRequest(withdrawal.Line{LineID: id.New(), LineNo: 1, MaterialID: id.New(), Quantity: qty(1)})
	req.Status = withdrawal.StatusIssued

	_, err := f.svc.Create(context.Background(), f.companyID, req.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyIssued))
}

func TestCreate_UnknownRequest(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), f.companyID, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
